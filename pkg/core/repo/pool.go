// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo declares the interfaces which the use cases layer
// expects from the database adapters. A Pool lends Conn instances to
// a handler, a Conn may begin a Tx, and each repository (such as the
// Sessions or Rates repositories) wraps a Conn or Tx in order to run
// its own queries on it.
package repo

import "context"

// ConnHandler is called by a Pool with an acquired connection. The
// connection is released after the handler returns.
type ConnHandler func(context.Context, Conn) error

// Pool represents a pool of database connections.
type Pool interface {
	// Conn acquires a connection, passes it to the handler, and
	// releases it afterwards. The handler error is returned.
	Conn(ctx context.Context, handler ConnHandler) error

	// Close closes all connections of the pool.
	Close() error
}

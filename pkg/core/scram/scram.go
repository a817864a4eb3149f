// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram exports the Hasher interface which is required for
// renewing database role passwords without sending them in plaintext.
// The client and server side SCRAM conversations are handled by the
// PostgreSQL server and its driver, so they are not modeled here.
// For the implementation, check the pkg/adapter/hash/scram package.
package scram

// Hasher computes a SCRAM hash string for a password.
type Hasher interface {
	// Hash computes a hash string for the non-empty pass password
	// with the following format:
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	//
	// The salt must be a base64 encoded string, or empty in order to
	// use a random salt. The iters must be at least 4096.
	// The result may be passed to an ALTER ROLE ... PASSWORD query.
	Hash(pass, salt string, iters int) (string, error)
}

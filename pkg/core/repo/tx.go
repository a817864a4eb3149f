// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Tx represents a database transaction.
// It is unsafe to be used concurrently. All statements which are run
// in a single transaction observe the ACID properties. By default, a
// READ-COMMITTED transaction is expected from the PostgreSQL server,
// which is enough for the sessions table because its partial unique
// indexes reject two active sessions for one plate or one spot.
type Tx interface {
	Queryer

	// IsTx method prevents a non-Tx object (such as a Conn) to
	// mistakenly implement the Tx interface.
	IsTx()
}

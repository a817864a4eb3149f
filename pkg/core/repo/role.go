// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Role is a string specifying a database connection role. Each role
// has a set of granted privileges which indicates which operations
// may be performed after using it for connecting to a database.
type Role string

// These constants specify the expected database roles. The AdminRole
// must exist beforehand and must be a super user, so it can create the
// NormalRole. Passwords of both roles are kept in pgpass files which
// are renewed by the database initialization use case.
const (
	// AdminRole is only used for creating the schema and the normal
	// role, granting it privileges, and renewing passwords.
	AdminRole Role = "admin"

	// NormalRole is the unprivileged role which creates the tables
	// and is used by the web server for all sessions and rates queries.
	NormalRole Role = "plweb"
)

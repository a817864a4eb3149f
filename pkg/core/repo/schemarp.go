// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// SchemaConnQueryer interface includes database schema management
// operations which may be executed in a connection.
type SchemaConnQueryer interface {
	SchemaQueryer
}

// SchemaTxQueryer interface includes database schema management
// operations which must be executed in a transaction. The passwords
// renewal is only provided here because it must be committed (or
// rolled back) together with the pgpass file replacement.
type SchemaTxQueryer interface {
	SchemaQueryer

	// ChangePasswords updates the passwords of the given roles. The
	// roles and passwords slices must have the same length and are
	// used in pair. Passwords are hashed before being sent to the
	// database, so they may not leak in plaintext.
	ChangePasswords(ctx context.Context, roles []Role, passwords []string) error
}

// SchemaQueryer interface includes the database schema management
// operations which are required for the database initialization.
// Schema and role names are trusted strings which are provided by
// the configuration file (not end-users).
type SchemaQueryer interface {
	// CreateSchemaIfNotExists creates the `schema` schema, if it is
	// missing. An existing schema is kept with its contents.
	CreateSchemaIfNotExists(ctx context.Context, schema string) error

	// CreateRoleIfNotExists creates the `role` role with the login
	// option, if it is missing. No password is set for it.
	CreateRoleIfNotExists(ctx context.Context, role Role) error

	// GrantPrivileges grants ALL privileges on the `schema` schema to
	// the `role` role, so it may create tables in it.
	GrantPrivileges(ctx context.Context, schema string, role Role) error

	// SetSearchPath sets the default search_path of the `role` role
	// to the `schema` schema alone.
	SetSearchPath(ctx context.Context, schema string, role Role) error

	// CreateTables creates the sessions and profiles tables and their
	// indexes in the current search_path, if they are missing.
	CreateTables(ctx context.Context) error
}

// Schema interface represents a database schema management repository.
type Schema interface {
	Conn(Conn) SchemaConnQueryer
	Tx(Tx) SchemaTxQueryer
}

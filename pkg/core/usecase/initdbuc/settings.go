// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package initdbuc

import (
	"context"

	"github.com/momeni/parklot/pkg/core/repo"
)

// Settings represents the database-related settings which should be
// provided by a configuration file. It allows a database connection
// pool to be established for an asked role using the ConnectionPool
// method, may be used as a factory for the repo.Schema, and can change
// passwords of a set of database roles while storing the new passwords
// in relevant files (with the atomic updating considerations).
type Settings interface {
	// ConnectionPool creates a database connection pool using the
	// connection information which are kept in this Settings instance.
	// The `r` argument specifies the role name for the created pool.
	//
	// Password values are kept in files in a specific password dir
	// and creation of a connection pool depends on identification of
	// a valid password for the given role and the database host, port,
	// and name which are taken from this Settings instance.
	// Each non-empty and non-commented line of the passwords file
	// should conform with this format:
	//
	//	host:port:dbname:role:password
	//
	// For sake of atomic passwords updating operations, a second
	// temporary passwords file may be created in order to hold the new
	// values of passwords. Therefore, even in case of a failed
	// initialization, either old or new passwords from the main or
	// temporary passwords file may be used to connect to the database.
	// If such a temporary passwords file was used for establishment of
	// a connection pool, it will be moved to the main passwords file
	// before returning.
	ConnectionPool(ctx context.Context, r repo.Role) (repo.Pool, error)

	// NewSchemaRepo instantiates a fresh Schema repository.
	// Role names may be optionally suffixed based on the settings and
	// in that case, repo.Role role names which are passed to the
	// ConnectionPool method or RenewPasswords will be suffixed
	// automatically. Since the Schema repository has methods for
	// creation of roles or asking to grant specific privileges to
	// them, it needs to obtain the same role name suffix.
	NewSchemaRepo() repo.Schema

	// SchemaName returns the name of the schema which keeps the
	// sessions and profiles tables.
	SchemaName() string

	// RenewPasswords generates new secure passwords for the given roles
	// and after recording them in a temporary file, will use the change
	// function in order to update the passwords of those roles in the
	// database too. The change function argument should perform the
	// update operation in a transaction which may or may not be
	// committed when RenewPasswords returns. In case of a successful
	// commitment, the temporary passwords file should be moved over
	// the main passwords file, as known in the current Settings
	// instance (so it may be used for the future calls to the
	// ConnectionPool method). This final file movement can be performed
	// using the returned finalizer function.
	RenewPasswords(
		ctx context.Context,
		change func(
			ctx context.Context,
			roles []repo.Role,
			passwords []string,
		) error,
		roles ...repo.Role,
	) (finalizer func() error, err error)
}

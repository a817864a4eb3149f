// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package initdbuc contains the database initialization use case which
// prepares an empty database for the web server. It creates the schema
// and the normal role using the admin role, renews the passwords of
// both roles, and then creates the sessions and profiles tables using
// the normal role (so they are owned by it).
package initdbuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/repo"
)

// UseCase represents the database initialization use case.
type UseCase struct {
	settings   Settings    // target settings
	schemaRepo repo.Schema // schema management repo
}

// New creates a UseCase instance, using the `ss` settings in order
// to find the target database connection information. The repo.Schema
// repo will be taken from the `ss` in order to be used for creating
// the schema and normal role, granting it privileges on that schema,
// renewing the passwords of admin and normal roles, and creating the
// tables.
func New(ss Settings) *UseCase {
	return &UseCase{
		settings:   ss,
		schemaRepo: ss.NewSchemaRepo(),
	}
}

// InitDB creates the schema (if it does not exist), creates the normal
// role (if it does not exist), grants privileges on the schema to the
// normal role so it can create tables, and renews passwords of both
// admin and normal roles. These operations will be performed using the
// admin role in a single transaction and coordinated with password
// files so they can be repeated in case of an abrupt failure as
// elaborated in docs of the Settings.RenewPasswords method.
// Thereafter, it connects to the target database using the normal role
// and completes its operation (in a second transaction) by creating
// all relevant tables. Existing tables and their rows are kept, so
// InitDB may be repeated safely.
func (uc *UseCase) InitDB(ctx context.Context) error {
	if err := uc.prepareSchema(ctx); err != nil {
		return fmt.Errorf("preparing schema: %w", err)
	}
	p, err := uc.settings.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for normal role: %w", err)
	}
	defer p.Close()
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return uc.schemaRepo.Tx(tx).CreateTables(ctx)
		})
	})
	if err != nil {
		return fmt.Errorf("normal connection: %w", err)
	}
	log.Info(
		ctx, "database is initialized",
		slog.String("schema", uc.settings.SchemaName()),
	)
	return nil
}

func (uc *UseCase) prepareSchema(ctx context.Context) error {
	p, err := uc.settings.ConnectionPool(ctx, repo.AdminRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for admin: %w", err)
	}
	defer p.Close()
	sn := uc.settings.SchemaName()
	var finalizer func() error
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.schemaRepo.Tx(tx)
			if err := q.CreateSchemaIfNotExists(ctx, sn); err != nil {
				return fmt.Errorf("creating %q: %w", sn, err)
			}
			if err := q.CreateRoleIfNotExists(
				ctx, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("creating normal role: %w", err)
			}
			if err := q.GrantPrivileges(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("granting normal role privs: %w", err)
			}
			if err := q.SetSearchPath(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf(
					"setting search_path of normal role to %q: %w",
					sn, err,
				)
			}
			var err error
			finalizer, err = uc.settings.RenewPasswords(
				ctx, q.ChangePasswords, repo.AdminRole, repo.NormalRole,
			)
			if err != nil {
				return fmt.Errorf("RenewPasswords: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("admin connection: %w", err)
	}
	if err := finalizer(); err != nil {
		return fmt.Errorf("finalizing passwords renewal: %w", err)
	}
	return nil
}

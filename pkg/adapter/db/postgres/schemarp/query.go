// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemarp

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/scram"
)

// PasswordIterations is the SCRAM iterations count of renewed
// passwords, as recommended by RFC 7677.
const PasswordIterations = 15000

//go:embed schema.sql
var schemaSQL string

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func roleName(roleSuffix, role repo.Role) string {
	return string(role) + string(roleSuffix)
}

// CreateSchemaIfNotExists creates the `schema` schema if it does not
// exist. An existing schema is kept with its contents.
func CreateSchemaIfNotExists[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident(schema))
	return err
}

// CreateRoleIfNotExists creates the `role` role if it does not
// exist right now. Although the login option is enabled for the
// created role, but no specific password will be set for it.
// The ChangePasswords function may be used for setting a password.
//
// The `role` role name may be suffixed by `roleSuffix` if it is not
// empty. This is useful to have distinct role names if repo.Role
// predefined constants are not desirable.
func CreateRoleIfNotExists[Q postgres.Queryer](
	ctx context.Context, q Q, roleSuffix repo.Role, role repo.Role,
) error {
	name := roleName(roleSuffix, role)
	var n int64
	err := q.GORM(ctx).Raw(
		"SELECT count(*) FROM pg_roles WHERE rolname = ?", name,
	).Scan(&n).Error
	if err != nil {
		return fmt.Errorf("looking up role: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = q.Exec(ctx, "CREATE ROLE "+ident(name)+" WITH LOGIN")
	return err
}

// GrantPrivileges grants ALL privileges on the `schema` schema
// to the `role` role, so it may create or access tables in that schema
// and run relevant queries.
func GrantPrivileges[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		"GRANT ALL PRIVILEGES ON SCHEMA %s TO %s",
		ident(schema), ident(roleName(roleSuffix, role)),
	))
	return err
}

// SetSearchPath alters the given database role and sets its default
// search_path to the given schema name alone.
func SetSearchPath[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		"ALTER ROLE %s SET search_path TO %s",
		ident(roleName(roleSuffix, role)), ident(schema),
	))
	return err
}

// CreateTables creates the parking_sessions and profiles tables and
// their indexes in the current search_path if they do not exist.
func CreateTables[Q postgres.Queryer](ctx context.Context, q Q) error {
	_, err := q.Exec(ctx, schemaSQL)
	return err
}

// ChangePasswords updates the passwords of the given roles in the
// current transaction. The roles and passwords slices must have the
// same number of entries, so they can be used in pair.
//
// The `roles` role names may be suffixed by `roleSuffix` if it is not
// empty. The `hasher` will be used for hashing of the `passwords`
// before sending them to the DBMS (so they may not leak in plaintext).
func ChangePasswords(
	ctx context.Context,
	tx *postgres.Tx,
	roleSuffix repo.Role,
	hasher scram.Hasher,
	roles []repo.Role,
	passwords []string,
) error {
	if len(roles) != len(passwords) {
		return fmt.Errorf(
			"%d roles do not match %d passwords",
			len(roles), len(passwords),
		)
	}
	if hasher == nil {
		return errors.New("no password hasher is configured")
	}
	for i, role := range roles {
		h, err := hasher.Hash(passwords[i], "", PasswordIterations)
		if err != nil {
			return fmt.Errorf("hashing password of %q: %w", role, err)
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(
			"ALTER ROLE %s PASSWORD '%s'",
			ident(roleName(roleSuffix, role)),
			strings.ReplaceAll(h, "'", "''"),
		))
		if err != nil {
			return fmt.Errorf("altering role %q: %w", role, err)
		}
	}
	return nil
}

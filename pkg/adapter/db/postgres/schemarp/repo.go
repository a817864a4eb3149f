// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schemarp provides a reification of the repo.Schema interface
// making it possible to create the schema, the normal role, and the
// tables, or to renew the passwords of the database roles.
package schemarp

import (
	"context"

	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/scram"
)

// Repo represents a schema management repository.
type Repo struct {
	roleSuffix repo.Role
	hasher     scram.Hasher
}

// New instantiates a schema management Repo struct. Role names which
// are passed to its methods are suffixed by roleSuffix (if it is not
// empty) and hasher is used by ChangePasswords.
func New(roleSuffix repo.Role, hasher scram.Hasher) *Repo {
	return &Repo{roleSuffix: roleSuffix, hasher: hasher}
}

type connQueryer struct {
	*postgres.Conn
	r *Repo
}

// Conn unwraps the given repo.Conn instance, expecting to find an
// instance of *postgres.Conn as created by this adapter layer.
// Otherwise, it will panic.
func (schema *Repo) Conn(c repo.Conn) repo.SchemaConnQueryer {
	return connQueryer{Conn: c.(*postgres.Conn), r: schema}
}

func (cq connQueryer) CreateSchemaIfNotExists(
	ctx context.Context, schema string,
) error {
	return CreateSchemaIfNotExists(ctx, cq.Conn, schema)
}

func (cq connQueryer) CreateRoleIfNotExists(
	ctx context.Context, role repo.Role,
) error {
	return CreateRoleIfNotExists(ctx, cq.Conn, cq.r.roleSuffix, role)
}

func (cq connQueryer) GrantPrivileges(
	ctx context.Context, schema string, role repo.Role,
) error {
	return GrantPrivileges(ctx, cq.Conn, cq.r.roleSuffix, schema, role)
}

func (cq connQueryer) SetSearchPath(
	ctx context.Context, schema string, role repo.Role,
) error {
	return SetSearchPath(ctx, cq.Conn, cq.r.roleSuffix, schema, role)
}

func (cq connQueryer) CreateTables(ctx context.Context) error {
	return CreateTables(ctx, cq.Conn)
}

type txQueryer struct {
	*postgres.Tx
	r *Repo
}

// Tx unwraps the given repo.Tx instance, expecting to find an instance
// of *postgres.Tx as created by this adapter layer. Otherwise, it will
// panic. Passwords may only be changed in a transaction, so they are
// not visible until the caller commits.
func (schema *Repo) Tx(tx repo.Tx) repo.SchemaTxQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx), r: schema}
}

func (tq txQueryer) CreateSchemaIfNotExists(
	ctx context.Context, schema string,
) error {
	return CreateSchemaIfNotExists(ctx, tq.Tx, schema)
}

func (tq txQueryer) CreateRoleIfNotExists(
	ctx context.Context, role repo.Role,
) error {
	return CreateRoleIfNotExists(ctx, tq.Tx, tq.r.roleSuffix, role)
}

func (tq txQueryer) GrantPrivileges(
	ctx context.Context, schema string, role repo.Role,
) error {
	return GrantPrivileges(ctx, tq.Tx, tq.r.roleSuffix, schema, role)
}

func (tq txQueryer) SetSearchPath(
	ctx context.Context, schema string, role repo.Role,
) error {
	return SetSearchPath(ctx, tq.Tx, tq.r.roleSuffix, schema, role)
}

func (tq txQueryer) CreateTables(ctx context.Context) error {
	return CreateTables(ctx, tq.Tx)
}

func (tq txQueryer) ChangePasswords(
	ctx context.Context, roles []repo.Role, passwords []string,
) error {
	return ChangePasswords(
		ctx, tq.Tx, tq.r.roleSuffix, tq.r.hasher, roles, passwords,
	)
}

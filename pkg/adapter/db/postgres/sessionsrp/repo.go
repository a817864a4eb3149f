// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionsrp provides a reification of the repo.Sessions
// interface, keeping the parking sessions of all users in the
// parking_sessions table.
package sessionsrp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
)

// Repo represents the sessions repository.
type Repo struct {
}

// New instantiates a sessions Repo struct.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

// Conn unwraps the given repo.Conn instance, expecting to find an
// instance of *postgres.Conn as created by this adapter layer.
// Otherwise, it will panic.
func (sessions *Repo) Conn(c repo.Conn) repo.SessionsConnQueryer {
	return connQueryer{Conn: c.(*postgres.Conn)}
}

func (cq connQueryer) ListActive(ctx context.Context, userID uuid.UUID) ([]model.SessionRecord, error) {
	return ListActive(ctx, cq.Conn, userID)
}

func (cq connQueryer) FindActiveByPlate(ctx context.Context, userID uuid.UUID, plate string) ([]model.SessionRecord, error) {
	return FindActiveByPlate(ctx, cq.Conn, userID, plate)
}

func (cq connQueryer) Insert(ctx context.Context, userID uuid.UUID, r model.SessionRecord) (*model.SessionRecord, error) {
	return Insert(ctx, cq.Conn, userID, r)
}

func (cq connQueryer) Close(ctx context.Context, userID uuid.UUID, spotID int, sessionID uuid.UUID, cost model.Money, exit time.Time) error {
	return Close(ctx, cq.Conn, userID, spotID, sessionID, cost, exit)
}

func (cq connQueryer) Summarize(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.Report, error) {
	return Summarize(ctx, cq.Conn, userID, from, to)
}

type txQueryer struct {
	*postgres.Tx
}

// Tx unwraps the given repo.Tx instance, expecting to find an instance
// of *postgres.Tx as created by this adapter layer. Otherwise, it will
// panic.
func (sessions *Repo) Tx(tx repo.Tx) repo.SessionsTxQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx)}
}

func (tq txQueryer) ListActive(ctx context.Context, userID uuid.UUID) ([]model.SessionRecord, error) {
	return ListActive(ctx, tq.Tx, userID)
}

func (tq txQueryer) FindActiveByPlate(ctx context.Context, userID uuid.UUID, plate string) ([]model.SessionRecord, error) {
	return FindActiveByPlate(ctx, tq.Tx, userID, plate)
}

func (tq txQueryer) Insert(ctx context.Context, userID uuid.UUID, r model.SessionRecord) (*model.SessionRecord, error) {
	return Insert(ctx, tq.Tx, userID, r)
}

func (tq txQueryer) Close(ctx context.Context, userID uuid.UUID, spotID int, sessionID uuid.UUID, cost model.Money, exit time.Time) error {
	return Close(ctx, tq.Tx, userID, spotID, sessionID, cost, exit)
}

func (tq txQueryer) Summarize(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.Report, error) {
	return Summarize(ctx, tq.Tx, userID, from, to)
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ratesrp provides a reification of the repo.Rates interface,
// keeping the hourly rates of each user in the profiles table.
package ratesrp

import (
	"context"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
)

// Repo represents the rates repository.
type Repo struct {
}

// New instantiates a rates Repo struct.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (rates *Repo) Conn(c repo.Conn) repo.RatesConnQueryer {
	return connQueryer{Conn: c.(*postgres.Conn)}
}

func (cq connQueryer) Read(ctx context.Context, userID uuid.UUID) (model.Rates, bool, error) {
	return Read(ctx, cq.Conn, userID)
}

func (cq connQueryer) Write(ctx context.Context, userID uuid.UUID, r model.Rates) error {
	return Write(ctx, cq.Conn, userID, r)
}

type txQueryer struct {
	*postgres.Tx
}

func (rates *Repo) Tx(tx repo.Tx) repo.RatesTxQueryer {
	return txQueryer{Tx: tx.(*postgres.Tx)}
}

func (tq txQueryer) Read(ctx context.Context, userID uuid.UUID) (model.Rates, bool, error) {
	return Read(ctx, tq.Tx, userID)
}

func (tq txQueryer) Write(ctx context.Context, userID uuid.UUID, r model.Rates) error {
	return Write(ctx, tq.Tx, userID, r)
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
)

// SessionsConnQueryer is the sessions queryer which wraps a Conn.
type SessionsConnQueryer interface {
	SessionsQueryer
}

// SessionsTxQueryer is the sessions queryer which wraps a Tx.
type SessionsTxQueryer interface {
	SessionsQueryer
}

// SessionsQueryer is the durable record of check-in and check-out
// events of every user. It is the source of truth which is restored
// by a lot reconciliation.
type SessionsQueryer interface {
	// ListActive returns all active sessions of the userID user,
	// ordered by their spot ids.
	ListActive(ctx context.Context, userID uuid.UUID) ([]model.SessionRecord, error)

	// FindActiveByPlate returns active sessions of the userID user
	// having the given normalized plate (at most one is expected).
	FindActiveByPlate(ctx context.Context, userID uuid.UUID, plate string) ([]model.SessionRecord, error)

	// Insert stores r as a new active session. The r.ID is assigned
	// by Insert if it is uuid.Nil and the stored record is returned.
	// If another active session has the same plate, an error which
	// wraps a *model.DuplicatePlateError is returned and if the spot
	// has another active session, model.ErrSpotTaken is wrapped.
	Insert(ctx context.Context, userID uuid.UUID, r model.SessionRecord) (*model.SessionRecord, error)

	// Close finalizes the active session of the spotID spot, storing
	// its exit time and final cost. If the spot has no active session
	// with the sessionID id, model.ErrAlreadyEmpty is wrapped and
	// returned.
	Close(ctx context.Context, userID uuid.UUID, spotID int, sessionID uuid.UUID, cost model.Money, exit time.Time) error

	// Summarize reports the active sessions count and the completed
	// sessions aggregations for those closed in the [from, to) range.
	Summarize(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.Report, error)
}

// Sessions is the sessions repository.
type Sessions interface {
	Conn(Conn) SessionsConnQueryer
	Tx(Tx) SessionsTxQueryer
}

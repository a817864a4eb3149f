// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
)

// Reconciler replaces the occupancy of a registry with the active
// sessions of the sessions store, which is the source of truth.
type Reconciler struct {
	userID   uuid.UUID
	pool     repo.Pool
	sessions repo.Sessions
	registry *Registry
	rates    *RateConfig
	billing  model.BillingModel
	now      func() time.Time
	interval time.Duration
	observer Observer

	mu     sync.Mutex  // one resync at a time
	passMu *sync.Mutex // shared with TickEngine, guards recompute+replace
}

// Resync reads the active sessions of the user and replaces the whole
// occupancy of the registry with them, recomputing their elapsed time
// and cost as of now. Spots without an active session become empty.
// If the store can not be read, the registry is left untouched and a
// cerr.Unavailable error wrapping model.ErrStoreUnavailable is
// returned after being reported to the observer.
// The recompute and replace step excludes TickEngine passes and reads
// the rates after the clock, so a rates change which completes before
// Resync returns is never overwritten by costs of the older rates.
func (rc *Reconciler) Resync(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	var recs []model.SessionRecord
	err := rc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		recs, err = rc.sessions.Conn(c).ListActive(ctx, rc.userID)
		return err
	})
	if err != nil {
		rc.observer.ResyncFailed(rc.userID, err)
		log.Warn(
			ctx, "resync is skipped",
			log.UserID(rc.userID), log.Err("err", err),
		)
		return cerr.Unavailable(fmt.Errorf(
			"%w: listing active sessions: %w",
			model.ErrStoreUnavailable, err,
		))
	}
	now := rc.now()
	rc.passMu.Lock()
	r := rc.rates.Current()
	sessions := make(map[int]*model.Session, len(recs))
	for _, rec := range recs {
		sessions[rec.SpotID] = derive(rec.Session(), now, r, rc.billing)
	}
	skipped := rc.registry.Replace(sessions)
	rc.passMu.Unlock()
	if len(skipped) > 0 {
		log.Warn(
			ctx, "active sessions do not fit in the lot",
			log.UserID(rc.userID), slog.Any("spots", skipped),
		)
	}
	rc.observer.Resynced(rc.userID, len(recs))
	log.Debug(
		ctx, "resynced", log.UserID(rc.userID), slog.Int("active", len(recs)),
	)
	return nil
}

// Run calls Resync on every tick of the reconciler interval until ctx
// is done. Failed passes are only reported, so they never stop Run.
func (rc *Reconciler) Run(ctx context.Context) error {
	t := time.NewTicker(rc.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := rc.Resync(ctx); err != nil && ctx.Err() != nil {
				return nil
			}
		}
	}
}

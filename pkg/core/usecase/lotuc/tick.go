// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/model"
)

// EngineState is the state of a TickEngine.
type EngineState int32

// A TickEngine is Idle until its Run method is called and returns to
// Idle when Run returns.
const (
	Idle EngineState = iota
	Running
)

// String returns "idle" or "running".
func (s EngineState) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// TickEngine recomputes the elapsed time and cost of every occupied
// spot of a registry on a fixed cadence, and once more whenever the
// rates change. Passes never overlap, and a pass which raced with a
// registry replacement is discarded.
type TickEngine struct {
	userID   uuid.UUID
	registry *Registry
	rates    *RateConfig
	billing  model.BillingModel
	now      func() time.Time
	interval time.Duration
	observer Observer

	passMu sync.Mutex
	active atomic.Bool
	state  atomic.Int32
}

// State returns the current state of the engine.
func (te *TickEngine) State() EngineState {
	return EngineState(te.state.Load())
}

// Pass performs one recomputation pass over the occupied spots, using
// the current rates and time, and returns the number of spots which
// were recomputed. A lot without occupied spots makes a no-op pass.
func (te *TickEngine) Pass(ctx context.Context) int {
	te.passMu.Lock()
	defer te.passMu.Unlock()
	start := time.Now()
	gen, spots := te.registry.Snapshot()
	r := te.rates.Current()
	now := te.now()
	for i, s := range spots {
		spots[i].Session = derive(s.Session, now, r, te.billing)
	}
	if !te.registry.Apply(gen, spots) {
		log.Debug(
			ctx, "recomputation discarded by a resync",
			log.UserID(te.userID),
		)
	}
	te.observer.Recomputed(te.userID, len(spots), time.Since(start))
	return len(spots)
}

// Run subscribes to the rates changes, moves the engine to the Running
// state, and recomputes all spots immediately, on every tick of its
// interval, and after each rates change, until ctx is done. Before
// returning, the ticker is stopped and the rates listener is
// unsubscribed, so no pass may start after Run returns. It fails if
// the engine is already running.
func (te *TickEngine) Run(ctx context.Context) error {
	if !te.active.CompareAndSwap(false, true) {
		return errors.New("tick engine is already running")
	}
	defer te.active.Store(false)
	unsubscribe := te.rates.Subscribe(func(model.Rates) {
		te.Pass(ctx)
	})
	defer unsubscribe()
	te.state.Store(int32(Running))
	defer te.state.Store(int32(Idle))
	t := time.NewTicker(te.interval)
	defer t.Stop()
	te.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			te.Pass(ctx)
		}
	}
}

// derive returns a copy of s with its elapsed time and cost computed
// as of now.
func derive(
	s *model.Session, now time.Time, r model.Rates, b model.BillingModel,
) *model.Session {
	minutes, seconds := model.Elapsed(s.EntryTime, now)
	return s.WithDerived(minutes, seconds, b.Cost(minutes, s.Class, r))
}

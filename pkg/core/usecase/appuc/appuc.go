// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package appuc contains the application UseCase which maintains one
// lot use case object per authenticated user. Lots are created lazily
// (on the first request of each user), opened by restoring their
// occupancy from the sessions store, and started so they keep their
// costs up to date. They may be closed individually (when a user logs
// out) or all together (when the application shuts down), so the
// resources packages only need to ask this use case for the lot of
// the current user right before using it.
package appuc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
)

// ErrShuttingDown indicates that no lot may be opened anymore.
var ErrShuttingDown = errors.New("application is shutting down")

// UseCase represents an application use case. It holds a database
// connection pool and the repository instances which are required by
// the lot use cases, so it can pass them to a Builder (which is
// realized by the effective Config instance) in order to create a lot
// use case object for each user.
type UseCase struct {
	ctx          context.Context // lots run until it is done
	pool         repo.Pool
	sessionsRepo repo.Sessions
	ratesRepo    repo.Rates
	builder      Builder

	// mutex is used by Lot in order to ensure that only one go routine
	// may open a lot at any time, hence, two concurrent first requests
	// of one user may not create two lots. Opening a lot requires a few
	// queries, so lots which are opened already are looked up while
	// holding the following rwlock alone.
	mutex sync.Mutex

	// rwlock is locked for writing whenever the lots map is changed,
	// while it is locked for reading by the getter methods.
	rwlock sync.RWMutex

	lots     map[uuid.UUID]*lotuc.UseCase
	shutdown bool
}

// New instantiates an application use case object. The created lots
// keep running until ctx is done or they are closed by the Close or
// Shutdown methods.
func New(
	ctx context.Context,
	p repo.Pool,
	s repo.Sessions,
	r repo.Rates,
	b Builder,
) (*UseCase, error) {
	if b == nil {
		return nil, errors.New("nil builder")
	}
	return &UseCase{
		ctx:          ctx,
		pool:         p,
		sessionsRepo: s,
		ratesRepo:    r,
		builder:      b,
		lots:         make(map[uuid.UUID]*lotuc.UseCase),
	}, nil
}

// Settings returns the lot settings which are used for creation of new
// lot use case objects.
func (app *UseCase) Settings() model.LotSettings {
	return app.builder.LotSettings()
}

// Lot returns the lot use case of the userID user, creating, opening,
// and starting it if it does not exist yet.
func (app *UseCase) Lot(
	ctx context.Context, userID uuid.UUID,
) (*lotuc.UseCase, error) {
	if lot, err := app.lookup(userID); lot != nil || err != nil {
		return lot, err
	}
	app.mutex.Lock()
	defer app.mutex.Unlock()
	if lot, err := app.lookup(userID); lot != nil || err != nil {
		return lot, err
	}
	lot, err := app.builder.NewLotUseCase(
		app.pool, app.sessionsRepo, app.ratesRepo, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lot use case: %w", err)
	}
	if err = lot.Open(ctx); err != nil {
		return nil, fmt.Errorf("opening lot: %w", err)
	}
	if err = lot.Start(app.ctx); err != nil {
		return nil, fmt.Errorf("starting lot: %w", err)
	}
	app.rwlock.Lock()
	defer app.rwlock.Unlock()
	if app.shutdown {
		// Shutdown did not see this lot, so it has to be stopped here.
		_ = lot.Stop()
		return nil, cerr.Unavailable(ErrShuttingDown)
	}
	app.lots[userID] = lot
	log.Info(ctx, "lot is opened", log.UserID(userID))
	return lot, nil
}

func (app *UseCase) lookup(userID uuid.UUID) (*lotuc.UseCase, error) {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	if app.shutdown {
		return nil, cerr.Unavailable(ErrShuttingDown)
	}
	return app.lots[userID], nil
}

// Lots returns the number of open lots.
func (app *UseCase) Lots() int {
	app.rwlock.RLock()
	defer app.rwlock.RUnlock()
	return len(app.lots)
}

// Close stops and forgets the lot of the userID user, so it may not
// recompute or reconcile anymore. Its sessions are kept in the store,
// so a later request of the same user opens it again. Closing a user
// without an open lot is a no-op.
func (app *UseCase) Close(userID uuid.UUID) error {
	app.rwlock.Lock()
	lot, ok := app.lots[userID]
	delete(app.lots, userID)
	app.rwlock.Unlock()
	if !ok {
		return nil
	}
	if err := lot.Stop(); err != nil {
		return fmt.Errorf("stopping lot of %s: %w", userID, err)
	}
	return nil
}

// Shutdown stops all lots and prevents new lots from being opened.
func (app *UseCase) Shutdown() error {
	app.rwlock.Lock()
	lots := app.lots
	app.lots = make(map[uuid.UUID]*lotuc.UseCase)
	app.shutdown = true
	app.rwlock.Unlock()
	var errs []error
	for userID, lot := range lots {
		if err := lot.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("lot of %s: %w", userID, err))
		}
	}
	return errors.Join(errs...)
}

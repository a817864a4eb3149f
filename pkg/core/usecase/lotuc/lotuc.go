// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lotuc contains the lot UseCase which manages the spots of
// one user's parking lot. It allocates spots to vehicles and releases
// them (persisting each change in the sessions store before applying
// it in memory), keeps the elapsed time and cost of parked vehicles up
// to date with a TickEngine, and periodically reconciles the in-memory
// Registry with the sessions store using a Reconciler.
package lotuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
	"golang.org/x/sync/errgroup"
)

// UseCase represents the lot use case of one user. It holds a database
// connection pool, the sessions and rates repositories, and the lot
// settings. Its recomputation and reconciliation loops are started by
// Start and stopped by Stop.
type UseCase struct {
	userID       uuid.UUID
	pool         repo.Pool
	sessionsRepo repo.Sessions
	ratesRepo    repo.Rates

	cars, motorcycles int
	tickInterval      time.Duration
	resyncInterval    time.Duration
	billing           model.BillingModel
	defaultRates      *model.Rates
	now               func() time.Time
	observer          Observer

	registry   *Registry
	rates      *RateConfig
	tick       *TickEngine
	reconciler *Reconciler

	ratesMu sync.Mutex // serializes UpdateRates calls

	runMu  sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New instantiates the lot use case of the userID user.
// Required parameters are passed individually, while optional ones
// are passed as functional options. Spots count defaults to 30 car and
// 30 motorcycle spots, ticks run every 10 seconds, resyncs every
// 5 minutes, and the prorated billing model is used.
func New(
	p repo.Pool,
	s repo.Sessions,
	r repo.Rates,
	userID uuid.UUID,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{
		userID:       userID,
		pool:         p,
		sessionsRepo: s,
		ratesRepo:    r,
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.cars == 0 && uc.motorcycles == 0 {
		uc.cars, uc.motorcycles = 30, 30
	}
	if uc.tickInterval == 0 {
		uc.tickInterval = 10 * time.Second
	}
	if uc.resyncInterval == 0 {
		uc.resyncInterval = 5 * time.Minute
	}
	if uc.billing == model.BillingInvalid {
		uc.billing = model.BillingProrated
	}
	if uc.defaultRates == nil {
		dr := model.DefaultRates
		uc.defaultRates = &dr
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.observer == nil {
		uc.observer = nopObserver{}
	}
	uc.registry = NewRegistry(uc.cars, uc.motorcycles)
	uc.rates = NewRateConfig(*uc.defaultRates)
	uc.tick = &TickEngine{
		userID:   userID,
		registry: uc.registry,
		rates:    uc.rates,
		billing:  uc.billing,
		now:      uc.now,
		interval: uc.tickInterval,
		observer: uc.observer,
	}
	uc.reconciler = &Reconciler{
		userID:   userID,
		pool:     p,
		sessions: s,
		registry: uc.registry,
		rates:    uc.rates,
		billing:  uc.billing,
		now:      uc.now,
		interval: uc.resyncInterval,
		observer: uc.observer,
		passMu:   &uc.tick.passMu,
	}
	return uc, nil
}

// UserID returns the owner of this lot.
func (lot *UseCase) UserID() uuid.UUID {
	return lot.userID
}

// Settings returns the effective lot settings.
func (lot *UseCase) Settings() model.LotSettings {
	return model.LotSettings{
		CarSpots:        lot.cars,
		MotorcycleSpots: lot.motorcycles,
		TickInterval:    lot.tickInterval,
		ResyncInterval:  lot.resyncInterval,
		Billing:         lot.billing,
		DefaultRates:    *lot.defaultRates,
	}
}

// Open loads the user rates (keeping the default rates if the user has
// none) and restores the occupancy from the sessions store. Failing to
// read the rates is returned as an error, while a failed resync is only
// logged because the next periodic resync may succeed.
func (lot *UseCase) Open(ctx context.Context) error {
	var r model.Rates
	var found bool
	err := lot.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		r, found, err = lot.ratesRepo.Conn(c).Read(ctx, lot.userID)
		return err
	})
	if err != nil {
		return storeErr("reading rates", err)
	}
	if found {
		lot.rates.Set(r)
	}
	_ = lot.reconciler.Resync(ctx)
	return nil
}

// Start runs the TickEngine and the periodic Reconciler in background
// goroutines until ctx is done or Stop is called. The ctx should
// outlive individual requests.
func (lot *UseCase) Start(ctx context.Context) error {
	lot.runMu.Lock()
	defer lot.runMu.Unlock()
	if lot.cancel != nil {
		return errors.New("lot is already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return lot.tick.Run(gctx)
	})
	g.Go(func() error {
		return lot.reconciler.Run(gctx)
	})
	lot.cancel, lot.group = cancel, g
	log.Info(ctx, "lot is started", log.UserID(lot.userID))
	return nil
}

// Stop cancels the background loops and waits for them, so no
// recomputation or reconciliation may happen after Stop returns.
// Stopping a lot which is not started is a no-op.
func (lot *UseCase) Stop() error {
	lot.runMu.Lock()
	defer lot.runMu.Unlock()
	if lot.cancel == nil {
		return nil
	}
	lot.cancel()
	err := lot.group.Wait()
	lot.cancel, lot.group = nil, nil
	log.Info(context.Background(), "lot is stopped", log.UserID(lot.userID))
	return err
}

// State reports if the recomputation engine is running.
func (lot *UseCase) State() EngineState {
	return lot.tick.State()
}

// Park use case allocates the lowest-id empty spot of the class vehicle
// class for the given plate and records a new session with the given
// phone number. The plate and phone are validated and normalized first.
// The plate may not have another active session, neither in memory nor
// in the sessions store (which covers sessions started by other
// clients). The session is stored before it is attached to the spot,
// so a store failure leaves the lot unchanged.
func (lot *UseCase) Park(
	ctx context.Context, class model.VehicleClass, plate, phone string,
) (*model.Spot, error) {
	if err := class.Validate(); err != nil {
		return nil, cerr.BadRequest(err)
	}
	if err := model.ValidatePlate(plate); err != nil {
		return nil, cerr.BadRequest(err)
	}
	if err := model.ValidatePhone(phone); err != nil {
		return nil, cerr.BadRequest(err)
	}
	p, ph := model.NormalizePlate(plate), model.NormalizePhone(phone)
	id, err := lot.registry.Reserve(class, p)
	if err != nil {
		return nil, cerr.Conflict(err)
	}
	committed := false
	defer func() {
		if !committed {
			lot.registry.Cancel(id)
		}
	}()
	rec := model.SessionRecord{
		ID:        uuid.New(),
		SpotID:    id,
		Plate:     p,
		Phone:     ph,
		Class:     class,
		EntryTime: lot.now(),
	}
	var stored *model.SessionRecord
	err = lot.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := lot.sessionsRepo.Tx(tx)
			found, err := q.FindActiveByPlate(ctx, lot.userID, p)
			if err != nil {
				return fmt.Errorf("finding active sessions: %w", err)
			}
			if len(found) > 0 {
				return &model.DuplicatePlateError{
					Plate: p, SpotID: found[0].SpotID,
				}
			}
			stored, err = q.Insert(ctx, lot.userID, rec)
			return err
		})
	})
	switch {
	case errors.Is(err, model.ErrDuplicatePlate),
		errors.Is(err, model.ErrSpotTaken):
		return nil, cerr.Conflict(err)
	case err != nil:
		return nil, storeErr("storing session", err)
	}
	if err = lot.registry.Commit(id, stored.Session()); err != nil {
		return nil, fmt.Errorf("committing spot %d: %w", id, err)
	}
	committed = true
	lot.observer.Parked(lot.userID, class)
	log.Info(
		ctx, "parked",
		log.UserID(lot.userID), log.Spot(id), log.Plate(p),
	)
	spot, err := lot.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

// Release use case finalizes the session of the spotID spot. The cost
// is recomputed at the release instant (not taken from the last tick),
// stored in the sessions store along with the exit time, and then the
// spot becomes empty and available again. A receipt describing the
// finished session is returned.
func (lot *UseCase) Release(
	ctx context.Context, spotID int,
) (*model.Receipt, error) {
	s, err := lot.registry.Checkout(spotID)
	if err != nil {
		return nil, registryErr(err)
	}
	exit := lot.now()
	final := derive(s, exit, lot.rates.Current(), lot.billing)
	err = lot.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return lot.sessionsRepo.Conn(c).Close(
			ctx, lot.userID, spotID, s.ID, final.Cost, exit,
		)
	})
	switch {
	case errors.Is(err, model.ErrAlreadyEmpty):
		// released by another client, so drop the stale session too
		lot.registry.Vacate(spotID, s.ID)
		return nil, cerr.Conflict(&model.SpotError{SpotID: spotID, Err: err})
	case err != nil:
		lot.registry.Cancel(spotID)
		return nil, storeErr("closing session", err)
	}
	lot.registry.Vacate(spotID, s.ID)
	lot.observer.Released(lot.userID, s.Class, final.Cost)
	log.Info(
		ctx, "released",
		log.UserID(lot.userID), log.Spot(spotID), log.Plate(s.Plate),
		log.Valuer("cost", final.Cost),
	)
	return &model.Receipt{
		SpotID:    spotID,
		Plate:     s.Plate,
		Phone:     s.Phone,
		Class:     s.Class,
		EntryTime: s.EntryTime,
		ExitTime:  exit,
		Minutes:   final.Minutes,
		Cost:      final.Cost,
	}, nil
}

// Search returns the occupied spots whose plate matches the normalized
// form of plate. No match results in an empty slice.
func (lot *UseCase) Search(plate string) []model.Spot {
	return lot.registry.FindByPlate(plate)
}

// Spots lists the spots of the given classes, or all spots if no class
// is given, in ascending id order.
func (lot *UseCase) Spots(classes ...model.VehicleClass) []model.Spot {
	return lot.registry.List(classes...)
}

// Spot returns the spotID spot.
func (lot *UseCase) Spot(spotID int) (*model.Spot, error) {
	s, err := lot.registry.Get(spotID)
	if err != nil {
		return nil, registryErr(err)
	}
	return &s, nil
}

// Occupancy counts the total and occupied spots of each vehicle class.
func (lot *UseCase) Occupancy() []model.Occupancy {
	occ := make([]model.Occupancy, 0, len(model.VehicleClasses))
	for _, c := range model.VehicleClasses {
		o := model.Occupancy{Class: c}
		for _, s := range lot.registry.List(c) {
			o.Total++
			if s.Occupied() {
				o.Occupied++
			}
		}
		occ = append(occ, o)
	}
	return occ
}

// Rates returns the effective hourly rates.
func (lot *UseCase) Rates() model.Rates {
	return lot.rates.Current()
}

// UpdateRates validates and stores the r rates and then makes them
// effective. If the lot is started, all occupied spots are recomputed
// with the new rates before UpdateRates returns. If they can not be
// stored, the previous rates remain in effect.
func (lot *UseCase) UpdateRates(
	ctx context.Context, r model.Rates,
) (model.Rates, error) {
	if err := r.Validate(); err != nil {
		return model.Rates{}, cerr.BadRequest(err)
	}
	lot.ratesMu.Lock()
	defer lot.ratesMu.Unlock()
	err := lot.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return lot.ratesRepo.Conn(c).Write(ctx, lot.userID, r)
	})
	if err != nil {
		return model.Rates{}, storeErr("writing rates", err)
	}
	lot.rates.Set(r)
	log.Info(
		ctx, "rates are updated",
		log.UserID(lot.userID),
		log.Valuer("car", r.Car), log.Valuer("motorcycle", r.Motorcycle),
	)
	return r, nil
}

// Resync replaces the lot occupancy with the active sessions of the
// sessions store on demand (in addition to the periodic resyncs).
func (lot *UseCase) Resync(ctx context.Context) error {
	return lot.reconciler.Resync(ctx)
}

// Recompute runs one recomputation pass immediately and returns the
// number of recomputed spots.
func (lot *UseCase) Recompute(ctx context.Context) int {
	return lot.tick.Pass(ctx)
}

// Report aggregates the user sessions. Only sessions which were closed
// in the [from, to) range are considered for completed sessions.
func (lot *UseCase) Report(
	ctx context.Context, from, to time.Time,
) (*model.Report, error) {
	if !from.Before(to) {
		return nil, cerr.BadRequest(fmt.Errorf(
			"from (%s) is not before to (%s)",
			from.Format(time.RFC3339), to.Format(time.RFC3339),
		))
	}
	var rep *model.Report
	err := lot.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		var err error
		rep, err = lot.sessionsRepo.Conn(c).Summarize(
			ctx, lot.userID, from, to,
		)
		return err
	})
	if err != nil {
		return nil, storeErr("summarizing sessions", err)
	}
	log.Debug(
		ctx, "report is prepared",
		log.UserID(lot.userID), slog.Int64("completed", rep.Completed),
	)
	return rep, nil
}

func storeErr(op string, err error) error {
	return cerr.Unavailable(fmt.Errorf(
		"%w: %s: %w", model.ErrStoreUnavailable, op, err,
	))
}

func registryErr(err error) error {
	switch {
	case errors.Is(err, model.ErrSpotNotFound):
		return cerr.NotFound(err)
	case errors.Is(err, model.ErrAlreadyEmpty),
		errors.Is(err, model.ErrSpotBusy):
		return cerr.Conflict(err)
	default:
		return err
	}
}

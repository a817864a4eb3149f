// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memstore is an internal helper for the test packages.
// It provides an in-memory implementation of the repo.Pool, and the
// sessions and rates repositories, so use cases may be tested without
// a real PostgreSQL DBMS server. Failures of the store may be injected
// with the Fail method and sessions of other clients may be simulated
// with the AddActive and CloseActive methods.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
)

// ErrOffline is the default error which is returned by a failed Store.
var ErrOffline = errors.New("store is offline")

// ErrNotSupported is returned by the raw Exec and Query methods.
var ErrNotSupported = errors.New("raw queries are not supported")

type record struct {
	userID uuid.UUID
	rec    model.SessionRecord
	exit   *time.Time
	cost   model.Money
}

// Store keeps the sessions and rates of all users in memory.
// Transactions are serialized and are not rolled back, which suffices
// for the use cases which perform their writes at the end of a Tx.
type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	sessions []*record
	rates    map[uuid.UUID]model.Rates
	failure  error
	calls    int
}

// New creates an empty and online Store.
func New() *Store {
	return &Store{rates: make(map[uuid.UUID]model.Rates)}
}

// Fail makes all later operations to fail with err. Passing nil makes
// the store online again.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

// Calls returns the number of repository operations performed so far.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// AddActive stores r as an active session of userID user, bypassing
// the uniqueness checks, as if another client has parked a vehicle.
func (s *Store) AddActive(userID uuid.UUID, r model.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.sessions = append(s.sessions, &record{userID: userID, rec: r})
}

// CloseActive closes the active session of the spotID spot of userID
// user with a zero cost, as if another client has released it.
func (s *Store) CloseActive(userID uuid.UUID, spotID int, exit time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.sessions {
		if r.userID == userID && r.exit == nil && r.rec.SpotID == spotID {
			r.exit = &exit
			r.cost = model.Zero
		}
	}
}

// Closed returns the closed sessions of userID user, with their costs,
// in the closing order.
func (s *Store) Closed(userID uuid.UUID) (recs []model.SessionRecord, costs []model.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.sessions {
		if r.userID == userID && r.exit != nil {
			recs = append(recs, r.rec)
			costs = append(costs, r.cost)
		}
	}
	return recs, costs
}

func (s *Store) begin() error {
	s.calls++
	return s.failure
}

// Conn passes a connection to the handler, unless the store is failed.
func (s *Store) Conn(ctx context.Context, handler repo.ConnHandler) error {
	s.mu.Lock()
	err := s.begin()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return handler(ctx, &Conn{s: s})
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Conn implements the repo.Conn interface.
type Conn struct {
	s *Store
}

// Exec is not supported.
func (c *Conn) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrNotSupported
}

// Query is not supported.
func (c *Conn) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, ErrNotSupported
}

// Tx runs handler while holding the store transactions lock.
func (c *Conn) Tx(ctx context.Context, handler repo.TxHandler) error {
	c.s.txMu.Lock()
	defer c.s.txMu.Unlock()
	return handler(ctx, &Tx{s: c.s})
}

// IsConn marks Conn as a repo.Conn.
func (c *Conn) IsConn() {
}

// Tx implements the repo.Tx interface.
type Tx struct {
	s *Store
}

// Exec is not supported.
func (tx *Tx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrNotSupported
}

// Query is not supported.
func (tx *Tx) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, ErrNotSupported
}

// IsTx marks Tx as a repo.Tx.
func (tx *Tx) IsTx() {
}

func storeOf(q any) *Store {
	switch v := q.(type) {
	case *Conn:
		return v.s
	case *Tx:
		return v.s
	default:
		panic("memstore: foreign queryer")
	}
}

// Sessions implements the repo.Sessions interface.
type Sessions struct{}

// Conn returns a sessions queryer which works on c.
func (Sessions) Conn(c repo.Conn) repo.SessionsConnQueryer {
	return sessionsQueryer{s: storeOf(c)}
}

// Tx returns a sessions queryer which works on tx.
func (Sessions) Tx(tx repo.Tx) repo.SessionsTxQueryer {
	return sessionsQueryer{s: storeOf(tx)}
}

type sessionsQueryer struct {
	s *Store
}

func (q sessionsQueryer) ListActive(
	_ context.Context, userID uuid.UUID,
) ([]model.SessionRecord, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return nil, err
	}
	var recs []model.SessionRecord
	for _, r := range q.s.sessions {
		if r.userID == userID && r.exit == nil {
			recs = append(recs, r.rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].SpotID < recs[j].SpotID
	})
	return recs, nil
}

func (q sessionsQueryer) FindActiveByPlate(
	_ context.Context, userID uuid.UUID, plate string,
) ([]model.SessionRecord, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return nil, err
	}
	var recs []model.SessionRecord
	for _, r := range q.s.sessions {
		if r.userID == userID && r.exit == nil && r.rec.Plate == plate {
			recs = append(recs, r.rec)
		}
	}
	return recs, nil
}

func (q sessionsQueryer) Insert(
	_ context.Context, userID uuid.UUID, rec model.SessionRecord,
) (*model.SessionRecord, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return nil, err
	}
	for _, r := range q.s.sessions {
		if r.userID != userID || r.exit != nil {
			continue
		}
		if r.rec.Plate == rec.Plate {
			return nil, &model.DuplicatePlateError{
				Plate: rec.Plate, SpotID: r.rec.SpotID,
			}
		}
		if r.rec.SpotID == rec.SpotID {
			return nil, &model.SpotError{
				SpotID: rec.SpotID, Err: model.ErrSpotTaken,
			}
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	q.s.sessions = append(q.s.sessions, &record{userID: userID, rec: rec})
	return &rec, nil
}

func (q sessionsQueryer) Close(
	_ context.Context,
	userID uuid.UUID,
	spotID int,
	sessionID uuid.UUID,
	cost model.Money,
	exit time.Time,
) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return err
	}
	for _, r := range q.s.sessions {
		if r.userID == userID && r.exit == nil &&
			r.rec.SpotID == spotID && r.rec.ID == sessionID {
			r.exit, r.cost = &exit, cost
			return nil
		}
	}
	return &model.SpotError{SpotID: spotID, Err: model.ErrAlreadyEmpty}
}

func (q sessionsQueryer) Summarize(
	_ context.Context, userID uuid.UUID, from, to time.Time,
) (*model.Report, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return nil, err
	}
	rep := &model.Report{From: from, To: to, Revenue: model.Zero}
	var totalMinutes float64
	for _, r := range q.s.sessions {
		if r.userID != userID {
			continue
		}
		if r.exit == nil {
			rep.Active++
			continue
		}
		if r.exit.Before(from) || !r.exit.Before(to) {
			continue
		}
		rep.Completed++
		rep.Revenue = model.MoneyFromDecimal(rep.Revenue.Add(r.cost.Decimal))
		totalMinutes += r.exit.Sub(r.rec.EntryTime).Minutes()
	}
	if rep.Completed > 0 {
		avg := totalMinutes / float64(rep.Completed)
		rep.AverageMinutes = &avg
	}
	return rep, nil
}

// Rates implements the repo.Rates interface.
type Rates struct{}

// Conn returns a rates queryer which works on c.
func (Rates) Conn(c repo.Conn) repo.RatesConnQueryer {
	return ratesQueryer{s: storeOf(c)}
}

// Tx returns a rates queryer which works on tx.
func (Rates) Tx(tx repo.Tx) repo.RatesTxQueryer {
	return ratesQueryer{s: storeOf(tx)}
}

type ratesQueryer struct {
	s *Store
}

func (q ratesQueryer) Read(
	_ context.Context, userID uuid.UUID,
) (model.Rates, bool, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return model.Rates{}, false, err
	}
	r, ok := q.s.rates[userID]
	return r, ok, nil
}

func (q ratesQueryer) Write(
	_ context.Context, userID uuid.UUID, r model.Rates,
) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	if err := q.s.begin(); err != nil {
		return err
	}
	q.s.rates[userID] = r
	return nil
}

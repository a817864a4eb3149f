// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
)

// Registry is the fixed collection of spots of one lot. It is created
// with N1 car spots (ids 1..N1) followed by N2 motorcycle spots (ids
// N1+1..N1+N2) and its spots are never added or removed.
//
// All mutations replace a whole Spot record under the registry mutex,
// and published Session values are never modified, so readers which
// obtained a Spot never observe a torn update.
//
// A spot may be reserved by an in-flight park or release operation.
// Reserved spots are skipped by the allocation and can not be released
// again, so two concurrent operations never pick the same spot while
// they are waiting for the sessions store. A park reservation also
// holds its normalized plate, so the same plate may not be parked
// twice concurrently.
//
// The generation counter is incremented by Replace. A recomputation
// pass which took its snapshot before a Replace is discarded by Apply.
type Registry struct {
	mu         sync.Mutex
	spots      []model.Spot
	reserved   map[int]string // spot id -> plate of a pending park, or ""
	generation uint64
}

// NewRegistry creates a registry having `cars` car spots and
// `motorcycles` motorcycle spots, all of them empty.
func NewRegistry(cars, motorcycles int) *Registry {
	spots := make([]model.Spot, 0, cars+motorcycles)
	for i := 0; i < cars; i++ {
		spots = append(spots, model.Spot{ID: len(spots) + 1, Class: model.Car})
	}
	for i := 0; i < motorcycles; i++ {
		spots = append(spots, model.Spot{
			ID: len(spots) + 1, Class: model.Motorcycle,
		})
	}
	return &Registry{spots: spots, reserved: make(map[int]string)}
}

func (r *Registry) spot(id int) (*model.Spot, error) {
	if id < 1 || id > len(r.spots) {
		return nil, &model.SpotError{SpotID: id, Err: model.ErrSpotNotFound}
	}
	return &r.spots[id-1], nil
}

// List returns copies of all spots in ascending id order. If classes
// are given, only spots of those classes are returned.
func (r *Registry) List(classes ...model.VehicleClass) []model.Spot {
	r.mu.Lock()
	defer r.mu.Unlock()
	spots := make([]model.Spot, 0, len(r.spots))
	for _, s := range r.spots {
		if matchesClass(s.Class, classes) {
			spots = append(spots, s)
		}
	}
	return spots
}

func matchesClass(c model.VehicleClass, classes []model.VehicleClass) bool {
	if len(classes) == 0 {
		return true
	}
	for _, cc := range classes {
		if cc == c {
			return true
		}
	}
	return false
}

// Get returns a copy of the id spot.
func (r *Registry) Get(id int) (model.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.spot(id)
	if err != nil {
		return model.Spot{}, err
	}
	return *s, nil
}

// SetOccupied attaches the s session to the id spot, replacing any
// previous session. The session class must match the spot class.
func (r *Registry) SetOccupied(id int, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setOccupied(id, s)
}

func (r *Registry) setOccupied(id int, s *model.Session) error {
	sp, err := r.spot(id)
	if err != nil {
		return err
	}
	if s.Class != sp.Class {
		return fmt.Errorf(
			"spot %d is a %s spot, but session is for a %s",
			id, sp.Class, s.Class,
		)
	}
	*sp = model.Spot{ID: sp.ID, Class: sp.Class, Session: s}
	return nil
}

// SetEmpty detaches the session of the id spot. It fails with
// model.ErrAlreadyEmpty if the spot has no session.
func (r *Registry) SetEmpty(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.spot(id)
	if err != nil {
		return err
	}
	if sp.Session == nil {
		return &model.SpotError{SpotID: id, Err: model.ErrAlreadyEmpty}
	}
	*sp = model.Spot{ID: sp.ID, Class: sp.Class}
	return nil
}

// UpdateDerived replaces the session of the id spot with a copy having
// the given derived fields. The update is only applied if the spot
// still holds the sessionID session, so a value which was computed for
// a released (or replaced) session is dropped. It reports if the update
// was applied.
func (r *Registry) UpdateDerived(
	id int, sessionID uuid.UUID, minutes, seconds int64, cost model.Money,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateDerived(id, sessionID, minutes, seconds, cost)
}

func (r *Registry) updateDerived(
	id int, sessionID uuid.UUID, minutes, seconds int64, cost model.Money,
) (bool, error) {
	sp, err := r.spot(id)
	if err != nil {
		return false, err
	}
	if sp.Session == nil || sp.Session.ID != sessionID {
		return false, nil
	}
	*sp = model.Spot{
		ID:      sp.ID,
		Class:   sp.Class,
		Session: sp.Session.WithDerived(minutes, seconds, cost),
	}
	return true, nil
}

// FindByPlate returns the occupied spots whose session plate matches
// the normalized form of plate. An empty result is not an error.
func (r *Registry) FindByPlate(plate string) []model.Spot {
	p := model.NormalizePlate(plate)
	r.mu.Lock()
	defer r.mu.Unlock()
	var spots []model.Spot
	for _, s := range r.spots {
		if s.Session != nil && s.Session.Plate == p {
			spots = append(spots, s)
		}
	}
	return spots
}

// Reserve selects the lowest-id empty and unreserved spot of the class
// vehicle class for the normalized plate and reserves it. It fails if
// the plate is already parked (or is being parked) in any spot of any
// class, or if all spots of that class are occupied or reserved.
// A successful reservation must be followed by a Commit or Cancel.
func (r *Registry) Reserve(class model.VehicleClass, plate string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spots {
		if s.Session != nil && s.Session.Plate == plate {
			return 0, &model.DuplicatePlateError{Plate: plate, SpotID: s.ID}
		}
	}
	for id, p := range r.reserved {
		if p != "" && p == plate {
			return 0, &model.DuplicatePlateError{Plate: plate, SpotID: id}
		}
	}
	for _, s := range r.spots {
		if s.Class != class || s.Session != nil {
			continue
		}
		if _, ok := r.reserved[s.ID]; ok {
			continue
		}
		r.reserved[s.ID] = plate
		return s.ID, nil
	}
	return 0, fmt.Errorf("%s: %w", class, model.ErrNoSpotAvailable)
}

// Commit attaches the s session to the id spot which was reserved by
// Reserve and removes the reservation.
func (r *Registry) Commit(id int, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, id)
	return r.setOccupied(id, s)
}

// Cancel removes the reservation of the id spot without changing it.
func (r *Registry) Cancel(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, id)
}

// Checkout reserves the occupied id spot for a release operation and
// returns its current session. It fails if the spot is unknown, empty,
// or is already reserved by another operation.
func (r *Registry) Checkout(id int) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.spot(id)
	if err != nil {
		return nil, err
	}
	if _, ok := r.reserved[id]; ok {
		return nil, &model.SpotError{SpotID: id, Err: model.ErrSpotBusy}
	}
	if sp.Session == nil {
		return nil, &model.SpotError{SpotID: id, Err: model.ErrAlreadyEmpty}
	}
	r.reserved[id] = ""
	return sp.Session, nil
}

// Vacate completes a release which was started by Checkout. The spot
// is emptied only if it still holds the sessionID session (a Replace
// may have changed it meanwhile) and the reservation is removed.
func (r *Registry) Vacate(id int, sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, id)
	sp, err := r.spot(id)
	if err != nil || sp.Session == nil || sp.Session.ID != sessionID {
		return
	}
	*sp = model.Spot{ID: sp.ID, Class: sp.Class}
}

// Snapshot returns the current generation and copies of the occupied
// spots, so a recomputation pass may compute their derived fields
// without holding the registry mutex.
func (r *Registry) Snapshot() (uint64, []model.Spot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var occupied []model.Spot
	for _, s := range r.spots {
		if s.Session != nil {
			occupied = append(occupied, s)
		}
	}
	return r.generation, occupied
}

// Apply writes the derived fields of the given spots sessions back
// into the registry, as computed from a Snapshot of the `generation`
// generation. If the registry was replaced since then, nothing is
// applied and false is returned. Spots whose sessions changed since
// the snapshot are skipped individually.
func (r *Registry) Apply(generation uint64, spots []model.Spot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.generation {
		return false
	}
	for _, s := range spots {
		_, _ = r.updateDerived(
			s.ID, s.Session.ID,
			s.Session.Minutes, s.Session.Seconds, s.Session.Cost,
		)
	}
	return true
}

// Replace empties every spot and then attaches each session of the
// sessions map (keyed by spot id) to its spot, as a full replacement
// of the occupancy view. Reservations of in-flight operations are
// kept. Sessions which do not fit in the registry (unknown spot ids or
// mismatching classes) are skipped and their spot ids are returned.
func (r *Registry) Replace(sessions map[int]*model.Session) (skipped []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	for i := range r.spots {
		r.spots[i] = model.Spot{ID: r.spots[i].ID, Class: r.spots[i].Class}
	}
	for id, s := range sessions {
		if err := r.setOccupied(id, s); err != nil {
			skipped = append(skipped, id)
		}
	}
	sort.Ints(skipped)
	return skipped
}

// Generation returns the number of Replace calls so far.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
//
// Spots, sessions, and rates of a parking lot are modeled here along
// with the pure billing formulas and the license plate and phone
// number normalization rules.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Spot is a single parking location. Its ID and Class never change.
// A nil Session means that the spot is empty.
//
// Spot values are copied out of the registry and a non-nil Session
// pointer refers to a Session which is never modified after being
// published, so a Spot may be read freely without any locking.
type Spot struct {
	ID      int
	Class   VehicleClass
	Session *Session
}

// Occupied reports if a vehicle is parked in the spot.
func (s Spot) Occupied() bool {
	return s.Session != nil
}

// Session records one vehicle's stay in one spot. The Plate and Phone
// fields keep the normalized forms. EntryTime is immutable, while the
// Minutes, Seconds, and Cost fields are derived from it and the current
// rates on every recomputation (by creating a new Session value).
type Session struct {
	ID        uuid.UUID
	Plate     string
	Phone     string
	Class     VehicleClass
	EntryTime time.Time

	Minutes int64 // whole minutes since EntryTime
	Seconds int64 // remaining seconds, in 0..59
	Cost    Money // cost of Minutes under the effective billing model
}

// WithDerived returns a copy of s having the given derived fields.
func (s *Session) WithDerived(minutes, seconds int64, cost Money) *Session {
	ss := *s
	ss.Minutes, ss.Seconds, ss.Cost = minutes, seconds, cost
	return &ss
}

// SessionRecord is the durable form of an active session as kept by
// the sessions store. Only the entry time is stored, derived fields
// are recomputed whenever a record is loaded.
type SessionRecord struct {
	ID        uuid.UUID
	SpotID    int
	Plate     string
	Phone     string
	Class     VehicleClass
	EntryTime time.Time
}

// Session converts the record into a fresh Session with zero derived
// fields.
func (r SessionRecord) Session() *Session {
	return &Session{
		ID:        r.ID,
		Plate:     r.Plate,
		Phone:     r.Phone,
		Class:     r.Class,
		EntryTime: r.EntryTime,
		Cost:      Zero,
	}
}

// Receipt describes a finished session after releasing its spot.
type Receipt struct {
	SpotID    int
	Plate     string
	Phone     string
	Class     VehicleClass
	EntryTime time.Time
	ExitTime  time.Time
	Minutes   int64
	Cost      Money
}

// Occupancy counts the spots of one vehicle class.
type Occupancy struct {
	Class    VehicleClass
	Total    int
	Occupied int
}

// Free returns the number of empty spots.
func (o Occupancy) Free() int {
	return o.Total - o.Occupied
}

// Report aggregates sessions of one user. Active counts the currently
// open sessions, while the other fields only consider sessions which
// were closed in the [From, To) time range. AverageMinutes is nil when
// no session was closed in that range.
type Report struct {
	From, To       time.Time
	Active         int64
	Completed      int64
	Revenue        Money
	AverageMinutes *float64
}

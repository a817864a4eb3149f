// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// These errors describe why a parking operation was rejected. They
// are wrapped (and possibly converted to a cerr.Error) by the use
// cases layer, so callers should check them with errors.Is.
var (
	ErrDuplicatePlate   = errors.New("license plate is already parked")
	ErrNoSpotAvailable  = errors.New("no spot is available")
	ErrSpotNotFound     = errors.New("spot not found")
	ErrAlreadyEmpty     = errors.New("spot is already empty")
	ErrSpotBusy         = errors.New("spot has an operation in progress")
	ErrSpotTaken        = errors.New("spot is taken by another session")
	ErrStoreUnavailable = errors.New("sessions store is unavailable")
)

// DuplicatePlateError reports the spot which already holds an active
// session for a license plate. The SpotID is zero if the conflicting
// session is only known to exist, but its spot could not be found.
type DuplicatePlateError struct {
	Plate  string
	SpotID int
}

// Error implements the error interface.
func (e *DuplicatePlateError) Error() string {
	if e.SpotID == 0 {
		return fmt.Sprintf("%s: %s", ErrDuplicatePlate, FormatPlate(e.Plate))
	}
	return fmt.Sprintf(
		"%s: %s at spot %d", ErrDuplicatePlate, FormatPlate(e.Plate), e.SpotID,
	)
}

// Is makes errors.Is(err, ErrDuplicatePlate) true for a
// *DuplicatePlateError.
func (e *DuplicatePlateError) Is(target error) bool {
	return target == ErrDuplicatePlate
}

// SpotError attaches a spot id to one of the above sentinel errors.
type SpotError struct {
	SpotID int
	Err    error
}

// Error implements the error interface.
func (e *SpotError) Error() string {
	return fmt.Sprintf("spot %d: %s", e.SpotID, e.Err)
}

// Unwrap returns the wrapped sentinel error.
func (e *SpotError) Unwrap() error {
	return e.Err
}

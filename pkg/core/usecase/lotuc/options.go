// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/parklot/pkg/core/model"
)

// Option is a functional option for the lot use case.
type Option func(uc *UseCase) error

// WithSpots configures the number of car and motorcycle spots.
func WithSpots(cars, motorcycles int) Option {
	return func(uc *UseCase) error {
		switch {
		case cars < 0 || motorcycles < 0:
			return fmt.Errorf(
				"negative spots count (cars=%d, motorcycles=%d)",
				cars, motorcycles,
			)
		case cars+motorcycles == 0:
			return errors.New("a lot needs at least one spot")
		case uc.cars != 0 || uc.motorcycles != 0:
			return errors.New("spots are already configured")
		}
		uc.cars, uc.motorcycles = cars, motorcycles
		return nil
	}
}

// WithTickInterval configures the cadence of the regular
// recomputation passes.
func WithTickInterval(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d <= 0 {
			return fmt.Errorf("tick interval (%s) is not positive", d)
		}
		if uc.tickInterval != 0 {
			return errors.New("tick interval is already configured")
		}
		uc.tickInterval = d
		return nil
	}
}

// WithResyncInterval configures the period of reconciliations with
// the sessions store.
func WithResyncInterval(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d <= 0 {
			return fmt.Errorf("resync interval (%s) is not positive", d)
		}
		if uc.resyncInterval != 0 {
			return errors.New("resync interval is already configured")
		}
		uc.resyncInterval = d
		return nil
	}
}

// WithBillingModel configures the formula which is used by all cost
// computations of the lot.
func WithBillingModel(b model.BillingModel) Option {
	return func(uc *UseCase) error {
		if err := b.Validate(); err != nil {
			return err
		}
		if uc.billing != model.BillingInvalid {
			return errors.New("billing model is already configured")
		}
		uc.billing = b
		return nil
	}
}

// WithDefaultRates configures the rates of a user who has not stored
// own rates yet.
func WithDefaultRates(r model.Rates) Option {
	return func(uc *UseCase) error {
		if err := r.Validate(); err != nil {
			return err
		}
		if uc.defaultRates != nil {
			return errors.New("default rates are already configured")
		}
		uc.defaultRates = &r
		return nil
	}
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("nil clock")
		}
		uc.now = now
		return nil
	}
}

// WithObserver registers an observer for the lot events.
func WithObserver(o Observer) Option {
	return func(uc *UseCase) error {
		if o == nil {
			return errors.New("nil observer")
		}
		uc.observer = o
		return nil
	}
}

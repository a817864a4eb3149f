// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxHourlyRate is the inclusive upper bound of an hourly rate.
// Rates must also be strictly positive.
var MaxHourlyRate = MustMoney("100")

// ErrInvalidRate indicates an hourly rate out of the (0, 100] range.
var ErrInvalidRate = errors.New("invalid hourly rate")

// Rates holds the hourly rate of each vehicle class. A Rates value is
// always replaced as a whole, so readers never observe a car rate from
// one update and a motorcycle rate from another.
type Rates struct {
	Car        Money `json:"car_hourly_rate"`
	Motorcycle Money `json:"motorcycle_hourly_rate"`
}

// DefaultRates are used for users who never stored their own rates
// and no other defaults were configured.
var DefaultRates = Rates{
	Car:        MustMoney("3.00"),
	Motorcycle: MustMoney("2.00"),
}

// For returns the hourly rate of the given vehicle class.
// Invalid classes cause a panic.
func (r Rates) For(class VehicleClass) Money {
	switch class {
	case Car:
		return r.Car
	case Motorcycle:
		return r.Motorcycle
	default:
		panic(VehicleClassError(class))
	}
}

// Validate ensures that both rates are in the (0, 100] range.
func (r Rates) Validate() error {
	if err := validateRate(r.Car); err != nil {
		return fmt.Errorf("car: %w", err)
	}
	if err := validateRate(r.Motorcycle); err != nil {
		return fmt.Errorf("motorcycle: %w", err)
	}
	return nil
}

func validateRate(m Money) error {
	if m.Cmp(decimal.Zero) <= 0 || m.Cmp(MaxHourlyRate.Decimal) > 0 {
		return fmt.Errorf(
			"%w: %s is not in (0, %s]", ErrInvalidRate, m, MaxHourlyRate,
		)
	}
	if !m.Equal(m.Round()) {
		return fmt.Errorf(
			"%w: %s has more than 2 decimal places",
			ErrInvalidRate, m.Decimal,
		)
	}
	return nil
}

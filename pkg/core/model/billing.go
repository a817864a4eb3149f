// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BillingModel selects the formula which turns an elapsed parking time
// into a cost. Exactly one model is in effect for a lot and it is used
// by every recomputation (regular ticks, rate changes, reconciliations,
// and releases), so all of them agree on the owed amount.
type BillingModel int

// Valid values for the BillingModel enum.
const (
	BillingInvalid BillingModel = iota // zero value is invalid

	// BillingProrated charges hourlyRate * minutes / 60, rounded to
	// cents, with no minimum charge.
	BillingProrated

	// BillingHourly charges every started hour and at least one hour,
	// i.e., max(ceil(minutes / 60), 1) * hourlyRate.
	BillingHourly
)

// ErrUnknownBillingModel indicates that a string is not a known
// billing model name.
var ErrUnknownBillingModel = errors.New("unknown billing model")

// BillingModelError indicates an invalid numeric billing model.
type BillingModelError int

// Error implements the error interface.
func (e BillingModelError) Error() string {
	return fmt.Sprintf("invalid billing model: %d", e)
}

// Validate returns nil if BillingModel value is valid.
func (b BillingModel) Validate() error {
	switch b {
	case BillingProrated, BillingHourly:
		return nil
	default:
		return BillingModelError(b)
	}
}

// String converts the BillingModel enum to a string.
// Invalid billing models cause a panic.
func (b BillingModel) String() string {
	switch b {
	case BillingProrated:
		return "prorated"
	case BillingHourly:
		return "hourly"
	default:
		panic(BillingModelError(b))
	}
}

// ParseBillingModel parses "prorated" or "hourly".
func ParseBillingModel(b string) (BillingModel, error) {
	switch b {
	case "prorated":
		return BillingProrated, nil
	case "hourly":
		return BillingHourly, nil
	default:
		return BillingInvalid, ErrUnknownBillingModel
	}
}

var sixty = decimal.NewFromInt(60)

// Cost computes the owed amount for a vehicle of the given class which
// has been parked for `minutes` whole minutes, using the hourly rate of
// that class from `r`. Negative minutes are treated as zero.
// The result only depends on the arguments, so recomputing it from the
// same entry time and the same instant always yields the same amount,
// and it never decreases while minutes grow for a fixed rate.
func (b BillingModel) Cost(minutes int64, class VehicleClass, r Rates) Money {
	if minutes < 0 {
		minutes = 0
	}
	rate := r.For(class).Decimal
	m := decimal.NewFromInt(minutes)
	switch b {
	case BillingProrated:
		return Money{Decimal: rate.Mul(m).Div(sixty).Round(2)}
	case BillingHourly:
		hours := (minutes + 59) / 60
		if hours < 1 {
			hours = 1
		}
		return Money{Decimal: rate.Mul(decimal.NewFromInt(hours)).Round(2)}
	default:
		panic(BillingModelError(b))
	}
}

// Elapsed returns the whole minutes and the remaining seconds (0..59)
// between the entry and now instants. If now precedes entry, because
// of clock irregularities between clients and the store, zero values
// are returned instead of negative ones.
func Elapsed(entry, now time.Time) (minutes, seconds int64) {
	d := now.Sub(entry)
	if d < 0 {
		return 0, 0
	}
	total := int64(d / time.Second)
	return total / 60, total % 60
}

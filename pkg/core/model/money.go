// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Money is a non-floating monetary amount. It embeds a decimal value,
// so arithmetic methods of decimal.Decimal are available directly, and
// is always reported with exactly two fractional digits.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount of money.
var Zero = Money{}

// NewMoney parses a decimal string such as "3.00" or "2.5".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parsing %q as money: %w", s, err)
	}
	return Money{Decimal: d}, nil
}

// MustMoney is like NewMoney but panics on errors. It is useful for
// constants and tests.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal wraps a decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// Round returns the amount rounded half away from zero to cents.
func (m Money) Round() Money {
	return Money{Decimal: m.Decimal.Round(2)}
}

// String returns the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.StringFixed(2)
}

// Display returns the amount prefixed by the currency symbol.
func (m Money) Display() string {
	return "R$ " + m.StringFixed(2)
}

// Equal reports if both amounts are numerically equal, ignoring
// their internal exponents (1.5 equals 1.50).
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// MarshalJSON encodes the amount as a quoted fixed-point string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// LogValue implements slog.LogValuer.
func (m Money) LogValue() slog.Value {
	return slog.StringValue(m.StringFixed(2))
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/momeni/parklot/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = model.Rates{
	Car:        model.MustMoney("3.00"),
	Motorcycle: model.MustMoney("2.00"),
}

func TestProratedCost(t *testing.T) {
	b := model.BillingProrated
	for _, tc := range []struct {
		minutes int64
		class   model.VehicleClass
		cost    string
	}{
		{0, model.Car, "0.00"},
		{1, model.Car, "0.05"},
		{30, model.Car, "1.50"},
		{60, model.Car, "3.00"},
		{90, model.Motorcycle, "3.00"},
		{7, model.Motorcycle, "0.23"},
		{-5, model.Car, "0.00"},
	} {
		name := fmt.Sprintf("%s/%d", tc.class, tc.minutes)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.cost, b.Cost(tc.minutes, tc.class, testRates).String())
		})
	}
}

func TestHourlyCost(t *testing.T) {
	b := model.BillingHourly
	for _, tc := range []struct {
		minutes int64
		cost    string
	}{
		{0, "3.00"},
		{1, "3.00"},
		{60, "3.00"},
		{61, "6.00"},
		{179, "9.00"},
		{-1, "3.00"},
	} {
		t.Run(fmt.Sprint(tc.minutes), func(t *testing.T) {
			assert.Equal(t, tc.cost, b.Cost(tc.minutes, model.Car, testRates).String())
		})
	}
}

func TestCostIsMonotonicAndIdempotent(t *testing.T) {
	for _, b := range []model.BillingModel{
		model.BillingProrated, model.BillingHourly,
	} {
		t.Run(b.String(), func(t *testing.T) {
			prev := b.Cost(0, model.Car, testRates)
			for m := int64(1); m <= 24*60; m++ {
				c := b.Cost(m, model.Car, testRates)
				require.True(
					t, c.GreaterThanOrEqual(prev.Decimal),
					"cost(%d)=%s < cost(%d)=%s", m, c, m-1, prev,
				)
				require.True(
					t, c.Equal(b.Cost(m, model.Car, testRates)),
					"recomputation of %d minutes differs", m,
				)
				prev = c
			}
		})
	}
}

func TestElapsed(t *testing.T) {
	entry := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m, s := model.Elapsed(entry, entry.Add(30*time.Minute+15*time.Second))
	assert.Equal(t, int64(30), m)
	assert.Equal(t, int64(15), s)

	m, s = model.Elapsed(entry, entry.Add(-time.Minute))
	assert.Zero(t, m, "negative elapsed time must be clamped")
	assert.Zero(t, s, "negative elapsed time must be clamped")
}

func TestParseBillingModel(t *testing.T) {
	b, err := model.ParseBillingModel("hourly")
	assert.NoError(t, err)
	assert.Equal(t, model.BillingHourly, b)
	_, err = model.ParseBillingModel("daily")
	assert.ErrorIs(t, err, model.ErrUnknownBillingModel)
	assert.Error(t, model.BillingInvalid.Validate())
}

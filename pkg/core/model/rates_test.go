// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momeni/parklot/pkg/core/model"
	"github.com/stretchr/testify/assert"
)

func TestRatesValidate(t *testing.T) {
	for _, tc := range []struct {
		car, moto string
		ok        bool
	}{
		{"3.00", "2.00", true},
		{"100", "0.01", true},
		{"0", "2.00", false},
		{"3.00", "-1", false},
		{"100.01", "2.00", false},
		{"0.001", "2.00", false},
		{"3.005", "2.00", false},
		{"3.00", "99.999", false},
		{"3.50", "2.1", true},
		{"4.000", "2.00", true},
	} {
		r := model.Rates{
			Car:        model.MustMoney(tc.car),
			Motorcycle: model.MustMoney(tc.moto),
		}
		err := r.Validate()
		if tc.ok {
			assert.NoError(t, err, "car=%s moto=%s", tc.car, tc.moto)
		} else {
			assert.ErrorIs(t, err, model.ErrInvalidRate, "car=%s moto=%s", tc.car, tc.moto)
		}
	}
}

func TestDuplicatePlateError(t *testing.T) {
	var err error = &model.DuplicatePlateError{Plate: "ABC1234", SpotID: 3}
	wrapped := fmt.Errorf("parking: %w", err)
	assert.True(t, errors.Is(wrapped, model.ErrDuplicatePlate))
	assert.Equal(t, "license plate is already parked: ABC-1234 at spot 3", err.Error())
	var dpe *model.DuplicatePlateError
	if assert.True(t, errors.As(wrapped, &dpe)) {
		assert.Equal(t, 3, dpe.SpotID)
	}
}

func ExampleMoney_Display() {
	fmt.Println(model.MustMoney("1.5").Display())
	fmt.Println(model.Zero.Display())
	// Output:
	// R$ 1.50
	// R$ 0.00
}

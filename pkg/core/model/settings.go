// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import "time"

// LotSettings are the effective settings of every lot. They are visible
// to end-users, but may only be changed by the configuration file.
// Per-user hourly rates are not included because they are mutable and
// are managed by the rates operations of each lot.
type LotSettings struct {
	CarSpots        int           `json:"car_spots"`
	MotorcycleSpots int           `json:"motorcycle_spots"`
	TickInterval    time.Duration `json:"tick_interval"`
	ResyncInterval  time.Duration `json:"resync_interval"`
	Billing         BillingModel  `json:"-"`
	DefaultRates    Rates         `json:"default_rates"`
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/parklot/pkg/adapter/config/settings"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
)

// Default values of the lot settings. These values are also known to
// the lotuc package, but they are repeated here so the configuration
// file may be validated (and reported by LotSettings) independently.
const (
	DefaultCarSpots        = 30
	DefaultMotorcycleSpots = 30
	DefaultTickInterval    = 10 * time.Second
	DefaultResyncInterval  = 5 * time.Minute
	DefaultBilling         = "prorated"
)

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Lot Lot // per-user lots settings
}

// Lot contains the configuration settings of the lot use cases.
// Fields are pointers, so missing settings can be detected and replaced
// by their defaults in ValidateAndNormalize.
type Lot struct {
	CarSpots        *int `yaml:"car-spots"`
	MotorcycleSpots *int `yaml:"motorcycle-spots"`

	// TickInterval is the cadence of the regular recomputation of
	// elapsed times and costs.
	TickInterval    *settings.Duration `yaml:"tick-interval"`
	MinTickInterval *settings.Duration `yaml:"tick-interval-minimum"`
	MaxTickInterval *settings.Duration `yaml:"tick-interval-maximum"`

	// ResyncInterval is the period of reconciliations with the
	// sessions store.
	ResyncInterval    *settings.Duration `yaml:"resync-interval"`
	MinResyncInterval *settings.Duration `yaml:"resync-interval-minimum"`
	MaxResyncInterval *settings.Duration `yaml:"resync-interval-maximum"`

	Billing *string `yaml:"billing"` // prorated or hourly

	DefaultCarRate        *string `yaml:"default-car-rate"`
	DefaultMotorcycleRate *string `yaml:"default-motorcycle-rate"`

	billing model.BillingModel
	rates   model.Rates
}

// ValidateAndNormalize fills the missing lot settings with their
// defaults, clamps the intervals into their configured boundaries,
// and parses the billing model and default rates.
func (l *Lot) ValidateAndNormalize() error {
	settings.Default(&l.CarSpots, DefaultCarSpots)
	settings.Default(&l.MotorcycleSpots, DefaultMotorcycleSpots)
	switch c, m := *l.CarSpots, *l.MotorcycleSpots; {
	case c < 0 || m < 0:
		return fmt.Errorf("negative spots count (cars=%d, motorcycles=%d)", c, m)
	case c+m == 0:
		return errors.New("a lot needs at least one spot")
	}
	if err := verifyInterval(
		"tick interval", &l.TickInterval, DefaultTickInterval,
		l.MinTickInterval, l.MaxTickInterval,
	); err != nil {
		return err
	}
	if err := verifyInterval(
		"resync interval", &l.ResyncInterval, DefaultResyncInterval,
		l.MinResyncInterval, l.MaxResyncInterval,
	); err != nil {
		return err
	}
	settings.Default(&l.Billing, DefaultBilling)
	b, err := model.ParseBillingModel(*l.Billing)
	if err != nil {
		return fmt.Errorf("billing %q: %w", *l.Billing, err)
	}
	l.billing = b
	l.rates = model.DefaultRates
	if l.DefaultCarRate != nil {
		if l.rates.Car, err = model.NewMoney(*l.DefaultCarRate); err != nil {
			return fmt.Errorf("default car rate: %w", err)
		}
	}
	if l.DefaultMotorcycleRate != nil {
		l.rates.Motorcycle, err = model.NewMoney(*l.DefaultMotorcycleRate)
		if err != nil {
			return fmt.Errorf("default motorcycle rate: %w", err)
		}
	}
	if err = l.rates.Validate(); err != nil {
		return fmt.Errorf("default rates: %w", err)
	}
	return nil
}

// verifyInterval applies the def default to a missing interval and
// ensures that it is positive and within [minb, maxb]. An interval
// out of its boundaries is clamped, but still reported as an error,
// because an administrator should fix the configuration file.
func verifyInterval(
	name string,
	value **settings.Duration,
	def time.Duration,
	minb, maxb *settings.Duration,
) error {
	settings.Default(value, settings.Duration(def))
	if err := settings.VerifyRange(value, minb, maxb); err != nil {
		if err.InvalidRange {
			return fmt.Errorf("%s boundaries: %w", name, err)
		}
		return fmt.Errorf(
			"%s=%v, min=%v, max=%v: %w",
			name, time.Duration(*err.Value),
			minb, maxb, err,
		)
	}
	if **value <= 0 {
		return fmt.Errorf("%s is not positive: %v", name, time.Duration(**value))
	}
	return nil
}

// Options returns the lotuc functional options which reflect the
// normalized settings.
func (l *Lot) Options() []lotuc.Option {
	return []lotuc.Option{
		lotuc.WithSpots(*l.CarSpots, *l.MotorcycleSpots),
		lotuc.WithTickInterval(time.Duration(*l.TickInterval)),
		lotuc.WithResyncInterval(time.Duration(*l.ResyncInterval)),
		lotuc.WithBillingModel(l.billing),
		lotuc.WithDefaultRates(l.rates),
	}
}

// Settings returns the normalized settings as a model.LotSettings.
func (l *Lot) Settings() model.LotSettings {
	return model.LotSettings{
		CarSpots:        *l.CarSpots,
		MotorcycleSpots: *l.MotorcycleSpots,
		TickInterval:    time.Duration(*l.TickInterval),
		ResyncInterval:  time.Duration(*l.ResyncInterval),
		Billing:         l.billing,
		DefaultRates:    l.rates,
	}
}

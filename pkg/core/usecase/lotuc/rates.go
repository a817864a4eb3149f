// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"sync"
	"sync/atomic"

	"github.com/momeni/parklot/pkg/core/model"
)

// RateListener is notified with the new rates after each RateConfig
// update. Listeners are called synchronously by Set, one at a time,
// and must not call Set or Subscribe themselves.
type RateListener func(model.Rates)

// RateConfig holds the current hourly rates of a lot and notifies its
// subscribed listeners when they change. Rates are swapped as a whole
// value, so Current never returns a half-updated pair.
type RateConfig struct {
	current atomic.Pointer[model.Rates]

	mu        sync.Mutex // serializes Set, Subscribe, and unsubscription
	nextID    int
	listeners map[int]RateListener
}

// NewRateConfig creates a RateConfig holding the r rates.
func NewRateConfig(r model.Rates) *RateConfig {
	rc := &RateConfig{listeners: make(map[int]RateListener)}
	rc.current.Store(&r)
	return rc
}

// Current returns the effective rates.
func (rc *RateConfig) Current() model.Rates {
	return *rc.current.Load()
}

// Set replaces the effective rates and calls every listener before
// returning, so when Set returns all listeners have observed r.
func (rc *RateConfig) Set(r model.Rates) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.current.Store(&r)
	for _, l := range rc.listeners {
		l(r)
	}
}

// Subscribe registers the l listener and returns a function which
// unregisters it. Once unsubscribe returns, l is not running and will
// not be called again. Calling unsubscribe more than once is harmless.
func (rc *RateConfig) Subscribe(l RateListener) (unsubscribe func()) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	id := rc.nextID
	rc.nextID++
	rc.listeners[id] = l
	return func() {
		rc.mu.Lock()
		defer rc.mu.Unlock()
		delete(rc.listeners, id)
	}
}

// Listeners returns the number of subscribed listeners.
func (rc *RateConfig) Listeners() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.listeners)
}

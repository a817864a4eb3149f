// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc

import (
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
)

// Observer is notified about the lot events which are interesting for
// monitoring. Implementations must be safe for concurrent use and
// should return quickly because they are called inline.
type Observer interface {
	Parked(userID uuid.UUID, class model.VehicleClass)
	Released(userID uuid.UUID, class model.VehicleClass, cost model.Money)
	Recomputed(userID uuid.UUID, occupied int, took time.Duration)
	Resynced(userID uuid.UUID, active int)
	ResyncFailed(userID uuid.UUID, err error)
}

type nopObserver struct{}

func (nopObserver) Parked(uuid.UUID, model.VehicleClass)                {}
func (nopObserver) Released(uuid.UUID, model.VehicleClass, model.Money) {}
func (nopObserver) Recomputed(uuid.UUID, int, time.Duration)            {}
func (nopObserver) Resynced(uuid.UUID, int)                             {}
func (nopObserver) ResyncFailed(uuid.UUID, error)                       {}

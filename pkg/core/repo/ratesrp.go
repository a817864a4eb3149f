// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
)

type RatesConnQueryer interface {
	RatesQueryer
}

type RatesTxQueryer interface {
	RatesQueryer
}

// RatesQueryer reads and writes the hourly rates of each user.
type RatesQueryer interface {
	// Read returns the stored rates of the userID user. If that user
	// has never stored any rates, found will be false.
	Read(ctx context.Context, userID uuid.UUID) (r model.Rates, found bool, err error)

	// Write inserts or replaces both rates of the userID user.
	Write(ctx context.Context, userID uuid.UUID, r model.Rates) error
}

type Rates interface {
	Conn(Conn) RatesConnQueryer
	Tx(Tx) RatesTxQueryer
}

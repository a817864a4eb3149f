// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc

import (
	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
)

// Builder interface represents the expectations from the application
// use case builders. The configuration struct implements it, taking
// the repository instances and creating lot use case objects based on
// its contained settings (spots count, tick and resync intervals,
// billing model, and default rates).
type Builder interface {
	// NewLotUseCase creates a new lotuc UseCase object for the userID
	// user having the provided database connection pool and sessions
	// and rates repositories.
	NewLotUseCase(
		p repo.Pool, s repo.Sessions, r repo.Rates, userID uuid.UUID,
	) (*lotuc.UseCase, error)

	// LotSettings returns the settings which are passed to the new
	// lot use case objects.
	LotSettings() model.LotSettings
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ratesrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type gProfile struct {
	UserID               uuid.UUID       `gorm:"primaryKey;type:uuid"`
	CarHourlyRate        decimal.Decimal `gorm:"type:numeric(10,2)"`
	MotorcycleHourlyRate decimal.Decimal `gorm:"type:numeric(10,2)"`
	UpdatedAt            time.Time
}

func (gp *gProfile) TableName() string {
	return "profiles"
}

func (gp *gProfile) Model() model.Rates {
	return model.Rates{
		Car:        model.MoneyFromDecimal(gp.CarHourlyRate),
		Motorcycle: model.MoneyFromDecimal(gp.MotorcycleHourlyRate),
	}
}

func Read[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID,
) (model.Rates, bool, error) {
	var gps []gProfile
	err := q.GORM(ctx).Where("user_id = ?", userID).Limit(1).Find(&gps).Error
	if err != nil {
		return model.Rates{}, false, fmt.Errorf("query: %w", err)
	}
	if len(gps) == 0 {
		return model.Rates{}, false, nil
	}
	return gps[0].Model(), true, nil
}

func Write[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID, r model.Rates,
) error {
	gp := &gProfile{
		UserID:               userID,
		CarHourlyRate:        r.Car.Decimal,
		MotorcycleHourlyRate: r.Motorcycle.Decimal,
	}
	err := q.GORM(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"car_hourly_rate", "motorcycle_hourly_rate", "updated_at",
		}),
	}).Create(gp).Error
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

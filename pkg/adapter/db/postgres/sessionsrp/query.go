// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/shopspring/decimal"
	"gopkg.in/guregu/null.v4"
)

// Names of the partial unique indexes which allow one active session
// per plate and per spot of each user.
const (
	ActivePlateIndex = "parking_sessions_active_plate_idx"
	ActiveSpotIndex  = "parking_sessions_active_spot_idx"
)

type gSession struct {
	ID        uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `gorm:"type:uuid"`
	SpotID    int
	Plate     string
	Phone     string
	Class     string `gorm:"column:vehicle_class"`
	EntryTime time.Time
	ExitTime  null.Time
	Cost      decimal.NullDecimal `gorm:"type:numeric(10,2)"`
}

func (gs *gSession) TableName() string {
	return "parking_sessions"
}

func (gs *gSession) Model() (*model.SessionRecord, error) {
	c, err := model.ParseVehicleClass(gs.Class)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", gs.ID, err)
	}
	return &model.SessionRecord{
		ID:        gs.ID,
		SpotID:    gs.SpotID,
		Plate:     gs.Plate,
		Phone:     gs.Phone,
		Class:     c,
		EntryTime: gs.EntryTime,
	}, nil
}

func models(gss []gSession) ([]model.SessionRecord, error) {
	recs := make([]model.SessionRecord, 0, len(gss))
	for i := range gss {
		r, err := gss[i].Model()
		if err != nil {
			return nil, err
		}
		recs = append(recs, *r)
	}
	return recs, nil
}

func ListActive[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID,
) ([]model.SessionRecord, error) {
	var gss []gSession
	err := q.GORM(ctx).Where(
		"user_id = ? AND exit_time IS NULL", userID,
	).Order("spot_id").Find(&gss).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gss)
}

func FindActiveByPlate[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID, plate string,
) ([]model.SessionRecord, error) {
	var gss []gSession
	err := q.GORM(ctx).Where(
		"user_id = ? AND plate = ? AND exit_time IS NULL", userID, plate,
	).Find(&gss).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gss)
}

func Insert[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID, r model.SessionRecord,
) (*model.SessionRecord, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	gs := &gSession{
		ID:        r.ID,
		UserID:    userID,
		SpotID:    r.SpotID,
		Plate:     r.Plate,
		Phone:     r.Phone,
		Class:     r.Class.String(),
		EntryTime: r.EntryTime,
	}
	err := q.GORM(ctx).Select(
		"id", "user_id", "spot_id", "plate", "phone",
		"vehicle_class", "entry_time",
	).Create(gs).Error
	switch postgres.ViolatedConstraint(err) {
	case "":
	case ActivePlateIndex:
		return nil, fmt.Errorf("insert: %w: %w", &model.DuplicatePlateError{
			Plate: r.Plate,
		}, err)
	case ActiveSpotIndex:
		return nil, fmt.Errorf("insert: %w: %w", &model.SpotError{
			SpotID: r.SpotID, Err: model.ErrSpotTaken,
		}, err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return &r, nil
}

func Close[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	userID uuid.UUID,
	spotID int,
	sessionID uuid.UUID,
	cost model.Money,
	exit time.Time,
) error {
	res := q.GORM(ctx).Model(&gSession{}).Where(
		"id = ? AND user_id = ? AND spot_id = ? AND exit_time IS NULL",
		sessionID, userID, spotID,
	).Updates(map[string]any{
		"exit_time": exit,
		"cost":      cost.Decimal,
	})
	if err := res.Error; err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if res.RowsAffected == 0 {
		return &model.SpotError{SpotID: spotID, Err: model.ErrAlreadyEmpty}
	}
	return nil
}

const summarizeQuery = `SELECT
	count(*) FILTER (WHERE exit_time IS NULL),
	count(*) FILTER (WHERE exit_time >= @from AND exit_time < @to),
	sum(cost) FILTER (WHERE exit_time >= @from AND exit_time < @to),
	(avg(extract(epoch FROM exit_time - entry_time) / 60)
		FILTER (WHERE exit_time >= @from AND exit_time < @to))::float8
FROM parking_sessions
WHERE user_id = @user`

func Summarize[Q postgres.Queryer](
	ctx context.Context, q Q, userID uuid.UUID, from, to time.Time,
) (*model.Report, error) {
	var (
		rep     = &model.Report{From: from, To: to}
		revenue decimal.NullDecimal
		avg     null.Float
	)
	row := q.GORM(ctx).Raw(summarizeQuery, map[string]any{
		"user": userID,
		"from": from,
		"to":   to,
	}).Row()
	err := row.Scan(&rep.Active, &rep.Completed, &revenue, &avg)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	rep.Revenue = model.MoneyFromDecimal(revenue.Decimal)
	rep.AverageMinutes = avg.Ptr()
	return rep, nil
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotrs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/model"
)

type listSpotsReq struct {
	Class string `form:"class" binding:"omitempty,oneof=car motorcycle"`

	classes []model.VehicleClass
}

func (rs *resource) DserListSpotsReq(c *gin.Context) *listSpotsReq {
	req := &listSpotsReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	if req.Class != "" {
		vc, err := model.ParseVehicleClass(req.Class)
		if err != nil {
			serdser.SerErr(c, cerr.BadRequest(err))
			return nil
		}
		req.classes = []model.VehicleClass{vc}
	}
	return req
}

type parkReq struct {
	Class string `json:"class" binding:"required,oneof=car motorcycle"`
	Plate string `json:"plate" binding:"required,plate"`
	Phone string `json:"phone" binding:"required,phone"`

	class model.VehicleClass
}

func (rs *resource) DserParkReq(c *gin.Context) *parkReq {
	req := &parkReq{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return nil
	}
	var err error
	if req.class, err = model.ParseVehicleClass(req.Class); err != nil {
		serdser.SerErr(c, cerr.BadRequest(err))
		return nil
	}
	return req
}

type spotReq struct {
	SpotID int `uri:"sid" binding:"required,min=1"`
}

func (rs *resource) DserSpotReq(c *gin.Context) *spotReq {
	req := &spotReq{}
	if ok := serdser.BindURI(c, req); !ok {
		return nil
	}
	return req
}

type searchReq struct {
	Plate string `form:"plate" binding:"required"`
}

func (rs *resource) DserSearchReq(c *gin.Context) *searchReq {
	req := &searchReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	return req
}

// reportReq takes RFC3339 timestamps. A missing from defaults to the
// start of the current day and a missing to defaults to one day after
// the from timestamp.
type reportReq struct {
	From time.Time `form:"from"`
	To   time.Time `form:"to"`
}

func (rs *resource) DserReportReq(c *gin.Context) *reportReq {
	req := &reportReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	if req.From.IsZero() {
		y, m, d := rs.now().Date()
		req.From = time.Date(y, m, d, 0, 0, 0, 0, rs.now().Location())
	}
	if req.To.IsZero() {
		req.To = req.From.AddDate(0, 0, 1)
	}
	return req
}

// SessionResp is the JSON form of an active session. Plate and Phone
// are formatted for display.
type SessionResp struct {
	ID          uuid.UUID   `json:"id"`
	Plate       string      `json:"plate"`
	Phone       string      `json:"phone"`
	EntryTime   time.Time   `json:"entry_time"`
	Minutes     int64       `json:"minutes"`
	Seconds     int64       `json:"seconds"`
	Cost        model.Money `json:"cost"`
	CostDisplay string      `json:"cost_display"`
}

// SpotResp is the JSON form of a spot.
type SpotResp struct {
	ID       int          `json:"id"`
	Class    string       `json:"class"`
	Occupied bool         `json:"occupied"`
	Session  *SessionResp `json:"session,omitempty"`
}

func SerSpot(s model.Spot) SpotResp {
	resp := SpotResp{ID: s.ID, Class: s.Class.String(), Occupied: s.Occupied()}
	if ss := s.Session; ss != nil {
		resp.Session = &SessionResp{
			ID:          ss.ID,
			Plate:       model.FormatPlate(ss.Plate),
			Phone:       model.FormatPhone(ss.Phone),
			EntryTime:   ss.EntryTime,
			Minutes:     ss.Minutes,
			Seconds:     ss.Seconds,
			Cost:        ss.Cost,
			CostDisplay: ss.Cost.Display(),
		}
	}
	return resp
}

func SerSpots(spots []model.Spot) []SpotResp {
	resp := make([]SpotResp, 0, len(spots))
	for _, s := range spots {
		resp = append(resp, SerSpot(s))
	}
	return resp
}

// ReceiptResp is the JSON form of a released spot.
type ReceiptResp struct {
	SpotID      int         `json:"spot_id"`
	Plate       string      `json:"plate"`
	Phone       string      `json:"phone"`
	Class       string      `json:"class"`
	EntryTime   time.Time   `json:"entry_time"`
	ExitTime    time.Time   `json:"exit_time"`
	Minutes     int64       `json:"minutes"`
	Cost        model.Money `json:"cost"`
	CostDisplay string      `json:"cost_display"`
}

func SerReceipt(r *model.Receipt) ReceiptResp {
	return ReceiptResp{
		SpotID:      r.SpotID,
		Plate:       model.FormatPlate(r.Plate),
		Phone:       model.FormatPhone(r.Phone),
		Class:       r.Class.String(),
		EntryTime:   r.EntryTime,
		ExitTime:    r.ExitTime,
		Minutes:     r.Minutes,
		Cost:        r.Cost,
		CostDisplay: r.Cost.Display(),
	}
}

type OccupancyResp struct {
	Class    string `json:"class"`
	Total    int    `json:"total"`
	Occupied int    `json:"occupied"`
	Free     int    `json:"free"`
}

func SerOccupancy(occ []model.Occupancy) []OccupancyResp {
	resp := make([]OccupancyResp, 0, len(occ))
	for _, o := range occ {
		resp = append(resp, OccupancyResp{
			Class:    o.Class.String(),
			Total:    o.Total,
			Occupied: o.Occupied,
			Free:     o.Free(),
		})
	}
	return resp
}

type ReportResp struct {
	From           time.Time   `json:"from"`
	To             time.Time   `json:"to"`
	Active         int64       `json:"active"`
	Completed      int64       `json:"completed"`
	Revenue        model.Money `json:"revenue"`
	RevenueDisplay string      `json:"revenue_display"`
	AverageMinutes *float64    `json:"average_minutes"`
}

func SerReport(r *model.Report) ReportResp {
	return ReportResp{
		From:           r.From,
		To:             r.To,
		Active:         r.Active,
		Completed:      r.Completed,
		Revenue:        r.Revenue,
		RevenueDisplay: r.Revenue.Display(),
		AverageMinutes: r.AverageMinutes,
	}
}

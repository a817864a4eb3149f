// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package lotrs realizes the lot resource, allowing the parking REST
// APIs to be accepted and delegated to the lot use case of the
// requesting user.
package lotrs

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/auth"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
)

type resource struct {
	app *appuc.UseCase
	now func() time.Time
}

// Register instantiates a resource adapting the lot use cases with
// the relevant REST APIs. The r group must use the auth.Middleware.
//  1. GET spots[?class=car|motorcycle] lists spots,
//  2. POST spots parks a vehicle in the lowest free spot of its class,
//  3. GET spots/:sid returns one spot,
//  4. DELETE spots/:sid releases a spot and returns its receipt,
//  5. GET search?plate= finds the spots of a license plate,
//  6. GET occupancy counts the occupied and free spots per class,
//  7. POST resync reloads the active sessions from the database,
//  8. GET report[?from=&to=] aggregates sessions (default is today),
//  9. DELETE session closes the lot of the user.
func Register(r *gin.RouterGroup, app *appuc.UseCase) {
	rs := &resource{app: app, now: time.Now}
	r.GET("spots", rs.ListSpots)
	r.POST("spots", rs.Park)
	r.GET("spots/:sid", rs.FetchSpot)
	r.DELETE("spots/:sid", rs.Release)
	r.GET("search", rs.Search)
	r.GET("occupancy", rs.Occupancy)
	r.POST("resync", rs.Resync)
	r.GET("report", rs.Report)
	r.DELETE("session", rs.CloseSession)
}

// lot returns the lot of the requesting user, opening it if needed.
// On errors, the response is written and nil is returned.
func (rs *resource) lot(c *gin.Context) *lotuc.UseCase {
	lot, err := rs.app.Lot(c, auth.UserID(c))
	if err != nil {
		serdser.SerErr(c, err)
		return nil
	}
	return lot
}

func (rs *resource) ListSpots(c *gin.Context) {
	req := rs.DserListSpotsReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	c.JSON(http.StatusOK, SerSpots(lot.Spots(req.classes...)))
}

func (rs *resource) Park(c *gin.Context) {
	req := rs.DserParkReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	spot, err := lot.Park(c, req.class, req.Plate, req.Phone)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, SerSpot(*spot))
}

func (rs *resource) FetchSpot(c *gin.Context) {
	req := rs.DserSpotReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	spot, err := lot.Spot(req.SpotID)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerSpot(*spot))
}

func (rs *resource) Release(c *gin.Context) {
	req := rs.DserSpotReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	rcpt, err := lot.Release(c, req.SpotID)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerReceipt(rcpt))
}

func (rs *resource) Search(c *gin.Context) {
	req := rs.DserSearchReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	c.JSON(http.StatusOK, SerSpots(lot.Search(req.Plate)))
}

func (rs *resource) Occupancy(c *gin.Context) {
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	c.JSON(http.StatusOK, SerOccupancy(lot.Occupancy()))
}

func (rs *resource) Resync(c *gin.Context) {
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	if err := lot.Resync(c); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerOccupancy(lot.Occupancy()))
}

func (rs *resource) Report(c *gin.Context) {
	req := rs.DserReportReq(c)
	if req == nil {
		return
	}
	lot := rs.lot(c)
	if lot == nil {
		return
	}
	rep, err := lot.Report(c, req.From, req.To)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerReport(rep))
}

func (rs *resource) CloseSession(c *gin.Context) {
	if err := rs.app.Close(auth.UserID(c)); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

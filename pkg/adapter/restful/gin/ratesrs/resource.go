// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ratesrs realizes the rates resource, so each user may read
// and update the hourly rates of their own lot.
package ratesrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/auth"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
)

type resource struct {
	app *appuc.UseCase
}

// Register adds GET and PUT request handlers for the rates path
// into the r group which must use the auth.Middleware.
func Register(r *gin.RouterGroup, app *appuc.UseCase) {
	rs := &resource{app: app}
	r.GET("rates", rs.FetchRates)
	r.PUT("rates", rs.UpdateRates)
}

// RatesResp is the JSON form of the hourly rates.
type RatesResp struct {
	model.Rates
	CarDisplay        string `json:"car_hourly_rate_display"`
	MotorcycleDisplay string `json:"motorcycle_hourly_rate_display"`
}

func SerRates(r model.Rates) RatesResp {
	return RatesResp{
		Rates:             r,
		CarDisplay:        r.Car.Display(),
		MotorcycleDisplay: r.Motorcycle.Display(),
	}
}

func (rs *resource) FetchRates(c *gin.Context) {
	lot, err := rs.app.Lot(c, auth.UserID(c))
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerRates(lot.Rates()))
}

// UpdateRates accepts both rates as JSON numbers or numeric strings.
// Both rates are required and are replaced together.
func (rs *resource) UpdateRates(c *gin.Context) {
	req := &model.Rates{}
	if ok := serdser.Bind(c, req, binding.JSON); !ok {
		return
	}
	lot, err := rs.app.Lot(c, auth.UserID(c))
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	r, err := lot.UpdateRates(c, *req)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerRates(r))
}

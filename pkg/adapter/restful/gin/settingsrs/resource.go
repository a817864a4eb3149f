// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settingsrs realizes the settings resource, reporting the
// lot settings which are fixed by the configuration file.
package settingsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
)

type resource struct {
	app *appuc.UseCase
}

// Register adds a GET request handler for the settings path into r.
// Settings are the same for all users, so no user id is needed.
func Register(r *gin.RouterGroup, app *appuc.UseCase) {
	rs := &resource{app: app}
	r.GET("settings", rs.FetchSettings)
}

// SettingsResp is the JSON form of model.LotSettings which reports
// intervals as duration strings, like 10s.
type SettingsResp struct {
	CarSpots        int         `json:"car_spots"`
	MotorcycleSpots int         `json:"motorcycle_spots"`
	TickInterval    string      `json:"tick_interval"`
	ResyncInterval  string      `json:"resync_interval"`
	Billing         string      `json:"billing"`
	DefaultRates    model.Rates `json:"default_rates"`
}

func (rs *resource) FetchSettings(c *gin.Context) {
	s := rs.app.Settings()
	c.JSON(http.StatusOK, SettingsResp{
		CarSpots:        s.CarSpots,
		MotorcycleSpots: s.MotorcycleSpots,
		TickInterval:    s.TickInterval.String(),
		ResyncInterval:  s.ResyncInterval.String(),
		Billing:         s.Billing.String(),
		DefaultRates:    s.DefaultRates,
	})
}

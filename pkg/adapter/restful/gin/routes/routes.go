// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parklot/pkg/adapter/config"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/auth"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/lotrs"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/ratesrs"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/settingsrs"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
)

// Prefix is the path prefix of all REST APIs.
const Prefix = "/api/plweb/v1"

// Register instantiates the application use case based on the c
// configuration settings and registers its resources (and the metrics
// endpoint, if enabled) using the e gin-gonic engine instance.
// The p connections pool is passed to the use case instances, so they
// may acquire connections and transactions on demand. The ctx bounds
// the lifetime of all lots. Caller must shut the returned use case
// down after the HTTP server is stopped.
func Register(
	ctx context.Context, e *gin.Engine, p repo.Pool, c *config.Config,
) (*appuc.UseCase, error) {
	app, err := c.NewAppUseCase(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("creating application use case: %w", err)
	}
	if err = Mount(e, app, c.Metrics.Path, c.MetricsHandler()); err != nil {
		return nil, err
	}
	return app, nil
}

// Mount registers the resources of the app use case under Prefix.
// If metrics is not nil, it is served at the metricsPath too.
func Mount(
	e *gin.Engine,
	app *appuc.UseCase,
	metricsPath string,
	metrics http.Handler,
) error {
	if err := serdser.RegisterValidators(); err != nil {
		return fmt.Errorf("registering validators: %w", err)
	}
	if metrics != nil {
		e.GET(metricsPath, gin.WrapH(metrics))
	}
	r := e.Group(Prefix)
	settingsrs.Register(r, app)
	u := r.Group("", auth.Middleware())
	lotrs.Register(u, app)
	ratesrs.Register(u, app)
	return nil
}

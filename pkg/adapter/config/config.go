// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the plweb to instantiate different
// components, from the adapter or use cases layers, using those loaded
// configuration settings.
// The parsed and validated configurations are passed to their ultimate
// components as a series of individual params (for the mandatory
// items) and a series of functional options (for the optional items),
// so they are validated again by the relevant end-component such as
// a lotuc UseCase instance.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/config/settings"
	"github.com/momeni/parklot/pkg/adapter/db/postgres/ratesrp"
	"github.com/momeni/parklot/pkg/adapter/db/postgres/sessionsrp"
	"github.com/momeni/parklot/pkg/adapter/metrics/promobs"
	"github.com/momeni/parklot/pkg/adapter/restful/gin"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
	"gopkg.in/yaml.v3"
)

// Config contains all settings which are required by different parts
// of the project, such as adapters or use cases.
type Config struct {
	Database Database // PostgreSQL database connection settings
	Gin      Gin      // Gin-Gonic instantiation settings
	Log      Log      // default structured logger settings
	Server   Server   // HTTP server settings
	Metrics  Metrics  // Prometheus metrics exposition settings
	Usecases Usecases // Configuration settings for supported use cases

	observer *promobs.Observer
}

// Gin contains the gin-gonic related configuration settings.
type Gin struct {
	Logger   *bool   // Whether to register the gin.Logger() middleware
	Recovery *bool   // Whether to register the gin.Recovery() middleware
	Mode     *string // debug, release, or test (default release)
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings. ValidateAndNormalize must be called beforehand.
func (g Gin) NewEngine() *gin.Engine {
	gin.SetMode(*g.Mode)
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// Log contains the default logger settings.
type Log struct {
	Level  string // debug, info (default), warn, or error
	Format string // text (default) or json
}

// Server contains the HTTP server settings.
type Server struct {
	Address string // listening address, like :8080

	// ShutdownTimeout bounds the graceful shutdown of the server.
	ShutdownTimeout *settings.Duration `yaml:"shutdown-timeout"`
}

// Metrics contains the Prometheus metrics settings.
type Metrics struct {
	Enabled bool
	Path    string // like /metrics
}

// Load reads the path configuration file and parses it with Parse.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals the data byte slice as a YAML document and returns
// the validated and normalized Config. Unknown settings are rejected,
// so mistyped keys do not silently fall back to their defaults.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It also replaces
// missing settings with their default values and instantiates the
// metrics observer if metrics are enabled.
func (c *Config) ValidateAndNormalize() error {
	settings.Nil2Zero(&c.Gin.Logger)
	settings.Nil2Zero(&c.Gin.Recovery)
	settings.Default(&c.Gin.Mode, gin.ReleaseMode)
	switch *c.Gin.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unknown gin mode: %q", *c.Gin.Mode)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	settings.Default(
		&c.Server.ShutdownTimeout, settings.Duration(10*time.Second),
	)
	if err := c.Database.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating database settings: %w", err)
	}
	if err := c.Usecases.Lot.ValidateAndNormalize(); err != nil {
		return fmt.Errorf("validating lot settings: %w", err)
	}
	c.observer = nil
	if c.Metrics.Enabled {
		if c.Metrics.Path == "" {
			c.Metrics.Path = "/metrics"
		}
		o, err := promobs.New(nil)
		if err != nil {
			return fmt.Errorf("creating metrics observer: %w", err)
		}
		c.observer = o
	}
	return nil
}

// SetupLogging installs the default slog logger, writing to w with
// the configured level and format.
func (c *Config) SetupLogging(w io.Writer) {
	lvl, _ := log.ParseLevel(c.Log.Level) // validated by Parse
	log.Setup(w, lvl, c.Log.Format == "json")
}

// ShutdownTimeout returns the graceful shutdown timeout of the server.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(*c.Server.ShutdownTimeout)
}

// MetricsHandler returns the handler which exposes the collected
// metrics, or nil if metrics are disabled.
func (c *Config) MetricsHandler() http.Handler {
	if c.observer == nil {
		return nil
	}
	return c.observer.Handler()
}

// NewLotUseCase reifies the appuc.Builder interface and creates a lot
// use case for the userID user based on the lot settings.
func (c *Config) NewLotUseCase(
	p repo.Pool, s repo.Sessions, r repo.Rates, userID uuid.UUID,
) (*lotuc.UseCase, error) {
	opts := c.Usecases.Lot.Options()
	if c.observer != nil {
		opts = append(opts, lotuc.WithObserver(c.observer))
	}
	return lotuc.New(p, s, r, userID, opts...)
}

// LotSettings reifies the appuc.Builder interface.
func (c *Config) LotSettings() model.LotSettings {
	return c.Usecases.Lot.Settings()
}

// NewAppUseCase instantiates the sessions and rates repositories and
// creates an application use case which builds lots using `c`.
// The ctx bounds the lifetime of all lots.
func (c *Config) NewAppUseCase(
	ctx context.Context, p repo.Pool,
) (*appuc.UseCase, error) {
	return appuc.New(ctx, p, sessionsrp.New(), ratesrp.New(), c)
}

// ConnectionPool creates a database connection pool for the `r` role.
func (c *Config) ConnectionPool(
	ctx context.Context, r repo.Role,
) (repo.Pool, error) {
	p, err := c.Database.ConnectionPool(ctx, r)
	if err != nil {
		return nil, fmt.Errorf(
			"connecting to %s:%d/%s as %q: %w",
			c.Database.Host, c.Database.Port, c.Database.Name, r, err,
		)
	}
	return p, nil
}

// NewSchemaRepo instantiates a fresh Schema repository.
func (c *Config) NewSchemaRepo() repo.Schema {
	return c.Database.NewSchemaRepo()
}

// SchemaName returns the name of the schema of the parklot tables.
func (c *Config) SchemaName() string {
	return c.Database.Schema
}

// RenewPasswords generates new passwords for roles, records them in
// the .pgpass.new file of the passwords dir, and calls change to set
// them in the database. See Database.RenewPasswords.
func (c *Config) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	return c.Database.RenewPasswords(ctx, change, roles...)
}

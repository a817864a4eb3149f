// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the plweb
// parking lot server. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command prepares an empty database for it.
//
//	./plweb [-c /path/of/main/config.yaml]          # start web server
//	./plweb db init [-c /path/of/main/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/momeni/parklot/pkg/adapter/config"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/routes"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "plweb",
	Short: "A parking lot server with live cost accrual",
	Long: `A parking lot server which allocates car and motorcycle spots,
accrues the parking cost of occupied spots periodically based on the
hourly rates of each user, and finalizes sessions with a receipt when
vehicles leave. Sessions and rates are kept in a PostgreSQL database,
so several server instances may serve the same users and resync their
in-memory view of the lot periodically.
The REST API is served by Gin Gonic and Prometheus metrics may be
exposed on a separate path.`,
	RunE: startWebServer,
	Args: cobra.NoArgs,
}

func startWebServer(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	c.SetupLogging(os.Stderr)
	p, err := c.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	e := c.Gin.NewEngine()
	app, err := routes.Register(ctx, e, p, c)
	if err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	srv := &http.Server{
		Addr:    c.Server.Address,
		Handler: e,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(ctx, "serving", slog.String("address", srv.Addr))
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down")
		sctx, cancel := context.WithTimeout(
			context.Background(), c.ShutdownTimeout(),
		)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	err = g.Wait()
	if serr := app.Shutdown(); serr != nil {
		err = errors.Join(err, fmt.Errorf("stopping lots: %w", serr))
	}
	return err
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		// the default path should usually be in the /etc directory
		cfgPath = "configs/sample-config.yaml"
	}
}

// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer is an internal helper for the test packages.
// It starts a temporary postgres:16 podman container, connects to it
// using a *postgres.Pool, and creates the parking sessions and profiles
// tables, so integration suites may exercise the repositories and the
// REST resources against a real PostgreSQL server.
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/adapter/db/postgres/schemarp"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/stretchr/testify/assert"
)

// DBMSVersion is the tag of the postgres container image.
const DBMSVersion = "16"

const retryDelay = 100 * time.Millisecond

// New creates and starts up a postgres podman container and creates
// the parklot tables in its public schema.
// The podman.service needs to be started and the DOCKER_HOST
// environment variable needs to be initialized beforehand like
// DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
// in order to be identified by this function properly.
// The ctx is used during the container start up and shutdown, while
// the timeout bounds the start up phase only. Returned dfrs must be
// called (in order) by the caller, even if ok is false.
func New(ctx context.Context, timeout time.Duration, t *testing.T) (
	pg *sqltestutil.PostgresContainer,
	pool *postgres.Pool,
	dfrs []func(),
	ok bool,
) {
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pg, err := sqltestutil.StartPostgresContainer(ctx2, DBMSVersion)
	if ok = assert.NoError(t, err, "failed to set up a test database"); !ok {
		return
	}
	dfrs = append(dfrs, func() {
		err := pg.Shutdown(ctx)
		assert.NoError(t, err, "failed to shutdown test database")
	})
	pool, err = connect(ctx2, pg.ConnectionString())
	if ok = assert.NoError(t, err, "cannot connect to test database"); !ok {
		return
	}
	dfrs = append(dfrs, func() {
		err := pool.Close()
		assert.NoError(t, err, "failed to close the connections pool")
	})
	err = pool.Conn(ctx2, func(ctx context.Context, c repo.Conn) error {
		return schemarp.New("", nil).Conn(c).CreateTables(ctx)
	})
	ok = assert.NoError(t, err, "failed to create parklot tables")
	return
}

// connect retries until the u database accepts connections or ctx
// is done.
func connect(ctx context.Context, u string) (*postgres.Pool, error) {
	for {
		pool, err := postgres.NewPool(ctx, u)
		if err == nil {
			return pool, nil
		}
		if !transient(err) || ctx.Err() != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(retryDelay):
		}
	}
}

func transient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "57P03" // starting up
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package appuc_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/internal/test/memstore"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builder struct {
	mu    sync.Mutex
	built int
}

func (b *builder) NewLotUseCase(
	p repo.Pool, s repo.Sessions, r repo.Rates, userID uuid.UUID,
) (*lotuc.UseCase, error) {
	b.mu.Lock()
	b.built++
	b.mu.Unlock()
	return lotuc.New(
		p, s, r, userID,
		lotuc.WithSpots(2, 1),
		lotuc.WithTickInterval(time.Hour),
		lotuc.WithResyncInterval(time.Hour),
	)
}

func (b *builder) LotSettings() model.LotSettings {
	return model.LotSettings{CarSpots: 2, MotorcycleSpots: 1}
}

func newApp(t *testing.T) (*appuc.UseCase, *memstore.Store, *builder) {
	store := memstore.New()
	b := &builder{}
	app, err := appuc.New(
		context.Background(), store, memstore.Sessions{}, memstore.Rates{}, b,
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, app.Shutdown())
	})
	return app, store, b
}

func TestLotIsCreatedOncePerUser(t *testing.T) {
	app, _, b := newApp(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	lots := make([]*lotuc.UseCase, 8)
	for i := range lots {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lot, err := app.Lot(ctx, u1)
			assert.NoError(t, err)
			lots[i] = lot
		}(i)
	}
	wg.Wait()
	for _, lot := range lots {
		assert.Same(t, lots[0], lot)
	}
	assert.Equal(t, u1, lots[0].UserID())

	lot2, err := app.Lot(ctx, u2)
	require.NoError(t, err)
	assert.NotSame(t, lots[0], lot2)
	assert.Equal(t, 2, b.built)
	assert.Equal(t, 2, app.Lots())
	assert.Equal(t, 2, app.Settings().CarSpots)
	assert.Eventually(t, func() bool {
		return lot2.State() == lotuc.Running
	}, time.Second, 5*time.Millisecond)
}

func TestLotsAreIsolated(t *testing.T) {
	app, _, _ := newApp(t)
	ctx := context.Background()
	lot1, err := app.Lot(ctx, uuid.New())
	require.NoError(t, err)
	lot2, err := app.Lot(ctx, uuid.New())
	require.NoError(t, err)

	_, err = lot1.Park(ctx, model.Car, "ABC1234", "11987654321")
	require.NoError(t, err)
	spot, err := lot2.Park(ctx, model.Car, "ABC1234", "11987654321")
	require.NoError(t, err, "plates are unique per user")
	assert.Equal(t, 1, spot.ID)
}

func TestCloseStopsLot(t *testing.T) {
	app, _, b := newApp(t)
	ctx := context.Background()
	u := uuid.New()
	lot, err := app.Lot(ctx, u)
	require.NoError(t, err)
	_, err = lot.Park(ctx, model.Car, "ABC1234", "11987654321")
	require.NoError(t, err)

	require.NoError(t, app.Close(u))
	assert.Equal(t, lotuc.Idle, lot.State())
	assert.Equal(t, 0, app.Lots())
	assert.NoError(t, app.Close(u), "closing twice is a no-op")

	reopened, err := app.Lot(ctx, u)
	require.NoError(t, err)
	assert.NotSame(t, lot, reopened)
	assert.Equal(t, 2, b.built)
	assert.Len(t, reopened.Search("ABC1234"), 1,
		"sessions must be restored from the store")
}

func TestLotOpeningFailure(t *testing.T) {
	app, store, _ := newApp(t)
	store.Fail(memstore.ErrOffline)
	_, err := app.Lot(context.Background(), uuid.New())
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusServiceUnavailable, ce.HTTPStatusCode)
	assert.Equal(t, 0, app.Lots())
}

func TestShutdown(t *testing.T) {
	app, _, _ := newApp(t)
	ctx := context.Background()
	lot, err := app.Lot(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, app.Shutdown())
	assert.Equal(t, lotuc.Idle, lot.State())
	_, err = app.Lot(ctx, uuid.New())
	assert.ErrorIs(t, err, appuc.ErrShuttingDown)
}

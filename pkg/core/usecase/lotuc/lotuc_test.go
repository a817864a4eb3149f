// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package lotuc_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/internal/test/memstore"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/momeni/parklot/pkg/core/usecase/lotuc"
	"github.com/stretchr/testify/suite"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingObserver struct {
	mu                 sync.Mutex
	parked, released   int
	resynced, failures int
}

func (o *countingObserver) Parked(uuid.UUID, model.VehicleClass) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parked++
}

func (o *countingObserver) Released(uuid.UUID, model.VehicleClass, model.Money) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released++
}

func (o *countingObserver) Recomputed(uuid.UUID, int, time.Duration) {
}

func (o *countingObserver) Resynced(uuid.UUID, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resynced++
}

func (o *countingObserver) ResyncFailed(uuid.UUID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

type LotTestSuite struct {
	suite.Suite

	Ctx      context.Context
	Store    *memstore.Store
	Clock    *fakeClock
	Observer *countingObserver
	UserID   uuid.UUID
	Lot      *lotuc.UseCase
}

func TestLotTestSuite(t *testing.T) {
	suite.Run(t, new(LotTestSuite))
}

func (lts *LotTestSuite) SetupTest() {
	lts.Ctx = context.Background()
	lts.Store = memstore.New()
	lts.Clock = &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	lts.Observer = &countingObserver{}
	lts.UserID = uuid.New()
	lts.Lot = lts.newLot()
}

func (lts *LotTestSuite) TearDownTest() {
	lts.NoError(lts.Lot.Stop())
}

func (lts *LotTestSuite) newLot(opts ...lotuc.Option) *lotuc.UseCase {
	opts = append([]lotuc.Option{
		lotuc.WithSpots(3, 2),
		lotuc.WithClock(lts.Clock.Now),
		lotuc.WithTickInterval(time.Hour),
		lotuc.WithResyncInterval(time.Hour),
		lotuc.WithObserver(lts.Observer),
	}, opts...)
	lot, err := lotuc.New(
		lts.Store, memstore.Sessions{}, memstore.Rates{}, lts.UserID,
		opts...,
	)
	lts.Require().NoError(err, "cannot instantiate lot use case")
	lts.Require().NoError(lot.Open(lts.Ctx), "cannot open lot")
	return lot
}

func (lts *LotTestSuite) requireStatus(err error, code int) {
	var ce *cerr.Error
	lts.Require().ErrorAs(err, &ce)
	lts.Equal(code, ce.HTTPStatusCode)
}

func (lts *LotTestSuite) park(
	class model.VehicleClass, plate string,
) *model.Spot {
	spot, err := lts.Lot.Park(lts.Ctx, class, plate, "(11) 98765-4321")
	lts.Require().NoError(err, "cannot park %s", plate)
	return spot
}

func (lts *LotTestSuite) cost(spotID int) string {
	spot, err := lts.Lot.Spot(spotID)
	lts.Require().NoError(err)
	lts.Require().True(spot.Occupied(), "spot %d is empty", spotID)
	return spot.Session.Cost.String()
}

func (lts *LotTestSuite) TestDefaults() {
	lot, err := lotuc.New(
		lts.Store, memstore.Sessions{}, memstore.Rates{}, lts.UserID,
	)
	lts.Require().NoError(err)
	st := lot.Settings()
	lts.Equal(30, st.CarSpots)
	lts.Equal(30, st.MotorcycleSpots)
	lts.Equal(10*time.Second, st.TickInterval)
	lts.Equal(5*time.Minute, st.ResyncInterval)
	lts.Equal(model.BillingProrated, st.Billing)
	lts.Equal(model.DefaultRates, lot.Rates())
	lts.Len(lot.Spots(), 60)
	lts.Equal(lotuc.Idle, lot.State())

	_, err = lotuc.New(
		lts.Store, memstore.Sessions{}, memstore.Rates{}, lts.UserID,
		lotuc.WithSpots(0, 0),
	)
	lts.Error(err)
}

func (lts *LotTestSuite) TestParkAllocatesLowestFreeSpot() {
	spot := lts.park(model.Car, "abc-1234")
	lts.Equal(1, spot.ID)
	lts.Require().True(spot.Occupied())
	lts.Equal("ABC1234", spot.Session.Plate)
	lts.Equal("11987654321", spot.Session.Phone)
	lts.Equal(lts.Clock.Now(), spot.Session.EntryTime)
	lts.EqualValues(0, spot.Session.Minutes)
	lts.Equal("0.00", spot.Session.Cost.String())

	lts.Equal(2, lts.park(model.Car, "DEF5678").ID)
	lts.Equal(4, lts.park(model.Motorcycle, "GHI1J23").ID)

	lts.Equal(3, lts.Observer.parked)
	occ := lts.Lot.Occupancy()
	lts.Require().Len(occ, 2)
	lts.Equal(model.Occupancy{Class: model.Car, Total: 3, Occupied: 2}, occ[0])
	lts.Equal(1, occ[1].Free())
}

func (lts *LotTestSuite) TestParkRejectsInvalidInput() {
	_, err := lts.Lot.Park(lts.Ctx, model.Car, "AB-12345", "11987654321")
	lts.ErrorIs(err, model.ErrInvalidPlate)
	lts.requireStatus(err, http.StatusBadRequest)

	_, err = lts.Lot.Park(lts.Ctx, model.Car, "ABC1234", "12345")
	lts.ErrorIs(err, model.ErrInvalidPhone)
	lts.requireStatus(err, http.StatusBadRequest)

	_, err = lts.Lot.Park(
		lts.Ctx, model.VehicleClassInvalid, "ABC1234", "11987654321",
	)
	lts.requireStatus(err, http.StatusBadRequest)
	lts.Empty(lts.Lot.Search("ABC1234"))
}

func (lts *LotTestSuite) TestParkRejectsDuplicatePlate() {
	lts.park(model.Car, "ABC1234")
	_, err := lts.Lot.Park(lts.Ctx, model.Motorcycle, "abc1234", "1134567890")
	lts.requireStatus(err, http.StatusConflict)
	var dpe *model.DuplicatePlateError
	lts.Require().ErrorAs(err, &dpe)
	lts.Equal(1, dpe.SpotID)
	lts.Equal(1, lts.Lot.Occupancy()[0].Occupied)
	lts.Equal(0, lts.Lot.Occupancy()[1].Occupied)
}

func (lts *LotTestSuite) TestParkRejectsPlateOfAnotherClient() {
	lts.Store.AddActive(lts.UserID, model.SessionRecord{
		SpotID:    5,
		Plate:     "XYZ9876",
		Phone:     "11987654321",
		Class:     model.Motorcycle,
		EntryTime: lts.Clock.Now(),
	})
	_, err := lts.Lot.Park(lts.Ctx, model.Car, "XYZ-9876", "11987654321")
	lts.requireStatus(err, http.StatusConflict)
	var dpe *model.DuplicatePlateError
	lts.Require().ErrorAs(err, &dpe)
	lts.Equal(5, dpe.SpotID)
	lts.Equal(1, lts.park(model.Car, "ABC1234").ID,
		"failed park must not keep its spot")
}

func (lts *LotTestSuite) TestParkFullClass() {
	for i := 0; i < 3; i++ {
		lts.park(model.Car, fmt.Sprintf("ABC%04d", i))
	}
	_, err := lts.Lot.Park(lts.Ctx, model.Car, "DEF5678", "11987654321")
	lts.ErrorIs(err, model.ErrNoSpotAvailable)
	lts.requireStatus(err, http.StatusConflict)
	lts.Equal(4, lts.park(model.Motorcycle, "DEF5678").ID)
}

func (lts *LotTestSuite) TestParkStoreFailureLeavesLotUnchanged() {
	lts.Store.Fail(memstore.ErrOffline)
	_, err := lts.Lot.Park(lts.Ctx, model.Car, "ABC1234", "11987654321")
	lts.ErrorIs(err, model.ErrStoreUnavailable)
	lts.ErrorIs(err, memstore.ErrOffline)
	lts.requireStatus(err, http.StatusServiceUnavailable)
	lts.Equal(0, lts.Lot.Occupancy()[0].Occupied)

	lts.Store.Fail(nil)
	lts.Equal(1, lts.park(model.Car, "ABC1234").ID)
}

func (lts *LotTestSuite) TestReleaseComputesFinalCost() {
	lts.park(model.Car, "ABC1234")
	lts.park(model.Motorcycle, "DEF5678")
	lts.Clock.Advance(90*time.Minute + 42*time.Second)

	lts.Equal(2, lts.Lot.Recompute(lts.Ctx))
	recomputed := lts.cost(1)
	spot, err := lts.Lot.Spot(1)
	lts.Require().NoError(err)
	lts.EqualValues(90, spot.Session.Minutes)
	lts.EqualValues(42, spot.Session.Seconds)

	rcpt, err := lts.Lot.Release(lts.Ctx, 1)
	lts.Require().NoError(err)
	lts.Equal(1, rcpt.SpotID)
	lts.Equal("ABC1234", rcpt.Plate)
	lts.Equal(model.Car, rcpt.Class)
	lts.EqualValues(90, rcpt.Minutes)
	lts.Equal("4.50", rcpt.Cost.String())
	lts.Equal(recomputed, rcpt.Cost.String())
	lts.Equal(lts.Clock.Now(), rcpt.ExitTime)
	lts.Equal(1, lts.Observer.released)

	spot, err = lts.Lot.Spot(1)
	lts.Require().NoError(err)
	lts.False(spot.Occupied())
	recs, costs := lts.Store.Closed(lts.UserID)
	lts.Require().Len(recs, 1)
	lts.Equal(1, recs[0].SpotID)
	lts.Equal("4.50", costs[0].String())
	lts.Equal("3.00", lts.cost(4))
}

func (lts *LotTestSuite) TestReleaseErrors() {
	_, err := lts.Lot.Release(lts.Ctx, 2)
	lts.ErrorIs(err, model.ErrAlreadyEmpty)
	lts.requireStatus(err, http.StatusConflict)

	_, err = lts.Lot.Release(lts.Ctx, 99)
	lts.ErrorIs(err, model.ErrSpotNotFound)
	lts.requireStatus(err, http.StatusNotFound)

	lts.park(model.Car, "ABC1234")
	_, err = lts.Lot.Release(lts.Ctx, 1)
	lts.Require().NoError(err)
	_, err = lts.Lot.Release(lts.Ctx, 1)
	lts.ErrorIs(err, model.ErrAlreadyEmpty)
}

func (lts *LotTestSuite) TestReleaseStoreFailureKeepsSession() {
	lts.park(model.Car, "ABC1234")
	lts.Store.Fail(memstore.ErrOffline)
	_, err := lts.Lot.Release(lts.Ctx, 1)
	lts.requireStatus(err, http.StatusServiceUnavailable)
	lts.ErrorIs(err, model.ErrStoreUnavailable)
	spot, err := lts.Lot.Spot(1)
	lts.Require().NoError(err)
	lts.True(spot.Occupied())

	lts.Store.Fail(nil)
	_, err = lts.Lot.Release(lts.Ctx, 1)
	lts.NoError(err)
}

func (lts *LotTestSuite) TestReleaseOfSessionClosedElsewhere() {
	lts.park(model.Car, "ABC1234")
	lts.Store.CloseActive(lts.UserID, 1, lts.Clock.Now())
	_, err := lts.Lot.Release(lts.Ctx, 1)
	lts.ErrorIs(err, model.ErrAlreadyEmpty)
	lts.requireStatus(err, http.StatusConflict)
	spot, err := lts.Lot.Spot(1)
	lts.Require().NoError(err)
	lts.False(spot.Occupied(), "stale session must be dropped")
}

func (lts *LotTestSuite) TestHourlyBilling() {
	lts.Require().NoError(lts.Lot.Stop())
	lts.Lot = lts.newLot(lotuc.WithBillingModel(model.BillingHourly))
	lts.park(model.Car, "ABC1234")
	lts.Lot.Recompute(lts.Ctx)
	lts.Equal("3.00", lts.cost(1), "first hour is charged at once")
	lts.Clock.Advance(61 * time.Minute)
	rcpt, err := lts.Lot.Release(lts.Ctx, 1)
	lts.Require().NoError(err)
	lts.Equal("6.00", rcpt.Cost.String())
}

func (lts *LotTestSuite) TestRecomputeUsesCurrentRates() {
	lts.park(model.Car, "ABC1234")
	lts.park(model.Motorcycle, "DEF5678")
	lts.Clock.Advance(30 * time.Minute)
	lts.Lot.Recompute(lts.Ctx)
	lts.Equal("1.50", lts.cost(1))
	lts.Equal("1.00", lts.cost(4))

	r := model.Rates{
		Car:        model.MustMoney("6.00"),
		Motorcycle: model.MustMoney("4.00"),
	}
	got, err := lts.Lot.UpdateRates(lts.Ctx, r)
	lts.Require().NoError(err)
	lts.Equal(r, got)
	lts.Equal(r, lts.Lot.Rates())
	lts.Lot.Recompute(lts.Ctx)
	lts.Equal("3.00", lts.cost(1))
	lts.Equal("2.00", lts.cost(4))
}

func (lts *LotTestSuite) TestUpdateRatesValidation() {
	for _, car := range []string{"0", "-1.00", "100.01"} {
		_, err := lts.Lot.UpdateRates(lts.Ctx, model.Rates{
			Car:        model.MustMoney(car),
			Motorcycle: model.MustMoney("2.00"),
		})
		lts.ErrorIs(err, model.ErrInvalidRate, car)
		lts.requireStatus(err, http.StatusBadRequest)
	}
	lts.Store.Fail(memstore.ErrOffline)
	_, err := lts.Lot.UpdateRates(lts.Ctx, model.Rates{
		Car:        model.MustMoney("100"),
		Motorcycle: model.MustMoney("2.00"),
	})
	lts.requireStatus(err, http.StatusServiceUnavailable)
	lts.Equal(model.DefaultRates, lts.Lot.Rates())
}

func (lts *LotTestSuite) TestRunningEngineRecomputesOnRatesChange() {
	lts.park(model.Car, "ABC1234")
	lts.Clock.Advance(time.Hour)
	lts.Require().NoError(lts.Lot.Start(lts.Ctx))
	lts.Error(lts.Lot.Start(lts.Ctx), "double start must fail")
	lts.Eventually(func() bool {
		return lts.Lot.State() == lotuc.Running
	}, time.Second, 5*time.Millisecond)

	_, err := lts.Lot.UpdateRates(lts.Ctx, model.Rates{
		Car:        model.MustMoney("6.00"),
		Motorcycle: model.MustMoney("4.00"),
	})
	lts.Require().NoError(err)
	lts.Equal("6.00", lts.cost(1), "rates change must recompute at once")

	lts.Require().NoError(lts.Lot.Stop())
	lts.Equal(lotuc.Idle, lts.Lot.State())
	lts.Clock.Advance(time.Hour)
	_, err = lts.Lot.UpdateRates(lts.Ctx, model.Rates{
		Car:        model.MustMoney("9.00"),
		Motorcycle: model.MustMoney("4.00"),
	})
	lts.Require().NoError(err)
	lts.Equal("6.00", lts.cost(1), "stopped lot must not recompute")
	lts.NoError(lts.Lot.Stop(), "stopping twice is a no-op")
}

func (lts *LotTestSuite) TestResyncReplacesOccupancy() {
	lts.park(model.Car, "ABC1234")
	lts.Store.CloseActive(lts.UserID, 1, lts.Clock.Now())
	lts.Store.AddActive(lts.UserID, model.SessionRecord{
		SpotID:    2,
		Plate:     "QWE1A23",
		Phone:     "11987654321",
		Class:     model.Car,
		EntryTime: lts.Clock.Now().Add(-30 * time.Minute),
	})
	lts.Require().NoError(lts.Lot.Resync(lts.Ctx))

	spots := lts.Lot.Spots(model.Car)
	lts.Require().Len(spots, 3)
	lts.False(spots[0].Occupied())
	lts.Require().True(spots[1].Occupied())
	lts.Equal("QWE1A23", spots[1].Session.Plate)
	lts.EqualValues(30, spots[1].Session.Minutes)
	lts.Equal("1.50", spots[1].Session.Cost.String())
	lts.Len(lts.Lot.Search("qwe-1a23"), 1)
}

func (lts *LotTestSuite) TestResyncFailureKeepsState() {
	lts.park(model.Car, "ABC1234")
	lts.Store.Fail(memstore.ErrOffline)
	err := lts.Lot.Resync(lts.Ctx)
	lts.ErrorIs(err, model.ErrStoreUnavailable)
	lts.requireStatus(err, http.StatusServiceUnavailable)
	lts.Equal(1, lts.Observer.failures)
	lts.Len(lts.Lot.Search("ABC1234"), 1)
}

func (lts *LotTestSuite) TestRatesChangeDuringResync() {
	lts.Require().NoError(lts.Lot.Stop())
	var lot *lotuc.UseCase
	var armed atomic.Bool
	now := func() time.Time {
		if armed.CompareAndSwap(true, false) {
			_, err := lot.UpdateRates(lts.Ctx, model.Rates{
				Car:        model.MustMoney("5.00"),
				Motorcycle: model.MustMoney("2.00"),
			})
			lts.NoError(err)
		}
		return lts.Clock.Now()
	}
	lot = lts.newLot(lotuc.WithClock(now))
	lts.Lot = lot
	lts.park(model.Car, "ABC1234")
	lts.Clock.Advance(30 * time.Minute)
	lts.Require().NoError(lot.Start(lts.Ctx))

	armed.Store(true)
	lts.Require().NoError(lot.Resync(lts.Ctx))
	lts.False(armed.Load(), "rates must change while resyncing")
	lts.Equal("5.00", lot.Rates().Car.String())
	lts.Equal("2.50", lts.cost(1), "resync must not keep the older rates")
}

func (lts *LotTestSuite) TestOpenRestoresStoredState() {
	lts.park(model.Car, "ABC1234")
	r := model.Rates{
		Car:        model.MustMoney("4.00"),
		Motorcycle: model.MustMoney("1.00"),
	}
	_, err := lts.Lot.UpdateRates(lts.Ctx, r)
	lts.Require().NoError(err)

	other := lts.newLot()
	defer other.Stop()
	lts.Equal(r, other.Rates())
	spots := other.Search("ABC1234")
	lts.Require().Len(spots, 1)
	lts.Equal(1, spots[0].ID)

	lts.Store.Fail(memstore.ErrOffline)
	lot, err := lotuc.New(
		lts.Store, memstore.Sessions{}, memstore.Rates{}, lts.UserID,
	)
	lts.Require().NoError(err)
	err = lot.Open(lts.Ctx)
	lts.requireStatus(err, http.StatusServiceUnavailable)
}

func (lts *LotTestSuite) TestReport() {
	from := lts.Clock.Now()
	lts.park(model.Car, "ABC1234")
	lts.park(model.Car, "DEF5678")
	lts.Clock.Advance(30 * time.Minute)
	_, err := lts.Lot.Release(lts.Ctx, 1)
	lts.Require().NoError(err)

	rep, err := lts.Lot.Report(lts.Ctx, from, lts.Clock.Now().Add(time.Second))
	lts.Require().NoError(err)
	lts.EqualValues(1, rep.Active)
	lts.EqualValues(1, rep.Completed)
	lts.Equal("1.50", rep.Revenue.String())
	lts.Require().NotNil(rep.AverageMinutes)
	lts.InDelta(30.0, *rep.AverageMinutes, 0.001)

	_, err = lts.Lot.Report(lts.Ctx, from, from)
	lts.requireStatus(err, http.StatusBadRequest)
}

func (lts *LotTestSuite) TestConcurrentParksNeverShareSpots() {
	var wg sync.WaitGroup
	spots := make(chan int, 10)
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spot, err := lts.Lot.Park(
				lts.Ctx, model.Car, fmt.Sprintf("CON%04d", i),
				"11987654321",
			)
			if err != nil {
				errs <- err
				return
			}
			spots <- spot.ID
		}(i)
	}
	wg.Wait()
	close(spots)
	close(errs)
	seen := make(map[int]bool)
	for id := range spots {
		lts.False(seen[id], "spot %d is allocated twice", id)
		seen[id] = true
	}
	lts.Len(seen, 3)
	for err := range errs {
		lts.True(errors.Is(err, model.ErrNoSpotAvailable), err.Error())
	}
}

func (lts *LotTestSuite) TestConcurrentParksOfOnePlate() {
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(class model.VehicleClass) {
			defer wg.Done()
			_, err := lts.Lot.Park(lts.Ctx, class, "ABC1234", "11987654321")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			lts.ErrorIs(err, model.ErrDuplicatePlate)
		}(model.VehicleClasses[i%2])
	}
	wg.Wait()
	lts.Equal(1, succeeded)
	lts.Len(lts.Lot.Search("ABC1234"), 1)
}

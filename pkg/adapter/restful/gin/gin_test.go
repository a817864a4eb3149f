// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/momeni/parklot/internal/test/dbcontainer"
	"github.com/momeni/parklot/pkg/adapter/config"
	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/adapter/restful/gin"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/auth"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/routes"
	"github.com/momeni/parklot/pkg/core/repo"
	"github.com/momeni/parklot/pkg/core/usecase/appuc"
	"github.com/stretchr/testify/suite"
)

const testConfig = `
database: {host: localhost, port: 5432, name: parklot}
usecases:
  lot:
    car-spots: 3
    motorcycle-spots: 2
    tick-interval: 1h
    resync-interval: 1h
`

type IntegrationGinTestSuite struct {
	suite.Suite

	Ctx  context.Context
	Pg   *sqltestutil.PostgresContainer
	Pool *postgres.Pool
	App  *appuc.UseCase
	Gin  *gin.Engine
}

func TestIntegrationGinTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &IntegrationGinTestSuite{
		Ctx:  ctx,
		Pg:   pg,
		Pool: pool,
	})
}

func (igts *IntegrationGinTestSuite) SetupSuite() {
	c, err := config.Parse([]byte(testConfig))
	igts.Require().NoError(err, "failed to parse configs")
	igts.App, err = c.NewAppUseCase(igts.Ctx, igts.Pool)
	igts.Require().NoError(err, "cannot instantiate app use case")
	gin.SetMode(gin.TestMode)
	igts.Gin = gin.New(gin.Recovery())
	igts.Require().NotNil(igts.Gin, "cannot instantiate Gin engine")
	err = routes.Mount(igts.Gin, igts.App, "", nil)
	igts.Require().NoError(err, "failed to register Gin routes")
}

func (igts *IntegrationGinTestSuite) TearDownSuite() {
	igts.NoError(igts.App.Shutdown())
}

type spotResp struct {
	ID       int
	Class    string
	Occupied bool
	Session  *struct {
		ID    uuid.UUID
		Plate string
		Cost  string
	}
}

type errResp struct {
	Detail string
	Plate  []string
	Phone  []string
}

func (igts *IntegrationGinTestSuite) sendReqRecvResp(
	method, path string, userID uuid.UUID, body, res any,
) int {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		igts.Require().NoError(err, "cannot marshal request body")
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, routes.Prefix+path, r)
	igts.Require().NoError(err, "cannot create %s request", method)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add(auth.Header, userID.String())
	w := httptest.NewRecorder()
	igts.Gin.ServeHTTP(w, req)
	if res != nil {
		igts.NoError(json.Unmarshal(w.Body.Bytes(), res), "body is not json")
	}
	return w.Code
}

func (igts *IntegrationGinTestSuite) assertOptContains(
	expectedPart *string, seen []string, msgAndArgs ...any,
) bool {
	if expectedPart == nil {
		return true
	}
	if !igts.Equal(1, len(seen), msgAndArgs...) {
		return false
	}
	return igts.Contains(seen[0], *expectedPart, msgAndArgs...)
}

func stringAddr(s string) *string {
	return &s
}

func (igts *IntegrationGinTestSuite) park(
	userID uuid.UUID, class, plate string,
) (int, *spotResp) {
	res := &spotResp{}
	code := igts.sendReqRecvResp(
		http.MethodPost, "/spots", userID, map[string]string{
			"class": class, "plate": plate, "phone": "11987654321",
		}, res,
	)
	return code, res
}

// storedSessions returns the exit status and cost of the plate sessions
// of the userID user, ordered by their entry times.
func (igts *IntegrationGinTestSuite) storedSessions(
	userID uuid.UUID, plate string,
) (closed []bool, costs []string) {
	err := igts.Pool.Conn(
		igts.Ctx, func(ctx context.Context, c repo.Conn) error {
			rows, err := c.Query(
				ctx,
				`SELECT exit_time IS NOT NULL, COALESCE(cost::text, '')
FROM parking_sessions
WHERE user_id=$1 AND plate=$2
ORDER BY entry_time`,
				userID, plate,
			)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var done bool
				var cost string
				if err := rows.Scan(&done, &cost); err != nil {
					return err
				}
				closed = append(closed, done)
				costs = append(costs, cost)
			}
			return rows.Err()
		},
	)
	igts.Require().NoError(err, "failed to query parking sessions")
	return closed, costs
}

func (igts *IntegrationGinTestSuite) insertSession(
	userID uuid.UUID, spotID int, plate string,
) {
	err := igts.Pool.Conn(
		igts.Ctx, func(ctx context.Context, c repo.Conn) error {
			count, err := c.Exec(
				ctx,
				`INSERT INTO parking_sessions(
id, user_id, spot_id, plate, phone, vehicle_class, entry_time
) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), userID, spotID, plate, "11987654321", "car",
				time.Now().Add(-90*time.Minute),
			)
			igts.Equal(int64(1), count, "tried to INSERT one session")
			return err
		},
	)
	igts.Require().NoError(err, "failed to insert a session")
}

func (igts *IntegrationGinTestSuite) TestBadRequest() {
	userID := uuid.New()
	for _, tc := range []struct {
		name         string
		body         map[string]string
		plate, phone *string
	}{
		{
			name: "bad plate",
			body: map[string]string{
				"class": "car", "plate": "AB-12", "phone": "11987654321",
			},
			plate: stringAddr("failed on the 'plate' tag"),
		},
		{
			name: "bad phone",
			body: map[string]string{
				"class": "car", "plate": "ABC1234", "phone": "123",
			},
			phone: stringAddr("failed on the 'phone' tag"),
		},
		{
			name:  "missing both",
			body:  map[string]string{"class": "car"},
			plate: stringAddr("failed on the 'required' tag"),
			phone: stringAddr("failed on the 'required' tag"),
		},
	} {
		igts.Run(tc.name, func() {
			res := &errResp{}
			code := igts.sendReqRecvResp(
				http.MethodPost, "/spots", userID, tc.body, res,
			)
			igts.Equal(400, code)
			igts.assertOptContains(tc.plate, res.Plate, "wrong plate")
			igts.assertOptContains(tc.phone, res.Phone, "wrong phone")
		})
	}
	closed, _ := igts.storedSessions(userID, "ABC1234")
	igts.Empty(closed, "rejected requests are not stored")
}

func (igts *IntegrationGinTestSuite) TestParkAndRelease() {
	userID := uuid.New()
	code, s := igts.park(userID, "car", "abc-1234")
	igts.Require().Equal(201, code)
	igts.Equal(1, s.ID)
	igts.Require().NotNil(s.Session)

	closed, _ := igts.storedSessions(userID, "ABC1234")
	igts.Equal([]bool{false}, closed, "active session is stored")

	code, _ = igts.park(userID, "motorcycle", "ABC1234")
	igts.Equal(409, code, "plate is parked already")

	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodDelete, "/spots/1", userID, nil, nil,
	))
	closed, costs := igts.storedSessions(userID, "ABC1234")
	igts.Equal([]bool{true}, closed, "released session is finalized")
	igts.Equal([]string{"0.00"}, costs)

	code, s = igts.park(userID, "car", "ABC1234")
	igts.Equal(201, code, "released plate may park again")
	igts.Equal(1, s.ID)
	closed, _ = igts.storedSessions(userID, "ABC1234")
	igts.Equal([]bool{true, false}, closed)
}

func (igts *IntegrationGinTestSuite) TestRemoteSessions() {
	userID := uuid.New()
	var occupancy []struct {
		Class    string
		Occupied int
		Free     int
	}
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodGet, "/occupancy", userID, nil, &occupancy,
	))
	igts.Require().Len(occupancy, 2)
	igts.Equal("car", occupancy[0].Class)
	igts.Equal(0, occupancy[0].Occupied)
	igts.Equal(3, occupancy[0].Free)

	igts.insertSession(userID, 3, "XYZ9876")

	code, _ := igts.park(userID, "car", "XYZ-9876")
	igts.Equal(409, code, "remote duplicate is detected")

	occupancy = nil
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodPost, "/resync", userID, nil, &occupancy,
	))
	igts.Require().Len(occupancy, 2)
	igts.Equal(1, occupancy[0].Occupied)
	igts.Equal(2, occupancy[0].Free)

	s := &spotResp{}
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodGet, "/spots/3", userID, nil, s,
	))
	igts.True(s.Occupied)
	igts.Require().NotNil(s.Session)
	igts.Equal("XYZ-9876", s.Session.Plate)

	igts.Equal(204, igts.sendReqRecvResp(
		http.MethodDelete, "/session", userID, nil, nil,
	))
	var spots []spotResp
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodGet, "/search?plate=XYZ9876", userID, nil, &spots,
	))
	igts.Len(spots, 1, "reopened lot loads active sessions")
}

func (igts *IntegrationGinTestSuite) TestRates() {
	userID := uuid.New()
	rates := &struct {
		Car        string `json:"car_hourly_rate"`
		Motorcycle string `json:"motorcycle_hourly_rate"`
	}{}
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodGet, "/rates", userID, nil, rates,
	))
	igts.Equal("3.00", rates.Car, "default rates before any update")

	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodPut, "/rates", userID, map[string]string{
			"car_hourly_rate":        "4.50",
			"motorcycle_hourly_rate": "1.25",
		}, rates,
	))
	igts.Equal("4.50", rates.Car)
	igts.Equal("1.25", rates.Motorcycle)

	igts.Equal(204, igts.sendReqRecvResp(
		http.MethodDelete, "/session", userID, nil, nil,
	))
	rates.Car, rates.Motorcycle = "", ""
	igts.Equal(200, igts.sendReqRecvResp(
		http.MethodGet, "/rates", userID, nil, rates,
	))
	igts.Equal("4.50", rates.Car, "rates are loaded from the profile")
	igts.Equal("1.25", rates.Motorcycle)

	res := &errResp{}
	igts.Equal(400, igts.sendReqRecvResp(
		http.MethodPut, "/rates", userID, map[string]string{
			"car_hourly_rate":        "150",
			"motorcycle_hourly_rate": "1",
		}, res,
	))
}

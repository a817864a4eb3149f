// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package serdser_test

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/core/cerr"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerErr(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		name   string
		err    error
		code   int
		detail string
	}{
		{
			name:   "bad vehicle class",
			err:    cerr.BadRequest(model.ErrUnknownVehicleClass),
			code:   400,
			detail: "unknown vehicle class",
		},
		{
			name:   "wrapped conflict",
			err:    fmt.Errorf("parking: %w", cerr.Conflict(errors.New("taken"))),
			code:   409,
			detail: "taken",
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			code:   500,
			detail: "boom",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			serdser.SerErr(c, tc.err)
			assert.Equal(t, tc.code, w.Code)
			res := map[string]string{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, map[string]string{"detail": tc.detail}, res)
		})
	}
}

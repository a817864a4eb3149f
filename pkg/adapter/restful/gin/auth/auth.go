// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package auth identifies the user of each request. The user id is
// expected in the X-User-ID header, as set by an authenticating
// reverse proxy which sits in front of the plweb.
package auth

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parklot/pkg/core/cerr"
)

// Header is the name of the request header which carries the user id.
const Header = "X-User-ID"

const userIDKey = "parklot.user-id"

// ErrMissingUserID indicates a request without the X-User-ID header.
var ErrMissingUserID = errors.New("missing " + Header + " header")

// Middleware rejects requests without a valid user id with 401 and
// keeps the user id of other requests for the UserID function.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader(Header)
		if h == "" {
			serdser.SerErr(c, cerr.Authentication(ErrMissingUserID))
			c.Abort()
			return
		}
		u, err := uuid.Parse(h)
		if err != nil || u == uuid.Nil {
			serdser.SerErr(c, cerr.Authentication(
				fmt.Errorf("invalid %s header: %q", Header, h),
			))
			c.Abort()
			return
		}
		c.Set(userIDKey, u)
		c.Next()
	}
}

// UserID returns the user id which was found by Middleware.
// It panics if Middleware was not used for the current request.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}

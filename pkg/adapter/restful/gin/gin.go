// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine, so the config adapter can
// instantiate it without importing gin-gonic directly.
package gin

import "github.com/gin-gonic/gin"

type (
	HandlerFunc = gin.HandlerFunc
	Engine      = gin.Engine
)

// Gin modes.
const (
	DebugMode   = gin.DebugMode
	ReleaseMode = gin.ReleaseMode
	TestMode    = gin.TestMode
)

// New creates a gin-gonic engine which uses the given middlewares.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// SetMode changes the global gin-gonic mode.
func SetMode(mode string) {
	gin.SetMode(mode)
}

func Logger() HandlerFunc {
	return gin.Logger()
}

func Recovery() HandlerFunc {
	return gin.Recovery()
}

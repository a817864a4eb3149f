// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the generic helpers which are used by
// the config package for its optional (pointer) settings, and the
// human-readable Duration type.
package settings

// Nil2Zero makes a nil (*t) pointer point to a new zero T value.
// A non-nil (*t) is kept.
func Nil2Zero[T any](t **T) {
	if (*t) == nil {
		*t = new(T)
	}
}

// Default makes a nil (*t) pointer point to a copy of def.
// A non-nil (*t) is kept.
func Default[T any](t **T, def T) {
	if (*t) == nil {
		*t = &def
	}
}

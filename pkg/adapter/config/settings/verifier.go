// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import "cmp"

// OutOfRangeError reports a setting which was clamped into its
// [min, max] boundaries, or a pair of boundaries with min > max.
type OutOfRangeError[T cmp.Ordered] struct {
	Value        *T   // the original value, before clamping
	LessThanMin  bool // min boundary was violated
	InvalidRange bool // min is greater than max
}

func (e *OutOfRangeError[T]) Error() string {
	switch {
	case e.InvalidRange:
		return "min is greater than max"
	case e.LessThanMin:
		return "value is less than min"
	default:
		return "value is greater than max"
	}
}

// VerifyRange checks that (*value) is nil or within the non-nil minb
// and maxb boundaries. A violating value is replaced by the violated
// boundary and an error is returned which keeps the original value.
func VerifyRange[T cmp.Ordered](
	value **T, minb, maxb *T,
) *OutOfRangeError[T] {
	if minb != nil && maxb != nil && *minb > *maxb {
		return &OutOfRangeError[T]{InvalidRange: true}
	}
	if *value == nil {
		return nil
	}
	v := **value
	switch {
	case minb != nil && v < *minb:
		*value = ptr(*minb)
		return &OutOfRangeError[T]{Value: &v, LessThanMin: true}
	case maxb != nil && v > *maxb:
		*value = ptr(*maxb)
		return &OutOfRangeError[T]{Value: &v}
	}
	return nil
}

func ptr[T any](t T) *T {
	return &t
}

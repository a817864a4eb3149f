// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings

import (
	"strings"
	"time"
)

// Duration is a time.Duration which is decoded from strings like 90s
// or 5m in the configuration file.
type Duration time.Duration

// UnmarshalText parses data using time.ParseDuration. The `d` is only
// updated if data was valid.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// Marshal returns the string form of `d`, or nil if d is nil.
// Zero trailing units are omitted, so 2h0m0s is written as 2h and 5m0s
// is written as 5m. A zero duration is written as 0s.
func (d *Duration) Marshal() *string {
	if d == nil {
		return nil
	}
	s := (*time.Duration)(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return &s
}

// String returns the Marshal result, or "none" for a nil duration.
func (d *Duration) String() string {
	if s := d.Marshal(); s != nil {
		return *s
	}
	return "none"
}

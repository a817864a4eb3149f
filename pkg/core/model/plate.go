// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Both license plate layouts have exactly seven characters after
// normalization. The standard layout is three letters and four digits
// (displayed as AAA-1234) and the transitional layout is three letters,
// one digit, one letter, and two digits (displayed as is).
var (
	standardPlate     = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
	transitionalPlate = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)

	// accepted input forms; only standard plates may have a dash
	dashedPlate = regexp.MustCompile(`^[A-Z]{3}-[0-9]{4}$`)
)

// ErrInvalidPlate indicates that a license plate matches neither the
// standard nor the transitional layout.
var ErrInvalidPlate = errors.New("invalid license plate")

// ErrInvalidPhone indicates that a phone number does not contain
// 10 or 11 digits.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePlate returns the comparison form of a license plate.
// Letters are upper-cased and every non-alphanumeric character (such
// as the dash separator or spaces) is removed.
func NormalizePlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range plate {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePlate checks the plate, ignoring surrounding spaces and the
// letters case, against the standard layout (with an optional dash
// after the letters) and the transitional layout. Other separators
// are rejected.
func ValidatePlate(plate string) error {
	p := strings.ToUpper(strings.TrimSpace(plate))
	switch {
	case standardPlate.MatchString(p),
		dashedPlate.MatchString(p),
		transitionalPlate.MatchString(p):
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPlate, plate)
	}
}

// FormatPlate returns the display form of a license plate. Standard
// plates get a dash after their letters. Other plates are returned in
// their normalized form.
func FormatPlate(plate string) string {
	p := NormalizePlate(plate)
	if standardPlate.MatchString(p) {
		return p[:3] + "-" + p[3:]
	}
	return p
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone checks that the phone number has 10 or 11 digits
// after normalization (area code and a 8 or 9 digits number).
func ValidatePhone(phone string) error {
	switch n := len(NormalizePhone(phone)); n {
	case 10, 11:
		return nil
	default:
		return fmt.Errorf("%w: %d digits", ErrInvalidPhone, n)
	}
}

// FormatPhone returns the display form of a phone number, like
// (11) 98765-4321 for mobile numbers and (11) 3456-7890 for landlines.
// Numbers with an unexpected length are returned as normalized digits.
func FormatPhone(phone string) string {
	p := NormalizePhone(phone)
	switch len(p) {
	case 11:
		return fmt.Sprintf("(%s) %s-%s", p[:2], p[2:7], p[7:])
	case 10:
		return fmt.Sprintf("(%s) %s-%s", p[:2], p[2:6], p[6:])
	default:
		return p
	}
}

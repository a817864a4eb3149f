// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// VehicleClass specifies which pool of spots a vehicle may be parked
// in. Although this enum is numeric, it is (de)serialized as a string
// for readability in the adapter layer and in the sessions table.
type VehicleClass int

// Valid values for the VehicleClass enum.
const (
	VehicleClassInvalid VehicleClass = iota // zero value is invalid

	Car        // cars are parked in the first pool of spots
	Motorcycle // motorcycles are parked after all car spots
)

// VehicleClasses lists the valid vehicle classes in their spot
// ordering. Car spots always precede motorcycle spots.
var VehicleClasses = []VehicleClass{Car, Motorcycle}

// ErrUnknownVehicleClass indicates that a given string may not be
// parsed as a known vehicle class. The invalid string is not included
// because the caller of ParseVehicleClass already knows about it.
var ErrUnknownVehicleClass = errors.New("unknown vehicle class")

// VehicleClassError indicates an invalid numeric vehicle class.
type VehicleClassError int

// Error implements the error interface, returning a string
// representation of the VehicleClassError.
func (e VehicleClassError) Error() string {
	return fmt.Sprintf("invalid vehicle class: %d", e)
}

// Validate returns nil if VehicleClass value is valid. For invalid
// values, an instance of the VehicleClassError will be returned.
func (v VehicleClass) Validate() error {
	switch v {
	case Car, Motorcycle:
		return nil
	default:
		return VehicleClassError(v)
	}
}

// String converts the VehicleClass enum to a string. Invalid vehicle
// classes cause a panic.
func (v VehicleClass) String() string {
	switch v {
	case Car:
		return "car"
	case Motorcycle:
		return "motorcycle"
	default:
		panic(VehicleClassError(v))
	}
}

// ParseVehicleClass parses the given string and returns a VehicleClass.
// For invalid strings, VehicleClassInvalid and ErrUnknownVehicleClass
// will be returned.
func ParseVehicleClass(v string) (VehicleClass, error) {
	switch v {
	case "car":
		return Car, nil
	case "motorcycle":
		return Motorcycle, nil
	default:
		return VehicleClassInvalid, ErrUnknownVehicleClass
	}
}

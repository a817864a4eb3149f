// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram computes the SCRAM-SHA-256 (or SCRAM-SHA-1) verifiers
// of database role passwords, so they can be sent to an ALTER ROLE
// query instead of the plaintext passwords. It relies on the
// github.com/xdg-go/scram module for the key derivations.
package scram

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/xdg-go/scram"
)

// MinIterations is the least accepted iterations count.
const MinIterations = 4096

// Mechanism implements the pkg/core/scram.Hasher interface using
// a fixed underlying hash algorithm.
type Mechanism struct {
	gen     scram.HashGeneratorFcn
	saltLen int // bytes
	name    string
}

// SHA1 returns a new Mechanism instance using the SHA1 as its
// underlying hash algorithm.
func SHA1() *Mechanism {
	return &Mechanism{gen: scram.SHA1, saltLen: 20, name: "SCRAM-SHA-1"}
}

// SHA256 returns a new Mechanism instance using the SHA256 as its
// underlying hash algorithm.
func SHA256() *Mechanism {
	return &Mechanism{gen: scram.SHA256, saltLen: 32, name: "SCRAM-SHA-256"}
}

// ForMethod returns the Mechanism of a PostgreSQL password_encryption
// method name, namely "scram-sha-256" or "scram-sha-1" (compared case
// insensitively).
func ForMethod(method string) (*Mechanism, error) {
	switch strings.ToLower(method) {
	case "scram-sha-256":
		return SHA256(), nil
	case "scram-sha-1":
		return SHA1(), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %q", method)
	}
}

// Name returns the mechanism name, such as SCRAM-SHA-256.
func (m *Mechanism) Name() string {
	return m.name
}

// Hash computes the verifier of the non-empty pass password with the
// following format, as accepted by PostgreSQL:
//
//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
//
// The password is normalized by the SASLprep profile (RFC 4013) and
// a failed normalization returns an error. The salt must be a base64
// encoded string, or empty in order to use a random salt. The iters
// must be at least MinIterations.
func (m *Mechanism) Hash(pass, salt string, iters int) (string, error) {
	switch {
	case pass == "":
		return "", errors.New("password must be non-empty")
	case iters < MinIterations:
		return "", fmt.Errorf(
			"iters (%d) is less than %d", iters, MinIterations,
		)
	}
	rawSalt, err := m.salt(salt)
	if err != nil {
		return "", err
	}
	c, err := m.gen.NewClient("", pass, "")
	if err != nil {
		return "", fmt.Errorf("creating SCRAM client: %w", err)
	}
	sc := c.GetStoredCredentials(scram.KeyFactors{
		Salt:  string(rawSalt),
		Iters: iters,
	})
	b64 := base64.StdEncoding.EncodeToString
	return fmt.Sprintf(
		"%s$%d:%s$%s:%s",
		m.name, iters, b64(rawSalt), b64(sc.StoredKey), b64(sc.ServerKey),
	), nil
}

func (m *Mechanism) salt(salt string) ([]byte, error) {
	if salt != "" {
		b, err := base64.StdEncoding.DecodeString(salt)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 salt: %w", err)
		}
		return b, nil
	}
	b := make([]byte, m.saltLen)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("creating random salt: %w", err)
	}
	return b, nil
}

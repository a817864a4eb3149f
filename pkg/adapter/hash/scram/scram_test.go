// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scram_test

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"github.com/momeni/parklot/pkg/adapter/hash/scram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xscram "github.com/xdg-go/scram"
)

// parse splits a verifier into its stored credentials.
func parse(t *testing.T, h string) (string, xscram.StoredCredentials) {
	name, rest, ok := strings.Cut(h, "$")
	require.True(t, ok, h)
	factors, keys, ok := strings.Cut(rest, "$")
	require.True(t, ok, h)
	iters, salt, ok := strings.Cut(factors, ":")
	require.True(t, ok, h)
	stored, server, ok := strings.Cut(keys, ":")
	require.True(t, ok, h)

	n, err := strconv.Atoi(iters)
	require.NoError(t, err)
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	require.NoError(t, err)
	storedKey, err := base64.StdEncoding.DecodeString(stored)
	require.NoError(t, err)
	serverKey, err := base64.StdEncoding.DecodeString(server)
	require.NoError(t, err)
	return name, xscram.StoredCredentials{
		KeyFactors: xscram.KeyFactors{Salt: string(rawSalt), Iters: n},
		StoredKey:  storedKey,
		ServerKey:  serverKey,
	}
}

func TestHashAuthenticates(t *testing.T) {
	h, err := scram.SHA256().Hash("pencil", "", 4096)
	require.NoError(t, err)
	name, creds := parse(t, h)
	assert.Equal(t, "SCRAM-SHA-256", name)
	assert.Equal(t, 4096, creds.Iters)
	assert.Len(t, creds.Salt, 32)

	server, err := xscram.SHA256.NewServer(
		func(string) (xscram.StoredCredentials, error) {
			return creds, nil
		},
	)
	require.NoError(t, err)
	client, err := xscram.SHA256.NewClient("plweb", "pencil", "")
	require.NoError(t, err)
	cc, sc := client.NewConversation(), server.NewConversation()

	msg, err := cc.Step("")
	require.NoError(t, err)
	for !cc.Done() {
		msg, err = sc.Step(msg)
		require.NoError(t, err)
		msg, err = cc.Step(msg)
		require.NoError(t, err)
	}
	assert.True(t, cc.Valid())
	assert.True(t, sc.Valid())
}

func TestHashIsDeterministicForFixedSalt(t *testing.T) {
	salt := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef"))
	m := scram.SHA1()
	h1, err := m.Hash("secret", salt, 5000)
	require.NoError(t, err)
	h2, err := m.Hash("secret", salt, 5000)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "SCRAM-SHA-1$5000:"+salt+"$"))

	h3, err := m.Hash("other", salt, 5000)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashRejectsBadInput(t *testing.T) {
	m := scram.SHA256()
	_, err := m.Hash("", "", 4096)
	assert.Error(t, err)
	_, err = m.Hash("pass", "", 100)
	assert.Error(t, err)
	_, err = m.Hash("pass", "not base64!", 4096)
	assert.Error(t, err)
}

func TestForMethod(t *testing.T) {
	m, err := scram.ForMethod("SCRAM-SHA-256")
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-256", m.Name())
	m, err = scram.ForMethod("scram-sha-1")
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-1", m.Name())
	_, err = scram.ForMethod("md5")
	assert.Error(t, err)
}

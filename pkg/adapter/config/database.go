// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/momeni/parklot/pkg/adapter/db/postgres"
	"github.com/momeni/parklot/pkg/adapter/db/postgres/schemarp"
	"github.com/momeni/parklot/pkg/adapter/hash/scram"
	"github.com/momeni/parklot/pkg/core/log"
	"github.com/momeni/parklot/pkg/core/repo"
)

const (
	passFile    = ".pgpass"
	newPassFile = ".pgpass.new"

	// DefaultSchema is the schema which keeps the parklot tables if
	// no schema is configured.
	DefaultSchema = "parklot"
)

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name, like parklot
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// Schema is the name of the schema which keeps the sessions and
	// profiles tables. It is also used as the search_path of the
	// normal role.
	Schema string `yaml:"schema,omitempty"`

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. In the parallel test cases, it is required to create
	// multiple non-colliding roles in the same database cluster and
	// so having a unique (per test) role suffix helps with parallelism.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// AuthMethod specifies how role passwords should be hashed before
	// being sent to the DBMS. Supported methods are scram-sha-256 (the
	// default) and scram-sha-1.
	AuthMethod string `yaml:"auth-method,omitempty"`

	hasher *scram.Mechanism
}

// ValidateAndNormalize checks the database settings, fills the schema
// and auth method defaults, and instantiates the passwords hasher.
func (d *Database) ValidateAndNormalize() error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("host is empty"))
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", d.Port))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("database name is empty"))
	}
	if d.Schema == "" {
		d.Schema = DefaultSchema
	}
	if d.AuthMethod == "" {
		d.AuthMethod = "scram-sha-256"
	}
	h, err := scram.ForMethod(d.AuthMethod)
	if err != nil {
		errs = append(errs, err)
	}
	d.hasher = h
	return errors.Join(errs...)
}

// ConnectionPool creates a database connection pool for the `r` role
// (suffixed by d.RoleSuffix). The password is taken from the .pgpass
// file in d.PassDir whose lines look like this:
//
//	host:port:dbname:role:password
//
// If no connection could be established with it, the .pgpass.new file
// is tried, since passwords may have been renewed by an interrupted
// initialization. A successful connection using .pgpass.new moves it
// over .pgpass.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (repo.Pool, error) {
	path := filepath.Join(d.PassDir, passFile)
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err == nil {
		return p, nil
	}
	newPath := filepath.Join(d.PassDir, newPassFile)
	log.Warn(
		ctx, "connection failed, trying the renewed passwords",
		slog.String("pass-file", path),
		slog.String("new-pass-file", newPath),
		log.Err("err", err),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err = postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

// ConnectionURL returns the postgresql URL of the `r` role using
// the password which is found in the `path` pgpass file. Empty lines
// and lines starting with # are ignored.
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no password line for %q role", r)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// NewSchemaRepo instantiates a Schema repository which suffixes role
// names by d.RoleSuffix and hashes passwords with the configured auth
// method. ValidateAndNormalize must be called beforehand.
func (d Database) NewSchemaRepo() repo.Schema {
	return schemarp.New(d.RoleSuffix, d.hasher)
}

// RenewPasswords generates a random password for each one of roles,
// writes them into the .pgpass.new file, and passes them to `change`
// so they can be set in the database. The returned finalizer moves
// .pgpass.new over .pgpass and should be called once the transaction
// which was used by `change` is committed.
//
// The `d.RoleSuffix` is appended to the role names in the file. The
// `change` function must add the same suffix to its `roles` too.
func (d Database) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	passwords := make([]string, len(roles))
	b := make([]byte, 16) // 128 bits
	enc := base64.RawStdEncoding
	prfx := fmt.Sprintf("%s:%d:%s", d.Host, d.Port, d.Name)
	var lines strings.Builder
	for i, r := range roles {
		if _, err = rand.Read(b); err != nil {
			return nil, fmt.Errorf("rand.Read for i=%d: %w", i, err)
		}
		passwords[i] = enc.EncodeToString(b)
		fmt.Fprintf(&lines, "%s:%s:%s\n", prfx, r+d.RoleSuffix, passwords[i])
	}
	orgPath := filepath.Join(d.PassDir, passFile)
	newPath := filepath.Join(d.PassDir, newPassFile)
	if err = os.MkdirAll(d.PassDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating pass-dir: %w", err)
	}
	err = os.WriteFile(newPath, []byte(lines.String()), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing %q file: %w", newPath, err)
	}
	if err = change(ctx, roles, passwords); err != nil {
		return nil, fmt.Errorf("passwords change callback: %w", err)
	}
	return func() error {
		return os.Rename(newPath, orgPath)
	}, nil
}

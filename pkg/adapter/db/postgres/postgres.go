// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres provides the PostgreSQL reification of the repo
// Pool, Conn, and Tx interfaces (based on GORM and the pgx driver) and
// helpers which are shared by the repository packages, such as
// sessionsrp and ratesrp, in order to classify the database errors.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation is the SQLSTATE of a unique constraint violation.
const UniqueViolation = "23505"

// ViolatedConstraint returns the name of the unique constraint (or
// unique index) which was violated by err, or an empty string if err
// does not wrap a unique violation error.
func ViolatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.SQLState() == UniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"

	"github.com/momeni/parklot/pkg/core/repo"
	"gorm.io/gorm"
)

// Conn is a dedicated database connection which implements the
// repo.Conn interface.
type Conn struct {
	*gorm.DB
}

// Tx is an ongoing transaction which implements the repo.Tx interface.
type Tx struct {
	*gorm.DB
}

type TxHandler = repo.TxHandler

// Tx begins a transaction and passes it to the f handler. The
// transaction is committed if f returns nil and is rolled back if f
// returns an error or panics.
func (c *Conn) Tx(ctx context.Context, f TxHandler) (err error) {
	tx := c.DB.WithContext(ctx).Begin()
	if err = tx.Error; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			if err = tx.Rollback().Error; err != nil {
				err = fmt.Errorf("panicked: %v, rollback: %w", r, err)
				return
			}
			err = fmt.Errorf("panicked: %v", r)
			return
		}
		if err != nil {
			if err2 := tx.Rollback().Error; err2 != nil {
				err = fmt.Errorf("handler: %w, rollback: %w", err, err2)
				return
			}
			err = fmt.Errorf("handler: %w", err)
			return
		}
		if err = tx.Commit().Error; err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}()
	return f(ctx, &Tx{DB: tx})
}

// Exec runs sql with args and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(c.GORM(ctx), sql, args)
}

// Query runs sql with args and returns its result rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(c.GORM(ctx), sql, args)
}

// IsConn marks Conn as a repo.Conn.
func (c *Conn) IsConn() {
}

// GORM returns the GORM session of this connection, bound to ctx.
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}

// Exec runs sql with args and returns the number of affected rows.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(tx.GORM(ctx), sql, args)
}

// Query runs sql with args and returns its result rows.
func (tx *Tx) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(tx.GORM(ctx), sql, args)
}

// IsTx marks Tx as a repo.Tx.
func (tx *Tx) IsTx() {
}

// GORM returns the GORM session of this transaction, bound to ctx.
func (tx *Tx) GORM(ctx context.Context) *gorm.DB {
	return tx.DB.WithContext(ctx)
}

func execute(gdb *gorm.DB, sql string, args []any) (int64, error) {
	res := gdb.Exec(sql, args...)
	if err := res.Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func query(gdb *gorm.DB, sql string, args []any) (repo.Rows, error) {
	rows, err := gdb.Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	return rowsAdapter{rows}, nil
}

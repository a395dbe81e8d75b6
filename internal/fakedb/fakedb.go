// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
package fakedb // import "github.com/go-lpc/tsemu/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

// Exec is a statement executed against the fake DB.
type Exec struct {
	Query string
	Args  []driver.Value
}

var query struct {
	mu    sync.Mutex
	rows  Rows
	execs []Exec
	err   error
}

// Run runs f with the fake DB serving rows to every query.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows
	query.execs = nil
	query.err = nil

	return f(ctx)
}

// Fail runs f with every statement failing with err.
func Fail(ctx context.Context, err error, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = Rows{}
	query.execs = nil
	query.err = err

	return f(ctx)
}

// Executed returns the statements executed during the current Run.
// Executed must be called from within Run.
func Executed() []Exec {
	return append([]Exec(nil), query.execs...)
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

func (c *Conn) Close() error {
	return nil
}

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("fakedb: transactions not supported")
}

type Stmt struct {
	query string
}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: argument counts are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec records the statement and reports one affected row.
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if query.err != nil {
		return nil, query.err
	}
	query.execs = append(query.execs, Exec{
		Query: stmt.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return result{id: int64(len(query.execs))}, nil
}

// Query returns the rows of the current Run.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if query.err != nil {
		return nil, query.err
	}
	return &query.rows, nil
}

type result struct {
	id int64
}

func (res result) LastInsertId() (int64, error) { return res.id, nil }
func (res result) RowsAffected() (int64, error) { return 1, nil }

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row, or returns io.EOF.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Rows   = (*Rows)(nil)
	_ driver.Result = result{}
)

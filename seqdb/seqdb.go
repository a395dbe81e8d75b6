// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seqdb stores compiled timing sequences and emulation runs
// in a MySQL database.
package seqdb // import "github.com/go-lpc/tsemu/seqdb"

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-lpc/tsemu/internal/crc16"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	host = "localhost"
	usr  = "username"
	pwd  = "s3cr3t"

	drvName = "mysql"
)

// Sequence is a compiled timing sequence.
type Sequence struct {
	Name    string    `db:"name"`
	Payload []byte    `db:"payload"`
	CRC     uint16    `db:"crc"`
	Created time.Time `db:"created"`
}

// Run summarizes an emulation run of a sequence.
type Run struct {
	ID          int64     `db:"id"`
	Sequence    string    `db:"sequence"`
	Pulses      int       `db:"pulses"`
	Ticks       uint64    `db:"ticks"`
	Diagnostics int       `db:"diagnostics"`
	Created     time.Time `db:"created"`
}

// DB is the sequence store.
type DB struct {
	db   *sqlx.DB
	name string
}

// Open opens a connection to the sequence store dbname.
//
// Credentials are read from the TSEMU_DB_USER, TSEMU_DB_PASS and
// TSEMU_DB_HOST environment variables when set.
func Open(dbname string) (*DB, error) {
	db, err := sqlx.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("seqdb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(dbname string) string {
	cfg := mysql.NewConfig()
	cfg.User = env("TSEMU_DB_USER", usr)
	cfg.Passwd = env("TSEMU_DB_PASS", pwd)
	cfg.Net = "tcp"
	cfg.Addr = env("TSEMU_DB_HOST", host)
	cfg.DBName = dbname
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func ping(db *sqlx.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("seqdb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Init creates the tables of the sequence store.
func (db *DB) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS sequences (name VARCHAR(64) NOT NULL PRIMARY KEY, payload LONGBLOB NOT NULL, crc SMALLINT UNSIGNED NOT NULL, created DATETIME NOT NULL)",
		"CREATE TABLE IF NOT EXISTS runs (id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, sequence VARCHAR(64) NOT NULL, pulses INT UNSIGNED NOT NULL, ticks BIGINT UNSIGNED NOT NULL, diagnostics INT UNSIGNED NOT NULL, created DATETIME NOT NULL)",
	} {
		_, err := db.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("seqdb: could not create tables: %w", err)
		}
	}
	return nil
}

// Store stores payload under name, replacing any previous sequence
// with the same name.
func (db *DB) Store(ctx context.Context, name string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if name == "" {
		return fmt.Errorf("seqdb: empty sequence name")
	}

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO sequences (name, payload, crc, created) VALUES (?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE payload=VALUES(payload), crc=VALUES(crc), created=VALUES(created)",
		name, payload, crc16.Checksum(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("seqdb: could not store sequence %q: %w", name, err)
	}
	return nil
}

// Sequence retrieves the named sequence and verifies its checksum.
func (db *DB) Sequence(ctx context.Context, name string) (Sequence, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var seq Sequence
	err := db.db.GetContext(
		ctx, &seq,
		"SELECT name, payload, crc, created FROM sequences WHERE name=?",
		name,
	)
	if err != nil {
		return seq, fmt.Errorf("seqdb: could not retrieve sequence %q: %w", name, err)
	}
	return seq, verify(seq)
}

// LastSequence retrieves the most recently stored sequence.
func (db *DB) LastSequence(ctx context.Context) (Sequence, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var seq Sequence
	err := db.db.GetContext(
		ctx, &seq,
		"SELECT name, payload, crc, created FROM sequences ORDER BY created DESC LIMIT 1",
	)
	if err != nil {
		return seq, fmt.Errorf("seqdb: could not retrieve last sequence: %w", err)
	}
	return seq, verify(seq)
}

// Sequences lists the stored sequences, most recent first.
// Payloads are not retrieved.
func (db *DB) Sequences(ctx context.Context) ([]Sequence, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var seqs []Sequence
	err := db.db.SelectContext(
		ctx, &seqs,
		"SELECT name, crc, created FROM sequences ORDER BY created DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("seqdb: could not list sequences: %w", err)
	}
	return seqs, nil
}

func verify(seq Sequence) error {
	if crc := crc16.Checksum(seq.Payload); crc != seq.CRC {
		return fmt.Errorf("seqdb: corrupted sequence %q (crc=0x%04x, want=0x%04x)",
			seq.Name, crc, seq.CRC,
		)
	}
	return nil
}

// RecordRun records the summary of a run and returns its identifier.
func (db *DB) RecordRun(ctx context.Context, run Run) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if run.Created.IsZero() {
		run.Created = time.Now().UTC()
	}

	res, err := db.db.ExecContext(
		ctx,
		"INSERT INTO runs (sequence, pulses, ticks, diagnostics, created) VALUES (?, ?, ?, ?, ?)",
		run.Sequence, run.Pulses, run.Ticks, run.Diagnostics, run.Created,
	)
	if err != nil {
		return 0, fmt.Errorf("seqdb: could not record run of %q: %w", run.Sequence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("seqdb: could not retrieve run id: %w", err)
	}
	return id, nil
}

// Runs returns the runs of the named sequence, most recent first.
func (db *DB) Runs(ctx context.Context, name string) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var runs []Run
	err := db.db.SelectContext(
		ctx, &runs,
		"SELECT id, sequence, pulses, ticks, diagnostics, created FROM runs WHERE sequence=? ORDER BY created DESC",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("seqdb: could not retrieve runs of %q: %w", name, err)
	}
	return runs, nil
}

// Source returns the named sequence as a sequence source.
// An empty name designates the most recently stored sequence.
func (db *DB) Source(name string) *Source {
	return &Source{db: db, name: name}
}

// Source fetches a sequence from the store.
type Source struct {
	db   *DB
	name string
}

func (src *Source) Fetch(ctx context.Context) ([]byte, error) {
	var (
		seq Sequence
		err error
	)
	switch src.name {
	case "":
		seq, err = src.db.LastSequence(ctx)
	default:
		seq, err = src.db.Sequence(ctx, src.name)
	}
	if err != nil {
		return nil, err
	}
	return seq.Payload, nil
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package board emulates the boards of the experiment-control crate:
// the digital output board, the analog output banks, the input boards
// and the two FPGA functions (synchronous commands and delay train).
package board // import "github.com/go-lpc/tsemu/board"

import (
	"context"
	"log"

	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

// Board is an emulated board.
type Board interface {
	Kind() tsformat.Kind
	Name() string  // group name
	Clock() string // clock name

	// Populate decodes the timing group destined to the board and
	// registers the board in the wiring table.
	// A board whose group could not be decoded stays inert.
	Populate(ctx context.Context, grp tsformat.Group) error

	// Cycle advances the board by one tick of its clock and returns
	// the new channel values.
	Cycle() Snapshot

	// Values returns the current channel values.
	Values() []float64

	Inert() bool
}

// Snapshot holds the channel values of a board after a cycle.
type Snapshot struct {
	Name   string
	Values []float64

	// Placeholder marks boards without a data source: their values
	// must not be taken for real data.
	Placeholder bool

	// Triggered holds the snapshots of the boards clocked by this
	// board during the same cycle, in link order.
	Triggered []Snapshot
}

// Flatten returns the snapshot followed by the snapshots it triggered.
func (s Snapshot) Flatten() []Snapshot {
	o := make([]Snapshot, 0, 1+len(s.Triggered))
	head := s
	head.Triggered = nil
	o = append(o, head)
	for _, sub := range s.Triggered {
		o = append(o, sub.Flatten()...)
	}
	return o
}

// Env is the environment shared by the boards of one emulator.
type Env struct {
	Wiring *Wiring
	Codec  sparse.Codec
	Msg    *log.Logger

	// ExactVolts keeps analog values unrounded.
	ExactVolts bool

	// Links holds the clock names of the boards clocked by the first
	// lines of the digital output board: line i clocks Links[i].
	Links []string
}

func (env *Env) printf(format string, args ...interface{}) {
	if env.Msg == nil {
		return
	}
	env.Msg.Printf(format, args...)
}

// base holds what all boards share.
type base struct {
	env   *Env
	hdr   tsformat.Header
	inert bool
	vals  []float64
}

func (b *base) Name() string  { return b.hdr.Name }
func (b *base) Clock() string { return b.hdr.Clock }
func (b *base) Inert() bool   { return b.inert }

// Header returns the header of the group the board was populated with.
func (b *base) Header() tsformat.Header { return b.hdr }

func (b *base) Values() []float64 {
	return append([]float64(nil), b.vals...)
}

func (b *base) snapshot() Snapshot {
	return Snapshot{Name: b.hdr.Name, Values: b.Values()}
}

// init resets the board for grp and registers self in the wiring table.
func (b *base) init(self Board, grp tsformat.Group) {
	b.hdr = grp.Header
	b.inert = false
	b.vals = nil

	w := b.env.Wiring
	if w == nil {
		return
	}
	for _, name := range []string{b.hdr.Clock, b.hdr.Name} {
		err := w.Register(name, self)
		if err != nil {
			b.env.printf("could not register %s board %q: %+v", b.hdr.Kind, b.hdr.Name, err)
		}
	}
}

// fail marks the board inert with n zeroed channels.
func (b *base) fail(n int, err error) error {
	b.inert = true
	b.vals = make([]float64, n)
	b.env.printf("%s board %q is inert: %+v", b.hdr.Kind, b.hdr.Name, err)
	return err
}

// track holds decoded channels and one read cursor per channel.
type track struct {
	rows [][]float64
	cur  []int
}

func newTrack(rows [][]float64) track {
	return track{rows: rows, cur: make([]int, len(rows))}
}

// pop reads the next value of every channel into dst.
// Exhausted channels yield 0.
func (t *track) pop(dst []float64) {
	for i := range dst {
		if i >= len(t.rows) || t.cur[i] >= len(t.rows[i]) {
			dst[i] = 0
			continue
		}
		dst[i] = t.rows[i][t.cur[i]]
		t.cur[i]++
	}
}

// remaining returns the number of unread updates of the longest channel.
func (t *track) remaining() int {
	n := 0
	for i, row := range t.rows {
		if r := len(row) - t.cur[i]; r > n {
			n = r
		}
	}
	return n
}

func bitRows(lines [][]uint8) [][]float64 {
	o := make([][]float64, len(lines))
	for i, line := range lines {
		o[i] = make([]float64, len(line))
		for j, v := range line {
			o[i][j] = float64(v)
		}
	}
	return o
}

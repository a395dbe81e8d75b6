// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

import (
	"fmt"
	"log"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/board"
)

// Dispatcher routes the synchronous command words to the boards they
// clock, and assembles the composite record of a pulse.
type Dispatcher struct {
	msg    *log.Logger
	sync   board.Board
	wiring *board.Wiring
	lines  map[int]string

	do    board.Board
	banks []string
	width []int

	seen  map[int]bool
	diags []error
}

func newDispatcher(msg *log.Logger, sync, do board.Board, wiring *board.Wiring, lines map[int]string, banks []string) *Dispatcher {
	disp := &Dispatcher{
		msg:    msg,
		sync:   sync,
		wiring: wiring,
		lines:  lines,
		do:     do,
		banks:  banks,
		width:  make([]int, 1+len(banks)),
		seen:   make(map[int]bool),
	}
	disp.width[0] = board.NumDOLines
	for i, name := range banks {
		if b, ok := wiring.Lookup(name); ok {
			disp.width[i+1] = len(b.Values())
		}
	}
	return disp
}

// Labels returns the names of the rows of the composite record.
func (disp *Dispatcher) Labels() []string {
	var o []string
	for i, n := range disp.width {
		prefix := "DO"
		if i > 0 {
			prefix = fmt.Sprintf("AO%d", i)
		}
		for j := 0; j < n; j++ {
			o = append(o, fmt.Sprintf("%s:%02d", prefix, j))
		}
	}
	return o
}

// Dispatch pops the next sync word, cycles the boards wired to its set
// lines and returns the sync lines with the composite record.
func (disp *Dispatcher) Dispatch() (lines []float64, record []float64) {
	lines = make([]float64, board.NumSyncLines)
	if disp.sync != nil {
		copy(lines, disp.sync.Cycle().Values)
	}

	var snap *board.Snapshot
	for i, v := range lines {
		if v == 0 {
			continue
		}
		name, ok := disp.lines[i]
		if !ok {
			disp.report(i, &tsemu.ConfigError{
				Kind:   tsemu.ErrUnassignedSyncLine,
				Detail: fmt.Sprintf("line=%d", i),
			})
			continue
		}
		b, ok := disp.wiring.Lookup(name)
		if !ok {
			disp.report(i, &tsemu.ConfigError{
				Kind:   tsemu.ErrUnwiredLine,
				Detail: fmt.Sprintf("line=%d, board=%q", i, name),
			})
			continue
		}
		cur := b.Cycle()
		if b == disp.do {
			snap = &cur
		}
	}

	return lines, disp.record(snap)
}

// record flattens the DO snapshot, or the held values when the DO did
// not cycle, into the composite record.
func (disp *Dispatcher) record(snap *board.Snapshot) []float64 {
	n := 0
	for _, w := range disp.width {
		n += w
	}
	o := make([]float64, 0, n)

	put := func(vals []float64, w int) {
		for i := 0; i < w; i++ {
			v := 0.0
			if i < len(vals) {
				v = vals[i]
			}
			o = append(o, v)
		}
	}

	switch {
	case snap != nil:
		put(snap.Values, disp.width[0])
	case disp.do != nil:
		put(disp.do.Values(), disp.width[0])
	default:
		put(nil, disp.width[0])
	}

	for i, name := range disp.banks {
		w := disp.width[i+1]
		if snap != nil && i < len(snap.Triggered) {
			put(snap.Triggered[i].Values, w)
			continue
		}
		b, ok := disp.wiring.Lookup(name)
		if !ok {
			put(nil, w)
			continue
		}
		put(b.Values(), w)
	}
	return o
}

func (disp *Dispatcher) report(line int, err error) {
	if disp.seen[line] {
		return
	}
	disp.seen[line] = true
	disp.diags = append(disp.diags, err)
	if disp.msg != nil {
		disp.msg.Printf("%+v", err)
	}
}

// Diagnostics returns the configuration errors met while dispatching.
func (disp *Dispatcher) Diagnostics() []error {
	return append([]error(nil), disp.diags...)
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"context"

	"github.com/go-lpc/tsemu/scale"
	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

// NumDOLines is the number of lines of the digital output board.
const NumDOLines = 32

// Digital is a digital board: an output board (DO) driving 32 lines,
// or an input board (DI) with no data source.
type Digital struct {
	base
	kind tsformat.Kind

	lines track
	prev  []float64 // line levels of the previous cycle

	dense sparse.Dense // DI only
	warn  bool
}

// NewDO returns a digital output board.
func NewDO(env *Env) *Digital {
	return &Digital{
		base: base{env: env, vals: make([]float64, NumDOLines)},
		kind: tsformat.KindDO,
		prev: make([]float64, NumDOLines),
	}
}

// NewDI returns a digital input board.
func NewDI(env *Env) *Digital {
	return &Digital{base: base{env: env}, kind: tsformat.KindDI}
}

func (b *Digital) Kind() tsformat.Kind { return b.kind }

func (b *Digital) Populate(ctx context.Context, grp tsformat.Group) error {
	b.init(b, grp)

	dense, lay, err := b.env.Codec.Decode(ctx, grp)
	if b.kind == tsformat.KindDI {
		if err != nil {
			return b.fail(int(lay.Channels), err)
		}
		b.dense = dense
		b.vals = make([]float64, dense.Channels())
		return nil
	}

	b.prev = make([]float64, NumDOLines)
	if err != nil {
		b.lines = track{}
		return b.fail(NumDOLines, err)
	}

	b.lines = newTrack(bitRows(scale.Lines(dense, 0, NumDOLines)))
	b.vals = make([]float64, NumDOLines)
	return nil
}

// Remaining returns the number of updates left on the board.
func (b *Digital) Remaining() int { return b.lines.remaining() }

// Cycle pops the next 32-bit word of the output board.
//
// A rising edge on line i clocks the board bound to Links[i]; the other
// linked boards report their held values.
func (b *Digital) Cycle() Snapshot {
	if b.kind == tsformat.KindDI {
		if !b.warn {
			b.warn = true
			b.env.printf("DI board %q has no data source: emitting placeholder values", b.hdr.Name)
		}
		snap := b.snapshot()
		snap.Placeholder = true
		return snap
	}

	b.lines.pop(b.vals)
	snap := b.snapshot()

	for i, link := range b.env.Links {
		rising := i < len(b.vals) && b.prev[i] == 0 && b.vals[i] == 1
		dst, ok := b.lookup(link)
		switch {
		case !ok:
			snap.Triggered = append(snap.Triggered, Snapshot{Name: link})
		case rising:
			snap.Triggered = append(snap.Triggered, dst.Cycle())
		default:
			snap.Triggered = append(snap.Triggered, Snapshot{Name: dst.Name(), Values: dst.Values()})
		}
	}
	copy(b.prev, b.vals)

	return snap
}

func (b *Digital) lookup(name string) (Board, bool) {
	if b.env.Wiring == nil {
		return nil, false
	}
	return b.env.Wiring.Lookup(name)
}

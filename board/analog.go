// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"context"

	"github.com/go-lpc/tsemu/scale"
	"github.com/go-lpc/tsemu/tsformat"
)

// Analog is an analog board: an output bank (AO) or an input
// board (AI) with no data source.
type Analog struct {
	base
	kind tsformat.Kind
	rng  float64 // full-scale range in volts

	data track
	warn bool
}

// NewAO returns an analog output bank with the given full-scale range.
func NewAO(env *Env, rng float64) *Analog {
	return &Analog{base: base{env: env}, kind: tsformat.KindAO, rng: rng}
}

// NewAI returns an analog input board with the given full-scale range.
func NewAI(env *Env, rng float64) *Analog {
	return &Analog{base: base{env: env}, kind: tsformat.KindAI, rng: rng}
}

func (b *Analog) Kind() tsformat.Kind { return b.kind }

// Range returns the full-scale range of the board, in volts.
func (b *Analog) Range() float64 { return b.rng }

func (b *Analog) Populate(ctx context.Context, grp tsformat.Group) error {
	b.init(b, grp)
	b.data = track{}

	dense, lay, err := b.env.Codec.Decode(ctx, grp)
	if err != nil {
		return b.fail(int(lay.Channels), err)
	}

	conv := scale.Analog{Width: int(lay.ValueWidth), Range: b.rng, Exact: b.env.ExactVolts}
	b.data = newTrack(conv.Convert(dense))
	b.vals = make([]float64, len(b.data.rows))
	return nil
}

// Remaining returns the number of updates left on the board.
func (b *Analog) Remaining() int { return b.data.remaining() }

// Cycle pops the next value of every channel.
func (b *Analog) Cycle() Snapshot {
	if b.kind == tsformat.KindAI {
		if !b.warn {
			b.warn = true
			b.env.printf("AI board %q has no data source: emitting placeholder values", b.hdr.Name)
		}
		snap := b.snapshot()
		snap.Placeholder = true
		return snap
	}

	b.data.pop(b.vals)
	return b.snapshot()
}

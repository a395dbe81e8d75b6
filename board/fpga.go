// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"context"

	"github.com/go-lpc/tsemu/scale"
	"github.com/go-lpc/tsemu/tsformat"
)

// NumSyncLines is the number of lines driven by a synchronous command word.
const NumSyncLines = 8

// Sync is the FPGA function emitting synchronous command words.
type Sync struct {
	base
	lines track
}

func NewSync(env *Env) *Sync {
	return &Sync{base: base{env: env, vals: make([]float64, NumSyncLines)}}
}

func (b *Sync) Kind() tsformat.Kind { return tsformat.KindSync }

func (b *Sync) Populate(ctx context.Context, grp tsformat.Group) error {
	b.init(b, grp)
	b.lines = track{}

	dense, _, err := b.env.Codec.Decode(ctx, grp)
	if err != nil {
		return b.fail(NumSyncLines, err)
	}
	b.lines = newTrack(bitRows(scale.Lines(dense, 0, NumSyncLines)))
	b.vals = make([]float64, NumSyncLines)
	return nil
}

// Remaining returns the number of command words left.
func (b *Sync) Remaining() int { return b.lines.remaining() }

// Cycle pops the next command word, expanded into 8 lines.
// An exhausted board yields all-zero lines.
func (b *Sync) Cycle() Snapshot {
	b.lines.pop(b.vals)
	return b.snapshot()
}

// Delay is the FPGA function holding the delay train: the tick count
// between consecutive pulses of the master clock.
type Delay struct {
	base
	train []uint64
	next  int
}

func NewDelay(env *Env) *Delay {
	return &Delay{base: base{env: env}}
}

func (b *Delay) Kind() tsformat.Kind { return tsformat.KindDelay }

func (b *Delay) Populate(ctx context.Context, grp tsformat.Group) error {
	b.init(b, grp)
	b.train = nil
	b.next = 0

	train, err := grp.DelayTrain()
	if err != nil {
		return b.fail(0, err)
	}
	b.train = train
	b.vals = make([]float64, 1)
	return nil
}

// Freq returns the master clock frequency, in Hz.
func (b *Delay) Freq() uint32 { return b.hdr.ClockFreq }

// Train returns the whole delay train.
func (b *Delay) Train() []uint64 {
	return append([]uint64(nil), b.train...)
}

// Len returns the number of delays not yet popped.
func (b *Delay) Len() int { return len(b.train) - b.next }

// Pop returns the next delay of the train.
func (b *Delay) Pop() (uint64, bool) {
	if b.next >= len(b.train) {
		return 0, false
	}
	v := b.train[b.next]
	b.next++
	if len(b.vals) > 0 {
		b.vals[0] = float64(v)
	}
	return v, true
}

// Cycle pops the next delay.
func (b *Delay) Cycle() Snapshot {
	b.Pop()
	return b.snapshot()
}

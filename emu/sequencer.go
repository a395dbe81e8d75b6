// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

import (
	"context"
	"fmt"
	"time"
)

// Pulse is a pulse of the master clock.
type Pulse struct {
	Tick   uint64    // master clock tick
	Time   float64   // elapsed time, in milliseconds
	Sync   []float64 // sync command lines
	Values []float64 // composite record, one value per waveform row
}

// Train is a delay train consumed front-first.
type Train interface {
	Pop() (uint64, bool)
}

// Sequencer drains a delay train and fires the dispatcher at every
// pulse instant.
//
// When the tick counter reaches zero the sequencer fires, pops the next
// delay and fires again at the same tick if that delay is zero.
// Idle ticks are skipped: a train [3, 0, 2] fires at ticks 3, 3 and 5.
type Sequencer struct {
	train   Train
	disp    *Dispatcher
	freq    uint32
	horizon uint64 // last tick that may fire

	tick uint64
	done bool
}

func newSequencer(train Train, disp *Dispatcher, freq uint32, horizon time.Duration) (*Sequencer, error) {
	seq := &Sequencer{
		train:   train,
		disp:    disp,
		freq:    freq,
		horizon: horizonTicks(horizon, freq),
	}
	if train == nil {
		seq.done = true
		return seq, nil
	}
	if freq == 0 {
		return nil, fmt.Errorf("emu: invalid master clock frequency (freq=%d)", freq)
	}
	return seq, nil
}

func horizonTicks(d time.Duration, freq uint32) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return sec*uint64(freq) + rem*uint64(freq)/uint64(time.Second)
}

// Labels returns the names of the values of the pulse records.
func (seq *Sequencer) Labels() []string {
	if seq.disp == nil {
		return nil
	}
	return seq.disp.Labels()
}

// Tick returns the current master clock tick.
func (seq *Sequencer) Tick() uint64 { return seq.tick }

// Millis converts a master clock tick into milliseconds.
func (seq *Sequencer) Millis(tick uint64) float64 {
	if seq.freq == 0 {
		return 0
	}
	return float64(tick) * 1000 / float64(seq.freq)
}

// Next advances the sequencer to the next pulse.
// Next returns false once the delay train is exhausted or the next pulse
// lies past the horizon.
func (seq *Sequencer) Next(ctx context.Context) (Pulse, bool, error) {
	if err := ctx.Err(); err != nil {
		return Pulse{}, false, fmt.Errorf("emu: run aborted: %w", err)
	}
	if seq.done {
		return Pulse{}, false, nil
	}

	delay, ok := seq.train.Pop()
	if !ok {
		seq.done = true
		return Pulse{}, false, nil
	}

	tick := seq.tick + delay
	if tick < seq.tick || tick > seq.horizon {
		seq.done = true
		return Pulse{}, false, nil
	}
	seq.tick = tick

	p := Pulse{
		Tick: tick,
		Time: seq.Millis(tick),
	}
	if seq.disp != nil {
		p.Sync, p.Values = seq.disp.Dispatch()
	}
	return p, true, nil
}

// Run drains the sequencer into a waveform.
// A cancelled run returns no waveform.
func (seq *Sequencer) Run(ctx context.Context, labels []string) (*Waveform, error) {
	wf := newWaveform(labels)
	for {
		p, ok, err := seq.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return wf, nil
		}
		wf.append(p)
	}
}

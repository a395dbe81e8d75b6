// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emu replays a timing sequence on a set of emulated boards.
package emu // import "github.com/go-lpc/tsemu/emu"

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/board"
	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

var kinds = []tsformat.Kind{
	tsformat.KindDO,
	tsformat.KindAO,
	tsformat.KindDI,
	tsformat.KindAI,
	tsformat.KindSync,
	tsformat.KindDelay,
}

// Slot is an emulated board and the group it was populated with.
type Slot struct {
	Board board.Board
	Group *tsformat.Group // nil for a free slot
	Err   error           // populate error, if any
}

// Emulator emulates a crate of boards.
type Emulator struct {
	cfg config
	msg *log.Logger
	env *board.Env

	slots map[tsformat.Kind][]*Slot
	grps  []tsformat.Group
	diags []error

	seq *Sequencer
}

// New creates an emulator.
func New(opts ...Option) *Emulator {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.msg == nil {
		cfg.msg = log.New(io.Discard, "emu: ", 0)
	}

	emu := &Emulator{
		cfg: cfg,
		msg: cfg.msg,
	}
	emu.reset()
	return emu
}

func (emu *Emulator) reset() {
	emu.env = &board.Env{
		Wiring: board.NewWiring(),
		Codec: sparse.Codec{
			Expander: emu.cfg.expander,
			Timeout:  emu.cfg.timeout,
		},
		Msg:        emu.msg,
		Links:      emu.cfg.aoClocks,
		ExactVolts: emu.cfg.exact,
	}
	emu.slots = make(map[tsformat.Kind][]*Slot, len(kinds))
	for _, kind := range kinds {
		n := emu.cfg.slots[kind]
		slots := make([]*Slot, n)
		for i := range slots {
			slots[i] = &Slot{Board: emu.newBoard(kind)}
		}
		emu.slots[kind] = slots
	}
	emu.grps = nil
	emu.diags = nil
	emu.seq = nil
}

func (emu *Emulator) newBoard(kind tsformat.Kind) board.Board {
	switch kind {
	case tsformat.KindDO:
		return board.NewDO(emu.env)
	case tsformat.KindAO:
		return board.NewAO(emu.env, emu.cfg.aoRange)
	case tsformat.KindDI:
		return board.NewDI(emu.env)
	case tsformat.KindAI:
		return board.NewAI(emu.env, emu.cfg.aiRange)
	case tsformat.KindSync:
		return board.NewSync(emu.env)
	case tsformat.KindDelay:
		return board.NewDelay(emu.env)
	}
	panic(fmt.Errorf("emu: invalid board kind %v", kind))
}

// Load decodes a payload and populates the emulated boards with its
// timing groups.
// Frame-level decoding errors are fatal. Per-group errors are recorded
// as diagnostics and leave the rest of the crate usable.
func (emu *Emulator) Load(ctx context.Context, raw []byte) error {
	grps, err := tsformat.Parse(raw)
	if err != nil {
		return fmt.Errorf("emu: could not parse payload: %w", err)
	}
	return emu.LoadGroups(ctx, grps)
}

// LoadGroups populates the emulated boards with the provided groups.
func (emu *Emulator) LoadGroups(ctx context.Context, grps []tsformat.Group) error {
	emu.reset()
	emu.grps = order(grps)

	var now []string
	for _, grp := range emu.grps {
		if grp.Header.StartNow {
			now = append(now, grp.Header.Name)
		}
	}
	if len(now) > 1 {
		emu.diagnose(&tsemu.ConfigError{
			Kind:   tsemu.ErrStartImmediately,
			Detail: fmt.Sprintf("groups=%s", strings.Join(now, ",")),
		})
	}

	for i := range emu.grps {
		grp := &emu.grps[i]
		slot, err := emu.route(grp.Header)
		if err != nil {
			emu.diagnose(err)
			continue
		}
		slot.Group = grp
		err = slot.Board.Populate(ctx, *grp)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return fmt.Errorf("emu: loading aborted: %w", cerr)
			}
			slot.Err = err
			emu.diagnose(err)
		}
	}

	for _, err := range emu.env.Wiring.Conflicts() {
		emu.diags = append(emu.diags, err)
	}
	emu.env.Wiring.Freeze()
	return nil
}

// order moves the start-immediately groups last, keeping the relative
// order of the other groups.
func order(grps []tsformat.Group) []tsformat.Group {
	o := make([]tsformat.Group, 0, len(grps))
	var last []tsformat.Group
	for _, grp := range grps {
		if grp.Header.StartNow {
			last = append(last, grp)
			continue
		}
		o = append(o, grp)
	}
	return append(o, last...)
}

func (emu *Emulator) route(hdr tsformat.Header) (*Slot, error) {
	slots, ok := emu.slots[hdr.Kind]
	if !ok {
		return nil, &tsemu.ConfigError{
			Kind:   tsemu.ErrUnknownDevice,
			Group:  hdr.Name,
			Detail: fmt.Sprintf("device=%d", hdr.Device),
			Err: &tsemu.DecodeError{
				Kind:  tsemu.ErrUnknownDevice,
				Group: hdr.Name,
			},
		}
	}
	for _, slot := range slots {
		if slot.Group == nil {
			return slot, nil
		}
	}
	return nil, &tsemu.ConfigError{
		Kind:   tsemu.ErrNoFreeSlot,
		Group:  hdr.Name,
		Detail: fmt.Sprintf("kind=%v, slots=%d", hdr.Kind, len(slots)),
	}
}

func (emu *Emulator) diagnose(err error) {
	emu.msg.Printf("%+v", err)
	emu.diags = append(emu.diags, err)
}

// Groups returns the loaded groups, in population order.
func (emu *Emulator) Groups() []tsformat.Group {
	return append([]tsformat.Group(nil), emu.grps...)
}

// Slots returns the emulated boards of the given kind.
func (emu *Emulator) Slots(kind tsformat.Kind) []*Slot {
	return append([]*Slot(nil), emu.slots[kind]...)
}

// Wiring returns the wiring table of the emulated crate.
func (emu *Emulator) Wiring() *board.Wiring { return emu.env.Wiring }

// Diagnostics returns the errors recorded while loading and running the
// current sequence.
func (emu *Emulator) Diagnostics() []error {
	o := append([]error(nil), emu.diags...)
	if emu.seq != nil && emu.seq.disp != nil {
		o = append(o, emu.seq.disp.Diagnostics()...)
	}
	return o
}

// populated returns the first populated board of the given kind.
func (emu *Emulator) populated(kind tsformat.Kind) board.Board {
	for _, slot := range emu.slots[kind] {
		if slot.Group != nil {
			return slot.Board
		}
	}
	return nil
}

// Sequencer returns a sequencer over the loaded sequence.
// Boards are consumed while the sequencer runs: a sequence is replayed
// once per call to Load.
func (emu *Emulator) Sequencer() (*Sequencer, error) {
	if emu.seq != nil {
		return emu.seq, nil
	}

	disp := newDispatcher(
		emu.msg,
		emu.populated(tsformat.KindSync),
		emu.populated(tsformat.KindDO),
		emu.env.Wiring,
		emu.cfg.syncLines,
		emu.cfg.aoClocks,
	)

	var (
		train Train
		freq  uint32
	)
	if b, ok := emu.populated(tsformat.KindDelay).(*board.Delay); ok && !b.Inert() {
		train = b
		freq = b.Freq()
	}

	seq, err := newSequencer(train, disp, freq, emu.cfg.horizon)
	if err != nil {
		return nil, err
	}
	emu.seq = seq
	return seq, nil
}

// Run replays the loaded sequence until the delay train is exhausted or
// the horizon is reached.
// A cancelled run returns an error and no waveform.
func (emu *Emulator) Run(ctx context.Context) (*Waveform, error) {
	seq, err := emu.Sequencer()
	if err != nil {
		return nil, err
	}

	wf, err := seq.Run(ctx, seq.Labels())
	if err != nil {
		return nil, err
	}
	emu.msg.Printf("run: %d pulses, last tick %d", wf.Len(), seq.Tick())
	return wf, nil
}

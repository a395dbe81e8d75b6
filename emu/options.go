// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

import (
	"log"
	"os"
	"time"

	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

const (
	DefaultHorizon = 10 * time.Second
	DefaultDOClock = "/PXI1Slot2/PXI_Trig7"
)

// DefaultAOClocks are the clock names of the 3 analog output banks,
// driven by lines 0, 1 and 2 of the digital output board.
var DefaultAOClocks = []string{
	"/PXI1Slot2/PFI1",
	"/PXI1Slot2/PFI2",
	"/PXI1Slot2/PFI3",
}

type config struct {
	msg *log.Logger

	horizon  time.Duration
	timeout  time.Duration
	expander sparse.Expander

	aoRange float64
	aiRange float64
	exact   bool

	slots     map[tsformat.Kind]int
	aoClocks  []string
	syncLines map[int]string
}

func newConfig() config {
	return config{
		msg:     log.New(os.Stdout, "emu: ", 0),
		horizon: DefaultHorizon,
		aoRange: 20,
		aiRange: 20,
		slots: map[tsformat.Kind]int{
			tsformat.KindDO:    1,
			tsformat.KindAO:    3,
			tsformat.KindDI:    0,
			tsformat.KindAI:    1,
			tsformat.KindSync:  1,
			tsformat.KindDelay: 1,
		},
		aoClocks:  append([]string(nil), DefaultAOClocks...),
		syncLines: map[int]string{0: DefaultDOClock},
	}
}

// Option configures an Emulator.
type Option func(*config)

// WithLogger sets the logger of the emulator.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithHorizon sets the simulated time after which a run stops.
func WithHorizon(d time.Duration) Option {
	return func(cfg *config) {
		cfg.horizon = d
	}
}

// WithExpander sets the run-length expander used to decode channel data.
func WithExpander(exp sparse.Expander) Option {
	return func(cfg *config) {
		cfg.expander = exp
	}
}

// WithTimeout bounds every call to the run-length expander.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithRanges sets the full-scale ranges, in volts, of the analog
// output and input boards.
func WithRanges(ao, ai float64) Option {
	return func(cfg *config) {
		cfg.aoRange = ao
		cfg.aiRange = ai
	}
}

// WithSlots sets the number of emulated boards of a given kind.
func WithSlots(kind tsformat.Kind, n int) Option {
	return func(cfg *config) {
		cfg.slots[kind] = n
	}
}

// WithExactVolts keeps analog values unrounded instead of rounding
// them to the nearest volt.
func WithExactVolts(exact bool) Option {
	return func(cfg *config) {
		cfg.exact = exact
	}
}

// WithDOClock rewires sync line 0 to the digital output board clocked
// by name.
func WithDOClock(name string) Option {
	return func(cfg *config) {
		cfg.syncLines[0] = name
	}
}

// WithAOClocks sets the clock names of the analog output banks.
func WithAOClocks(names ...string) Option {
	return func(cfg *config) {
		cfg.aoClocks = append([]string(nil), names...)
	}
}

// WithSyncLines sets the boards driven by the sync command lines.
func WithSyncLines(lines map[int]string) Option {
	return func(cfg *config) {
		cfg.syncLines = make(map[int]string, len(lines))
		for k, v := range lines {
			cfg.syncLines[k] = v
		}
	}
}

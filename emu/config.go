// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-lpc/tsemu/tsformat"
	"gopkg.in/yaml.v3"
)

// Config is the file representation of the emulator options.
//
// Example:
//
//	horizon: 10s
//	timeout: 2s
//	ranges: {ao: 20, ai: 20}
//	slots: {do: 1, ao: 3, di: 0, ai: 1, sync: 1, delay: 1}
//	do-clock: /PXI1Slot2/PXI_Trig7
//	ao-clocks: [/PXI1Slot2/PFI1, /PXI1Slot2/PFI2, /PXI1Slot2/PFI3]
//	sync-lines: {0: /PXI1Slot2/PXI_Trig7}
//	exact-volts: false
//
// do-clock is applied after sync-lines: it always drives line 0.
type Config struct {
	Horizon time.Duration `yaml:"horizon"`
	Timeout time.Duration `yaml:"timeout"`
	Ranges  struct {
		AO float64 `yaml:"ao"`
		AI float64 `yaml:"ai"`
	} `yaml:"ranges"`
	Slots     map[string]int `yaml:"slots"`
	DOClock   string         `yaml:"do-clock"`
	AOClocks  []string       `yaml:"ao-clocks"`
	SyncLines map[int]string `yaml:"sync-lines"`
	Exact     bool           `yaml:"exact-volts"`
}

var slotNames = map[string]tsformat.Kind{
	"do":    tsformat.KindDO,
	"ao":    tsformat.KindAO,
	"di":    tsformat.KindDI,
	"ai":    tsformat.KindAI,
	"sync":  tsformat.KindSync,
	"delay": tsformat.KindDelay,
}

// LoadConfig reads an emulator configuration file.
func LoadConfig(fname string) (Config, error) {
	f, err := os.Open(fname)
	if err != nil {
		return Config{}, fmt.Errorf("emu: could not open config file: %w", err)
	}
	defer f.Close()

	return DecodeConfig(f)
}

// DecodeConfig decodes a YAML emulator configuration from r.
func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && err != io.EOF {
		return cfg, fmt.Errorf("emu: could not decode config: %w", err)
	}

	for name, n := range cfg.Slots {
		if _, ok := slotNames[strings.ToLower(name)]; !ok {
			return cfg, fmt.Errorf("emu: unknown board kind %q in slots", name)
		}
		if n < 0 {
			return cfg, fmt.Errorf("emu: invalid number of %s slots (%d)", name, n)
		}
	}
	for line := range cfg.SyncLines {
		if line < 0 || line > 7 {
			return cfg, fmt.Errorf("emu: invalid sync line %d", line)
		}
	}
	if cfg.Ranges.AO < 0 || cfg.Ranges.AI < 0 {
		return cfg, fmt.Errorf("emu: invalid negative voltage range")
	}

	return cfg, nil
}

// Options returns the emulator options set in the configuration.
// Unset fields keep their default value.
func (cfg Config) Options() []Option {
	var opts []Option
	if cfg.Horizon > 0 {
		opts = append(opts, WithHorizon(cfg.Horizon))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.Ranges.AO > 0 || cfg.Ranges.AI > 0 {
		ao, ai := cfg.Ranges.AO, cfg.Ranges.AI
		opts = append(opts, func(c *config) {
			if ao > 0 {
				c.aoRange = ao
			}
			if ai > 0 {
				c.aiRange = ai
			}
		})
	}
	for name, n := range cfg.Slots {
		opts = append(opts, WithSlots(slotNames[strings.ToLower(name)], n))
	}
	if len(cfg.AOClocks) > 0 {
		opts = append(opts, WithAOClocks(cfg.AOClocks...))
	}
	if len(cfg.SyncLines) > 0 {
		opts = append(opts, WithSyncLines(cfg.SyncLines))
	}
	if cfg.DOClock != "" {
		opts = append(opts, WithDOClock(cfg.DOClock))
	}
	if cfg.Exact {
		opts = append(opts, WithExactVolts(true))
	}
	return opts
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tsemu-tdaq starts a TDAQ server emulating a timing-sequence
// crate.
//
// The sequence source and the emulator configuration are read from the
// TSEMU_SOURCE and TSEMU_CONFIG environment variables.
// Every pulse of a run is published on the "/waveform" output.
package main // import "github.com/go-lpc/tsemu/cmd/tsemu-tdaq"

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/tsemu/emu"
	"github.com/go-lpc/tsemu/source"
)

func main() {
	cmd := flags.New()

	dev, err := newServer(os.Getenv("TSEMU_SOURCE"), os.Getenv("TSEMU_CONFIG"))
	if err != nil {
		log.Panicf("error: %+v", err)
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/waveform", dev.Waveform)

	srv.RunHandle(dev.Loop)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

func newServer(uri, cfg string) (*emu.Server, error) {
	if uri == "" {
		uri = source.DefaultURL
	}

	src, err := source.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("could not open sequence source: %w", err)
	}

	var opts []emu.Option
	if cfg != "" {
		c, err := emu.LoadConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("could not load emulator configuration: %w", err)
		}
		opts = c.Options()
	}

	return emu.NewServer(source.WithTimeout(src, 10*time.Second), opts...), nil
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/go-daq/tdaq"
)

// Source provides timing sequence payloads.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Server exposes an emulator as a TDAQ process.
//
// /config fetches and loads a sequence, /reset reloads it.
// During a run, every pulse is sent on the "/waveform" output.
type Server struct {
	src  Source
	opts []Option

	mu  sync.Mutex
	raw []byte
	emu *Emulator

	pulses chan Pulse
	n      int
}

func NewServer(src Source, opts ...Option) *Server {
	return &Server{
		src:    src,
		opts:   opts,
		pulses: make(chan Pulse, 1024),
	}
}

// Pulses returns the number of pulses emitted during the last run.
func (srv *Server) Pulses() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.n
}

// Diagnostics returns the diagnostics of the loaded emulator.
func (srv *Server) Diagnostics() []error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.emu == nil {
		return nil
	}
	return srv.emu.Diagnostics()
}

func (srv *Server) configure(ctx context.Context) error {
	raw, err := srv.src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("emu: could not fetch sequence: %w", err)
	}

	srv.mu.Lock()
	srv.raw = raw
	srv.mu.Unlock()

	return srv.load(ctx)
}

func (srv *Server) load(ctx context.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.raw == nil {
		return fmt.Errorf("emu: no sequence configured")
	}

	emu := New(srv.opts...)
	err := emu.Load(ctx, srv.raw)
	if err != nil {
		return fmt.Errorf("emu: could not load sequence: %w", err)
	}
	srv.emu = emu
	srv.n = 0
	srv.pulses = make(chan Pulse, 1024)
	return nil
}

// run drains the sequencer into the pulse queue until the sequence ends
// or ctx is done.
func (srv *Server) run(ctx context.Context) error {
	srv.mu.Lock()
	emu := srv.emu
	pulses := srv.pulses
	srv.mu.Unlock()

	if emu == nil {
		return fmt.Errorf("emu: no sequence loaded")
	}

	seq, err := emu.Sequencer()
	if err != nil {
		return err
	}

	for {
		p, ok, err := seq.Next(ctx)
		if err != nil || !ok {
			// a cancelled run is a stopped run.
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case pulses <- p:
			srv.mu.Lock()
			srv.n++
			srv.mu.Unlock()
		}
	}
}

func (srv *Server) next(ctx context.Context) ([]byte, error) {
	srv.mu.Lock()
	pulses := srv.pulses
	srv.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, nil
	case p := <-pulses:
		return EncodePulse(p)
	}
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	err := srv.configure(ctx.Ctx)
	if err != nil {
		ctx.Msg.Errorf("could not configure emulator: %+v", err)
		return err
	}
	for _, err := range srv.Diagnostics() {
		ctx.Msg.Infof("diagnostic: %+v", err)
	}
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	err := srv.load(ctx.Ctx)
	if err != nil {
		ctx.Msg.Errorf("could not reload sequence: %+v", err)
		return err
	}
	return nil
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d", srv.Pulses())
	return nil
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

// Waveform is the "/waveform" output handler.
func (srv *Server) Waveform(ctx tdaq.Context, dst *tdaq.Frame) error {
	raw, err := srv.next(ctx.Ctx)
	if err != nil {
		return err
	}
	dst.Body = raw
	return nil
}

// Loop is the run handler.
func (srv *Server) Loop(ctx tdaq.Context) error {
	return srv.run(ctx.Ctx)
}

// EncodePulse encodes a pulse into a TDAQ frame body.
func EncodePulse(p Pulse) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU64(p.Tick)
	enc.WriteF64(p.Time)
	enc.WriteU32(uint32(len(p.Sync)))
	for _, v := range p.Sync {
		enc.WriteF64(v)
	}
	enc.WriteU32(uint32(len(p.Values)))
	for _, v := range p.Values {
		enc.WriteF64(v)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("emu: could not encode pulse: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePulse decodes a pulse from a TDAQ frame body.
func DecodePulse(raw []byte) (Pulse, error) {
	var p Pulse
	dec := tdaq.NewDecoder(bytes.NewReader(raw))
	p.Tick = dec.ReadU64()
	p.Time = dec.ReadF64()
	p.Sync = readF64s(dec, len(raw))
	p.Values = readF64s(dec, len(raw))
	if err := dec.Err(); err != nil {
		return p, fmt.Errorf("emu: could not decode pulse: %w", err)
	}
	return p, nil
}

func readF64s(dec *tdaq.Decoder, lim int) []float64 {
	n := int(dec.ReadU32())
	if n*8 > lim {
		n = 0
	}
	o := make([]float64, n)
	for i := range o {
		o[i] = dec.ReadF64()
	}
	return o
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tsemu fetches a compiled timing sequence, emulates it and
// reports the recorded waveform.
//
// Usage: tsemu [OPTIONS]
//
// Example:
//
//	$> tsemu -src ./testdata/seq.bin -o run.slcio
//	tsemu: fetched 1024 bytes from "./testdata/seq.bin"
//	groups: 3
//	  [0] "delays"            kind=FPGA-delay  clock="master"     freq=1000
//	  [...]
//	pulses: 42 (ticks=840, time=840.000 ms)
package main // import "github.com/go-lpc/tsemu/cmd/tsemu"

import (
	"bufio"
	"compress/flate"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/tsemu/emu"
	"github.com/go-lpc/tsemu/internal/xcnv"
	"github.com/go-lpc/tsemu/seqdb"
	"github.com/go-lpc/tsemu/source"
	"github.com/sbinet/pmon"
	"go-hep.org/x/hep/lcio"
	"golang.org/x/sync/errgroup"
)

const usage = `tsemu fetches a compiled timing sequence, emulates it and reports the recorded waveform.

Usage: tsemu [OPTIONS]

The sequence is fetched from the -src sequence server (or payload file),
or from the -db sequence store when -db is set.

Example:

 $> tsemu -src ./testdata/seq.bin -o run.slcio

Options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("tsemu: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("tsemu", flag.ExitOnError)

		src  = fset.String("src", source.DefaultURL, "sequence server URL or payload file")
		db   = fset.String("db", "", "name of the sequence store to fetch from and record runs to")
		seq  = fset.String("seq", "", "name of the sequence to fetch from the store (default: last one)")
		cfg  = fset.String("cfg", "", "path to a YAML emulator configuration")
		tout = fset.Duration("timeout", 10*time.Second, "timeout for fetching the sequence")
		out  = fset.String("o", "", "path to an output LCIO file")
		irun = fset.Int("run", 0, "run number of the output LCIO file")
		lvl  = fset.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		mon  = fset.String("pmon", "", "path to a pmon log file (enables process monitoring)")
		freq = fset.Duration("freq", 1*time.Second, "pmon frequency")
		mail = fset.Bool("mail", false, "send a run report by mail")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *mon != "" {
		stop, err := monitor(*mon, *freq)
		if err != nil {
			log.Fatalf("could not start process monitoring: %+v", err)
		}
		defer stop()
	}

	opts := options{
		src:     *src,
		db:      *db,
		seq:     *seq,
		cfg:     *cfg,
		timeout: *tout,
		oname:   *out,
		run:     int32(*irun),
		lvl:     *lvl,
		mail:    *mail,
	}

	err = process(context.Background(), w, opts)
	if err != nil {
		log.Fatalf("could not emulate sequence: %+v", err)
	}
}

type options struct {
	src     string
	db      string
	seq     string
	cfg     string
	timeout time.Duration

	oname string
	run   int32
	lvl   int

	mail bool
}

type report struct {
	name  string
	size  int
	emu   *emu.Emulator
	wf    *emu.Waveform
	runID int64
}

func process(ctx context.Context, w io.Writer, opts options) error {
	var (
		store *seqdb.DB
		src   source.Source
		name  = opts.src
		err   error
	)

	switch opts.db {
	case "":
		src, err = source.Open(opts.src)
		if err != nil {
			return fmt.Errorf("could not open sequence source: %w", err)
		}
	default:
		store, err = seqdb.Open(opts.db)
		if err != nil {
			return fmt.Errorf("could not open sequence store: %w", err)
		}
		defer store.Close()
		src = store.Source(opts.seq)
		name = opts.seq
	}

	var (
		raw  []byte
		eopt []emu.Option
	)
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		raw, err = source.Fetch(gctx, src, opts.timeout)
		if err != nil {
			return fmt.Errorf("could not fetch sequence: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		if opts.cfg == "" {
			return nil
		}
		cfg, err := emu.LoadConfig(opts.cfg)
		if err != nil {
			return fmt.Errorf("could not load emulator configuration: %w", err)
		}
		eopt = cfg.Options()
		return nil
	})
	err = grp.Wait()
	if err != nil {
		return err
	}
	log.Printf("fetched %d bytes from %q", len(raw), name)

	rep, err := emulate(ctx, name, raw, eopt...)
	if err != nil {
		return err
	}
	wf := rep.wf

	if opts.oname != "" {
		err = export(opts.oname, opts.lvl, opts.run, name, wf)
		if err != nil {
			return fmt.Errorf("could not export waveform: %w", err)
		}
	}

	if store != nil {
		rep.runID, err = store.RecordRun(ctx, seqdb.Run{
			Sequence:    name,
			Pulses:      wf.Len(),
			Ticks:       lastTick(wf),
			Diagnostics: len(rep.emu.Diagnostics()),
		})
		if err != nil {
			return fmt.Errorf("could not record run: %w", err)
		}
	}

	err = summary(w, rep)
	if err != nil {
		return fmt.Errorf("could not write run summary: %w", err)
	}

	if opts.mail {
		sendReport(rep)
	}

	return nil
}

func emulate(ctx context.Context, name string, raw []byte, opts ...emu.Option) (report, error) {
	opts = append(opts, emu.WithLogger(log.New(os.Stderr, "emu: ", 0)))
	dev := emu.New(opts...)
	err := dev.Load(ctx, raw)
	if err != nil {
		return report{}, fmt.Errorf("could not load sequence: %w", err)
	}

	wf, err := dev.Run(ctx)
	if err != nil {
		return report{}, fmt.Errorf("could not run sequence: %w", err)
	}

	return report{name: name, size: len(raw), emu: dev, wf: wf}, nil
}

func export(oname string, lvl int, run int32, name string, wf *emu.Waveform) error {
	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	msg := log.New(io.Discard, "", 0)
	err = xcnv.WF2LCIO(w, wf, run, name, msg)
	if err != nil {
		return fmt.Errorf("could not convert waveform to LCIO: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}
	return nil
}

func lastTick(wf *emu.Waveform) uint64 {
	if wf.Len() == 0 {
		return 0
	}
	return wf.Ticks[wf.Len()-1]
}

func summary(w io.Writer, rep report) error {
	wbuf := bufio.NewWriter(w)

	grps := rep.emu.Groups()
	fmt.Fprintf(wbuf, "groups: %d\n", len(grps))
	for i, grp := range grps {
		hdr := grp.Header
		fmt.Fprintf(wbuf, "  [%d] %-18q kind=%-11v clock=%-12q freq=%d\n",
			i, hdr.Name, hdr.Kind, hdr.Clock, hdr.ClockFreq,
		)
	}

	var (
		wf   = rep.wf
		tick = lastTick(wf)
		ms   = 0.0
	)
	if n := wf.Len(); n > 0 {
		ms = wf.Times[n-1]
	}
	fmt.Fprintf(wbuf, "pulses: %d (ticks=%d, time=%.3f ms)\n", wf.Len(), tick, ms)
	fmt.Fprintf(wbuf, "rows:   %d\n", len(wf.Labels))
	if rep.runID != 0 {
		fmt.Fprintf(wbuf, "run-id: %d\n", rep.runID)
	}

	diags := rep.emu.Diagnostics()
	fmt.Fprintf(wbuf, "diagnostics: %d\n", len(diags))
	for _, err := range diags {
		fmt.Fprintf(wbuf, "  - %v\n", err)
	}

	return wbuf.Flush()
}

func monitor(fname string, freq time.Duration) (func(), error) {
	pid := os.Getpid()
	p, err := pmon.Monitor(pid)
	if err != nil {
		return nil, fmt.Errorf("could not monitor pid=%d: %w", pid, err)
	}

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			log.Printf("could not stop pmon: %+v", err)
		}
		_ = f.Close()
	}, nil
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// wf-dump decodes and displays emulated waveforms stored in LCIO files.
//
// Usage: wf-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> wf-dump -rows DO:00,AO1:00 ./testdata/run.slcio
//	=== waveform "./testdata/run.slcio" ===
//	run:       42 (detector="tsemu", sequence="ramp")
//	pulses:    3
//	rows:      64
//	pulse=0 tick=2 time=2.000 ms
//	  DO:00  = 0
//	  AO1:00 = 0
//	pulse=1 tick=4 time=4.000 ms
//	  DO:00  = 1
//	  AO1:00 = 1.00003
//	[...]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/go-lpc/tsemu/emu"
	"github.com/go-lpc/tsemu/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `wf-dump decodes and displays emulated waveforms stored in LCIO files.

Usage: wf-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Without -rows, only the non-zero values of each pulse are displayed.

Example:

 $> wf-dump -rows DO:00,AO1:00 ./testdata/run.slcio
 === waveform "./testdata/run.slcio" ===
 run:       42 (detector="tsemu", sequence="ramp")
 pulses:    3
 rows:      64
 pulse=0 tick=2 time=2.000 ms
   DO:00  = 0
   AO1:00 = 0
 [...]

Options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("wf-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("wf-dump", flag.ExitOnError)

		rows = fset.String("rows", "", "comma-separated list of rows to display")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	var sel []string
	if *rows != "" {
		sel = strings.Split(*rows, ",")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, sel)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, rows []string) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	wf, err := xcnv.LCIO2WF(r)
	if err != nil {
		return fmt.Errorf("could not decode waveform: %w", err)
	}
	rhdr := r.RunHeader()

	idx, err := selection(wf, rows)
	if err != nil {
		return err
	}

	width := 0
	for _, i := range idx {
		if n := len(wf.Labels[i]); n > width {
			width = n
		}
	}

	fmt.Fprintf(wbuf, "=== waveform %q ===\n", fname)
	fmt.Fprintf(wbuf, "run:       %d (detector=%q, sequence=%q)\n", rhdr.RunNumber, rhdr.Detector, rhdr.Descr)
	fmt.Fprintf(wbuf, "pulses:    %d\n", wf.Len())
	fmt.Fprintf(wbuf, "rows:      %d\n", len(wf.Labels))

	for i := 0; i < wf.Len(); i++ {
		fmt.Fprintf(wbuf, "pulse=%d tick=%d time=%.3f ms\n", i, wf.Ticks[i], wf.Times[i])
		for _, j := range idx {
			v := wf.Values[j][i]
			if rows == nil && v == 0 {
				continue
			}
			fmt.Fprintf(wbuf, "  %-*s = %g\n", width, wf.Labels[j], v)
		}
	}

	return nil
}

// selection returns the indices of the requested rows, or of all rows
// when none is requested.
func selection(wf *emu.Waveform, rows []string) ([]int, error) {
	if rows == nil {
		idx := make([]int, len(wf.Labels))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}

	idx := make([]int, 0, len(rows))
	for _, name := range rows {
		found := -1
		for i, label := range wf.Labels {
			if label == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("unknown row %q", name)
		}
		idx = append(idx, found)
	}
	return idx, nil
}

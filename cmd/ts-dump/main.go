// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ts-dump decodes and displays compiled timing-sequence payloads.
//
// Usage: ts-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> ts-dump ./testdata/seq.bin
//	=== payload "./testdata/seq.bin" ===
//	size:      112 bytes
//	crc:       0x3c5e
//	groups:    1
//	--- group[0] "delays" ---
//	  kind:      FPGA-delay (device=4)
//	  number:    0
//	  timing:    0
//	  clock:     "master" (source=0, freq=1000 Hz)
//	  start-now: false
//	  expand:    false
//	  version:   0
//	  body:      31 bytes
//	  layout:    channels=1 value-width=0 repeat-width=4 updates=3
//	  train:     [2 2 2]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/tsemu/internal/crc16"
	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

const usage = `ts-dump decodes and displays compiled timing-sequence payloads.

Usage: ts-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> ts-dump ./testdata/seq.bin
 === payload "./testdata/seq.bin" ===
 size:      112 bytes
 crc:       0x3c5e
 groups:    1
 --- group[0] "delays" ---
   kind:      FPGA-delay (device=4)
 [...]

Options:
`

// maxEntries is the number of delay entries or channel updates
// displayed when not in verbose mode.
const maxEntries = 16

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("ts-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("ts-dump", flag.ExitOnError)

		verbose = fset.Bool("v", false, "expand and display all channel updates")
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
		log.Fatalf("missing path to input payload file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *verbose)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, verbose bool) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	raw, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", fname, err)
	}

	grps, err := tsformat.Parse(raw)
	if err != nil {
		return fmt.Errorf("could not decode payload: %w", err)
	}

	fmt.Fprintf(wbuf, "=== payload %q ===\n", fname)
	fmt.Fprintf(wbuf, "size:      %d bytes\n", len(raw))
	fmt.Fprintf(wbuf, "crc:       0x%04x\n", crc16.Checksum(raw))
	fmt.Fprintf(wbuf, "groups:    %d\n", len(grps))

	for i, grp := range grps {
		hdr := grp.Header
		fmt.Fprintf(wbuf, "--- group[%d] %q ---\n", i, hdr.Name)
		fmt.Fprintf(wbuf, "  kind:      %v (device=%d)\n", hdr.Kind, hdr.Device)
		fmt.Fprintf(wbuf, "  number:    %d\n", hdr.Number)
		fmt.Fprintf(wbuf, "  timing:    %d\n", hdr.Timing)
		fmt.Fprintf(wbuf, "  clock:     %q (source=%d, freq=%d Hz)\n", hdr.Clock, hdr.ClockSource, hdr.ClockFreq)
		fmt.Fprintf(wbuf, "  start-now: %v\n", hdr.StartNow)
		fmt.Fprintf(wbuf, "  expand:    %v\n", hdr.Expand)
		fmt.Fprintf(wbuf, "  version:   %d\n", hdr.Version)
		fmt.Fprintf(wbuf, "  body:      %d bytes\n", len(grp.Body))

		if hdr.Kind == tsformat.KindUnknown {
			continue
		}

		lay, err := grp.Layout()
		if err != nil {
			fmt.Fprintf(wbuf, "  layout:    %v\n", err)
			continue
		}
		fmt.Fprintf(wbuf, "  layout:    channels=%d value-width=%d repeat-width=%d updates=%d\n",
			lay.Channels, lay.ValueWidth, lay.RepeatWidth, lay.Updates,
		)

		switch hdr.Kind {
		case tsformat.KindDelay:
			train, err := grp.DelayTrain()
			if err != nil {
				fmt.Fprintf(wbuf, "  train:     %v\n", err)
				continue
			}
			fmt.Fprintf(wbuf, "  train:     %s\n", clip(train, verbose))
		default:
			dense, _, err := sparse.Codec{}.Decode(context.Background(), grp)
			if err != nil {
				fmt.Fprintf(wbuf, "  channels:  %v\n", err)
				continue
			}
			for ch := 0; ch < dense.Channels(); ch++ {
				row := make([]uint64, dense.Updates(ch))
				for j := range row {
					row[j] = uint64(dense.At(ch, j))
				}
				fmt.Fprintf(wbuf, "  ch[%03d]:   %s\n", ch, clip(row, verbose))
			}
		}
	}

	return nil
}

func clip(vs []uint64, verbose bool) string {
	if verbose || len(vs) <= maxEntries {
		return fmt.Sprintf("%v", vs)
	}
	s := fmt.Sprintf("%v", vs[:maxEntries])
	return fmt.Sprintf("%s ... (%d entries)]", s[:len(s)-1], len(vs))
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/internal/crc16"
	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

func encode(t *testing.T, grps ...tsformat.Group) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	err := tsformat.NewEncoder(buf).Encode(grps)
	if err != nil {
		t.Fatalf("could not encode payload: %+v", err)
	}
	return buf.Bytes()
}

func TestDump(t *testing.T) {
	tmp, err := os.MkdirTemp("", "ts-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "seq.bin")
	err = os.WriteFile(fname, encode(t, tsformat.Group{
		Header: tsformat.Header{
			Device:    tsformat.DevDelayTrain,
			Name:      "delays",
			Clock:     "master",
			ClockFreq: 1000,
		},
		Body: tsformat.DelayBody(4, []uint64{1, 2, 3}),
	}), 0644)
	if err != nil {
		t.Fatalf("could not write payload: %+v", err)
	}

	xmain(io.Discard, []string{"-v", fname})
}

func TestProcess(t *testing.T) {
	tmp, err := os.MkdirTemp("", "ts-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	long := make([]uint64, 20)
	for i := range long {
		long[i] = uint64(i)
	}

	for _, tc := range []struct {
		name    string
		verbose bool
		raw     []byte
		want    string
		err     error
	}{
		{
			name: "do-and-delays",
			raw: encode(t,
				tsformat.Group{
					Header: tsformat.Header{
						Number: 1,
						Device: tsformat.DevDigitalOut,
						Name:   "do",
						Clock:  "/PXI1Slot2/PXI_Trig7",
					},
					Body: sparse.Encode(4, 2, [][]uint64{{0, 1, 0}}),
				},
				tsformat.Group{
					Header: tsformat.Header{
						Number:    2,
						Device:    tsformat.DevDelayTrain,
						Name:      "delays",
						Clock:     "master",
						ClockFreq: 1000,
						StartNow:  true,
					},
					Body: tsformat.DelayBody(4, []uint64{2, 2, 2}),
				},
			),
			want: `=== payload "%[1]s" ===
size:      229 bytes
crc:       0x%04[2]x
groups:    2
--- group[0] "do" ---
  kind:      DO (device=0)
  number:    1
  timing:    0
  clock:     "/PXI1Slot2/PXI_Trig7" (source=0, freq=0 Hz)
  start-now: false
  expand:    false
  version:   0
  body:      37 bytes
  layout:    channels=1 value-width=4 repeat-width=2 updates=3
  ch[000]:   [0 1 0]
--- group[1] "delays" ---
  kind:      FPGA-delay (device=4)
  number:    2
  timing:    0
  clock:     "master" (source=0, freq=1000 Hz)
  start-now: true
  expand:    false
  version:   0
  body:      31 bytes
  layout:    channels=1 value-width=0 repeat-width=4 updates=3
  train:     [2 2 2]
`,
		},
		{
			name: "long-train",
			raw: encode(t, tsformat.Group{
				Header: tsformat.Header{
					Device: tsformat.DevDelayTrain,
					Name:   "delays",
				},
				Body: tsformat.DelayBody(1, long),
			}),
			want: `=== payload "%[1]s" ===
size:      120 bytes
crc:       0x%04[2]x
groups:    1
--- group[0] "delays" ---
  kind:      FPGA-delay (device=4)
  number:    0
  timing:    0
  clock:     "" (source=0, freq=0 Hz)
  start-now: false
  expand:    false
  version:   0
  body:      39 bytes
  layout:    channels=1 value-width=0 repeat-width=1 updates=20
  train:     [0 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 ... (20 entries)]
`,
		},
		{
			name: "unknown-device",
			raw: encode(t, tsformat.Group{
				Header: tsformat.Header{
					Device: 9,
					Name:   "mystery",
				},
				Body: []byte{1, 2, 3},
			}),
			want: `=== payload "%[1]s" ===
size:      84 bytes
crc:       0x%04[2]x
groups:    1
--- group[0] "mystery" ---
  kind:      Kind(0) (device=9)
  number:    0
  timing:    0
  clock:     "" (source=0, freq=0 Hz)
  start-now: false
  expand:    false
  version:   0
  body:      3 bytes
`,
		},
		{
			name: "truncated",
			raw:  []byte{1, 0, 0, 0},
			err:  tsemu.ErrTruncatedStream,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name+".bin")
			err := os.WriteFile(fname, tc.raw, 0644)
			if err != nil {
				t.Fatalf("could not write payload: %+v", err)
			}

			out := new(strings.Builder)
			err = process(out, fname, tc.verbose)
			switch {
			case err != nil && tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", err, tc.err)
				}
			case err != nil && tc.err == nil:
				t.Fatalf("could not ts-dump: %+v", err)
			case err == nil && tc.err == nil:
				want := fmt.Sprintf(tc.want, fname, crc16.Checksum(tc.raw))
				if got := out.String(); got != want {
					t.Fatalf("invalid ts-dump output:\ngot:\n%s\nwant:\n%s\n", got, want)
				}
			case err == nil && tc.err != nil:
				t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", err, tc.err)
			}
		})
	}
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/tsemu/emu"
	"github.com/go-lpc/tsemu/sparse"
	"github.com/go-lpc/tsemu/tsformat"
)

func payload(t *testing.T) []byte {
	t.Helper()

	grps := []tsformat.Group{
		{
			Header: tsformat.Header{
				Device: tsformat.DevDigitalOut,
				Name:   "do",
				Clock:  emu.DefaultDOClock,
			},
			Body: sparse.Encode(4, 2, [][]uint64{{0, 1, 0}}),
		},
		{
			Header: tsformat.Header{
				Device: tsformat.DevDigitalOut,
				Name:   tsformat.SyncName,
			},
			Body: sparse.Encode(1, 1, [][]uint64{{1, 1, 1}}),
		},
		{
			Header: tsformat.Header{
				Device:    tsformat.DevDelayTrain,
				Name:      "delays",
				Clock:     "master",
				ClockFreq: 1000,
			},
			Body: tsformat.DelayBody(4, []uint64{2, 2, 2}),
		},
	}

	buf := new(bytes.Buffer)
	err := tsformat.NewEncoder(buf).Encode(grps)
	if err != nil {
		t.Fatalf("could not encode payload: %+v", err)
	}
	return buf.Bytes()
}

func TestShell(t *testing.T) {
	sh, err := load(context.Background(), payload(t))
	if err != nil {
		t.Fatalf("could not create shell: %+v", err)
	}

	for _, tc := range []struct {
		line string
		want string
		err  string
	}{
		{
			line: "show",
			err:  "no pulse yet",
		},
		{
			line: "next 2",
			want: `pulse=1 tick=2 time=2.000 ms sync=[1 0 0 0 0 0 0 0]
pulse=2 tick=4 time=4.000 ms sync=[1 0 0 0 0 0 0 0]
`,
		},
		{
			line: "show DO:00 DO:01",
			want: "DO:00 = 1\nDO:01 = 0\n",
		},
		{
			line: "show",
			want: "DO:00 = 1\n",
		},
		{
			line: "show AO9:00",
			err:  `unknown label "AO9:00"`,
		},
		{
			line: "next x",
			err:  `invalid number of pulses "x"`,
		},
		{
			line: "run",
			want: `pulse=3 tick=6 time=6.000 ms sync=[1 0 0 0 0 0 0 0]
end of sequence (pulses=3)
`,
		},
		{
			line: "next",
			want: "end of sequence (pulses=3)\n",
		},
		{
			line: "diag",
			want: "",
		},
		{
			line: "bogus",
			err:  `unknown command "bogus" (try "help")`,
		},
		{
			line: "   ",
			want: "",
		},
	} {
		t.Run(tc.line, func(t *testing.T) {
			out := new(strings.Builder)
			err := sh.exec(out, tc.line)
			switch {
			case err != nil && tc.err != "":
				if got, want := err.Error(), tc.err; got != want {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
				}
			case err != nil && tc.err == "":
				t.Fatalf("could not run %q: %+v", tc.line, err)
			case err == nil && tc.err == "":
				if got, want := out.String(), tc.want; got != want {
					t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s", got, want)
				}
			case err == nil && tc.err != "":
				t.Fatalf("expected an error (%s)", tc.err)
			}
		})
	}

	err = sh.exec(new(strings.Builder), "quit")
	if !errors.Is(err, errQuit) {
		t.Fatalf("invalid quit error: %+v", err)
	}

	if got, want := sh.complete("s"), []string{"show"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid completion: got=%q, want=%q", got, want)
	}

	help := new(strings.Builder)
	err = sh.exec(help, "help")
	if err != nil {
		t.Fatalf("could not run help: %+v", err)
	}
	if got, want := strings.Count(help.String(), "\n"), len(sh.cmds); got != want {
		t.Fatalf("invalid help:\n%s", help.String())
	}

	grps := new(strings.Builder)
	err = sh.exec(grps, "groups")
	if err != nil {
		t.Fatalf("could not run groups: %+v", err)
	}
	if got, want := strings.Count(grps.String(), "\n"), 3; got != want {
		t.Fatalf("invalid groups:\n%s", grps.String())
	}
}

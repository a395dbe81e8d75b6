// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsformat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/go-lpc/tsemu"
)

func TestDecodeHeader(t *testing.T) {
	raw := make([]byte, HeaderSize)
	PutUint(raw[0:8], 0x0102)
	PutUint(raw[8:16], 7)
	raw[16] = DevAnalogOut
	raw[17] = 2
	raw[18] = 3
	PutUint(raw[19:23], 1000000)
	raw[23] = 1
	raw[24] = 0
	raw[25] = 4
	copy(raw[32:56], "  PXI1Slot3/ao0:7       ")
	copy(raw[56:80], "/PXI1Slot2/PFI1\x00\x00\x00\x00\x00\x00\x00\x00\x00")

	hdr, err := DecodeHeader(raw)
	if err != nil {
		t.Fatalf("could not decode header: %+v", err)
	}

	want := Header{
		Length:      0x0102,
		Number:      7,
		Device:      DevAnalogOut,
		Kind:        KindAO,
		Timing:      2,
		ClockSource: 3,
		ClockFreq:   1000000,
		StartNow:    true,
		Expand:      false,
		Version:     4,
		Name:        "PXI1Slot3/ao0:7",
		Clock:       "/PXI1Slot2/PFI1",
	}
	if !reflect.DeepEqual(hdr, want) {
		t.Fatalf("invalid header:\ngot= %+v\nwant=%+v", hdr, want)
	}

	_, err = DecodeHeader(raw[:HeaderSize-1])
	if !errors.Is(err, tsemu.ErrMalformedHeader) {
		t.Fatalf("invalid error for short header: %+v", err)
	}
	if got, want := err.Error(), "decode: malformed header: tsformat: invalid header size (got=79, want=80)"; got != want {
		t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
	}
}

func TestKindOf(t *testing.T) {
	for _, tc := range []struct {
		dev  uint8
		name string
		want Kind
	}{
		{DevDigitalOut, "PXI1Slot2/port0:3", KindDO},
		{DevDigitalOut, SyncName, KindSync},
		{DevAnalogOut, SyncName, KindAO},
		{DevDigitalIn, "di", KindDI},
		{DevAnalogIn, "ai", KindAI},
		{DevDelayTrain, "RIO01/delay", KindDelay},
		{5, "mystery", KindUnknown},
		{0xff, "", KindUnknown},
	} {
		t.Run(fmt.Sprintf("%d-%s", tc.dev, tc.name), func(t *testing.T) {
			if got, want := KindOf(tc.dev, tc.name), tc.want; got != want {
				t.Fatalf("invalid kind: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestRW(t *testing.T) {
	grps := []Group{
		{
			Header: Header{
				Number: 1, Device: DevDigitalOut, Kind: KindSync,
				ClockFreq: 10, Version: 1,
				Name: SyncName, Clock: "RIO01/clk",
			},
			Body: []byte{1, 2, 3},
		},
		{
			Header: Header{
				Number: 2, Device: DevDelayTrain, Kind: KindDelay,
				ClockFreq: 1, StartNow: true, Expand: true,
				Name: "RIO01/delay", Clock: "RIO01/clk",
			},
			Body: DelayBody(4, []uint64{3, 0, 2}),
		},
		{
			Header: Header{
				Number: 3, Device: DevAnalogIn, Kind: KindAI,
				Name: "ai", Clock: "",
			},
		},
	}

	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(grps)
	if err != nil {
		t.Fatalf("could not encode payload: %+v", err)
	}

	if got, want := buf.Len(), 1+3*HeaderSize+3+len(grps[1].Body); got != want {
		t.Fatalf("invalid payload size: got=%d, want=%d", got, want)
	}

	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("could not parse payload: %+v", err)
	}

	for i := range grps {
		grps[i].Header.Length = uint64(len(grps[i].Body))
	}
	if !reflect.DeepEqual(got, grps) {
		t.Fatalf("round-trip failed:\ngot= %+v\nwant=%+v", got, grps)
	}

	train, err := got[1].DelayTrain()
	if err != nil {
		t.Fatalf("could not decode delay train: %+v", err)
	}
	if got, want := train, []uint64{3, 0, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid delay train: got=%v, want=%v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	valid := func() []byte {
		buf := new(bytes.Buffer)
		err := NewEncoder(buf).Encode([]Group{
			{Header: Header{Name: "do", Clock: "clk"}, Body: []byte{1, 2, 3, 4}},
			{Header: Header{Name: "ao", Device: DevAnalogOut}, Body: []byte{5, 6}},
		})
		if err != nil {
			t.Fatalf("could not encode payload: %+v", err)
		}
		return buf.Bytes()
	}()

	for _, tc := range []struct {
		name string
		raw  []byte
		kind error
		want string
	}{
		{
			name: "empty",
			raw:  nil,
			kind: tsemu.ErrTruncatedStream,
			want: "decode: truncated stream: tsformat: could not read group count: EOF",
		},
		{
			name: "short-header",
			raw:  valid[:1+HeaderSize+10],
			kind: tsemu.ErrTruncatedStream,
			want: "decode: truncated stream: tsformat: could not read header 2/2: unexpected EOF",
		},
		{
			name: "missing-header",
			raw:  valid[:1+HeaderSize],
			kind: tsemu.ErrTruncatedStream,
			want: "decode: truncated stream: tsformat: could not read header 2/2: EOF",
		},
		{
			name: "short-body",
			raw:  valid[:len(valid)-1],
			kind: tsemu.ErrTruncatedStream,
			want: `decode: truncated stream: tsformat: could not read body of group 2/2 ("ao", 2 bytes): unexpected EOF`,
		},
		{
			name: "missing-body",
			raw:  valid[:1+2*HeaderSize+4],
			kind: tsemu.ErrTruncatedStream,
			want: `decode: truncated stream: tsformat: could not read body of group 2/2 ("ao", 2 bytes): unexpected EOF`,
		},
		{
			name: "trailing",
			raw:  append(append([]byte{}, valid...), 0xff, 0xfe),
			kind: tsemu.ErrMalformedFrame,
			want: "decode: malformed frame: tsformat: 2 trailing bytes after last group body",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			switch {
			case err == nil:
				t.Fatalf("expected an error")
			case !errors.Is(err, tc.kind):
				t.Fatalf("invalid error kind: got=%+v, want=%v", err, tc.kind)
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
			}
		})
	}
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrShortWrite
	}
	w.n--
	return len(p), nil
}

func TestEncoderErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		w    io.Writer
		grps []Group
		want error
	}{
		{
			name: "too-many-groups",
			w:    io.Discard,
			grps: make([]Group, 256),
			want: fmt.Errorf("tsformat: too many groups (256 > 255)"),
		},
		{
			name: "long-name",
			w:    io.Discard,
			grps: []Group{{Header: Header{Name: "PXI1Slot2/port0:3/extra/name"}}},
			want: fmt.Errorf("tsformat: name %q too long (28 > 24)", "PXI1Slot2/port0:3/extra/name"),
		},
		{
			name: "no-count",
			w:    &failWriter{n: 0},
			grps: []Group{{}},
			want: fmt.Errorf("tsformat: could not write group count: %w", io.ErrShortWrite),
		},
		{
			name: "no-header",
			w:    &failWriter{n: 3},
			grps: []Group{{}},
			want: fmt.Errorf("tsformat: could not write header 0: %w", io.ErrShortWrite),
		},
		{
			name: "no-body",
			w:    &failWriter{n: 13},
			grps: []Group{{Body: []byte{1}}},
			want: fmt.Errorf("tsformat: could not write body 0: %w", io.ErrShortWrite),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := NewEncoder(tc.w).Encode(tc.grps)
			switch {
			case err != nil && tc.want != nil:
				if got, want := err.Error(), tc.want.Error(); got != want {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", got, want)
				}
			case err != nil && tc.want == nil:
				t.Fatalf("could not encode: %+v", err)
			case err == nil && tc.want != nil:
				t.Fatalf("invalid error:\ngot= %v\nwant=%v\n", err, tc.want)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	lay := Layout{
		Length:      LayoutSize + 3,
		Channels:    2,
		ValueWidth:  2,
		RepeatWidth: 4,
		Updates:     100,
	}
	grp := Group{
		Header: Header{Name: "ao"},
		Body:   append(lay.Append(nil), 7, 8, 9),
	}

	got, err := grp.Layout()
	if err != nil {
		t.Fatalf("could not decode layout: %+v", err)
	}
	if got != lay {
		t.Fatalf("invalid layout:\ngot= %+v\nwant=%+v", got, lay)
	}
	if got, want := grp.Data(), []byte{7, 8, 9}; !bytes.Equal(got, want) {
		t.Fatalf("invalid data: got=%v, want=%v", got, want)
	}

	for _, tc := range []struct {
		name string
		body []byte
		want string
	}{
		{
			name: "short",
			body: []byte{1, 2, 3},
			want: `decode group "ao": malformed group body: tsformat: body too short for sub-header (got=3, want>=15)`,
		},
		{
			name: "length",
			body: append(Layout{Length: 99}.Append(nil), 1),
			want: `decode group "ao": malformed group body: tsformat: inconsistent body length (sub-header=99, body=16)`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Group{Header: Header{Name: "ao"}, Body: tc.body}.Layout()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !errors.Is(err, tsemu.ErrMalformedBody) {
				t.Fatalf("invalid error kind: %+v", err)
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
			}
		})
	}
}

func TestDelayTrain(t *testing.T) {
	for _, tc := range []struct {
		name  string
		body  []byte
		train []uint64
		err   bool
	}{
		{
			name:  "u8",
			body:  DelayBody(1, []uint64{1, 255, 0}),
			train: []uint64{1, 255, 0},
		},
		{
			name:  "u32",
			body:  DelayBody(4, []uint64{10, 0, 0xdeadbeef}),
			train: []uint64{10, 0, 0xdeadbeef},
		},
		{
			name:  "u64",
			body:  DelayBody(8, []uint64{1 << 40}),
			train: []uint64{1 << 40},
		},
		{
			name:  "empty",
			body:  DelayBody(4, nil),
			train: []uint64{},
		},
		{
			name: "bad-width",
			body: DelayBody(0, nil),
			err:  true,
		},
		{
			name: "no-length",
			body: Layout{Length: LayoutSize, RepeatWidth: 4}.Append(nil),
			err:  true,
		},
		{
			name: "ragged",
			body: func() []byte {
				body := DelayBody(4, []uint64{1, 2})
				PutUint(body[LayoutSize:LayoutSize+4], 7)
				return body
			}(),
			err: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			train, err := Group{Body: tc.body}.DelayTrain()
			switch {
			case err != nil && tc.err:
				if !errors.Is(err, tsemu.ErrMalformedBody) {
					t.Fatalf("invalid error kind: %+v", err)
				}
			case err != nil:
				t.Fatalf("could not decode delay train: %+v", err)
			case tc.err:
				t.Fatalf("expected an error")
			default:
				if !reflect.DeepEqual(train, tc.train) {
					t.Fatalf("invalid train: got=%v, want=%v", train, tc.train)
				}
			}
		})
	}
}

func TestUint(t *testing.T) {
	for _, v := range []uint64{0, 1, 0xff, 0x1234, 0xdeadbeef, 1<<63 + 5} {
		for _, n := range []int{1, 2, 4, 8} {
			p := make([]byte, n)
			PutUint(p, v)
			mask := ^uint64(0)
			if n < 8 {
				mask = 1<<(8*n) - 1
			}
			if got, want := Uint(p), v&mask; got != want {
				t.Fatalf("invalid round-trip for 0x%x (n=%d): got=0x%x, want=0x%x", v, n, got, want)
			}
		}
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		KindUnknown: "Kind(0)",
		KindDO:      "DO",
		KindAO:      "AO",
		KindDI:      "DI",
		KindAI:      "AI",
		KindSync:    "FPGA-sync",
		KindDelay:   "FPGA-delay",
	} {
		if got := k.String(); got != want {
			t.Fatalf("invalid kind string: got=%q, want=%q", got, want)
		}
	}
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/go-lpc/tsemu/sparse"
)

func TestAnalog(t *testing.T) {
	for _, tc := range []struct {
		a      Analog
		offset float64
		scale  float64
	}{
		{Analog{Width: 1, Range: 20}, 128, 127.0 / 10},
		{Analog{Width: 2, Range: 20}, 32768, 32767.0 / 10},
		{Analog{Width: 2, Range: 5}, 32768, 32767.0 / 2.5},
		{Analog{Width: 4, Range: 5}, 2147483648, 2147483647.0 / 2.5},
	} {
		t.Run(fmt.Sprintf("w=%d-r=%v", tc.a.Width, tc.a.Range), func(t *testing.T) {
			if got, want := tc.a.Offset(), tc.offset; got != want {
				t.Fatalf("invalid offset: got=%v, want=%v", got, want)
			}
			if got, want := tc.a.Scale(), tc.scale; math.Abs(got-want) > 1e-9*want {
				t.Fatalf("invalid scale: got=%v, want=%v", got, want)
			}
			if got, want := tc.a.Volts(uint32(tc.offset)), 0.0; got != want {
				t.Fatalf("invalid volts at offset: got=%v, want=%v", got, want)
			}
			if got, want := tc.a.Code(0), uint32(tc.offset); got != want {
				t.Fatalf("invalid code for 0V: got=%d, want=%d", got, want)
			}
			half := tc.a.Range / 2
			if got, want := tc.a.Volts(uint32(2*tc.offset-1)), half; math.Abs(got-want) > 1e-9 {
				t.Fatalf("invalid full-scale volts: got=%v, want=%v", got, want)
			}
		})
	}
}

func TestAnalogInverse(t *testing.T) {
	for _, w := range []int{1, 2, 4} {
		for _, rng := range []float64{5, 20} {
			a := Analog{Width: w, Range: rng}
			t.Run(fmt.Sprintf("w=%d-r=%v", w, rng), func(t *testing.T) {
				lim := uint64(1)<<(8*w) - 1
				step := lim / 4093
				if step == 0 {
					step = 1
				}
				check := func(c uint64) {
					got := uint64(a.Code(a.Volts(uint32(c))))
					d := got - c
					if got < c {
						d = c - got
					}
					if d > 1 {
						t.Fatalf("code 0x%x: round-trip gave 0x%x", c, got)
					}
				}
				for c := uint64(0); c <= lim; c += step {
					check(c)
				}
				check(lim)
			})
		}
	}
}

func TestAnalogClamp(t *testing.T) {
	a := Analog{Width: 2, Range: 20}
	for _, tc := range []struct {
		v    float64
		want uint32
	}{
		{v: -100, want: 0},
		{v: +100, want: 0xffff},
		{v: math.NaN(), want: 0},
		{v: -10, want: 1},
		{v: +10, want: 0xffff},
	} {
		if got := a.Code(tc.v); got != tc.want {
			t.Fatalf("invalid code for %v: got=%d, want=%d", tc.v, got, tc.want)
		}
	}

	if got, want := a.Quantize(1), a.Volts(a.Code(1)); got != want {
		t.Fatalf("invalid quantized value: got=%v, want=%v", got, want)
	}
}

func TestConvert(t *testing.T) {
	d, err := sparse.NewDense(1, [][]uint32{{128, 255, 1}, {128}})
	if err != nil {
		t.Fatalf("could not create dense array: %+v", err)
	}
	got := Analog{Width: 1, Range: 20}.Convert(d)
	want := [][]float64{{0, 10, -10}, {0}}
	if len(got) != len(want) {
		t.Fatalf("invalid number of channels: got=%d, want=%d", len(got), len(want))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("channel %d: invalid length: got=%d, want=%d", i, len(got[i]), len(want[i]))
		}
		for j := range want[i] {
			if math.Abs(got[i][j]-want[i][j]) > 1e-12 {
				t.Fatalf("channel %d, update %d: got=%v, want=%v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestConvertRounding(t *testing.T) {
	a := Analog{Width: 2, Range: 20}
	codes := []uint32{a.Code(1.3), a.Code(-2.7), a.Code(0.49), a.Code(9.6)}
	d, err := sparse.NewDense(2, [][]uint32{codes})
	if err != nil {
		t.Fatalf("could not create dense array: %+v", err)
	}

	for _, tc := range []struct {
		name  string
		exact bool
		want  []float64
	}{
		{name: "rounded", want: []float64{1, -3, 0, 10}},
		{
			name:  "exact",
			exact: true,
			want:  []float64{a.Volts(codes[0]), a.Volts(codes[1]), a.Volts(codes[2]), a.Volts(codes[3])},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conv := a
			conv.Exact = tc.exact
			got := conv.Convert(d)
			if len(got) != 1 {
				t.Fatalf("invalid number of channels: got=%d, want=1", len(got))
			}
			if !reflect.DeepEqual(got[0], tc.want) {
				t.Fatalf("invalid voltages: got=%v, want=%v", got[0], tc.want)
			}
		})
	}
}

func TestPackUnpack(t *testing.T) {
	for _, word := range []uint32{0x00000000, 0xFFFFFFFF, 0x00000001, 0xAAAAAAAA, 0x80000000, 0x12345678} {
		t.Run(fmt.Sprintf("0x%08x", word), func(t *testing.T) {
			bits := Unpack(word, 32)
			if got, want := len(bits), 32; got != want {
				t.Fatalf("invalid number of lines: got=%d, want=%d", got, want)
			}
			for i, b := range bits {
				if want := uint8(word>>i) & 1; b != want {
					t.Fatalf("line %d: got=%d, want=%d", i, b, want)
				}
			}
			if got, want := Pack(bits), word; got != want {
				t.Fatalf("invalid repacked word: got=0x%08x, want=0x%08x", got, want)
			}
		})
	}

	if got, want := Unpack(0x01, 8), []uint8{1, 0, 0, 0, 0, 0, 0, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid sync lines: got=%v, want=%v", got, want)
	}
}

func TestLines(t *testing.T) {
	d, err := sparse.NewDense(4, [][]uint32{{0, 1, 5, 0x80000000}})
	if err != nil {
		t.Fatalf("could not create dense array: %+v", err)
	}
	lines := Lines(d, 0, 32)
	if got, want := len(lines), 32; got != want {
		t.Fatalf("invalid number of lines: got=%d, want=%d", got, want)
	}
	for _, tc := range []struct {
		line int
		want []uint8
	}{
		{0, []uint8{0, 1, 1, 0}},
		{1, []uint8{0, 0, 0, 0}},
		{2, []uint8{0, 0, 1, 0}},
		{31, []uint8{0, 0, 0, 1}},
	} {
		if got := lines[tc.line]; !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("line %d: got=%v, want=%v", tc.line, got, tc.want)
		}
	}

	empty := Lines(sparse.Dense{}, 0, 8)
	if got, want := len(empty), 8; got != want {
		t.Fatalf("invalid number of lines: got=%d, want=%d", got, want)
	}
	if got := len(empty[0]); got != 0 {
		t.Fatalf("invalid number of updates: got=%d", got)
	}
}

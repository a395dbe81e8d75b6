// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scale converts dense channel codes into physical values:
// voltages for analog channels and individual lines for digital words.
package scale // import "github.com/go-lpc/tsemu/scale"

import (
	"math"

	"github.com/go-lpc/tsemu/sparse"
)

// Analog converts codes of Width bytes spanning a full-scale Range,
// in volts, centered on zero.
//
// Convert rounds voltages to the nearest volt unless Exact is set.
type Analog struct {
	Width int     // bytes per value
	Range float64 // full-scale range in volts
	Exact bool    // keep unrounded voltages in Convert
}

// Offset returns the code of 0 V.
func (a Analog) Offset() float64 {
	return math.Ldexp(1, 8*a.Width-1)
}

// Scale returns the number of codes per volt.
func (a Analog) Scale() float64 {
	return (a.Offset() - 1) / (a.Range / 2)
}

// Volts returns the voltage of a code.
func (a Analog) Volts(code uint32) float64 {
	return (float64(code) - a.Offset()) / a.Scale()
}

// Code returns the code closest to v, clamped to the codes of the width.
func (a Analog) Code(v float64) uint32 {
	var (
		c   = math.Round(v*a.Scale() + a.Offset())
		lim = math.Ldexp(1, 8*a.Width) - 1
	)
	switch {
	case c < 0 || math.IsNaN(c):
		return 0
	case c > lim:
		return uint32(lim)
	}
	return uint32(c)
}

// Quantize returns the voltage the hardware actually outputs for v.
func (a Analog) Quantize(v float64) float64 {
	return a.Volts(a.Code(v))
}

// Convert converts every channel of d into voltages.
func (a Analog) Convert(d sparse.Dense) [][]float64 {
	o := make([][]float64, d.Channels())
	for ch := range o {
		row := make([]float64, d.Updates(ch))
		for i := range row {
			v := a.Volts(d.At(ch, i))
			if !a.Exact {
				v = math.Round(v)
			}
			row[i] = v
		}
		o[ch] = row
	}
	return o
}

// Unpack expands word into n one-bit lines; line i holds bit i.
func Unpack(word uint32, n int) []uint8 {
	o := make([]uint8, n)
	for i := range o {
		o[i] = uint8(word>>uint(i)) & 1
	}
	return o
}

// Pack is the inverse of Unpack.
func Pack(bits []uint8) uint32 {
	var word uint32
	for i, b := range bits {
		word |= uint32(b&1) << uint(i)
	}
	return word
}

// Lines expands channel ch of d into n digital lines,
// indexed [line][update].
func Lines(d sparse.Dense, ch, n int) [][]uint8 {
	nup := 0
	if ch < d.Channels() {
		nup = d.Updates(ch)
	}
	o := make([][]uint8, n)
	for i := range o {
		o[i] = make([]uint8, nup)
	}
	for j := 0; j < nup; j++ {
		word := d.At(ch, j)
		for i := range o {
			o[i][j] = uint8(word>>uint(i)) & 1
		}
	}
	return o
}

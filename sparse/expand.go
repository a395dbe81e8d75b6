// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"encoding/binary"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/tsformat"
	"golang.org/x/exp/constraints"
	"golang.org/x/xerrors"
)

// Expander expands the channel blocks of a group into a dense array of
// nchans channels by nupdates updates. width is the number of bytes per
// value and must be 1, 2 or 4; repeat is the number of bytes per repeat
// count.
type Expander interface {
	Expand(nchans, nupdates uint32, width, repeat int, data []byte) (Dense, error)
}

// ExpanderFunc adapts a function into an Expander.
type ExpanderFunc func(nchans, nupdates uint32, width, repeat int, data []byte) (Dense, error)

func (f ExpanderFunc) Expand(nchans, nupdates uint32, width, repeat int, data []byte) (Dense, error) {
	return f(nchans, nupdates, width, repeat, data)
}

// Expand is the built-in run-length expander.
func Expand(nchans, nupdates uint32, width, repeat int, data []byte) (Dense, error) {
	if repeat < 1 || repeat > 8 {
		return Dense{}, xerrors.Errorf("sparse: invalid repeat width %d", repeat)
	}

	var (
		dense = Dense{width: width}
		err   error
	)
	switch width {
	case 1:
		dense.u8, err = expand[uint8](nchans, nupdates, width, repeat, data)
	case 2:
		dense.u16, err = expand[uint16](nchans, nupdates, width, repeat, data)
	case 4:
		dense.u32, err = expand[uint32](nchans, nupdates, width, repeat, data)
	default:
		return Dense{}, &tsemu.ExpansionError{Width: width}
	}
	if err != nil {
		return Dense{}, err
	}
	return dense, nil
}

func expand[T constraints.Unsigned](nchans, nupdates uint32, width, repeat int, data []byte) ([][]T, error) {
	var (
		pair = width + repeat
		rows = make([][]T, nchans)
	)
	for i := range rows {
		if len(data) < 4 {
			return nil, xerrors.Errorf("sparse: missing length of channel %d", i)
		}
		n := uint64(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		if n > uint64(len(data)) || n%uint64(pair) != 0 {
			return nil, xerrors.Errorf("sparse: invalid block length %d for channel %d", n, i)
		}
		blk := data[:n]
		data = data[n:]

		row := make([]T, 0, nupdates)
		for ; len(blk) > 0; blk = blk[pair:] {
			var (
				v = T(tsformat.Uint(blk[:width]))
				r = tsformat.Uint(blk[width:pair])
			)
			if r > uint64(nupdates)-uint64(len(row)) {
				return nil, xerrors.Errorf("sparse: channel %d overflows %d updates", i, nupdates)
			}
			for ; r > 0; r-- {
				row = append(row, v)
			}
		}
		if len(row) != int(nupdates) {
			return nil, xerrors.Errorf("sparse: channel %d has %d updates, want %d", i, len(row), nupdates)
		}
		rows[i] = row
	}
	return rows, nil
}

// Dense is a [channel][update] array of codes, stored with the value
// width of the group.
type Dense struct {
	width int
	u8    [][]uint8
	u16   [][]uint16
	u32   [][]uint32
}

// NewDense creates a dense array of the given width from rows of codes.
// Codes are truncated to the width.
func NewDense(width int, rows [][]uint32) (Dense, error) {
	d := Dense{width: width}
	switch width {
	case 1:
		d.u8 = convert[uint8](rows)
	case 2:
		d.u16 = convert[uint16](rows)
	case 4:
		d.u32 = convert[uint32](rows)
	default:
		return Dense{}, &tsemu.ExpansionError{Width: width}
	}
	return d, nil
}

func convert[T constraints.Unsigned](rows [][]uint32) [][]T {
	o := make([][]T, len(rows))
	for i, row := range rows {
		o[i] = make([]T, len(row))
		for j, v := range row {
			o[i][j] = T(v)
		}
	}
	return o
}

// Width returns the number of bytes per value.
func (d Dense) Width() int { return d.width }

// Channels returns the number of channels.
func (d Dense) Channels() int {
	switch d.width {
	case 1:
		return len(d.u8)
	case 2:
		return len(d.u16)
	case 4:
		return len(d.u32)
	}
	return 0
}

// Updates returns the number of updates of channel ch.
func (d Dense) Updates(ch int) int {
	switch d.width {
	case 1:
		return len(d.u8[ch])
	case 2:
		return len(d.u16[ch])
	case 4:
		return len(d.u32[ch])
	}
	return 0
}

// At returns the code of channel ch at update i.
func (d Dense) At(ch, i int) uint32 {
	switch d.width {
	case 1:
		return uint32(d.u8[ch][i])
	case 2:
		return uint32(d.u16[ch][i])
	case 4:
		return d.u32[ch][i]
	}
	panic(xerrors.Errorf("sparse: invalid dense width %d", d.width))
}

// Row returns a copy of channel ch, widened to 32 bits.
func (d Dense) Row(ch int) []uint32 {
	o := make([]uint32, d.Updates(ch))
	for i := range o {
		o[i] = d.At(ch, i)
	}
	return o
}

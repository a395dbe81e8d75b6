// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"encoding/binary"

	"github.com/go-lpc/tsemu/tsformat"
)

// Compress run-length encodes a row of codes. Runs longer than what a
// repeat count of rw bytes can hold are split.
func Compress(rw int, row []uint64) Channel {
	lim := ^uint64(0)
	if rw < 8 {
		lim = 1<<(8*rw) - 1
	}

	var ch Channel
	for _, v := range row {
		if n := len(ch); n > 0 && ch[n-1].Value == v && ch[n-1].Repeat < lim {
			ch[n-1].Repeat++
			continue
		}
		ch = append(ch, Pair{Value: v, Repeat: 1})
	}
	return ch
}

// AppendChannel appends the block of one channel to dst.
func AppendChannel(dst []byte, vw, rw int, ch Channel) []byte {
	var p [8]byte
	binary.LittleEndian.PutUint32(p[:4], uint32(len(ch)*(vw+rw)))
	dst = append(dst, p[:4]...)
	for _, pair := range ch {
		tsformat.PutUint(p[:vw], pair.Value)
		dst = append(dst, p[:vw]...)
		tsformat.PutUint(p[:rw], pair.Repeat)
		dst = append(dst, p[:rw]...)
	}
	return dst
}

// Body builds the body of a channel-data group from run-length encoded
// channels declaring nupdates updates each.
func Body(vw, rw int, nupdates uint32, chans []Channel) []byte {
	var data []byte
	for _, ch := range chans {
		data = AppendChannel(data, vw, rw, ch)
	}
	lay := tsformat.Layout{
		Length:      uint64(tsformat.LayoutSize + len(data)),
		Channels:    uint8(len(chans)),
		ValueWidth:  uint8(vw),
		RepeatWidth: uint8(rw),
		Updates:     nupdates,
	}
	return append(lay.Append(make([]byte, 0, int(lay.Length))), data...)
}

// Encode builds the body of a channel-data group holding the given rows.
// All rows must have the same length.
func Encode(vw, rw int, rows [][]uint64) []byte {
	var (
		n     uint32
		chans = make([]Channel, len(rows))
	)
	for i, row := range rows {
		chans[i] = Compress(rw, row)
		n = uint32(len(row))
	}
	return Body(vw, rw, n, chans)
}

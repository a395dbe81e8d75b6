// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsformat

import (
	"encoding/binary"

	"github.com/go-lpc/tsemu"
	"golang.org/x/xerrors"
)

// Layout decodes the sub-header at the start of the group body.
func (grp Group) Layout() (Layout, error) {
	var lay Layout
	if len(grp.Body) < LayoutSize {
		return lay, grp.malformed("tsformat: body too short for sub-header (got=%d, want>=%d)",
			len(grp.Body), LayoutSize,
		)
	}

	p := grp.Body
	lay.Length = binary.LittleEndian.Uint64(p[0:8])
	lay.Channels = p[8]
	lay.ValueWidth = p[9]
	lay.RepeatWidth = p[10]
	lay.Updates = binary.LittleEndian.Uint32(p[11:15])

	if lay.Length != uint64(len(grp.Body)) {
		return lay, grp.malformed("tsformat: inconsistent body length (sub-header=%d, body=%d)",
			lay.Length, len(grp.Body),
		)
	}

	return lay, nil
}

// Data returns the group body past the sub-header.
func (grp Group) Data() []byte {
	if len(grp.Body) < LayoutSize {
		return nil
	}
	return grp.Body[LayoutSize:]
}

// DelayTrain decodes the delay train carried by an FPGA delay group:
// a 4-byte byte count followed by entries of RepeatWidth bytes each.
func (grp Group) DelayTrain() ([]uint64, error) {
	lay, err := grp.Layout()
	if err != nil {
		return nil, err
	}

	w := int(lay.RepeatWidth)
	if w < 1 || w > 8 {
		return nil, grp.malformed("tsformat: invalid delay width %d", w)
	}

	p := grp.Data()
	if len(p) < 4 {
		return nil, grp.malformed("tsformat: missing delay train length")
	}
	n := uint64(binary.LittleEndian.Uint32(p[:4]))
	p = p[4:]
	if n > uint64(len(p)) || n%uint64(w) != 0 {
		return nil, grp.malformed("tsformat: invalid delay train length %d (width=%d, available=%d)",
			n, w, len(p),
		)
	}

	train := make([]uint64, 0, n/uint64(w))
	for i := 0; i < int(n); i += w {
		train = append(train, Uint(p[i:i+w]))
	}
	return train, nil
}

func (grp Group) malformed(format string, args ...interface{}) error {
	return &tsemu.DecodeError{
		Kind:  tsemu.ErrMalformedBody,
		Group: grp.Header.Name,
		Err:   xerrors.Errorf(format, args...),
	}
}

// Append appends the encoded sub-header to dst.
func (lay Layout) Append(dst []byte) []byte {
	var p [LayoutSize]byte
	binary.LittleEndian.PutUint64(p[0:8], lay.Length)
	p[8] = lay.Channels
	p[9] = lay.ValueWidth
	p[10] = lay.RepeatWidth
	binary.LittleEndian.PutUint32(p[11:15], lay.Updates)
	return append(dst, p[:]...)
}

// DelayBody builds the body of an FPGA delay group.
func DelayBody(width int, train []uint64) []byte {
	n := 4 + width*len(train)
	body := Layout{
		Length:      uint64(LayoutSize + n),
		Channels:    1,
		RepeatWidth: uint8(width),
		Updates:     uint32(len(train)),
	}.Append(make([]byte, 0, LayoutSize+n))

	var p [8]byte
	binary.LittleEndian.PutUint32(p[:4], uint32(width*len(train)))
	body = append(body, p[:4]...)
	for _, v := range train {
		PutUint(p[:width], v)
		body = append(body, p[:width]...)
	}
	return body
}

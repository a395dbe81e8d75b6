// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsformat

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encoder writes timing-sequence payloads to an output stream.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
	}
}

// Encode writes the groups as one payload.
// The Length field of each header is taken from the length of the
// corresponding body.
func (enc *Encoder) Encode(grps []Group) error {
	if len(grps) > math.MaxUint8 {
		return fmt.Errorf("tsformat: too many groups (%d > %d)", len(grps), math.MaxUint8)
	}
	for _, grp := range grps {
		for _, s := range []string{grp.Header.Name, grp.Header.Clock} {
			if len(s) > NameSize {
				return fmt.Errorf("tsformat: name %q too long (%d > %d)", s, len(s), NameSize)
			}
		}
	}

	enc.writeU8(uint8(len(grps)))
	if enc.err != nil {
		return fmt.Errorf("tsformat: could not write group count: %w", enc.err)
	}

	for i, grp := range grps {
		hdr := grp.Header
		enc.writeU64(uint64(len(grp.Body)))
		enc.writeU64(hdr.Number)
		enc.writeU8(hdr.Device)
		enc.writeU8(hdr.Timing)
		enc.writeU8(hdr.ClockSource)
		enc.writeU32(hdr.ClockFreq)
		enc.writeBool(hdr.StartNow)
		enc.writeBool(hdr.Expand)
		enc.writeU8(hdr.Version)
		enc.write(make([]byte, 6))
		enc.writeStr(hdr.Name)
		enc.writeStr(hdr.Clock)
		if enc.err != nil {
			return fmt.Errorf("tsformat: could not write header %d: %w", i, enc.err)
		}
	}

	for i, grp := range grps {
		enc.write(grp.Body)
		if enc.err != nil {
			return fmt.Errorf("tsformat: could not write body %d: %w", i, enc.err)
		}
	}

	return enc.err
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
}

func (enc *Encoder) writeU8(v uint8) {
	const n = 1
	enc.reserve(n)
	enc.buf[0] = v
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeBool(v bool) {
	switch v {
	case true:
		enc.writeU8(1)
	default:
		enc.writeU8(0)
	}
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	enc.reserve(n)
	binary.LittleEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU64(v uint64) {
	const n = 8
	enc.reserve(n)
	binary.LittleEndian.PutUint64(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

// writeStr writes a space-padded name field.
func (enc *Encoder) writeStr(s string) {
	enc.reserve(NameSize)
	p := enc.buf[:NameSize]
	n := copy(p, s)
	for i := n; i < NameSize; i++ {
		p[i] = ' '
	}
	enc.write(p)
}

func (enc *Encoder) reserve(n int) {
	if cap(enc.buf) < n {
		enc.buf = append(enc.buf[:len(enc.buf)], make([]byte, n-cap(enc.buf))...)
	}
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsformat

import (
	"bytes"
	"errors"
	"io"
	"math"

	"github.com/go-lpc/tsemu"
	"golang.org/x/xerrors"
)

// Decoder reads timing-sequence payloads from an underlying data source.
type Decoder struct {
	r io.Reader

	buf []byte
	err error
}

// NewDecoder creates a decoder that reads payloads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, HeaderSize),
	}
}

// Parse decodes a complete payload.
// Bytes left over after the last group body are reported as a
// malformed frame.
func Parse(raw []byte) ([]Group, error) {
	r := bytes.NewReader(raw)
	grps, err := NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}
	if n := r.Len(); n != 0 {
		return nil, &tsemu.DecodeError{
			Kind: tsemu.ErrMalformedFrame,
			Err:  xerrors.Errorf("tsformat: %d trailing bytes after last group body", n),
		}
	}
	return grps, nil
}

// Decode reads one payload: the group count, the group headers and the
// group bodies. Bodies are taken sequentially from the body region,
// each one consuming exactly the number of bytes its header declares.
func (dec *Decoder) Decode() ([]Group, error) {
	n := dec.readU8()
	if dec.err != nil {
		return nil, dec.errorf("tsformat: could not read group count: %w")
	}

	grps := make([]Group, n)
	for i := range grps {
		dec.load(HeaderSize)
		if dec.err != nil {
			return nil, dec.errorf("tsformat: could not read header %d/%d: %w", i+1, n)
		}
		hdr, err := DecodeHeader(dec.buf[:HeaderSize])
		if err != nil {
			return nil, err
		}
		grps[i].Header = hdr
	}

	for i := range grps {
		hdr := &grps[i].Header
		grps[i].Body = dec.readN(hdr.Length)
		if dec.err != nil {
			return nil, dec.errorf(
				"tsformat: could not read body of group %d/%d (%q, %d bytes): %w",
				i+1, n, hdr.Name, hdr.Length,
			)
		}
	}

	return grps, nil
}

// errorf wraps the sticky error, the last formatting argument.
// Short reads are reported as truncated streams.
func (dec *Decoder) errorf(format string, args ...interface{}) error {
	err := xerrors.Errorf(format, append(args, dec.err)...)
	switch {
	case errors.Is(dec.err, io.EOF), errors.Is(dec.err, io.ErrUnexpectedEOF):
		return &tsemu.DecodeError{Kind: tsemu.ErrTruncatedStream, Err: err}
	case errors.Is(dec.err, errBodyTooLarge):
		return &tsemu.DecodeError{Kind: tsemu.ErrMalformedHeader, Err: err}
	}
	return err
}

var errBodyTooLarge = errors.New("tsformat: body length overflows")

func (dec *Decoder) readU8() uint8 {
	dec.load(1)
	return dec.buf[0]
}

func (dec *Decoder) readN(n uint64) []byte {
	if dec.err != nil {
		return nil
	}
	if n > math.MaxInt64 {
		dec.err = errBodyTooLarge
		return nil
	}
	// copied incrementally: a bogus length must not allocate up front.
	var o bytes.Buffer
	_, dec.err = io.CopyN(&o, dec.r, int64(n))
	if dec.err != nil && errors.Is(dec.err, io.EOF) && n > 0 {
		dec.err = io.ErrUnexpectedEOF
	}
	return o.Bytes()
}

func (dec *Decoder) load(n int) {
	if dec.err != nil {
		return
	}
	if cap(dec.buf) < n {
		dec.buf = append(dec.buf[:len(dec.buf)], make([]byte, n-cap(dec.buf))...)
	}
	dec.buf = dec.buf[:n]
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsformat

import (
	"encoding/binary"
	"strings"

	"github.com/go-lpc/tsemu"
	"golang.org/x/xerrors"
)

// DecodeHeader decodes a group header from exactly HeaderSize bytes.
//
// Unknown device type codes are not an error: the header is returned
// with KindUnknown and the caller decides what to do with the group.
func DecodeHeader(p []byte) (Header, error) {
	var hdr Header
	if len(p) != HeaderSize {
		return hdr, &tsemu.DecodeError{
			Kind: tsemu.ErrMalformedHeader,
			Err: xerrors.Errorf(
				"tsformat: invalid header size (got=%d, want=%d)",
				len(p), HeaderSize,
			),
		}
	}

	hdr.Length = binary.LittleEndian.Uint64(p[0:8])
	hdr.Number = binary.LittleEndian.Uint64(p[8:16])
	hdr.Device = p[16]
	hdr.Timing = p[17]
	hdr.ClockSource = p[18]
	hdr.ClockFreq = binary.LittleEndian.Uint32(p[19:23])
	hdr.StartNow = p[23] != 0
	hdr.Expand = p[24] != 0
	hdr.Version = p[25]
	// p[26:32] is reserved.
	hdr.Name = trim(p[32 : 32+NameSize])
	hdr.Clock = trim(p[56 : 56+NameSize])
	hdr.Kind = KindOf(hdr.Device, hdr.Name)

	return hdr, nil
}

func trim(p []byte) string {
	return strings.Trim(string(p), " \x00")
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse decodes run-length encoded channel data.
//
// A channel-data group body holds, after its sub-header, one block per
// channel: a 4-byte block length followed by (value, repeat) pairs.
// Every channel must expand to exactly the number of updates declared
// in the sub-header.
package sparse // import "github.com/go-lpc/tsemu/sparse"

import (
	"encoding/binary"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/tsformat"
	"golang.org/x/xerrors"
)

// Pair is a value repeated Repeat times.
type Pair struct {
	Value  uint64
	Repeat uint64
}

// Channel is the run-length representation of one channel.
type Channel []Pair

// Updates returns the number of updates the channel expands to.
func (ch Channel) Updates() uint64 {
	var n uint64
	for _, p := range ch {
		n += p.Repeat
	}
	return n
}

// Split splits the channel blocks of a group into channels.
func Split(grp tsformat.Group) (tsformat.Layout, []Channel, error) {
	lay, err := grp.Layout()
	if err != nil {
		return lay, nil, err
	}

	var (
		vw   = int(lay.ValueWidth)
		rw   = int(lay.RepeatWidth)
		data = grp.Data()
		name = grp.Header.Name
	)
	if rw < 1 || rw > 8 {
		return lay, nil, malformed(name, "sparse: invalid pair layout (value=%d, repeat=%d)", vw, rw)
	}

	chans := make([]Channel, lay.Channels)
	for i := range chans {
		if len(data) < 4 {
			return lay, nil, malformed(name, "sparse: missing length of channel %d", i)
		}
		n := uint64(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		if n > uint64(len(data)) {
			return lay, nil, malformed(name, "sparse: channel %d overflows body (len=%d, available=%d)",
				i, n, len(data),
			)
		}
		blk := data[:n]
		data = data[n:]
		if len(blk)%(vw+rw) != 0 {
			return lay, nil, malformed(name, "sparse: channel %d has a partial pair (len=%d, pair=%d)",
				i, len(blk), vw+rw,
			)
		}
		ch := make(Channel, 0, len(blk)/(vw+rw))
		for len(blk) > 0 {
			ch = append(ch, Pair{
				Value:  tsformat.Uint(blk[:vw]),
				Repeat: tsformat.Uint(blk[vw : vw+rw]),
			})
			blk = blk[vw+rw:]
		}
		chans[i] = ch
	}

	if len(data) != 0 {
		return lay, nil, malformed(name, "sparse: %d trailing bytes after channel %d", len(data), len(chans))
	}

	return lay, chans, nil
}

// Verify checks that every channel expands to exactly the declared
// number of updates. On failure, the channel with the largest deviation
// is reported.
func Verify(name string, lay tsformat.Layout, chans []Channel) error {
	var (
		want  = uint64(lay.Updates)
		worst uint64
		bad   bool
		dmax  uint64
	)
	for _, ch := range chans {
		got := ch.Updates()
		if got == want {
			continue
		}
		d := got - want
		if got < want {
			d = want - got
		}
		if !bad || d > dmax {
			bad = true
			dmax = d
			worst = got
		}
	}
	if !bad {
		return nil
	}
	return &tsemu.DecodeError{
		Kind:     tsemu.ErrRepeatCountMismatch,
		Group:    name,
		Expected: want,
		Got:      worst,
	}
}

func malformed(name, format string, args ...interface{}) error {
	return &tsemu.DecodeError{
		Kind:  tsemu.ErrMalformedBody,
		Group: name,
		Err:   xerrors.Errorf(format, args...),
	}
}

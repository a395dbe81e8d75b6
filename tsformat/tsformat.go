// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tsformat reads and writes compiled timing-sequence payloads.
//
// A payload starts with the number of timing groups N, followed by N
// fixed-size group headers and then by the N group bodies, in header
// order. All multi-byte integers are little-endian.
package tsformat // import "github.com/go-lpc/tsemu/tsformat"

import "fmt"

const (
	HeaderSize = 80 // size of a group header in bytes
	LayoutSize = 15 // size of a group body sub-header in bytes
	NameSize   = 24 // size of the group and clock name fields

	// SyncName is the group name that turns a digital group into
	// the FPGA synchronous command group.
	SyncName = "RIO01/sync"
)

// Device type codes as written in group headers.
const (
	DevDigitalOut uint8 = 0
	DevAnalogOut  uint8 = 1
	DevDigitalIn  uint8 = 2
	DevAnalogIn   uint8 = 3
	DevDelayTrain uint8 = 4
)

// Kind is the board kind a timing group is destined to.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDO           // digital output
	KindAO           // analog output
	KindDI           // digital input
	KindAI           // analog input
	KindSync         // FPGA synchronous commands
	KindDelay        // FPGA delay train
)

func (k Kind) String() string {
	switch k {
	case KindDO:
		return "DO"
	case KindAO:
		return "AO"
	case KindDI:
		return "DI"
	case KindAI:
		return "AI"
	case KindSync:
		return "FPGA-sync"
	case KindDelay:
		return "FPGA-delay"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindOf returns the board kind for a device type code and a group name.
func KindOf(dev uint8, name string) Kind {
	switch dev {
	case DevDigitalOut:
		if name == SyncName {
			return KindSync
		}
		return KindDO
	case DevAnalogOut:
		return KindAO
	case DevDigitalIn:
		return KindDI
	case DevAnalogIn:
		return KindAI
	case DevDelayTrain:
		return KindDelay
	}
	return KindUnknown
}

// Header is the metadata record of a timing group.
type Header struct {
	Length      uint64 // body length in bytes
	Number      uint64 // group number
	Device      uint8  // device type code
	Kind        Kind   // board kind, derived from Device and Name
	Timing      uint8  // timing number
	ClockSource uint8
	ClockFreq   uint32 // clock frequency in Hz
	StartNow    bool   // start immediately
	Expand      bool   // requires expansion
	Version     uint8
	Name        string // group name
	Clock       string // clock name
}

// Group is a timing group: a header and its raw body.
type Group struct {
	Header Header
	Body   []byte
}

// Layout is the sub-header that starts every channel-data group body.
type Layout struct {
	Length      uint64 // body length, sub-header included
	Channels    uint8  // number of channels
	ValueWidth  uint8  // bytes per value
	RepeatWidth uint8  // bytes per repeat count
	Updates     uint32 // number of updates per channel
}

// Uint decodes a little-endian unsigned integer of len(p) bytes (at most 8).
func Uint(p []byte) uint64 {
	var v uint64
	for i := len(p) - 1; i >= 0; i-- {
		v = v<<8 | uint64(p[i])
	}
	return v
}

// PutUint encodes v as a little-endian unsigned integer of len(p) bytes.
// Bits of v that do not fit are dropped.
func PutUint(p []byte, v uint64) {
	for i := range p {
		p[i] = byte(v)
		v >>= 8
	}
}

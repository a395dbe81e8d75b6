// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc16 implements the 16-bit CRC-CCITT checksum
// (polynomial 0x1021, initial value 0xffff, no reflection).
package crc16 // import "github.com/go-lpc/tsemu/internal/crc16"

import "hash"

const (
	// CCITT is the CRC-CCITT polynomial.
	CCITT = 0x1021

	// Size is the size of a CRC-16 checksum in bytes.
	Size = 2

	initial = 0xffff
)

// Table is a 256-word table representing the polynomial for efficient processing.
type Table [256]uint16

var ccittTable = MakeTable(CCITT)

// MakeTable returns the table of the given (non-reflected) polynomial.
func MakeTable(poly uint16) *Table {
	t := new(Table)
	for i := range t {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum using the
// polynomial represented by the table.
// The CRC-CCITT table is used when tab is nil.
func New(tab *Table) Hash16 {
	if tab == nil {
		tab = ccittTable
	}
	return &digest{crc: initial, tab: tab}
}

// Checksum returns the CRC-CCITT checksum of data.
func Checksum(data []byte) uint16 {
	return update(initial, ccittTable, data)
}

func update(crc uint16, tab *Table, p []byte) uint16 {
	for _, v := range p {
		crc = crc<<8 ^ tab[byte(crc>>8)^v]
	}
	return crc
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = initial }

func (d *digest) Write(p []byte) (int, error) {
	d.crc = update(d.crc, d.tab, p)
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

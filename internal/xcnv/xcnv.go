// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert emulated waveforms to/from LCIO.
package xcnv // import "github.com/go-lpc/tsemu/internal/xcnv"

const (
	// Detector is the detector name written in LCIO run headers and events.
	Detector = "tsemu"

	// Collection is the name of the LCIO collection holding a pulse.
	Collection = "TSEMU_PULSE"
)

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tsemu decodes binary timing sequences for the PXI/FPGA
// experiment-control crate and replays them on emulated boards.
//
// The decoding and simulation layers live in sub-packages:
//
//   - tsformat: payload frames, group headers and group sub-headers,
//   - sparse: run-length channel data,
//   - scale: analog and digital code conversion,
//   - board: board emulators and the wiring table,
//   - emu: group routing, the delay-train sequencer and the output waveform.
//
// Package tsemu itself holds the error taxonomy shared by all of them.
package tsemu // import "github.com/go-lpc/tsemu"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of tsemu and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/tsemu"
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}

	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if r := m.Replace; r != nil {
			switch {
			case r.Version != "" && r.Path != "":
				return fmt.Sprintf("%s %s", r.Path, r.Version), r.Sum
			case r.Version != "":
				return r.Version, r.Sum
			case r.Path != "":
				return r.Path, r.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}

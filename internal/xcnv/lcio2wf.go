// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"io"

	"github.com/go-lpc/tsemu/emu"
	"go-hep.org/x/hep/lcio"
)

// LCIO2WF reads back a waveform written by WF2LCIO.
func LCIO2WF(r *lcio.Reader) (*emu.Waveform, error) {
	var (
		wf = new(emu.Waveform)
		i  = 0
	)

	for r.Next() {
		evt := r.Event()
		if i == 0 {
			wf.Labels = evt.Params.Strings["Labels"]
			wf.Values = make([][]float64, len(wf.Labels))
		}

		obj, ok := evt.Get(Collection).(*lcio.GenericObject)
		if !ok || len(obj.Data) != 1 {
			return nil, fmt.Errorf("xcnv: invalid %s collection in event %d", Collection, i)
		}
		data := obj.Data[0]
		if len(data.I32s) != 2 || len(data.F64s) != 1+len(wf.Labels) {
			return nil, fmt.Errorf("xcnv: invalid pulse %d (ints=%d, floats=%d, rows=%d)",
				i, len(data.I32s), len(data.F64s), len(wf.Labels),
			)
		}

		tick := uint64(uint32(data.I32s[0])) | uint64(uint32(data.I32s[1]))<<32
		wf.Ticks = append(wf.Ticks, tick)
		wf.Times = append(wf.Times, data.F64s[0])
		for j := range wf.Values {
			wf.Values[j] = append(wf.Values[j], data.F64s[j+1])
		}
		i++
	}

	if err := r.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("xcnv: could not read LCIO stream: %w", err)
	}
	return wf, nil
}

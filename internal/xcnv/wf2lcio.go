// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"log"

	"github.com/go-lpc/tsemu/emu"
	"go-hep.org/x/hep/lcio"
)

// WF2LCIO writes a waveform to w: one LCIO event per pulse.
//
// The pulse tick is stored as two int32 words (low, high), the pulse
// time and the row values as float64s. Row labels are stored in the
// parameters of the first event.
func WF2LCIO(w *lcio.Writer, wf *emu.Waveform, run int32, seq string, msg *log.Logger) error {
	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  Detector,
		Descr:     seq,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Rows":   {int32(len(wf.Labels))},
				"Pulses": {int32(wf.Len())},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	raw := &lcio.GenericObject{
		Data: []lcio.GenericObjectData{{}},
	}

	for i := 0; i < wf.Len(); i++ {
		if i%1000 == 0 {
			msg.Printf("processing pulse %d...", i)
		}
		tick := wf.Ticks[i]
		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(tick),
			Detector:    Detector,
		}
		if i == 0 {
			evt.Params.Strings = map[string][]string{"Labels": wf.Labels}
		}

		f64s := make([]float64, 1+len(wf.Values))
		f64s[0] = wf.Times[i]
		for j, row := range wf.Values {
			f64s[j+1] = row[i]
		}
		raw.Data[0].I32s = []int32{int32(uint32(tick)), int32(uint32(tick >> 32))}
		raw.Data[0].F64s = f64s
		evt.Add(Collection, raw)

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write pulse %d: %w", i, err)
		}
	}

	return nil
}

// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emu

// Waveform holds the channel values recorded at every pulse of a run.
type Waveform struct {
	Times  []float64   // pulse instants, in milliseconds
	Ticks  []uint64    // pulse instants, in master clock ticks
	Labels []string    // row names: DO:00..DO:31, then AO<bank>:<channel>
	Values [][]float64 // values, indexed [row][pulse]
}

func newWaveform(labels []string) *Waveform {
	return &Waveform{
		Labels: labels,
		Values: make([][]float64, len(labels)),
	}
}

func (wf *Waveform) append(p Pulse) {
	wf.Times = append(wf.Times, p.Time)
	wf.Ticks = append(wf.Ticks, p.Tick)
	for i := range wf.Values {
		v := 0.0
		if i < len(p.Values) {
			v = p.Values[i]
		}
		wf.Values[i] = append(wf.Values[i], v)
	}
}

// Len returns the number of recorded pulses.
func (wf *Waveform) Len() int { return len(wf.Times) }

// Row returns the values of the named row.
func (wf *Waveform) Row(label string) ([]float64, bool) {
	for i, name := range wf.Labels {
		if name == label {
			return wf.Values[i], true
		}
	}
	return nil, false
}

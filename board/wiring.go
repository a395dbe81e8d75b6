// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package board

import (
	"fmt"
	"sort"

	"github.com/go-lpc/tsemu"
)

// Wiring maps clock and group names to boards.
//
// Wiring is filled while groups are loaded and frozen before the
// sequencer starts. The first board registered under a name keeps it.
type Wiring struct {
	names  map[string]Board
	frozen bool
	errs   []error
}

func NewWiring() *Wiring {
	return &Wiring{names: make(map[string]Board)}
}

// Register binds name to b.
// Empty names are ignored. Binding a name already held by another board
// is reported as a duplicate name and leaves the table unchanged.
func (w *Wiring) Register(name string, b Board) error {
	if name == "" {
		return nil
	}
	if w.frozen {
		return fmt.Errorf("board: wiring table is frozen (name=%q)", name)
	}
	old, dup := w.names[name]
	switch {
	case !dup:
		w.names[name] = b
		return nil
	case old == b:
		return nil
	}
	err := &tsemu.ConfigError{
		Kind:   tsemu.ErrDuplicateName,
		Group:  b.Name(),
		Detail: fmt.Sprintf("name %q already bound to %s board %q", name, old.Kind(), old.Name()),
	}
	w.errs = append(w.errs, err)
	return err
}

// Lookup returns the board bound to name.
func (w *Wiring) Lookup(name string) (Board, bool) {
	b, ok := w.names[name]
	return b, ok
}

// Freeze makes the table read-only.
func (w *Wiring) Freeze()      { w.frozen = true }
func (w *Wiring) Frozen() bool { return w.frozen }

// Conflicts returns the duplicate names found so far.
func (w *Wiring) Conflicts() []error {
	return append([]error(nil), w.errs...)
}

// Names returns the sorted list of bound names.
func (w *Wiring) Names() []string {
	o := make([]string, 0, len(w.names))
	for name := range w.names {
		o = append(o, name)
	}
	sort.Strings(o)
	return o
}

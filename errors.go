// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tsemu

import (
	"errors"
	"fmt"
	"strings"
)

// Protocol decode errors.
var (
	ErrMalformedHeader     = errors.New("malformed header")
	ErrTruncatedStream     = errors.New("truncated stream")
	ErrMalformedFrame      = errors.New("malformed frame")
	ErrMalformedBody       = errors.New("malformed group body")
	ErrRepeatCountMismatch = errors.New("repeat count mismatch")
	ErrUnknownDevice       = errors.New("unknown device type")
)

// Configuration errors.
var (
	ErrUnassignedSyncLine = errors.New("unassigned sync line")
	ErrStartImmediately   = errors.New("more than one start-immediately group")
	ErrNoFreeSlot         = errors.New("no free emulator slot")
	ErrDuplicateName      = errors.New("duplicate wiring name")
	ErrUnwiredLine        = errors.New("sync line wired to a missing board")
)

// External service errors.
var (
	ErrUnreachable = errors.New("service unreachable")
	ErrTimeout     = errors.New("service timeout")
)

// ErrUnsupportedWidth is the kind of all expansion errors.
var ErrUnsupportedWidth = errors.New("unsupported value width")

// DecodeError describes a payload that does not follow the wire format.
type DecodeError struct {
	Kind  error  // one of the protocol decode errors
	Group string // group name, empty for frame-level errors

	// Expected and Got hold the declared and the largest mismatching
	// repeat sums for ErrRepeatCountMismatch.
	Expected uint64
	Got      uint64

	Err error
}

func (e *DecodeError) Error() string {
	var o strings.Builder
	o.WriteString("decode")
	if e.Group != "" {
		fmt.Fprintf(&o, " group %q", e.Group)
	}
	o.WriteString(": ")
	o.WriteString(e.Kind.Error())
	if e.Kind == ErrRepeatCountMismatch {
		fmt.Fprintf(&o, " (expected=%d, got=%d)", e.Expected, e.Got)
	}
	if e.Err != nil {
		o.WriteString(": ")
		o.WriteString(e.Err.Error())
	}
	return o.String()
}

func (e *DecodeError) Is(target error) bool { return target == e.Kind }
func (e *DecodeError) Unwrap() error        { return e.Err }

// ConfigError describes a payload whose groups do not fit the emulated
// crate. Configuration errors are recorded as diagnostics and never stop
// a run.
type ConfigError struct {
	Kind   error
	Group  string
	Detail string
	Err    error
}

func (e *ConfigError) Error() string {
	var o strings.Builder
	o.WriteString("config")
	if e.Group != "" {
		fmt.Fprintf(&o, " group %q", e.Group)
	}
	o.WriteString(": ")
	o.WriteString(e.Kind.Error())
	if e.Detail != "" {
		o.WriteString(" (")
		o.WriteString(e.Detail)
		o.WriteString(")")
	}
	if e.Err != nil {
		o.WriteString(": ")
		o.WriteString(e.Err.Error())
	}
	return o.String()
}

func (e *ConfigError) Is(target error) bool { return target == e.Kind }
func (e *ConfigError) Unwrap() error        { return e.Err }

// ServiceError describes a failed or timed out call to a collaborator
// outside the process: a sequence source or a run-length expander.
type ServiceError struct {
	Kind error
	Op   string
	Err  error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("service %s: %v", e.Op, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Is(target error) bool { return target == e.Kind }
func (e *ServiceError) Unwrap() error        { return e.Err }

// ExpansionError reports a value width the run-length expander can not handle.
type ExpansionError struct {
	Width int
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("expansion: %v (width=%d)", ErrUnsupportedWidth, e.Width)
}

func (e *ExpansionError) Is(target error) bool { return target == ErrUnsupportedWidth }

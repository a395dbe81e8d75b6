// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source fetches compiled timing-sequence payloads.
package source // import "github.com/go-lpc/tsemu/source"

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/internal/mmap"
)

// Source provides timing sequence payloads.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Func adapts a function to the Source interface.
type Func func(ctx context.Context) ([]byte, error)

func (f Func) Fetch(ctx context.Context) ([]byte, error) { return f(ctx) }

// File is a payload stored on disk.
type File string

// Fetch memory-maps the file and returns a copy of its content.
func (f File) Fetch(ctx context.Context) ([]byte, error) {
	h, err := mmap.Open(string(f))
	if err != nil {
		return nil, fmt.Errorf("source: could not open payload file: %w", err)
	}
	defer h.Close()

	raw, err := h.Bytes()
	if err != nil {
		return nil, fmt.Errorf("source: could not read payload file: %w", err)
	}
	return raw, nil
}

// Open returns the source designated by uri: an HTTP(S) URL of a
// sequence server or the name of a payload file.
func Open(uri string) (Source, error) {
	switch {
	case uri == "":
		return nil, fmt.Errorf("source: empty source URI")
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewHTTP(uri), nil
	case strings.HasPrefix(uri, "file://"):
		return File(strings.TrimPrefix(uri, "file://")), nil
	}
	return File(uri), nil
}

// Fetch fetches a payload from src, bounded by timeout.
// A zero timeout means no bound.
//
// Failures are reported as *tsemu.ServiceError: ErrTimeout when the
// deadline expired, ErrUnreachable otherwise.
func Fetch(ctx context.Context, src Source, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		raw []byte
		err error
	}
	res := make(chan result, 1)
	go func() {
		raw, err := src.Fetch(ctx)
		res <- result{raw, err}
	}()

	select {
	case <-ctx.Done():
		return nil, serviceError(ctx.Err())
	case r := <-res:
		if r.err != nil {
			return nil, serviceError(r.err)
		}
		return r.raw, nil
	}
}

// WithTimeout returns a source whose fetches are bounded by timeout.
func WithTimeout(src Source, timeout time.Duration) Source {
	return Func(func(ctx context.Context) ([]byte, error) {
		return Fetch(ctx, src, timeout)
	})
}

func serviceError(err error) error {
	var esvc *tsemu.ServiceError
	if errors.As(err, &esvc) {
		return err
	}

	var enet net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &enet) && enet.Timeout():
		return &tsemu.ServiceError{Kind: tsemu.ErrTimeout, Op: "fetch", Err: err}
	}
	return &tsemu.ServiceError{Kind: tsemu.ErrUnreachable, Op: "fetch", Err: err}
}

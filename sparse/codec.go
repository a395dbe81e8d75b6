// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"context"
	"errors"
	"time"

	"github.com/go-lpc/tsemu"
	"github.com/go-lpc/tsemu/tsformat"
	"golang.org/x/xerrors"
)

// Codec verifies and expands the channel data of timing groups.
type Codec struct {
	// Expander performs the run-length expansion.
	// The built-in Expand is used when nil.
	Expander Expander

	// Timeout bounds a single expansion. Zero means no bound.
	Timeout time.Duration
}

// Decode verifies the repeat counts of every channel of grp and then
// expands them into a dense array.
func (c Codec) Decode(ctx context.Context, grp tsformat.Group) (Dense, tsformat.Layout, error) {
	lay, chans, err := Split(grp)
	if err != nil {
		return Dense{}, lay, err
	}

	err = Verify(grp.Header.Name, lay, chans)
	if err != nil {
		return Dense{}, lay, err
	}

	switch lay.ValueWidth {
	case 1, 2, 4:
	default:
		return Dense{}, lay, &tsemu.ExpansionError{Width: int(lay.ValueWidth)}
	}

	dense, err := c.expand(ctx, lay, grp.Data())
	if err != nil {
		var (
			eexp *tsemu.ExpansionError
			esvc *tsemu.ServiceError
		)
		switch {
		case errors.As(err, &eexp), errors.As(err, &esvc):
			return Dense{}, lay, err
		}
		return Dense{}, lay, malformed(grp.Header.Name, "sparse: could not expand channels: %w", err)
	}

	return dense, lay, nil
}

func (c Codec) expand(ctx context.Context, lay tsformat.Layout, data []byte) (Dense, error) {
	exp := c.Expander
	if exp == nil {
		exp = ExpanderFunc(Expand)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	type result struct {
		dense Dense
		err   error
	}
	res := make(chan result, 1)
	go func() {
		dense, err := exp.Expand(
			uint32(lay.Channels), lay.Updates,
			int(lay.ValueWidth), int(lay.RepeatWidth),
			data,
		)
		res <- result{dense, err}
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return Dense{}, &tsemu.ServiceError{Kind: tsemu.ErrTimeout, Op: "expand", Err: err}
		}
		return Dense{}, xerrors.Errorf("sparse: expansion aborted: %w", err)
	case r := <-res:
		return r.dense, r.err
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides a bounded worker pool for fan-out work.
package concurrent

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// WorkerPool runs functions concurrently with at most size goroutines
type WorkerPool struct {
	size int
}

// NewWorkerPool creates a pool with the given size. A size below one runs the
// functions one at a time.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{size: size}
}

// Run executes every function and waits for all of them. It returns the
// joined errors of the functions that failed. Functions still queued when ctx
// is done are skipped and report ctx.Err().
func (w *WorkerPool) Run(ctx context.Context, functions ...func() error) error {
	if len(functions) == 0 {
		return nil
	}

	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithMaxGoroutines(w.size)

	for _, fn := range functions {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	return p.Wait()
}

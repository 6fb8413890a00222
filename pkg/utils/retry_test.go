// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetryConfig(t *testing.T) {
	config := NewRetryConfig(5, 100*time.Millisecond, 5*time.Second)

	assert.Equal(t, 5, config.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, config.BaseDelay)
	assert.Equal(t, 5*time.Second, config.MaxDelay)
}

func TestRetry(t *testing.T) {
	errTemporary := errors.New("temporary error")

	tests := []struct {
		name      string
		attempts  int
		failUntil int
		wantCalls int
		wantErr   bool
	}{
		{name: "first attempt succeeds", attempts: 3, failUntil: 0, wantCalls: 1},
		{name: "succeeds after retries", attempts: 3, failUntil: 2, wantCalls: 3},
		{name: "all attempts fail", attempts: 3, failUntil: 10, wantCalls: 3, wantErr: true},
		{name: "single attempt", attempts: 1, failUntil: 10, wantCalls: 1, wantErr: true},
		{name: "zero attempts runs once", attempts: 0, failUntil: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), NewRetryConfig(tt.attempts, time.Millisecond, 5*time.Millisecond), "connect", func(context.Context) error {
				calls++
				if calls <= tt.failUntil {
					return errTemporary
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errTemporary)
				assert.Contains(t, err.Error(), "connect failed after")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Retry(ctx, NewRetryConfig(5, time.Second, time.Second), "connect", func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryDelayIsCapped(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), NewRetryConfig(4, 20*time.Millisecond, 25*time.Millisecond), "connect", func(context.Context) error {
		return errors.New("boom")
	})
	elapsed := time.Since(start)

	// 20ms + 25ms + 25ms
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

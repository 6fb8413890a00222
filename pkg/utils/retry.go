// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig holds retry configuration for operations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewRetryConfig creates a RetryConfig with specified parameters
func NewRetryConfig(maxAttempts int, baseDelay, maxDelay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, or ctx is done.
// The delay before attempt n is BaseDelay * 2^(n-1), capped at MaxDelay.
// operation is only used for logging.
func Retry(ctx context.Context, config RetryConfig, operation string, fn func(context.Context) error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.BaseDelay << uint(attempt-1)
			if delay > config.MaxDelay || delay <= 0 {
				delay = config.MaxDelay
			}

			slog.WarnContext(ctx, "retrying operation",
				"operation", operation,
				"attempt", attempt+1,
				"total_attempts", config.MaxAttempts,
				"retry_delay_ms", delay.Milliseconds(),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s: retry cancelled: %w", operation, ctx.Err())
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				slog.InfoContext(ctx, "retry succeeded",
					"operation", operation,
					"attempt", attempt+1,
				)
			}
			return nil
		}

		lastErr = err
		slog.ErrorContext(ctx, "operation attempt failed",
			"operation", operation,
			"attempt", attempt+1,
			"total_attempts", config.MaxAttempts,
			"error", err,
		)
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, config.MaxAttempts, lastErr)
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package httpclient provides a retrying HTTP client with a round-tripper
// middleware chain.
package httpclient

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"time"
)

// RoundTripper is a request middleware. Implementations call next to continue the chain.
type RoundTripper interface {
	RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error)
}

// Client represents a generic HTTP client with retry logic and middleware support
type Client struct {
	config        Config
	httpClient    *http.Client
	roundTrippers []RoundTripper
}

// Request represents an HTTP request configuration
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    io.Reader
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// RetryableError is returned for every response with a status code >= 400.
// Only 5xx and 429 responses are actually retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Do executes an HTTP request with retry logic.
// The body is buffered once so every attempt sends the same payload.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		payload = data
	}

	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)

			slog.DebugContext(ctx, "retrying request",
				"method", req.Method,
				"attempt", attempt+1,
				"delay_ms", delay.Milliseconds(),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := c.doRequest(ctx, req, payload)
		if err == nil {
			return response, nil
		}

		lastErr = err

		if !c.shouldRetry(err) {
			return response, err
		}
	}

	slog.ErrorContext(ctx, "request failed after retries",
		"method", req.Method,
		"attempts", c.config.MaxRetries+1,
		"error", lastErr,
	)

	return nil, lastErr
}

// backoff returns the delay before the given retry attempt
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.config.RetryDelay
	if !c.config.RetryBackoff {
		return delay
	}

	for i := 1; i < attempt && delay < c.config.MaxDelay/2; i++ {
		delay *= 2
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	// up to 25% jitter
	maxJitter := int64(delay / 4)
	if maxJitter > 0 {
		jitter, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}

	return delay
}

// doRequest performs a single HTTP request with RoundTripper middleware
func (c *Client) doRequest(ctx context.Context, reqConfig Request, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, reqConfig.Method, reqConfig.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	for key, value := range reqConfig.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.executeRoundTripperChain(httpReq, 0)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return response, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	return response, nil
}

// shouldRetry determines if a request should be retried based on the error
func (c *Client) shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.StatusCode >= http.StatusInternalServerError ||
			retryableErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Request performs an HTTP request with the specified verb
func (c *Client) Request(ctx context.Context, verb, url string, body io.Reader, headers map[string]string) (*Response, error) {
	return c.Do(ctx, Request{
		Method:  verb,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
}

// executeRoundTripperChain executes the RoundTripper middleware chain
func (c *Client) executeRoundTripperChain(req *http.Request, index int) (*http.Response, error) {
	if index >= len(c.roundTrippers) {
		return c.httpClient.Do(req)
	}

	next := func(req *http.Request) (*http.Response, error) {
		return c.executeRoundTripperChain(req, index+1)
	}

	return c.roundTrippers[index].RoundTrip(req, next)
}

// AddRoundTripper adds a middleware RoundTripper to the client.
// This method is not safe for concurrent use and should only be called
// during client initialization before making any requests.
func (c *Client) AddRoundTripper(rt RoundTripper) {
	c.roundTrippers = append(c.roundTrippers, rt)
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config Config) *Client {
	if config.MaxDelay == 0 {
		config.MaxDelay = 30 * time.Second
	}

	return &Client{
		config:        config,
		roundTrippers: make([]RoundTripper, 0),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

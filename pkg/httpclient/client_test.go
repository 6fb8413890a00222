// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(retries int) Config {
	return Config{
		Timeout:      5 * time.Second,
		MaxRetries:   retries,
		RetryDelay:   10 * time.Millisecond,
		RetryBackoff: false,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.True(t, cfg.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{Timeout: 10 * time.Second, MaxRetries: 2})

	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 2, client.config.MaxRetries)
	assert.Equal(t, 30*time.Second, client.config.MaxDelay, "zero max delay falls back to 30s")

	custom := NewClient(Config{MaxDelay: 5 * time.Second})
	assert.Equal(t, 5*time.Second, custom.config.MaxDelay)
}

func TestClientRequest(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantStatus int
	}{
		{name: "ok", status: http.StatusOK, body: `{"id":"abc"}`, wantStatus: http.StatusOK},
		{name: "not found", status: http.StatusNotFound, body: `{"title":"Resource Not Found"}`, wantErr: true, wantStatus: http.StatusNotFound},
		{name: "bad request", status: http.StatusBadRequest, body: `{"title":"Invalid Resource"}`, wantErr: true, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.Equal(t, "custom-value", r.Header.Get("Custom-Header"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(fastConfig(2))
			resp, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, map[string]string{"Custom-Header": "custom-value"})

			if tt.wantErr {
				require.Error(t, err)
				var retryable *RetryableError
				require.True(t, errors.As(err, &retryable))
				assert.Equal(t, tt.wantStatus, retryable.StatusCode)
				assert.Equal(t, tt.body, retryable.Message)
				require.NotNil(t, resp)
				assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx responses are not retried")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.body, string(resp.Body))
		})
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	resp, err := NewClient(fastConfig(2)).Request(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientRetriesTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(fastConfig(1)).Request(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientRetryResendsBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(data))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"remote-1"}`))
	}))
	defer server.Close()

	payload := `{"email_address":"jane@example.com","status":"subscribed"}`
	resp, err := NewClient(fastConfig(2)).Request(context.Background(), http.MethodPost, server.URL, strings.NewReader(payload), map[string]string{"Content-Type": "application/json"})

	require.NoError(t, err)
	assert.Equal(t, `{"id":"remote-1"}`, string(resp.Body))
	require.Len(t, bodies, 2)
	assert.Equal(t, payload, bodies[0])
	assert.Equal(t, payload, bodies[1])
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := fastConfig(3)
	cfg.RetryDelay = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewClient(cfg).Request(ctx, http.MethodGet, server.URL, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBackoff(t *testing.T) {
	client := NewClient(Config{
		RetryDelay:   100 * time.Millisecond,
		RetryBackoff: true,
		MaxDelay:     300 * time.Millisecond,
	})

	first := client.backoff(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 126*time.Millisecond)

	second := client.backoff(2)
	assert.GreaterOrEqual(t, second, 200*time.Millisecond)
	assert.Less(t, second, 251*time.Millisecond)

	for attempt := 3; attempt < 10; attempt++ {
		delay := client.backoff(attempt)
		assert.LessOrEqual(t, delay, 300*time.Millisecond+75*time.Millisecond, "attempt %d", attempt)
	}

	flat := NewClient(Config{RetryDelay: 100 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, flat.backoff(5))
}

type headerRoundTripper struct {
	key, value string
	order      *[]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	if h.order != nil {
		*h.order = append(*h.order, h.key)
	}
	req.Header.Set(h.key, h.value)
	return next(req)
}

type basicAuthRoundTripper struct {
	user, key string
}

func (b *basicAuthRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	req.SetBasicAuth(b.user, b.key)
	return next(req)
}

func TestClientRoundTripperChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, key, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "anystring", user)
		assert.Equal(t, "key-us6", key)
		assert.Equal(t, "one", r.Header.Get("X-First"))
		assert.Equal(t, "two", r.Header.Get("X-Second"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var order []string
	client := NewClient(fastConfig(0))
	client.AddRoundTripper(&basicAuthRoundTripper{user: "anystring", key: "key-us6"})
	client.AddRoundTripper(&headerRoundTripper{key: "X-First", value: "one", order: &order})
	client.AddRoundTripper(&headerRoundTripper{key: "X-Second", value: "two", order: &order})
	require.Len(t, client.roundTrippers, 3)

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"X-First", "X-Second"}, order)
}

func TestClientRoundTripperRunsOnEveryAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "set", r.Header.Get("X-Attempt"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var order []string
	client := NewClient(fastConfig(1))
	client.AddRoundTripper(&headerRoundTripper{key: "X-Attempt", value: "set", order: &order})

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.NoError(t, err)
	assert.Len(t, order, 2)
}

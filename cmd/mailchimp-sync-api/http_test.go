// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/cmd/mailchimp-sync-api/service"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/mock"
	internalService "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL", "test-user")

	provider := mock.NewMockProviderClient()
	members := internalService.NewMemberSyncService(
		internalService.WithMemberStore(mock.NewMockRepository()),
		internalService.WithProviderClient(provider),
	)
	return newHTTPHandler(service.NewMemberService(mock.NewMockAuthService(), members, provider))
}

func TestHTTPHandlerChain(t *testing.T) {
	handler := newTestHandler(t)

	t.Run("livez carries a request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(constants.RequestIDHeader))
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		body := bytes.Repeat([]byte("a"), constants.MaxRequestBodyBytes+1)
		req := httptest.NewRequest(http.MethodPost, "/lists/list-1/members", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRunHTTPServerStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	handler := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runHTTPServer(ctx, addr, handler)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/livez")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mock provides in-memory implementations of the service ports for
// local runs and tests.
package mock

import (
	"context"
	"log/slog"
	"os"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// MockAuthService accepts any token and returns the configured local principal
type MockAuthService struct{}

var _ port.Authenticator = (*MockAuthService)(nil)

// ParsePrincipal returns JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL
func (m *MockAuthService) ParsePrincipal(ctx context.Context, _ string, logger *slog.Logger) (string, error) {
	principal := os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL")
	if principal == "" {
		return "", errors.NewUnauthorized("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL environment variable not set")
	}

	logger.DebugContext(ctx, "parsed principal",
		"user_id", principal,
	)

	return principal, nil
}

// NewMockAuthService creates a new mock authentication service
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

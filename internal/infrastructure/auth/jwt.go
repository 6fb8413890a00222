// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates Heimdall-issued JWTs and extracts the principal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

const (
	// PS256 is the default for Heimdall's JWT finalizer
	signatureAlgorithm = validator.PS256
	defaultIssuer      = "heimdall"
	defaultAudience    = "lfx-v2-mailchimp-sync-service"
	defaultJWKSURL     = "http://heimdall:4457/.well-known/jwks"
	jwksCacheTTL       = 5 * time.Minute
)

// JWTAuthConfig holds the JWT validation settings
type JWTAuthConfig struct {
	JWKSURL  string `env:"JWKS_URL"`
	Audience string `env:"JWT_AUDIENCE"`
	// Issuer defaults to heimdall
	Issuer   string `env:"JWT_ISSUER"`
}

// HeimdallClaims contains the custom claims added by Heimdall
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate ensures the principal claim is present
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// JWTAuth implements port.Authenticator
type JWTAuth struct {
	validator *validator.Validator
}

var _ port.Authenticator = (*JWTAuth)(nil)

// NewJWTAuth creates a JWT authenticator backed by a caching JWKS provider
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.JWKSURL == "" {
		config.JWKSURL = defaultJWKSURL
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}
	if config.Issuer == "" {
		config.Issuer = defaultIssuer
	}

	jwksURL, err := url.Parse(config.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}
	// The issuer is not a URL; the JWKS location is given explicitly.
	issuerURL, err := url.Parse(config.Issuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL, jwks.WithCustomJWKSURI(jwksURL))

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		signatureAlgorithm,
		config.Issuer,
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &HeimdallClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT validator: %w", err)
	}

	return &JWTAuth{validator: jwtValidator}, nil
}

// ParsePrincipal validates token and returns the principal claim
func (j *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	if j == nil || j.validator == nil {
		return "", errs.NewUnexpected("JWT validator is not configured")
	}

	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", errs.NewUnauthorized("authorization token is required", jwtmiddleware.ErrJWTMissing)
	}

	parsed, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "unable to validate token", "error", err)
		return "", errs.NewUnauthorized("invalid or expired token", err)
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return "", errs.NewUnexpected("failed to get validated authorization token claims")
	}
	custom, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok {
		return "", errs.NewUnexpected("failed to get custom authorization token claims")
	}

	logger.DebugContext(ctx, "parsed principal",
		"principal", custom.Principal,
	)

	return custom.Principal, nil
}

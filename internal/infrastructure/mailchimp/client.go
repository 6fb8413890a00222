// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mailchimp implements the provider client over the Mailchimp Marketing API v3.
package mailchimp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/httpclient"
)

// apiKeyUser is the basic auth user name; Mailchimp ignores it
const apiKeyUser = "anystring"

// basicAuthRoundTripper sets the API key on every request
type basicAuthRoundTripper struct {
	apiKey string
}

func (rt *basicAuthRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	req.SetBasicAuth(apiKeyUser, rt.apiKey)
	return next(req)
}

// bearerRoundTripper sets an OAuth2 access token on every request
type bearerRoundTripper struct {
	source oauth2.TokenSource
}

func (rt *bearerRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	token, err := rt.source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain Mailchimp access token: %w", err)
	}
	token.SetAuthHeader(req)
	return next(req)
}

// Client sends member calls to Mailchimp
type Client struct {
	baseURL    string
	httpClient *httpclient.Client
}

var _ port.ProviderClient = (*Client)(nil)

// NewClient creates a Mailchimp client. An access token takes precedence over the API key.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := cfg.ResolvedBaseURL()
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL: baseURL,
		httpClient: httpclient.NewClient(httpclient.Config{
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryDelay:   cfg.RetryDelay,
			RetryBackoff: true,
			MaxDelay:     30 * time.Second,
		}),
	}

	if cfg.AccessToken != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		client.httpClient.AddRoundTripper(&bearerRoundTripper{source: source})
	} else {
		client.httpClient.AddRoundTripper(&basicAuthRoundTripper{apiKey: cfg.APIKey})
	}

	slog.InfoContext(context.Background(), "Mailchimp client initialized",
		"base_url", baseURL,
		"oauth", cfg.AccessToken != "",
	)

	return client, nil
}

// Post sends a POST request to path
func (c *Client) Post(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	return c.call(ctx, http.MethodPost, path, body)
}

// Patch sends a PATCH request to path
func (c *Client) Patch(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	return c.call(ctx, http.MethodPatch, path, body)
}

// Delete sends a DELETE request to path
func (c *Client) Delete(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	return c.call(ctx, http.MethodDelete, path, body)
}

// IsReady pings the API root of the account
func (c *Client) IsReady(ctx context.Context) error {
	if _, err := c.call(ctx, http.MethodGet, "/ping", nil); err != nil {
		return fmt.Errorf("mailchimp API unreachable: %w", err)
	}
	return nil
}

// call centralizes the API calls: JSON encoding, error mapping and response decoding
func (c *Client) call(ctx context.Context, method, path string, body map[string]any) (map[string]any, error) {
	var reader io.Reader
	headers := map[string]string{}

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}

	slog.DebugContext(ctx, "calling Mailchimp",
		"method", method,
		"path", path,
	)

	resp, err := c.httpClient.Request(ctx, method, c.baseURL+path, reader, headers)
	if err != nil {
		return nil, MapHTTPError(ctx, err)
	}

	result := map[string]any{}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse Mailchimp response: %w", err)
	}
	return result, nil
}

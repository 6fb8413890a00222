// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailchimp

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// baseURLTemplate is the Marketing API root of a datacenter
const baseURLTemplate = "https://%s.api.mailchimp.com/3.0"

// Config holds the configuration for the Mailchimp client
type Config struct {
	// APIKey has the form "<key>-<dc>"; the suffix selects the datacenter
	APIKey string `env:"MAILCHIMP_API_KEY"`

	// AccessToken is an OAuth2 token used instead of the API key
	AccessToken string `env:"MAILCHIMP_ACCESS_TOKEN"`

	// DC is the datacenter when authenticating with an access token
	DC string `env:"MAILCHIMP_DC"`

	// BaseURL overrides the URL derived from the datacenter
	BaseURL string `env:"MAILCHIMP_BASE_URL"`

	Timeout    time.Duration `env:"MAILCHIMP_TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"MAILCHIMP_MAX_RETRIES" envDefault:"3"`
	RetryDelay time.Duration `env:"MAILCHIMP_RETRY_DELAY" envDefault:"1s"`

	// MockMode disables real Mailchimp API calls
	MockMode bool
}

// DefaultConfig returns a Config with the transport defaults
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// NewConfigFromEnv reads the MAILCHIMP_* variables
func NewConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse mailchimp env: %w", err)
	}
	return cfg, nil
}

// Datacenter returns the datacenter of the account, taken from DC or the API key suffix
func (c Config) Datacenter() string {
	if c.DC != "" {
		return c.DC
	}
	if i := strings.LastIndex(c.APIKey, "-"); i >= 0 && i < len(c.APIKey)-1 {
		return c.APIKey[i+1:]
	}
	return ""
}

// ResolvedBaseURL returns BaseURL, or the datacenter URL when it is empty
func (c Config) ResolvedBaseURL() (string, error) {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/"), nil
	}
	dc := c.Datacenter()
	if dc == "" {
		return "", fmt.Errorf("mailchimp datacenter unknown: set MAILCHIMP_DC or use an API key of the form <key>-<dc>")
	}
	return fmt.Sprintf(baseURLTemplate, dc), nil
}

// Validate checks that exactly one credential is usable
func (c Config) Validate() error {
	if c.MockMode {
		return nil
	}
	if c.APIKey == "" && c.AccessToken == "" {
		return fmt.Errorf("MAILCHIMP_API_KEY or MAILCHIMP_ACCESS_TOKEN is required")
	}
	if _, err := c.ResolvedBaseURL(); err != nil {
		return err
	}
	return nil
}

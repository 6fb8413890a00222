// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the NATS connection settings
type Config struct {
	URL           string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	Timeout       time.Duration `env:"NATS_TIMEOUT" envDefault:"10s"`
	MaxReconnect  int           `env:"NATS_MAX_RECONNECT" envDefault:"3"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`

	// ConnectAttempts bounds the initial connection retries
	ConnectAttempts int `env:"NATS_CONNECT_ATTEMPTS" envDefault:"3"`
}

// NewConfigFromEnv reads the NATS_* variables
func NewConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse nats env: %w", err)
	}
	return cfg, nil
}

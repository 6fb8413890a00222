// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package nats provides NATS messaging client implementation and related utilities.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/utils"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient wraps the NATS connection and the JetStream key-value buckets of the service
type NATSClient struct {
	conn    *nats.Conn
	config  Config
	kvStore map[string]jetstream.KeyValue
	timeout time.Duration
}

// Close gracefully closes the NATS connection
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// IsReady checks if the NATS client is ready
func (c *NATSClient) IsReady(ctx context.Context) error {
	if c.conn == nil {
		slog.ErrorContext(ctx, "NATS client is not initialized or not connected")
		return errors.NewServiceUnavailable("NATS client is not initialized or not connected")
	}
	if !c.conn.IsConnected() || c.conn.IsDraining() {
		slog.ErrorContext(ctx, "NATS client is not ready",
			"connected", c.conn.IsConnected(),
			"draining", c.conn.IsDraining(),
		)
		return errors.NewServiceUnavailable("NATS client is not ready, connection is not established or is draining")
	}
	slog.DebugContext(ctx, "NATS client is ready", "url", c.conn.ConnectedUrl())
	return nil
}

// bindBuckets looks up the member and list buckets. The buckets are
// provisioned outside the service and are never created here.
func (c *NATSClient) bindBuckets(ctx context.Context, names ...string) error {
	js, err := jetstream.New(c.conn)
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}

	c.kvStore = make(map[string]jetstream.KeyValue, len(names))
	for _, name := range names {
		kv, err := js.KeyValue(ctx, name)
		if err != nil {
			slog.ErrorContext(ctx, "key-value bucket unavailable",
				"error", err,
				"bucket", name,
				"nats_url", c.conn.ConnectedUrl(),
			)
			return fmt.Errorf("bucket %s: %w", name, err)
		}
		c.kvStore[name] = kv
	}
	return nil
}

// NewClient creates a new NATS client with the given configuration
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	slog.InfoContext(ctx, "creating NATS client",
		"url", config.URL,
		"timeout", config.Timeout,
	)

	// Validate configuration
	if config.URL == "" {
		return nil, errors.NewUnexpected("NATS URL is required")
	}

	// Configure NATS connection options
	opts := []nats.Option{
		nats.Name(constants.ServiceName),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected",
				"error", err,
				"url", nc.ConnectedUrl(),
				"status", nc.Status(),
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With("error", err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With("error", err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed",
				"url", nc.ConnectedUrl(),
				"status", nc.Status(),
			)
		}),
	}

	var conn *nats.Conn
	retry := utils.NewRetryConfig(config.ConnectAttempts, time.Second, 10*time.Second)
	err := utils.Retry(ctx, retry, "nats connect", func(context.Context) error {
		c, errConnect := nats.Connect(config.URL, opts...)
		if errConnect != nil {
			slog.WarnContext(ctx, "NATS connection attempt failed", "error", errConnect, "url", config.URL)
			return errConnect
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, errors.NewServiceUnavailable("failed to connect to NATS", err)
	}

	client := &NATSClient{
		conn:    conn,
		config:  config,
		timeout: config.Timeout,
	}

	if err := client.bindBuckets(ctx, constants.KVBucketNameLists, constants.KVBucketNameMembers); err != nil {
		conn.Close()
		return nil, errors.NewServiceUnavailable("failed to initialize NATS key-value store", err)
	}

	slog.InfoContext(ctx, "NATS client created successfully",
		"connected_url", conn.ConnectedUrl(),
		"status", conn.Status(),
	)

	return client, nil
}

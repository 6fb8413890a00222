// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/mailchimp"
	infrastructure "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/postgres"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/sqlite"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

var (
	natsClient *nats.NATSClient
	natsDoOnce sync.Once

	closersMu sync.Mutex
	closers   []func()
)

// sqlConfig holds the SQL store locations
type sqlConfig struct {
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"mailchimp-sync.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

func natsInit(ctx context.Context) {
	natsDoOnce.Do(func() {
		config, err := nats.NewConfigFromEnv()
		if err != nil {
			log.Fatalf("invalid NATS configuration: %v", err)
		}

		client, errNewClient := nats.NewClient(ctx, config)
		if errNewClient != nil {
			log.Fatalf("failed to create NATS client: %v", errNewClient)
		}
		natsClient = client
		onClose(func() {
			if err := client.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close NATS connection", "error", err)
			}
		})
	})
}

func onClose(fn func()) {
	closersMu.Lock()
	defer closersMu.Unlock()
	closers = append(closers, fn)
}

// Close releases every resource opened by the providers, last opened first
func Close() {
	closersMu.Lock()
	defer closersMu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}

func sourceFromEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// AuthService initializes the authentication service implementation
func AuthService(ctx context.Context) port.Authenticator {
	var authService port.Authenticator

	authSource := sourceFromEnv(constants.EnvAuthSource, "jwt")

	switch authSource {
	case "mock":
		slog.InfoContext(ctx, "initializing mock authentication service")
		authService = infrastructure.NewMockAuthService()
	case "jwt":
		slog.InfoContext(ctx, "initializing JWT authentication service")
		jwtConfig, err := env.ParseAs[auth.JWTAuthConfig]()
		if err != nil {
			log.Fatalf("invalid JWT configuration: %v", err)
		}
		jwtAuth, err := auth.NewJWTAuth(jwtConfig)
		if err != nil {
			log.Fatalf("failed to initialize JWT authentication service: %v", err)
		}
		authService = jwtAuth
	default:
		log.Fatalf("unsupported authentication service implementation: %s", authSource)
	}

	return authService
}

// MemberStore initializes the member store implementation based on the repository source
func MemberStore(ctx context.Context) port.MemberStore {
	var store port.MemberStore

	repoSource := sourceFromEnv(constants.EnvRepositorySource, "nats")

	switch repoSource {
	case "mock":
		slog.InfoContext(ctx, "initializing mock member store")
		store = infrastructure.GlobalMockRepository()

	case "nats":
		slog.InfoContext(ctx, "initializing NATS member store")
		natsInit(ctx)
		store = nats.NewStorage(natsClient)

	case "sqlite":
		cfg, err := env.ParseAs[sqlConfig]()
		if err != nil {
			log.Fatalf("invalid SQLite configuration: %v", err)
		}
		slog.InfoContext(ctx, "initializing SQLite member store", "path", cfg.SQLitePath)
		sqliteStore, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open SQLite member store: %v", err)
		}
		onClose(func() { _ = sqliteStore.Close() })
		store = sqliteStore

	case "postgres":
		cfg, err := env.ParseAs[sqlConfig]()
		if err != nil {
			log.Fatalf("invalid Postgres configuration: %v", err)
		}
		slog.InfoContext(ctx, "initializing Postgres member store")
		pgStore, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect Postgres member store: %v", err)
		}
		onClose(pgStore.Close)
		store = pgStore

	default:
		log.Fatalf("unsupported member store implementation: %s", repoSource)
	}

	return store
}

// ProviderClient initializes the Mailchimp client implementation
func ProviderClient(ctx context.Context) port.ProviderClient {
	var client port.ProviderClient

	mailchimpSource := sourceFromEnv(constants.EnvMailchimpSource, "api")

	switch mailchimpSource {
	case "mock":
		slog.InfoContext(ctx, "initializing mock Mailchimp client")
		client = infrastructure.NewMockProviderClient()
	case "api":
		config, err := mailchimp.NewConfigFromEnv()
		if err != nil {
			log.Fatalf("invalid Mailchimp configuration: %v", err)
		}
		apiClient, err := mailchimp.NewClient(config)
		if err != nil {
			log.Fatalf("failed to initialize Mailchimp client: %v", err)
		}
		slog.InfoContext(ctx, "initializing Mailchimp client", "datacenter", config.Datacenter())
		client = apiClient
	default:
		log.Fatalf("unsupported Mailchimp client implementation: %s", mailchimpSource)
	}

	return client
}

// MessagePublisher initializes the message publisher implementation.
// Returns nil when publishing is disabled.
func MessagePublisher(ctx context.Context) port.MessagePublisher {
	publisherSource := sourceFromEnv(constants.EnvPublisherSource, "nats")

	switch publisherSource {
	case "none":
		slog.InfoContext(ctx, "message publishing disabled")
		return nil
	case "mock":
		slog.InfoContext(ctx, "initializing mock message publisher")
		return infrastructure.NewMockMessagePublisher()
	case "nats":
		slog.InfoContext(ctx, "initializing NATS message publisher")
		natsInit(ctx)
		return nats.NewMessagePublisher(natsClient)
	default:
		log.Fatalf("unsupported message publisher implementation: %s", publisherSource)
	}

	return nil
}

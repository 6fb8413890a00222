// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The mailchimp-sync-api command serves the Mailchimp list member API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/cmd/mailchimp-sync-api/service"
	internalService "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/utils"
)

const defaultPort = "8080"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var (
		port = flag.String("p", envOr("PORT", defaultPort), "listen port")
		bind = flag.String("bind", "*", "interface to bind on")
	)
	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	log.InitStructureLogConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry SDK", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownErr := otelShutdown(context.Background()); shutdownErr != nil {
			slog.ErrorContext(ctx, "error shutting down OpenTelemetry SDK", "error", shutdownErr)
		}
	}()

	slog.InfoContext(ctx, "starting mailchimp sync service", "bind", *bind, "port", *port)

	provider := service.ProviderClient(ctx)
	members := internalService.NewMemberSyncService(
		internalService.WithMemberStore(service.MemberStore(ctx)),
		internalService.WithProviderClient(provider),
		internalService.WithPublisher(service.MessagePublisher(ctx)),
	)
	defer service.Close()

	memberService := service.NewMemberService(service.AuthService(ctx), members, provider)

	addr := ":" + *port
	if *bind != "*" {
		addr = fmt.Sprintf("%s:%s", *bind, *port)
	}

	if err := runHTTPServer(ctx, addr, newHTTPHandler(memberService)); err != nil {
		slog.ErrorContext(ctx, "HTTP server failed", "error", err)
		stop()
		service.Close()
		os.Exit(1)
	}

	slog.InfoContext(ctx, "graceful shutdown completed")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

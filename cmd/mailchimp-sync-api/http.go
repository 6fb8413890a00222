// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	goahttp "goa.design/goa/v3/http"
	"golang.org/x/sync/errgroup"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/cmd/mailchimp-sync-api/service"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

const (
	gracefulShutdownSeconds = 25
	readHeaderTimeout       = 10 * time.Second
)

// newHTTPHandler mounts the member endpoints and wraps them with the
// middleware chain, outermost last
func newHTTPHandler(svc *service.MemberService) http.Handler {
	mux := goahttp.NewMuxer()
	svc.Mount(mux)

	var handler http.Handler = mux
	handler = middleware.RequestBodyLimitMiddleware(constants.MaxRequestBodyBytes)(handler)
	handler = middleware.AuthorizationMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = chimiddleware.RealIP(handler)
	handler = chimiddleware.Recoverer(handler)
	handler = otelhttp.NewHandler(handler, constants.ServiceName)

	return handler
}

// runHTTPServer serves handler on addr until ctx is done, then shuts the
// server down gracefully
func runHTTPServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.InfoContext(ctx, "HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(ctx, "shutting down HTTP server", "addr", addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

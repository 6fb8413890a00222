// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package middleware contains the HTTP middlewares of the API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/log"
)

// RequestIDMiddleware reuses the X-Request-Id header or generates a new id,
// echoes it on the response and adds it to the log context
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(constants.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(constants.RequestIDHeader, requestID)
			}
			w.Header().Set(constants.RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), constants.RequestIDContextKey, requestID)
			ctx = log.AppendCtx(ctx, slog.String(string(constants.RequestIDContextKey), requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

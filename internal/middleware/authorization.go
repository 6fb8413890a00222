// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

// AuthorizationMiddleware keeps the raw Authorization header in the context
// so it can be forwarded on published messages
func AuthorizationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authorization := r.Header.Get(constants.AuthorizationHeader); authorization != "" {
				ctx := context.WithValue(r.Context(), constants.AuthorizationContextID, authorization)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	lfxerrors "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

const syncFailedDetail = "The member was saved locally but the provider call failed. " +
	"Retry with POST /lists/{listId}/members/{subscriberId}/actions/sync."

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Detail  string              `json:"detail,omitempty"`
}

// wrapError maps an error of the pkg/errors family to a status code and body.
// SyncFailed is checked first since it wraps the provider's own error kinds.
func wrapError(ctx context.Context, err error) (int, *ErrorResponse) {
	var (
		syncFailed         lfxerrors.SyncFailed
		invalidFields      lfxerrors.InvalidFields
		methodNotAllowed   lfxerrors.MethodNotAllowed
		notFound           lfxerrors.NotFound
		validation         lfxerrors.Validation
		unauthorized       lfxerrors.Unauthorized
		forbidden          lfxerrors.Forbidden
		conflict           lfxerrors.Conflict
		serviceUnavailable lfxerrors.ServiceUnavailable
	)

	switch {
	case errors.As(err, &syncFailed):
		slog.WarnContext(ctx, "request failed", "error", err)
		return http.StatusBadRequest, &ErrorResponse{Message: syncFailed.Message(), Detail: syncFailedDetail}
	case errors.As(err, &invalidFields):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusBadRequest, &ErrorResponse{Message: invalidFields.Message(), Errors: invalidFields.Fields()}
	case errors.As(err, &methodNotAllowed):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusMethodNotAllowed, &ErrorResponse{Message: methodNotAllowed.Message()}
	case errors.As(err, &notFound):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusNotFound, &ErrorResponse{Message: notFound.Message()}
	case errors.As(err, &validation):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusBadRequest, &ErrorResponse{Message: validation.Message()}
	case errors.As(err, &unauthorized):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusUnauthorized, &ErrorResponse{Message: unauthorized.Message()}
	case errors.As(err, &forbidden):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusForbidden, &ErrorResponse{Message: forbidden.Message()}
	case errors.As(err, &conflict):
		slog.DebugContext(ctx, "request failed", "error", err)
		return http.StatusConflict, &ErrorResponse{Message: conflict.Message()}
	case errors.As(err, &serviceUnavailable):
		slog.ErrorContext(ctx, "request failed", "error", err)
		return http.StatusServiceUnavailable, &ErrorResponse{Message: serviceUnavailable.Message()}
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		return http.StatusInternalServerError, &ErrorResponse{Message: "Internal Server Error"}
	}
}

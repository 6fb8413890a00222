// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mailchimp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/httpclient"
)

// Problem is the application/problem+json body of a Mailchimp error
type Problem struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail"`
	Instance string         `json:"instance"`
	Errors   []ProblemField `json:"errors,omitempty"`
}

// ProblemField is a per-field error of an "Invalid Resource" problem
type ProblemField struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Text is the message reported to callers: the detail, then the title
func (p Problem) Text() string {
	text := p.Detail
	if text == "" {
		text = p.Title
	}
	if len(p.Errors) > 0 {
		parts := make([]string, 0, len(p.Errors))
		for _, f := range p.Errors {
			if f.Field == "" {
				parts = append(parts, f.Message)
				continue
			}
			parts = append(parts, f.Field+": "+f.Message)
		}
		text = strings.TrimSpace(text + " " + strings.Join(parts, "; "))
	}
	return text
}

// parseProblem decodes a problem body; ok is false when it carries no text
func parseProblem(body string) (Problem, bool) {
	var p Problem
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Problem{}, false
	}
	return p, p.Text() != ""
}

// MapHTTPError maps httpclient errors to domain errors carrying the Mailchimp message
func MapHTTPError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *httpclient.RetryableError
	if !errors.As(err, &statusErr) {
		slog.ErrorContext(ctx, "Mailchimp request failed with non-HTTP error",
			"error", err.Error(),
		)
		return errs.NewServiceUnavailable("Mailchimp request failed", err)
	}

	problem, ok := parseProblem(statusErr.Message)
	message := problem.Text()
	if !ok {
		message = fmt.Sprintf("Mailchimp API error (status %d)", statusErr.StatusCode)
	}

	slog.WarnContext(ctx, "Mailchimp HTTP error occurred",
		"status_code", statusErr.StatusCode,
		"title", problem.Title,
		"instance", problem.Instance,
	)

	switch statusErr.StatusCode {
	case http.StatusNotFound:
		return errs.NewNotFound(message, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusMethodNotAllowed:
		return errs.NewValidation(message, err)
	case http.StatusUnauthorized:
		return errs.NewUnauthorized(message, err)
	case http.StatusForbidden:
		return errs.NewForbidden(message, err)
	case http.StatusConflict:
		return errs.NewConflict(message, err)
	case http.StatusTooManyRequests:
		return errs.NewServiceUnavailable(message, err)
	default:
		if statusErr.StatusCode >= http.StatusInternalServerError {
			return errs.NewServiceUnavailable(message, err)
		}
		slog.ErrorContext(ctx, "unexpected Mailchimp HTTP status code",
			"status_code", statusErr.StatusCode,
		)
		return errs.NewUnexpected(message, err)
	}
}

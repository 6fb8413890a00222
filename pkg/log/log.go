// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package log provides structured logging utilities and configuration for the service.
package log

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

type ctxKey string

const (
	slogFields      ctxKey = "slog_fields"
	logLevelDefault        = slog.LevelDebug

	debug  = "debug"
	warn   = "warn"
	info   = "info"
	errLvl = "error"

	priorityCritical = "critical"
)

type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context handler on derived loggers.
func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context handler on derived loggers.
func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		// copy so sibling contexts never share a backing array
		attrs := make([]slog.Attr, 0, len(v)+1)
		attrs = append(attrs, v...)
		attrs = append(attrs, attr)
		return context.WithValue(parent, slogFields, attrs)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// levelFromEnv maps LOG_LEVEL to a slog level
func levelFromEnv(value string) slog.Level {
	switch value {
	case debug:
		return slog.LevelDebug
	case info:
		return slog.LevelInfo
	case warn:
		return slog.LevelWarn
	case errLvl:
		return slog.LevelError
	default:
		return logLevelDefault
	}
}

// NewHandler builds the handler chain used by the service: JSON output,
// trace/span ids from the OpenTelemetry span in the context, and the
// attributes stored with AppendCtx.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return contextHandler{
		Handler: slogotel.OtelHandler{
			Next: slog.NewJSONHandler(w, opts),
		},
	}
}

// InitStructureLogConfig sets the structured log behavior
func InitStructureLogConfig() {
	logOptions := &slog.HandlerOptions{
		Level: levelFromEnv(os.Getenv("LOG_LEVEL")),
	}

	addSource := os.Getenv("LOG_ADD_SOURCE")
	logOptions.AddSource = addSource == "true"

	log.SetFlags(log.Llongfile)
	slog.SetDefault(slog.New(NewHandler(os.Stdout, logOptions)))

	slog.Info("log config",
		"log_level", logOptions.Level,
		"log_add_source", logOptions.AddSource,
	)
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical creates a slog.Attr for critical errors
// this is used to identify critical errors in the logs
// the ones that should be escalated to the team
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}

// LogOptionalString creates an slog.Value for optional string pointers such
// as the remote identifier of a member that has not been synchronized yet.
//
// Logs:
//   - When RemoteID is nil: "remote_id": null
//   - When RemoteID is &"62eeb292278cc15f5817cb78f7790b08": "remote_id": "62eeb292278cc15f5817cb78f7790b08"
func LogOptionalString(val *string) slog.Value {
	if val == nil {
		return slog.AnyValue(nil)
	}
	return slog.StringValue(*val)
}

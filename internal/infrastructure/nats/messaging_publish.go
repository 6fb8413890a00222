// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

const (
	headerMessageKind = "Lfx-Message-Kind"
	headerRequestID   = "X-Request-Id"
)

// messagingPublisher sends member change messages as core NATS messages.
// Each message carries its kind and the originating request id as headers.
type messagingPublisher struct {
	client *NATSClient
}

// Indexer publishes a member change to the search indexer
func (m *messagingPublisher) Indexer(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, newMemberMsg(ctx, subject, "indexer"), message)
}

// Access publishes a member access change to the fga-sync service
func (m *messagingPublisher) Access(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, newMemberMsg(ctx, subject, "access"), message)
}

func newMemberMsg(ctx context.Context, subject, kind string) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Header.Set(headerMessageKind, kind)
	if requestID, ok := ctx.Value(constants.RequestIDContextKey).(string); ok && requestID != "" {
		msg.Header.Set(headerRequestID, requestID)
	}
	return msg
}

func (m *messagingPublisher) publish(ctx context.Context, msg *nats.Msg, message any) error {
	kind := msg.Header.Get(headerMessageKind)

	if err := m.client.IsReady(ctx); err != nil {
		slog.ErrorContext(ctx, "dropping member message, NATS is not ready",
			"error", err,
			"subject", msg.Subject,
			"message_kind", kind,
		)
		return errors.NewServiceUnavailable("NATS client is not ready", err)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return errors.NewUnexpected("failed to encode member message", err)
	}
	msg.Data = data

	if err := m.client.conn.PublishMsg(msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish member message",
			"error", err,
			"subject", msg.Subject,
			"message_kind", kind,
		)
		return errors.NewServiceUnavailable("failed to publish message", err)
	}

	slog.DebugContext(ctx, "member message published",
		"subject", msg.Subject,
		"message_kind", kind,
		"size", len(data),
	)
	return nil
}

// NewMessagePublisher returns a publisher that sends over client's connection
func NewMessagePublisher(client *NATSClient) port.MessagePublisher {
	return &messagingPublisher{client: client}
}

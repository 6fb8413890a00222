// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
)

// PublishedMessage is a message captured by the mock publisher
type PublishedMessage struct {
	Kind    string // indexer or access
	Subject string
	Message any
}

// MockMessagePublisher logs and records published messages
type MockMessagePublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	err      error
}

// Ensure MockMessagePublisher implements the MessagePublisher interface
var _ port.MessagePublisher = (*MockMessagePublisher)(nil)

// NewMockMessagePublisher creates a new mock publisher
func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{}
}

// Indexer records an indexer message
func (m *MockMessagePublisher) Indexer(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, "indexer", subject, message)
}

// Access records an access control message
func (m *MockMessagePublisher) Access(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, "access", subject, message)
}

func (m *MockMessagePublisher) publish(ctx context.Context, kind, subject string, message any) error {
	slog.InfoContext(ctx, "mock message published",
		"subject", subject,
		"message_type", kind,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, PublishedMessage{Kind: kind, Subject: subject, Message: message})
	return nil
}

// FailWith makes every publish fail with err
func (m *MockMessagePublisher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Messages returns the recorded messages
func (m *MockMessagePublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.messages...)
}

// Subjects returns the subjects of the recorded messages
func (m *MockMessagePublisher) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	subjects := make([]string, len(m.messages))
	for i, msg := range m.messages {
		subjects[i] = msg.Subject
	}
	return subjects
}

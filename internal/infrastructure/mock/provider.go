// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// ProviderCall is one recorded call to the mock provider
type ProviderCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// MockProviderClient is an in-memory provider that records every call.
// Member ids are the MD5 of the lowercased email, like the Mailchimp API.
type MockProviderClient struct {
	mu       sync.Mutex
	calls    []ProviderCall
	failures map[string]error // method -> error
	records  map[string]map[string]any
}

var _ port.ProviderClient = (*MockProviderClient)(nil)

// NewMockProviderClient creates an empty mock provider
func NewMockProviderClient() *MockProviderClient {
	return &MockProviderClient{
		failures: make(map[string]error),
		records:  make(map[string]map[string]any),
	}
}

// Post creates a member on a collection path or handles an action path
func (p *MockProviderClient) Post(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	if err := p.record(ctx, "POST", path, body); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.HasSuffix(path, "/actions/delete-permanent") {
		memberPath := strings.TrimSuffix(path, "/actions/delete-permanent")
		if _, ok := p.records[memberPath]; !ok {
			return nil, errors.NewNotFound("The requested resource could not be found.")
		}
		delete(p.records, memberPath)
		return map[string]any{}, nil
	}

	email, _ := body["email_address"].(string)
	if email == "" {
		return nil, errors.NewValidation("Your request did not include an email address.")
	}
	id := SubscriberHash(email)
	memberPath := path + "/" + id
	if _, exists := p.records[memberPath]; exists {
		return nil, errors.NewValidation(fmt.Sprintf("%s is already a list member.", email))
	}

	record := copyBody(body)
	record["id"] = id
	p.records[memberPath] = record
	return copyBody(record), nil
}

// Patch merges body into an existing member
func (p *MockProviderClient) Patch(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	if err := p.record(ctx, "PATCH", path, body); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record, ok := p.records[path]
	if !ok {
		return nil, errors.NewNotFound("The requested resource could not be found.")
	}
	for k, v := range body {
		record[k] = v
	}
	return copyBody(record), nil
}

// Delete archives a member
func (p *MockProviderClient) Delete(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	if err := p.record(ctx, "DELETE", path, body); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	record, ok := p.records[path]
	if !ok {
		return nil, errors.NewNotFound("The requested resource could not be found.")
	}
	record["status"] = "archived"
	return map[string]any{}, nil
}

// IsReady implements port.ProviderClient
func (p *MockProviderClient) IsReady(ctx context.Context) error {
	return nil
}

// FailWith makes every call with the given HTTP method fail with err
func (p *MockProviderClient) FailWith(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[method] = err
}

// Recover removes every configured failure
func (p *MockProviderClient) Recover() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = make(map[string]error)
}

// Calls returns the recorded calls in order
func (p *MockProviderClient) Calls() []ProviderCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProviderCall(nil), p.calls...)
}

// Record returns the remote member stored at path
func (p *MockProviderClient) Record(path string) (map[string]any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record, ok := p.records[path]
	if !ok {
		return nil, false
	}
	return copyBody(record), true
}

func (p *MockProviderClient) record(ctx context.Context, method, path string, body map[string]any) error {
	slog.DebugContext(ctx, "mock provider call", "method", method, "path", path)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, ProviderCall{Method: method, Path: path, Body: copyBody(body)})
	return p.failures[method]
}

// SubscriberHash returns the Mailchimp member id of an email address
func SubscriberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func copyBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = v
	}
	return out
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/redaction"
)

// invalidDataMessage is the message of every validation failure
const invalidDataMessage = "Invalid data given"

// memberSyncOption configures a MemberSyncService
type memberSyncOption func(*MemberSyncService)

// WithMemberStore sets the persistence collaborator
func WithMemberStore(store port.MemberStore) memberSyncOption {
	return func(s *MemberSyncService) {
		s.store = store
	}
}

// WithProviderClient sets the remote provider transport
func WithProviderClient(client port.ProviderClient) memberSyncOption {
	return func(s *MemberSyncService) {
		s.provider = client
	}
}

// WithPublisher sets the change event publisher (optional)
func WithPublisher(publisher port.MessagePublisher) memberSyncOption {
	return func(s *MemberSyncService) {
		s.publisher = publisher
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) memberSyncOption {
	return func(s *MemberSyncService) {
		s.now = now
	}
}

// MemberSyncService keeps local member records and the provider in step.
// Every write commits locally first and then calls the provider; a failed
// provider call is reported as errors.SyncFailed and the local write is kept.
type MemberSyncService struct {
	store     port.MemberStore
	provider  port.ProviderClient
	publisher port.MessagePublisher
	validator *FieldValidator
	resolver  *SubscriberResolver
	now       func() time.Time
}

// NewMemberSyncService creates a MemberSyncService. The store and the provider
// client are required.
func NewMemberSyncService(opts ...memberSyncOption) *MemberSyncService {
	s := &MemberSyncService{
		validator: NewFieldValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		panic("member store dependency is required but was not provided")
	}
	if s.provider == nil {
		panic("provider client dependency is required but was not provided")
	}
	s.resolver = NewSubscriberResolver(s.store, s.store)
	return s
}

// Create validates payload, stores a new member of the list and creates it
// remotely. The returned member carries the provider identifier.
func (s *MemberSyncService) Create(ctx context.Context, listUID string, payload map[string]any) (*model.Member, error) {
	// Step 1: resolve the list
	list, err := s.resolver.ResolveList(ctx, listUID)
	if err != nil {
		return nil, err
	}

	// Step 2: shape and validate the wire representation
	wire := model.ShapeWire(payload)
	if violations := s.validator.Validate(wire); violations != nil {
		slog.DebugContext(ctx, "member payload rejected",
			"list_uid", list.UID,
			"fields", violations.Paths(),
		)
		return nil, errs.NewInvalidFields(invalidDataMessage, violations)
	}

	member, err := model.FromWire(wire)
	if err != nil {
		return nil, errs.NewValidation(invalidDataMessage, err)
	}

	now := s.now().UTC()
	member.UID = uuid.New().String()
	member.ListUID = list.UID
	member.CreatedAt = now
	member.UpdatedAt = now

	// Step 3: commit locally before any remote call
	if err := s.store.PersistMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "failed to persist new member",
			"error", err,
			"list_uid", list.UID,
			"email", redaction.RedactEmail(member.EmailAddress),
		)
		return nil, err
	}

	slog.DebugContext(ctx, "member stored locally",
		"list_uid", list.UID,
		"member_uid", member.UID,
	)

	// Step 4: create remotely and record the provider identifier
	syncErr := s.createRemote(ctx, list, member, wire)

	// Step 5: the local record exists either way
	s.publishMemberMessages(ctx, member, model.ActionCreated)
	if syncErr != nil {
		return nil, syncErr
	}

	slog.InfoContext(ctx, "member created",
		"list_uid", list.UID,
		"member_uid", member.UID,
		"remote_id", log.LogOptionalString(member.RemoteID),
	)

	return member, nil
}

// Update merges payload into the stored member, validates the result, stores
// it and patches the provider record. Keys absent from payload are kept.
func (s *MemberSyncService) Update(ctx context.Context, listUID, subscriberID string, payload map[string]any) (*model.Member, error) {
	list, existing, err := s.resolver.Resolve(ctx, listUID, subscriberID)
	if err != nil {
		return nil, err
	}

	if existing.IsArchived() {
		slog.WarnContext(ctx, "update rejected for archived member",
			"list_uid", list.UID,
			"member_uid", existing.UID,
		)
		return nil, errs.NewMethodNotAllowed("Method Not Allowed")
	}

	merged := model.OmitEmpty(model.MergeWire(model.ToWire(existing), model.SelectWireFields(payload)))
	if violations := s.validator.Validate(merged); violations != nil {
		slog.DebugContext(ctx, "member update rejected",
			"member_uid", existing.UID,
			"fields", violations.Paths(),
		)
		return nil, errs.NewInvalidFields(invalidDataMessage, violations)
	}

	updated, err := model.FromWire(merged)
	if err != nil {
		return nil, errs.NewValidation(invalidDataMessage, err)
	}
	updated.UID = existing.UID
	updated.ListUID = existing.ListUID
	updated.RemoteID = existing.RemoteID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err := s.store.PersistMember(ctx, updated); err != nil {
		slog.ErrorContext(ctx, "failed to persist member update",
			"error", err,
			"member_uid", updated.UID,
		)
		return nil, err
	}

	s.publishMemberMessages(ctx, updated, model.ActionUpdated)

	if err := s.requireSynced(ctx, updated); err != nil {
		return nil, err
	}

	if _, err := s.provider.Patch(ctx, list.MemberPath(*updated.RemoteID), merged); err != nil {
		return nil, s.syncFailed(ctx, "patch", updated, err)
	}

	slog.InfoContext(ctx, "member updated",
		"list_uid", list.UID,
		"member_uid", updated.UID,
	)

	return updated, nil
}

// SoftRemove archives the member locally and unsubscribes it remotely.
// Archiving an archived member fails with MethodNotAllowed.
func (s *MemberSyncService) SoftRemove(ctx context.Context, listUID, subscriberID string) error {
	list, member, err := s.resolver.Resolve(ctx, listUID, subscriberID)
	if err != nil {
		return err
	}

	if member.IsArchived() {
		slog.DebugContext(ctx, "member already archived", "member_uid", member.UID)
		return errs.NewMethodNotAllowed("Method Not Allowed")
	}

	member.Status = model.StatusArchived
	member.UpdatedAt = s.now().UTC()

	if err := s.store.PersistMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "failed to persist archived member",
			"error", err,
			"member_uid", member.UID,
		)
		return err
	}

	s.publishMemberMessages(ctx, member, model.ActionUpdated)

	if err := s.requireSynced(ctx, member); err != nil {
		return err
	}

	if _, err := s.provider.Delete(ctx, list.MemberPath(*member.RemoteID), nil); err != nil {
		return s.syncFailed(ctx, "delete", member, err)
	}

	slog.InfoContext(ctx, "member archived",
		"list_uid", list.UID,
		"member_uid", member.UID,
	)

	return nil
}

// HardRemove deletes the member locally and purges it remotely, whatever its
// status. A member that never reached the provider is only deleted locally.
func (s *MemberSyncService) HardRemove(ctx context.Context, listUID, subscriberID string) error {
	list, member, err := s.resolver.Resolve(ctx, listUID, subscriberID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "failed to remove member",
			"error", err,
			"member_uid", member.UID,
		)
		return err
	}

	s.publishMemberDeleteMessages(ctx, member.UID)

	if !member.IsSynced() {
		slog.InfoContext(ctx, "member removed locally, no provider record to purge",
			"list_uid", list.UID,
			"member_uid", member.UID,
		)
		return nil
	}

	path := list.MemberPath(*member.RemoteID) + "/actions/delete-permanent"
	if _, err := s.provider.Post(ctx, path, nil); err != nil {
		return s.syncFailed(ctx, "delete-permanent", member, err)
	}

	slog.InfoContext(ctx, "member permanently removed",
		"list_uid", list.UID,
		"member_uid", member.UID,
	)

	return nil
}

// Resync replays the provider call for a member whose local write was kept
// after a failed sync: create when it has no provider identifier, patch
// otherwise.
func (s *MemberSyncService) Resync(ctx context.Context, listUID, subscriberID string) (*model.Member, error) {
	list, member, err := s.resolver.Resolve(ctx, listUID, subscriberID)
	if err != nil {
		return nil, err
	}

	if member.IsArchived() {
		return nil, errs.NewMethodNotAllowed("Method Not Allowed")
	}

	wire := model.ToWire(member)

	if !member.IsSynced() {
		if err := s.createRemote(ctx, list, member, wire); err != nil {
			return nil, err
		}
		s.publishMemberMessages(ctx, member, model.ActionUpdated)
		return member, nil
	}

	if _, err := s.provider.Patch(ctx, list.MemberPath(*member.RemoteID), wire); err != nil {
		return nil, s.syncFailed(ctx, "patch", member, err)
	}

	slog.InfoContext(ctx, "member resynchronized",
		"list_uid", list.UID,
		"member_uid", member.UID,
	)

	return member, nil
}

// createRemote posts the member and stores the identifier the provider returns
func (s *MemberSyncService) createRemote(ctx context.Context, list *model.List, member *model.Member, wire map[string]any) error {
	resp, err := s.provider.Post(ctx, list.MembersPath(), wire)
	if err != nil {
		return s.syncFailed(ctx, "create", member, err)
	}

	remoteID, _ := resp["id"].(string)
	if remoteID == "" {
		return s.syncFailed(ctx, "create", member, errors.New("provider response did not include a member id"))
	}

	member.RemoteID = &remoteID
	member.UpdatedAt = s.now().UTC()

	if err := s.store.PersistMember(ctx, member); err != nil {
		slog.ErrorContext(ctx, "member created remotely but its provider id could not be stored",
			"error", err,
			"member_uid", member.UID,
			"remote_id", remoteID,
			log.PriorityCritical(),
		)
		return err
	}

	return nil
}

// requireSynced fails with SyncFailed when the member has no provider identifier
func (s *MemberSyncService) requireSynced(ctx context.Context, member *model.Member) error {
	if member.IsSynced() {
		return nil
	}
	slog.WarnContext(ctx, "member has no provider identifier, skipping remote call",
		"member_uid", member.UID,
	)
	return errs.NewSyncFailed(
		fmt.Sprintf("member %s has not been synchronized with the provider", member.UID),
		model.ErrNotSynced,
	)
}

// syncFailed collapses any provider failure into SyncFailed carrying the
// provider's message text
func (s *MemberSyncService) syncFailed(ctx context.Context, operation string, member *model.Member, err error) error {
	var already errs.SyncFailed
	if errors.As(err, &already) {
		return already
	}

	text := err.Error()
	var withMessage interface{ Message() string }
	if errors.As(err, &withMessage) && withMessage.Message() != "" {
		text = withMessage.Message()
	}

	slog.ErrorContext(ctx, "provider call failed after local commit",
		"error", err,
		"operation", operation,
		"member_uid", member.UID,
		"remote_id", log.LogOptionalString(member.RemoteID),
	)

	return errs.NewSyncFailed(text, err)
}

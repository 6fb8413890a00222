// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"

	"github.com/nats-io/nats.go/jetstream"
)

// storage keeps lists and members in JetStream key-value buckets.
// Members of a list are found through lookup/list_members/<list>/<member> keys.
type storage struct {
	client *NATSClient
}

// FindList retrieves a list by UID
func (s *storage) FindList(ctx context.Context, listUID string) (*model.List, error) {
	slog.DebugContext(ctx, "nats storage: getting list", "list_uid", listUID)

	list := &model.List{}
	if _, err := s.get(ctx, constants.KVBucketNameLists, listUID, list); err != nil {
		if isMissingKey(err) {
			return nil, errs.NewNotFound("list not found", model.ErrListNotFound)
		}
		slog.ErrorContext(ctx, "failed to get list", "error", err, "list_uid", listUID)
		return nil, errs.NewServiceUnavailable("failed to get list", err)
	}
	return list, nil
}

// SaveList stores a list
func (s *storage) SaveList(ctx context.Context, list *model.List) error {
	rev, err := s.put(ctx, constants.KVBucketNameLists, list.UID, list)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save list", "error", err, "list_uid", list.UID)
		return errs.NewServiceUnavailable("failed to save list", err)
	}
	slog.DebugContext(ctx, "nats storage: list saved", "list_uid", list.UID, "revision", rev)
	return nil
}

// FindMember retrieves a member of a list by UID
func (s *storage) FindMember(ctx context.Context, listUID, memberUID string) (*model.Member, error) {
	slog.DebugContext(ctx, "nats storage: getting member",
		"list_uid", listUID,
		"member_uid", memberUID,
	)

	member := &model.Member{}
	rev, err := s.get(ctx, constants.KVBucketNameMembers, memberUID, member)
	if err != nil {
		if isMissingKey(err) {
			return nil, errs.NewNotFound("member not found", model.ErrMemberNotFound)
		}
		slog.ErrorContext(ctx, "failed to get member", "error", err, "member_uid", memberUID)
		return nil, errs.NewServiceUnavailable("failed to get member", err)
	}
	if member.ListUID != listUID {
		return nil, errs.NewNotFound("member not found", model.ErrMemberNotFound)
	}

	slog.DebugContext(ctx, "nats storage: member retrieved",
		"member_uid", memberUID,
		"revision", rev,
	)
	return member, nil
}

// ListMembers returns the members of a list by scanning its lookup keys
func (s *storage) ListMembers(ctx context.Context, listUID string) ([]*model.Member, error) {
	kv, err := s.bucket(constants.KVBucketNameMembers)
	if err != nil {
		return nil, err
	}

	lister, err := kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []*model.Member{}, nil
		}
		slog.ErrorContext(ctx, "failed to list member keys", "error", err, "list_uid", listUID)
		return nil, errs.NewServiceUnavailable("failed to list members", err)
	}
	defer func() {
		_ = lister.Stop()
	}()

	prefix := lookupPrefix(listUID)
	members := make([]*model.Member, 0)
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		memberUID := strings.TrimPrefix(key, prefix)
		member, err := s.FindMember(ctx, listUID, memberUID)
		if err != nil {
			var notFound errs.NotFound
			if errors.As(err, &notFound) {
				// stale lookup key left by an interrupted removal
				slog.WarnContext(ctx, "lookup key without member", "key", key)
				continue
			}
			return nil, err
		}
		members = append(members, member)
	}

	return members, nil
}

// PersistMember upserts a member and its list lookup key
func (s *storage) PersistMember(ctx context.Context, member *model.Member) error {
	rev, err := s.put(ctx, constants.KVBucketNameMembers, member.UID, member)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist member", "error", err, "member_uid", member.UID)
		return errs.NewServiceUnavailable("failed to persist member", err)
	}

	kv, err := s.bucket(constants.KVBucketNameMembers)
	if err != nil {
		return err
	}
	if _, err := kv.Put(ctx, lookupKey(member.ListUID, member.UID), []byte(member.UID)); err != nil {
		slog.ErrorContext(ctx, "failed to persist member lookup key", "error", err, "member_uid", member.UID)
		return errs.NewServiceUnavailable("failed to persist member lookup key", err)
	}

	slog.DebugContext(ctx, "nats storage: member persisted",
		"member_uid", member.UID,
		"revision", rev,
	)
	return nil
}

// RemoveMember deletes a member and its list lookup key
func (s *storage) RemoveMember(ctx context.Context, member *model.Member) error {
	kv, err := s.bucket(constants.KVBucketNameMembers)
	if err != nil {
		return err
	}

	if err := kv.Delete(ctx, member.UID); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return errs.NewNotFound("member not found", model.ErrMemberNotFound)
		}
		slog.ErrorContext(ctx, "failed to delete member", "error", err, "member_uid", member.UID)
		return errs.NewServiceUnavailable("failed to delete member", err)
	}

	if err := kv.Delete(ctx, lookupKey(member.ListUID, member.UID)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		slog.WarnContext(ctx, "failed to delete member lookup key", "error", err, "member_uid", member.UID)
	}

	slog.DebugContext(ctx, "nats storage: member removed", "member_uid", member.UID)
	return nil
}

// IsReady checks if the storage is ready by verifying the client connection
func (s *storage) IsReady(ctx context.Context) error {
	return s.client.IsReady(ctx)
}

func (s *storage) bucket(name string) (jetstream.KeyValue, error) {
	kv, exists := s.client.kvStore[name]
	if !exists || kv == nil {
		return nil, errs.NewServiceUnavailable("KV bucket not available")
	}
	return kv, nil
}

// isMissingKey reports whether err means no value can exist under the key.
// An identifier that is not a valid KV key never names a stored record.
func isMissingKey(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrInvalidKey)
}

// get unmarshals the value stored under uid and returns its revision
func (s *storage) get(ctx context.Context, bucket, uid string, out any) (uint64, error) {
	if uid == "" {
		return 0, errs.NewValidation("UID cannot be empty")
	}

	kv, err := s.bucket(bucket)
	if err != nil {
		return 0, err
	}

	entry, err := kv.Get(ctx, uid)
	if err != nil {
		return 0, err
	}

	if err := json.Unmarshal(entry.Value(), out); err != nil {
		return 0, err
	}
	return entry.Revision(), nil
}

// put marshals value to JSON and stores it under uid, returning the revision
func (s *storage) put(ctx context.Context, bucket, uid string, value any) (uint64, error) {
	if uid == "" {
		return 0, errs.NewValidation("UID cannot be empty")
	}

	kv, err := s.bucket(bucket)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}

	return kv.Put(ctx, uid, data)
}

func lookupPrefix(listUID string) string {
	return fmt.Sprintf(constants.KVLookupListMemberPrefix, listUID)
}

func lookupKey(listUID, memberUID string) string {
	return lookupPrefix(listUID) + memberUID
}

// NewStorage creates a MemberStore backed by the client's key-value buckets
func NewStorage(client *NATSClient) port.MemberStore {
	return &storage{
		client: client,
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
)

// ShowOne returns a member of the list
func (s *MemberSyncService) ShowOne(ctx context.Context, listUID, subscriberID string) (*model.Member, error) {
	slog.DebugContext(ctx, "executing show member use case",
		"list_uid", listUID,
		"member_uid", subscriberID,
	)

	_, member, err := s.resolver.Resolve(ctx, listUID, subscriberID)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ShowAll returns the members of the list in creation order
func (s *MemberSyncService) ShowAll(ctx context.Context, listUID string) ([]*model.Member, error) {
	list, err := s.resolver.ResolveList(ctx, listUID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, list.UID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list members",
			"error", err,
			"list_uid", list.UID,
		)
		return nil, err
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].UID < members[j].UID
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	slog.DebugContext(ctx, "members listed",
		"list_uid", list.UID,
		"count", len(members),
	)

	return members, nil
}

// IsReady checks the store and the provider client
func (s *MemberSyncService) IsReady(ctx context.Context) error {
	if err := s.store.IsReady(ctx); err != nil {
		return err
	}
	return s.provider.IsReady(ctx)
}

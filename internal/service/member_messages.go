// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

// publishMemberMessages publishes the indexer and access messages of a stored
// member. Failures are logged; the local write has already been committed.
func (s *MemberSyncService) publishMemberMessages(ctx context.Context, member *model.Member, action model.MessageAction) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "publisher not available, skipping member message publishing")
		return
	}

	indexerMessage, err := (&model.IndexerMessage{
		Action: action,
		Tags:   member.IndexTags(),
	}).Build(ctx, member)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build member indexer message",
			"error", err,
			"member_uid", member.UID,
			"action", action,
		)
		return
	}
	accessMessage := model.NewMemberAccessMessage(member)

	messages := []func() error{
		func() error {
			return s.publisher.Indexer(ctx, constants.IndexMemberSubject, indexerMessage)
		},
		func() error {
			return s.publisher.Access(ctx, constants.UpdateAccessMemberSubject, accessMessage)
		},
	}

	if err := concurrent.NewWorkerPool(len(messages)).Run(ctx, messages...); err != nil {
		slog.ErrorContext(ctx, "failed to publish member messages",
			"error", err,
			"member_uid", member.UID,
			"action", action,
		)
		return
	}

	slog.DebugContext(ctx, "member messages published",
		"member_uid", member.UID,
		"action", action,
	)
}

// publishMemberDeleteMessages publishes the delete messages of a removed member
func (s *MemberSyncService) publishMemberDeleteMessages(ctx context.Context, uid string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "publisher not available, skipping member delete messages")
		return
	}

	indexerMessage, err := (&model.IndexerMessage{Action: model.ActionDeleted}).Build(ctx, uid)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build member delete message", "error", err, "member_uid", uid)
		return
	}

	messages := []func() error{
		func() error {
			return s.publisher.Indexer(ctx, constants.IndexMemberSubject, indexerMessage)
		},
		func() error {
			return s.publisher.Access(ctx, constants.DeleteAllAccessMemberSubject, uid)
		},
	}

	if err := concurrent.NewWorkerPool(len(messages)).Run(ctx, messages...); err != nil {
		slog.ErrorContext(ctx, "failed to publish member delete messages",
			"error", err,
			"member_uid", uid,
		)
	}
}

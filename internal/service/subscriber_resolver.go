// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// SubscriberResolver maps a list id and an opaque subscriber id to the stored member
type SubscriberResolver struct {
	lists   port.ListReader
	members port.MemberReader
}

// NewSubscriberResolver creates a resolver over the given readers
func NewSubscriberResolver(lists port.ListReader, members port.MemberReader) *SubscriberResolver {
	return &SubscriberResolver{lists: lists, members: members}
}

// ResolveList returns the list or a NotFound wrapping model.ErrListNotFound
func (r *SubscriberResolver) ResolveList(ctx context.Context, listUID string) (*model.List, error) {
	list, err := r.lists.FindList(ctx, listUID)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NewNotFound(fmt.Sprintf("MailChimpList[%s] not found", listUID), model.ErrListNotFound)
		}
		slog.ErrorContext(ctx, "failed to load list", "error", err, "list_uid", listUID)
		return nil, err
	}
	return list, nil
}

// Resolve returns the list and the member identified by subscriberID within it.
// A missing list and a missing member are reported with different sentinels.
func (r *SubscriberResolver) Resolve(ctx context.Context, listUID, subscriberID string) (*model.List, *model.Member, error) {
	list, err := r.ResolveList(ctx, listUID)
	if err != nil {
		return nil, nil, err
	}

	memberNotFound := errs.NewNotFound(fmt.Sprintf("MailChimpListMember[%s] not found", subscriberID), model.ErrMemberNotFound)

	member, err := r.members.FindMember(ctx, list.UID, subscriberID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, memberNotFound
		}
		slog.ErrorContext(ctx, "failed to load member",
			"error", err,
			"list_uid", listUID,
			"member_uid", subscriberID,
		)
		return nil, nil, err
	}
	if member.ListUID != list.UID {
		return nil, nil, memberNotFound
	}

	return list, member, nil
}

func isNotFound(err error) bool {
	var notFound errs.NotFound
	return errors.As(err, &notFound) ||
		errors.Is(err, model.ErrListNotFound) ||
		errors.Is(err, model.ErrMemberNotFound)
}

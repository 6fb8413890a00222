// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package port defines the interfaces for external dependencies and adapters.
package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
)

// ListReader resolves the lists members belong to
type ListReader interface {
	// FindList returns errors.NotFound wrapping model.ErrListNotFound when absent
	FindList(ctx context.Context, listUID string) (*model.List, error)
}

// MemberReader reads member records
type MemberReader interface {
	// FindMember looks a member up by local identifier within a list.
	// Returns errors.NotFound wrapping model.ErrMemberNotFound when absent,
	// including when the member exists under another list.
	FindMember(ctx context.Context, listUID, memberUID string) (*model.Member, error)

	// ListMembers returns every member of a list in creation order
	ListMembers(ctx context.Context, listUID string) ([]*model.Member, error)
}

// MemberWriter writes member records. A write must be visible to the next
// read issued by the same operation.
type MemberWriter interface {
	// PersistMember inserts or replaces the member
	PersistMember(ctx context.Context, member *model.Member) error

	// RemoveMember deletes the member permanently
	RemoveMember(ctx context.Context, member *model.Member) error
}

// ListWriter seeds lists. Lists are owned by another service; this is used
// by fixtures and tests.
type ListWriter interface {
	SaveList(ctx context.Context, list *model.List) error
}

// MemberStore is the persistence collaborator of the member sync service
type MemberStore interface {
	ListReader
	ListWriter
	MemberReader
	MemberWriter

	IsReady(ctx context.Context) error
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

const (
	testListUID      = "list-1"
	testListRemoteID = "abc123"
	testMembersPath  = "/lists/abc123/members"
)

type syncFixture struct {
	svc       *MemberSyncService
	repo      *mock.MockRepository
	provider  *mock.MockProviderClient
	publisher *mock.MockMessagePublisher
	now       time.Time
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	f := &syncFixture{
		repo:      mock.NewMockRepository(),
		provider:  mock.NewMockProviderClient(),
		publisher: mock.NewMockMessagePublisher(),
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.repo.AddList(&model.List{UID: testListUID, RemoteID: testListRemoteID, Name: "New list"})
	f.svc = NewMemberSyncService(
		WithMemberStore(f.repo),
		WithProviderClient(f.provider),
		WithPublisher(f.publisher),
		WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		}),
	)
	return f
}

func payload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

const janePayload = `{
	"email_address": "jane.doe@example.com",
	"status": "subscribed",
	"merge_fields": {
		"FNAME": "Jane",
		"LNAME": "Doe",
		"ADDRESS": {"addr1": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701"}
	},
	"tags": ["founder"],
	"id": "client-chosen-id",
	"mail_chimp_id": "client-chosen-remote"
}`

func (f *syncFixture) createJane(t *testing.T) *model.Member {
	t.Helper()
	member, err := f.svc.Create(context.Background(), testListUID, payload(t, janePayload))
	require.NoError(t, err)
	return member
}

func TestNewMemberSyncServiceRequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewMemberSyncService(WithProviderClient(mock.NewMockProviderClient())) })
	assert.Panics(t, func() { NewMemberSyncService(WithMemberStore(mock.NewMockRepository())) })
	assert.NotPanics(t, func() {
		NewMemberSyncService(WithMemberStore(mock.NewMockRepository()), WithProviderClient(mock.NewMockProviderClient()))
	})
}

func TestMemberSyncServiceCreate(t *testing.T) {
	f := newSyncFixture(t)

	member := f.createJane(t)

	assert.NotEmpty(t, member.UID)
	assert.NotEqual(t, "client-chosen-id", member.UID)
	assert.Equal(t, testListUID, member.ListUID)
	require.True(t, member.IsSynced())
	assert.Equal(t, mock.SubscriberHash("jane.doe@example.com"), *member.RemoteID)
	assert.Equal(t, model.StatusSubscribed, member.Status)
	assert.False(t, member.CreatedAt.IsZero())

	stored, err := f.repo.FindMember(context.Background(), testListUID, member.UID)
	require.NoError(t, err)
	assert.Equal(t, member.RemoteID, stored.RemoteID)

	calls := f.provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "POST", calls[0].Method)
	assert.Equal(t, testMembersPath, calls[0].Path)
	assert.Equal(t, "jane.doe@example.com", calls[0].Body["email_address"])
	assert.NotContains(t, calls[0].Body, "id")
	assert.NotContains(t, calls[0].Body, "mail_chimp_id")
	assert.NotContains(t, calls[0].Body, "list_id")

	assert.ElementsMatch(t, []string{constants.IndexMemberSubject, constants.UpdateAccessMemberSubject}, f.publisher.Subjects())
	for _, msg := range f.publisher.Messages() {
		if indexer, ok := msg.Message.(*model.IndexerMessage); ok {
			assert.Equal(t, model.ActionCreated, indexer.Action)
			assert.Contains(t, indexer.Tags, "list_uid:"+testListUID)
		}
	}
}

func TestMemberSyncServiceCreateFailures(t *testing.T) {
	testCases := []struct {
		name         string
		listUID      string
		body         string
		setup        func(f *syncFixture)
		check        func(t *testing.T, err error)
		wantStored   int
		wantProvider int
	}{
		{
			name:    "unknown list",
			listUID: "missing",
			body:    janePayload,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, model.ErrListNotFound)
			},
		},
		{
			name:    "invalid fields",
			listUID: testListUID,
			body:    `{"email_address": "nope", "status": "archived", "tags": [""]}`,
			check: func(t *testing.T, err error) {
				var invalid errs.InvalidFields
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, "Invalid data given", invalid.Message())
				fields := invalid.Fields()
				assert.Contains(t, fields, "email_address")
				assert.Contains(t, fields, "status")
				assert.Contains(t, fields, "tags.0")
			},
		},
		{
			name:    "storage failure",
			listUID: testListUID,
			body:    janePayload,
			setup: func(f *syncFixture) {
				f.repo.SetErrorForOperation("PersistMember", errs.NewServiceUnavailable("storage unavailable"))
			},
			check: func(t *testing.T, err error) {
				var unavailable errs.ServiceUnavailable
				assert.True(t, errors.As(err, &unavailable))
			},
		},
		{
			name:    "provider failure keeps the local member",
			listUID: testListUID,
			body:    janePayload,
			setup: func(f *syncFixture) {
				f.provider.FailWith("POST", errs.NewValidation("jane.doe@example.com looks fake or invalid, please enter a real email address."))
			},
			check: func(t *testing.T, err error) {
				var syncFailed errs.SyncFailed
				require.True(t, errors.As(err, &syncFailed))
				assert.Equal(t, "jane.doe@example.com looks fake or invalid, please enter a real email address.", syncFailed.Message())
			},
			wantStored:   1,
			wantProvider: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSyncFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}

			member, err := f.svc.Create(context.Background(), tc.listUID, payload(t, tc.body))

			require.Error(t, err)
			assert.Nil(t, member)
			tc.check(t, err)
			assert.Equal(t, tc.wantStored, f.repo.GetMemberCount())
			assert.Len(t, f.provider.Calls(), tc.wantProvider)
		})
	}
}

func TestMemberSyncServiceCreateUnsyncedMemberIsStored(t *testing.T) {
	f := newSyncFixture(t)
	f.provider.FailWith("POST", errs.NewServiceUnavailable("Mailchimp is down"))

	_, err := f.svc.Create(context.Background(), testListUID, payload(t, janePayload))
	require.Error(t, err)

	members, err := f.svc.ShowAll(context.Background(), testListUID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.False(t, members[0].IsSynced())

	// messages follow the local commit
	assert.Len(t, f.publisher.Messages(), 2)
}

func TestMemberSyncServiceUpdateMergesPartialPayload(t *testing.T) {
	f := newSyncFixture(t)
	jane := f.createJane(t)

	updated, err := f.svc.Update(context.Background(), testListUID, jane.UID, payload(t, `{
		"merge_fields": {"ADDRESS": {"addr1": "2 Oak Ave"}},
		"id": "ignored"
	}`))
	require.NoError(t, err)

	assert.Equal(t, jane.UID, updated.UID)
	assert.Equal(t, jane.RemoteID, updated.RemoteID)
	assert.True(t, jane.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(jane.UpdatedAt))
	assert.Equal(t, "Jane", updated.MergeFields["FNAME"])
	address := updated.MergeFields["ADDRESS"].(map[string]any)
	assert.Equal(t, "2 Oak Ave", address["addr1"])
	assert.Equal(t, "Springfield", address["city"])
	assert.Equal(t, []string{"founder"}, updated.Tags)

	calls := f.provider.Calls()
	require.Len(t, calls, 2)
	patch := calls[1]
	assert.Equal(t, "PATCH", patch.Method)
	assert.Equal(t, testMembersPath+"/"+*jane.RemoteID, patch.Path)
	assert.Equal(t, "jane.doe@example.com", patch.Body["email_address"])
	assert.Equal(t, "subscribed", patch.Body["status"])

	stored, err := f.svc.ShowOne(context.Background(), testListUID, jane.UID)
	require.NoError(t, err)
	assert.Equal(t, "2 Oak Ave", stored.MergeFields["ADDRESS"].(map[string]any)["addr1"])
}

func TestMemberSyncServiceUpdateNullClearsField(t *testing.T) {
	f := newSyncFixture(t)
	jane := f.createJane(t)

	updated, err := f.svc.Update(context.Background(), testListUID, jane.UID, payload(t, `{"tags": null, "language": "fr"}`))
	require.NoError(t, err)

	assert.Nil(t, updated.Tags)
	require.NotNil(t, updated.Language)
	assert.Equal(t, "fr", *updated.Language)

	patch := f.provider.Calls()[1]
	assert.NotContains(t, patch.Body, "tags")
	assert.Equal(t, "fr", patch.Body["language"])
}

func TestMemberSyncServiceUpdateFailures(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		setup     func(t *testing.T, f *syncFixture, member *model.Member)
		check     func(t *testing.T, err error)
		wantLocal string
		wantPatch bool
	}{
		{
			name: "invalid merged result",
			body: `{"email_address": null}`,
			check: func(t *testing.T, err error) {
				var invalid errs.InvalidFields
				require.True(t, errors.As(err, &invalid))
				assert.Contains(t, invalid.Fields(), "email_address")
			},
			wantLocal: "jane.doe@example.com",
		},
		{
			name: "archived member",
			body: `{"email_address": "new@example.com"}`,
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				require.NoError(t, f.svc.SoftRemove(context.Background(), testListUID, member.UID))
			},
			check: func(t *testing.T, err error) {
				var notAllowed errs.MethodNotAllowed
				require.True(t, errors.As(err, &notAllowed))
				assert.Equal(t, "Method Not Allowed", notAllowed.Message())
			},
			wantLocal: "jane.doe@example.com",
		},
		{
			name: "provider failure keeps the local update",
			body: `{"email_address": "new@example.com"}`,
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				f.provider.FailWith("PATCH", errs.NewValidation("Invalid Resource"))
			},
			check: func(t *testing.T, err error) {
				var syncFailed errs.SyncFailed
				require.True(t, errors.As(err, &syncFailed))
				assert.Equal(t, "Invalid Resource", syncFailed.Message())
			},
			wantLocal: "new@example.com",
			wantPatch: true,
		},
		{
			name: "member never synchronized",
			body: `{"email_address": "new@example.com"}`,
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				stored, err := f.repo.FindMember(context.Background(), testListUID, member.UID)
				require.NoError(t, err)
				stored.RemoteID = nil
				f.repo.AddMember(stored)
			},
			check: func(t *testing.T, err error) {
				var syncFailed errs.SyncFailed
				require.True(t, errors.As(err, &syncFailed))
				assert.ErrorIs(t, err, model.ErrNotSynced)
			},
			wantLocal: "new@example.com",
		},
		{
			name: "unknown member",
			body: `{"email_address": "new@example.com"}`,
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				require.NoError(t, f.repo.RemoveMember(context.Background(), member))
				f.repo.AddMember(&model.Member{UID: member.UID + "-kept", ListUID: testListUID, EmailAddress: "jane.doe@example.com"})
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, model.ErrMemberNotFound)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSyncFixture(t)
			jane := f.createJane(t)
			if tc.setup != nil {
				tc.setup(t, f, jane)
			}
			before := len(f.provider.Calls())

			updated, err := f.svc.Update(context.Background(), testListUID, jane.UID, payload(t, tc.body))

			require.Error(t, err)
			assert.Nil(t, updated)
			tc.check(t, err)

			calls := f.provider.Calls()[before:]
			if tc.wantPatch {
				require.Len(t, calls, 1)
				assert.Equal(t, "PATCH", calls[0].Method)
			} else {
				assert.Empty(t, calls)
			}

			if tc.wantLocal != "" {
				stored, err := f.repo.FindMember(context.Background(), testListUID, jane.UID)
				require.NoError(t, err)
				assert.Equal(t, tc.wantLocal, stored.EmailAddress)
			}
		})
	}
}

func TestMemberSyncServiceSoftRemove(t *testing.T) {
	f := newSyncFixture(t)
	jane := f.createJane(t)

	require.NoError(t, f.svc.SoftRemove(context.Background(), testListUID, jane.UID))

	stored, err := f.svc.ShowOne(context.Background(), testListUID, jane.UID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, stored.Status)

	calls := f.provider.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "DELETE", calls[1].Method)
	assert.Equal(t, testMembersPath+"/"+*jane.RemoteID, calls[1].Path)
	assert.Nil(t, calls[1].Body)

	err = f.svc.SoftRemove(context.Background(), testListUID, jane.UID)
	var notAllowed errs.MethodNotAllowed
	require.True(t, errors.As(err, &notAllowed))
	assert.Len(t, f.provider.Calls(), 2, "no remote call for an archived member")
}

func TestMemberSyncServiceSoftRemoveProviderFailure(t *testing.T) {
	f := newSyncFixture(t)
	jane := f.createJane(t)
	f.provider.FailWith("DELETE", errs.NewNotFound("The requested resource could not be found."))

	err := f.svc.SoftRemove(context.Background(), testListUID, jane.UID)

	var syncFailed errs.SyncFailed
	require.True(t, errors.As(err, &syncFailed))
	assert.Equal(t, "The requested resource could not be found.", syncFailed.Message())

	stored, err := f.repo.FindMember(context.Background(), testListUID, jane.UID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, stored.Status)
}

func TestMemberSyncServiceHardRemove(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(t *testing.T, f *syncFixture, member *model.Member)
		wantErr   bool
		wantPurge bool
	}{
		{
			name:      "subscribed member",
			wantPurge: true,
		},
		{
			name: "archived member",
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				require.NoError(t, f.svc.SoftRemove(context.Background(), testListUID, member.UID))
			},
			wantPurge: true,
		},
		{
			name: "never synchronized member",
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				stored, err := f.repo.FindMember(context.Background(), testListUID, member.UID)
				require.NoError(t, err)
				stored.RemoteID = nil
				f.repo.AddMember(stored)
			},
		},
		{
			name: "provider failure",
			setup: func(t *testing.T, f *syncFixture, member *model.Member) {
				f.provider.FailWith("POST", errs.NewServiceUnavailable("Mailchimp is down"))
			},
			wantErr:   true,
			wantPurge: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSyncFixture(t)
			jane := f.createJane(t)
			if tc.setup != nil {
				tc.setup(t, f, jane)
			}
			before := len(f.provider.Calls())

			err := f.svc.HardRemove(context.Background(), testListUID, jane.UID)

			if tc.wantErr {
				var syncFailed errs.SyncFailed
				require.True(t, errors.As(err, &syncFailed))
			} else {
				require.NoError(t, err)
			}

			// the local record is gone either way
			_, err = f.svc.ShowOne(context.Background(), testListUID, jane.UID)
			assert.ErrorIs(t, err, model.ErrMemberNotFound)
			assert.Equal(t, 0, f.repo.GetMemberCount())

			calls := f.provider.Calls()[before:]
			if tc.wantPurge {
				require.Len(t, calls, 1)
				assert.Equal(t, "POST", calls[0].Method)
				assert.Equal(t, testMembersPath+"/"+*jane.RemoteID+"/actions/delete-permanent", calls[0].Path)
				assert.Nil(t, calls[0].Body)
			} else {
				assert.Empty(t, calls)
			}
		})
	}
}

func TestMemberSyncServiceHardRemovePublishesDelete(t *testing.T) {
	f := newSyncFixture(t)
	jane := f.createJane(t)
	before := len(f.publisher.Messages())

	require.NoError(t, f.svc.HardRemove(context.Background(), testListUID, jane.UID))

	msgs := f.publisher.Messages()[before:]
	require.Len(t, msgs, 2)
	subjects := []string{msgs[0].Subject, msgs[1].Subject}
	assert.ElementsMatch(t, []string{constants.IndexMemberSubject, constants.DeleteAllAccessMemberSubject}, subjects)
	for _, msg := range msgs {
		if msg.Kind == "access" {
			assert.Equal(t, jane.UID, msg.Message)
		}
	}
}

func TestMemberSyncServiceShowAll(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	empty, err := f.svc.ShowAll(ctx, testListUID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := f.createJane(t)
	second, err := f.svc.Create(ctx, testListUID, payload(t, `{"email_address": "john@example.com", "status": "pending"}`))
	require.NoError(t, err)

	members, err := f.svc.ShowAll(ctx, testListUID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, first.UID, members[0].UID)
	assert.Equal(t, second.UID, members[1].UID)

	_, err = f.svc.ShowAll(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrListNotFound)
}

func TestMemberSyncServiceResync(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.provider.FailWith("POST", errs.NewServiceUnavailable("Mailchimp is down"))

	_, err := f.svc.Create(ctx, testListUID, payload(t, janePayload))
	require.Error(t, err)
	members, err := f.svc.ShowAll(ctx, testListUID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	uid := members[0].UID

	f.provider.Recover()
	resynced, err := f.svc.Resync(ctx, testListUID, uid)
	require.NoError(t, err)
	require.True(t, resynced.IsSynced())
	assert.Equal(t, mock.SubscriberHash("jane.doe@example.com"), *resynced.RemoteID)

	// a synced member is patched
	_, err = f.svc.Resync(ctx, testListUID, uid)
	require.NoError(t, err)
	calls := f.provider.Calls()
	assert.Equal(t, "PATCH", calls[len(calls)-1].Method)

	require.NoError(t, f.svc.SoftRemove(ctx, testListUID, uid))
	_, err = f.svc.Resync(ctx, testListUID, uid)
	var notAllowed errs.MethodNotAllowed
	assert.True(t, errors.As(err, &notAllowed))
}

func TestMemberSyncServicePublishFailureDoesNotFailWrite(t *testing.T) {
	f := newSyncFixture(t)
	f.publisher.FailWith(errors.New("nats unavailable"))

	member := f.createJane(t)
	assert.True(t, member.IsSynced())
}

func TestMemberSyncServiceWithoutPublisher(t *testing.T) {
	repo := mock.NewMockRepository()
	repo.AddList(&model.List{UID: testListUID, RemoteID: testListRemoteID})
	svc := NewMemberSyncService(WithMemberStore(repo), WithProviderClient(mock.NewMockProviderClient()))

	member, err := svc.Create(context.Background(), testListUID, payload(t, janePayload))
	require.NoError(t, err)
	require.NoError(t, svc.HardRemove(context.Background(), testListUID, member.UID))
}

func TestMemberSyncServiceIsReady(t *testing.T) {
	f := newSyncFixture(t)
	assert.NoError(t, f.svc.IsReady(context.Background()))

	f.repo.SetErrorForOperation("IsReady", errs.NewServiceUnavailable("storage unavailable"))
	assert.Error(t, f.svc.IsReady(context.Background()))
}

// TestMemberSyncServiceLifecycle walks one subscriber through its whole life.
func TestMemberSyncServiceLifecycle(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	jane := f.createJane(t)
	remotePath := testMembersPath + "/" + *jane.RemoteID

	_, err := f.svc.Update(ctx, testListUID, jane.UID, payload(t, `{"merge_fields": {"ADDRESS": {"addr1": "2 Oak Ave"}}}`))
	require.NoError(t, err)

	record, ok := f.provider.Record(remotePath)
	require.True(t, ok)
	remoteAddress := record["merge_fields"].(map[string]any)["ADDRESS"].(map[string]any)
	assert.Equal(t, "2 Oak Ave", remoteAddress["addr1"])
	assert.Equal(t, "Springfield", remoteAddress["city"])

	require.NoError(t, f.svc.SoftRemove(ctx, testListUID, jane.UID))
	shown, err := f.svc.ShowOne(ctx, testListUID, jane.UID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, shown.Status)
	record, _ = f.provider.Record(remotePath)
	assert.Equal(t, "archived", record["status"])

	err = f.svc.SoftRemove(ctx, testListUID, jane.UID)
	var notAllowed errs.MethodNotAllowed
	require.True(t, errors.As(err, &notAllowed))

	require.NoError(t, f.svc.HardRemove(ctx, testListUID, jane.UID))
	_, ok = f.provider.Record(remotePath)
	assert.False(t, ok)

	_, err = f.svc.ShowOne(ctx, testListUID, jane.UID)
	var notFound errs.NotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "MailChimpListMember["+jane.UID+"] not found", notFound.Message())
}

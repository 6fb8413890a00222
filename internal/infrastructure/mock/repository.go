// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// Global mock repository shared by the process when REPOSITORY_SOURCE=mock
var (
	globalMockRepo     *MockRepository
	globalMockRepoOnce = &sync.Once{}
)

// Default list seeded into the global repository
const (
	DefaultMockListUID      = "7a4c1c36-1f0e-4cd3-9d1e-8f2a6b0e5d11"
	DefaultMockListRemoteID = "f4c9e2a1b7"
)

// MockRepository is an in-memory MemberStore
type MockRepository struct {
	lists   map[string]*model.List
	members map[string]*model.Member // UID -> member

	// error simulation
	operationErrors map[string]error
	memberErrors    map[string]error
	listErrors      map[string]error

	mu sync.RWMutex
}

var _ port.MemberStore = (*MockRepository)(nil)

// NewMockRepository creates an empty repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		lists:           make(map[string]*model.List),
		members:         make(map[string]*model.Member),
		operationErrors: make(map[string]error),
		memberErrors:    make(map[string]error),
		listErrors:      make(map[string]error),
	}
}

// GlobalMockRepository returns the process-wide repository, seeded with one list
func GlobalMockRepository() *MockRepository {
	globalMockRepoOnce.Do(func() {
		now := time.Now().UTC()
		globalMockRepo = NewMockRepository()
		globalMockRepo.AddList(&model.List{
			UID:       DefaultMockListUID,
			RemoteID:  DefaultMockListRemoteID,
			Name:      "New list",
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	return globalMockRepo
}

// FindList implements port.ListReader
func (m *MockRepository) FindList(ctx context.Context, listUID string) (*model.List, error) {
	slog.DebugContext(ctx, "mock: finding list", "list_uid", listUID)

	if err := m.simulatedError("FindList", m.listErrors, listUID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.lists[listUID]
	if !ok {
		return nil, errors.NewNotFound(fmt.Sprintf("list %s not found", listUID), model.ErrListNotFound)
	}
	c := *list
	return &c, nil
}

// SaveList implements port.ListWriter
func (m *MockRepository) SaveList(ctx context.Context, list *model.List) error {
	if err := m.simulatedError("SaveList", m.listErrors, list.UID); err != nil {
		return err
	}
	m.AddList(list)
	return nil
}

// FindMember implements port.MemberReader
func (m *MockRepository) FindMember(ctx context.Context, listUID, memberUID string) (*model.Member, error) {
	slog.DebugContext(ctx, "mock: finding member", "list_uid", listUID, "member_uid", memberUID)

	if err := m.simulatedError("FindMember", m.memberErrors, memberUID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	member, ok := m.members[memberUID]
	if !ok || member.ListUID != listUID {
		return nil, errors.NewNotFound(fmt.Sprintf("member %s not found", memberUID), model.ErrMemberNotFound)
	}
	return member.Clone(), nil
}

// ListMembers implements port.MemberReader
func (m *MockRepository) ListMembers(ctx context.Context, listUID string) ([]*model.Member, error) {
	if err := m.simulatedError("ListMembers", m.listErrors, listUID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]*model.Member, 0)
	for _, member := range m.members {
		if member.ListUID == listUID {
			members = append(members, member.Clone())
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].UID < members[j].UID
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

// PersistMember implements port.MemberWriter
func (m *MockRepository) PersistMember(ctx context.Context, member *model.Member) error {
	slog.DebugContext(ctx, "mock: persisting member", "member_uid", member.UID)

	if err := m.simulatedError("PersistMember", m.memberErrors, member.UID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lists[member.ListUID]; !ok {
		return errors.NewNotFound(fmt.Sprintf("list %s not found", member.ListUID), model.ErrListNotFound)
	}
	m.members[member.UID] = member.Clone()
	return nil
}

// RemoveMember implements port.MemberWriter
func (m *MockRepository) RemoveMember(ctx context.Context, member *model.Member) error {
	slog.DebugContext(ctx, "mock: removing member", "member_uid", member.UID)

	if err := m.simulatedError("RemoveMember", m.memberErrors, member.UID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.members[member.UID]; !ok {
		return errors.NewNotFound(fmt.Sprintf("member %s not found", member.UID), model.ErrMemberNotFound)
	}
	delete(m.members, member.UID)
	return nil
}

// IsReady implements port.MemberStore
func (m *MockRepository) IsReady(ctx context.Context) error {
	return m.simulatedError("IsReady", nil, "")
}

// AddList stores a copy of list
func (m *MockRepository) AddList(list *model.List) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *list
	m.lists[list.UID] = &c
}

// AddMember stores a copy of member without any checks
func (m *MockRepository) AddMember(member *model.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.UID] = member.Clone()
}

// GetMemberCount returns the number of stored members
func (m *MockRepository) GetMemberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members)
}

// ClearAll removes every list, member and simulated error
func (m *MockRepository) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = make(map[string]*model.List)
	m.members = make(map[string]*model.Member)
	m.operationErrors = make(map[string]error)
	m.memberErrors = make(map[string]error)
	m.listErrors = make(map[string]error)
}

// SetErrorForOperation makes every call of the named method fail with err
func (m *MockRepository) SetErrorForOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationErrors[operation] = err
}

// SetErrorForMember makes member operations on uid fail with err
func (m *MockRepository) SetErrorForMember(uid string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberErrors[uid] = err
}

// SetErrorForList makes list operations on uid fail with err
func (m *MockRepository) SetErrorForList(uid string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErrors[uid] = err
}

// ClearErrorSimulation removes every simulated error
func (m *MockRepository) ClearErrorSimulation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationErrors = make(map[string]error)
	m.memberErrors = make(map[string]error)
	m.listErrors = make(map[string]error)
}

func (m *MockRepository) simulatedError(operation string, byID map[string]error, id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.operationErrors[operation]; ok {
		return err
	}
	if byID != nil {
		if err, ok := byID[id]; ok {
			return err
		}
	}
	return nil
}

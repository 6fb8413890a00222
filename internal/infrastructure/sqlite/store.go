// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package sqlite provides a SQLite-backed member store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/infrastructure/sqlite/migrations"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// Store persists lists and members in SQLite
type Store struct {
	db *sql.DB
}

var _ port.MemberStore = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies the embedded migrations
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "sqlite member store opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindList implements port.ListReader
func (s *Store) FindList(ctx context.Context, listUID string) (*model.List, error) {
	var (
		list                 model.List
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT uid, remote_id, name, created_at, updated_at FROM mailchimp_lists WHERE uid = ?`,
		listUID,
	).Scan(&list.UID, &list.RemoteID, &list.Name, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("list not found", model.ErrListNotFound)
	}
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to get list", err)
	}
	list.CreatedAt = fromMillis(createdAt)
	list.UpdatedAt = fromMillis(updatedAt)
	return &list, nil
}

// SaveList implements port.ListWriter
func (s *Store) SaveList(ctx context.Context, list *model.List) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mailchimp_lists (uid, remote_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET
		   remote_id = excluded.remote_id,
		   name = excluded.name,
		   updated_at = excluded.updated_at`,
		list.UID, list.RemoteID, list.Name, toMillis(list.CreatedAt), toMillis(list.UpdatedAt),
	)
	if err != nil {
		return errs.NewServiceUnavailable("failed to save list", err)
	}
	return nil
}

// FindMember implements port.MemberReader
func (s *Store) FindMember(ctx context.Context, listUID, memberUID string) (*model.Member, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM mailchimp_list_members WHERE uid = ? AND list_uid = ?`,
		memberUID, listUID,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("member not found", model.ErrMemberNotFound)
	}
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to get member", err)
	}
	return decodeMember(record)
}

// ListMembers implements port.MemberReader
func (s *Store) ListMembers(ctx context.Context, listUID string) ([]*model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM mailchimp_list_members WHERE list_uid = ? ORDER BY created_at, uid`,
		listUID,
	)
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to list members", err)
	}
	defer rows.Close()

	members := make([]*model.Member, 0)
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, errs.NewServiceUnavailable("failed to scan member", err)
		}
		member, err := decodeMember(record)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewServiceUnavailable("failed to list members", err)
	}
	return members, nil
}

// PersistMember implements port.MemberWriter
func (s *Store) PersistMember(ctx context.Context, member *model.Member) error {
	record, err := json.Marshal(member)
	if err != nil {
		return errs.NewUnexpected("failed to encode member", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mailchimp_list_members
		   (uid, list_uid, remote_id, email_address, status, record, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (uid) DO UPDATE SET
		   remote_id = excluded.remote_id,
		   email_address = excluded.email_address,
		   status = excluded.status,
		   record = excluded.record,
		   updated_at = excluded.updated_at`,
		member.UID, member.ListUID, member.RemoteID, member.EmailAddress, string(member.Status),
		string(record), toMillis(member.CreatedAt), toMillis(member.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return errs.NewNotFound("list not found", model.ErrListNotFound)
		}
		return errs.NewServiceUnavailable("failed to persist member", err)
	}
	return nil
}

// RemoveMember implements port.MemberWriter
func (s *Store) RemoveMember(ctx context.Context, member *model.Member) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mailchimp_list_members WHERE uid = ?`, member.UID)
	if err != nil {
		return errs.NewServiceUnavailable("failed to remove member", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NewNotFound("member not found", model.ErrMemberNotFound)
	}
	return nil
}

// IsReady pings the database
func (s *Store) IsReady(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.NewServiceUnavailable("sqlite store is not ready", err)
	}
	return nil
}

func decodeMember(record string) (*model.Member, error) {
	member := &model.Member{}
	if err := json.Unmarshal([]byte(record), member); err != nil {
		return nil, errs.NewUnexpected("failed to decode member", err)
	}
	return member, nil
}

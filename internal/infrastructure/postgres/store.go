// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package postgres provides a Postgres-backed member store.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
)

// foreignKeyViolationCode is the SQLSTATE raised when a member references an unknown list
const foreignKeyViolationCode = "23503"

//go:embed schema.sql
var schema string

// Store persists lists and members in Postgres
type Store struct {
	pool *pgxpool.Pool
}

var _ port.MemberStore = (*Store)(nil)

// NewStore connects to dsn and ensures the schema exists
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	slog.InfoContext(ctx, "postgres member store connected")
	return &Store{pool: pool}, nil
}

// Close releases the pool
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) FindList(ctx context.Context, listUID string) (*model.List, error) {
	var list model.List
	err := s.pool.QueryRow(ctx,
		`SELECT uid, remote_id, name, created_at, updated_at FROM mailchimp_lists WHERE uid = $1`,
		listUID,
	).Scan(&list.UID, &list.RemoteID, &list.Name, &list.CreatedAt, &list.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("list not found", model.ErrListNotFound)
	}
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to get list", err)
	}
	list.CreatedAt = list.CreatedAt.UTC()
	list.UpdatedAt = list.UpdatedAt.UTC()
	return &list, nil
}

func (s *Store) SaveList(ctx context.Context, list *model.List) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mailchimp_lists (uid, remote_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uid) DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at
	`, list.UID, list.RemoteID, list.Name, list.CreatedAt.UTC(), list.UpdatedAt.UTC())
	if err != nil {
		return errs.NewServiceUnavailable("failed to save list", err)
	}
	return nil
}

func (s *Store) FindMember(ctx context.Context, listUID, memberUID string) (*model.Member, error) {
	var record []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM mailchimp_list_members WHERE uid = $1 AND list_uid = $2`,
		memberUID, listUID,
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFound("member not found", model.ErrMemberNotFound)
	}
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to get member", err)
	}
	return decodeMember(record)
}

func (s *Store) ListMembers(ctx context.Context, listUID string) ([]*model.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM mailchimp_list_members WHERE list_uid = $1 ORDER BY created_at, uid`,
		listUID,
	)
	if err != nil {
		return nil, errs.NewServiceUnavailable("failed to list members", err)
	}
	defer rows.Close()

	members := make([]*model.Member, 0)
	for rows.Next() {
		var record []byte
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

// PersistMember upserts the member row in a single transaction
func (s *Store) PersistMember(ctx context.Context, member *model.Member) error {
	record, err := json.Marshal(member)
	if err != nil {
		return errs.NewUnexpected("failed to encode member", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO mailchimp_list_members (
				uid,
				list_uid,
				remote_id,
				email_address,
				status,
				record,
				created_at,
				updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (uid) DO UPDATE SET
				remote_id = EXCLUDED.remote_id,
				email_address = EXCLUDED.email_address,
				status = EXCLUDED.status,
				record = EXCLUDED.record,
				updated_at = EXCLUDED.updated_at
		`,
			member.UID,
			member.ListUID,
			member.RemoteID,
			member.EmailAddress,
			string(member.Status),
			record,
			member.CreatedAt.UTC(),
			member.UpdatedAt.UTC(),
		)
		return err
	})
	if err != nil {
		var pe *pgconn.PgError
		if errors.As(err, &pe) && pe.Code == foreignKeyViolationCode {
			return errs.NewNotFound("list not found", model.ErrListNotFound)
		}
		return errs.NewServiceUnavailable("failed to persist member", err)
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, member *model.Member) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM mailchimp_list_members WHERE uid = $1`, member.UID)
	if err != nil {
		return errs.NewServiceUnavailable("failed to remove member", err)
	}
	if ct.RowsAffected() == 0 {
		return errs.NewNotFound("member not found", model.ErrMemberNotFound)
	}
	return nil
}

func (s *Store) IsReady(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errs.NewServiceUnavailable("postgres store is not ready", err)
	}
	return nil
}

func decodeMember(record []byte) (*model.Member, error) {
	member := &model.Member{}
	if err := json.Unmarshal(record, member); err != nil {
		return nil, errs.NewUnexpected("failed to decode member", err)
	}
	return member, nil
}

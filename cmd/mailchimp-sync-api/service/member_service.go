// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service implements the HTTP endpoints of the mailchimp sync API.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"goa.design/clue/health"
	goahttp "goa.design/goa/v3/http"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
	lfxerrors "github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/log"
)

const (
	membersPath = "/lists/{listId}/members"
	memberPath  = membersPath + "/{subscriberId}"
)

// readiness adapts an IsReady method to a health pinger
type readiness struct {
	name  string
	ready func(context.Context) error
}

func (r readiness) Name() string { return r.name }

func (r readiness) Ping(ctx context.Context) error { return r.ready(ctx) }

// MemberService serves the list member endpoints
type MemberService struct {
	auth    port.Authenticator
	members *service.MemberSyncService
	checker health.Checker
}

// NewMemberService returns the member endpoints backed by members.
// Readiness covers the member store and the provider client.
func NewMemberService(auth port.Authenticator, members *service.MemberSyncService, provider port.ProviderClient) *MemberService {
	return &MemberService{
		auth:    auth,
		members: members,
		checker: health.NewChecker(
			readiness{name: "store", ready: members.IsReady},
			readiness{name: "mailchimp", ready: provider.IsReady},
		),
	}
}

// Mount registers every endpoint on mux
func (s *MemberService) Mount(mux goahttp.Muxer) {
	mux.Handle(http.MethodGet, "/livez", s.Livez)
	mux.Handle(http.MethodGet, "/readyz", health.Handler(s.checker))

	route := func(method, pattern string, h func(http.ResponseWriter, *http.Request, map[string]string)) {
		mux.Handle(method, pattern, s.authenticated(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, mux.Vars(r))
		}))
	}

	route(http.MethodGet, membersPath, s.ListMembers)
	route(http.MethodPost, membersPath, s.CreateMember)
	route(http.MethodGet, memberPath, s.GetMember)
	route(http.MethodPut, memberPath, s.UpdateMember)
	route(http.MethodDelete, memberPath, s.RemoveMember)
	route(http.MethodPost, memberPath+"/actions/delete-permanent", s.DeleteMemberPermanently)
	route(http.MethodPost, memberPath+"/actions/sync", s.SyncMember)
}

// Livez implements the livez endpoint for liveness probes.
func (s *MemberService) Livez(w http.ResponseWriter, r *http.Request) {
	slog.DebugContext(r.Context(), "liveness check completed successfully")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// authenticated parses the Heimdall principal from the bearer token and
// stores it in the request context
func (s *MemberService) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := r.Header.Get(constants.AuthorizationHeader)
		if token == "" {
			s.fail(ctx, w, lfxerrors.NewUnauthorized("authorization token is required"))
			return
		}

		principal, err := s.auth.ParsePrincipal(ctx, token, slog.Default())
		if err != nil {
			s.fail(ctx, w, err)
			return
		}

		ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
		ctx = log.AppendCtx(ctx, slog.String(string(constants.PrincipalContextID), principal))
		next(w, r.WithContext(ctx))
	}
}

// ListMembers returns every member of a list
func (s *MemberService) ListMembers(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.list-members", "list_uid", vars["listId"])

	members, err := s.members.ShowAll(ctx, vars["listId"])
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.respond(ctx, w, http.StatusOK, convertMembersToResponse(members))
}

// GetMember returns one member
func (s *MemberService) GetMember(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.get-member", "list_uid", vars["listId"], "member_uid", vars["subscriberId"])

	member, err := s.members.ShowOne(ctx, vars["listId"], vars["subscriberId"])
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.respond(ctx, w, http.StatusOK, convertMemberToResponse(member))
}

// CreateMember stores a new member and creates it at Mailchimp
func (s *MemberService) CreateMember(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.create-member", "list_uid", vars["listId"])

	payload, err := decodePayload(r)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}

	member, err := s.members.Create(ctx, vars["listId"], payload)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.respond(ctx, w, http.StatusOK, convertMemberToResponse(member))
}

// UpdateMember merges the payload into a member and patches it at Mailchimp.
// Archived members answer 405.
func (s *MemberService) UpdateMember(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.update-member", "list_uid", vars["listId"], "member_uid", vars["subscriberId"])

	payload, err := decodePayload(r)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}

	member, err := s.members.Update(ctx, vars["listId"], vars["subscriberId"], payload)
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.respond(ctx, w, http.StatusOK, convertMemberToResponse(member))
}

// RemoveMember archives a member
func (s *MemberService) RemoveMember(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.remove-member", "list_uid", vars["listId"], "member_uid", vars["subscriberId"])

	if err := s.members.SoftRemove(ctx, vars["listId"], vars["subscriberId"]); err != nil {
		s.fail(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteMemberPermanently deletes a member locally and at Mailchimp
func (s *MemberService) DeleteMemberPermanently(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.delete-member-permanently", "list_uid", vars["listId"], "member_uid", vars["subscriberId"])

	if err := s.members.HardRemove(ctx, vars["listId"], vars["subscriberId"]); err != nil {
		s.fail(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SyncMember replays the Mailchimp call of a member
func (s *MemberService) SyncMember(w http.ResponseWriter, r *http.Request, vars map[string]string) {
	ctx := r.Context()
	slog.DebugContext(ctx, "memberService.sync-member", "list_uid", vars["listId"], "member_uid", vars["subscriberId"])

	member, err := s.members.Resync(ctx, vars["listId"], vars["subscriberId"])
	if err != nil {
		s.fail(ctx, w, err)
		return
	}
	s.respond(ctx, w, http.StatusOK, convertMemberToResponse(member))
}

// decodePayload reads a JSON object body. An empty body is an empty payload.
func decodePayload(r *http.Request) (map[string]any, error) {
	var payload map[string]any
	if err := goahttp.RequestDecoder(r).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, lfxerrors.NewValidation("Invalid data given", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func (s *MemberService) respond(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := goahttp.ResponseEncoder(ctx, w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (s *MemberService) fail(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := wrapError(ctx, err)
	s.respond(ctx, w, status, body)
}

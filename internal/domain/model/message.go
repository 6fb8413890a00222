// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/constants"
)

// MessageAction is the action carried by an indexer message
type MessageAction string

// MessageAction constants
const (
	// ActionCreated is the action for a resource creation message
	ActionCreated MessageAction = "created"
	// ActionUpdated is the action for a resource update message
	ActionUpdated MessageAction = "updated"
	// ActionDeleted is the action for a resource deletion message
	ActionDeleted MessageAction = "deleted"
)

// IndexerMessage is the NATS message sent to the search indexer when a member changes
type IndexerMessage struct {
	Action  MessageAction     `json:"action"`
	Headers map[string]string `json:"headers"`
	Data    any               `json:"data"`
	// Tags is a list of tags to be set on the indexed resource for search
	Tags []string `json:"tags"`
}

// Build fills the headers from ctx and the data from input.
// Created and updated messages carry the resource as an object; deleted
// messages carry only its UID.
func (g *IndexerMessage) Build(ctx context.Context, input any) (*IndexerMessage, error) {
	headers := make(map[string]string)
	if authorization, ok := ctx.Value(constants.AuthorizationContextID).(string); ok {
		headers[constants.AuthorizationHeader] = authorization
	}
	if principal, ok := ctx.Value(constants.PrincipalContextID).(string); ok {
		headers[constants.XOnBehalfOfHeader] = principal
	}
	g.Headers = headers

	var payload any

	switch g.Action {
	case ActionCreated, ActionUpdated:
		data, err := json.Marshal(input)
		if err != nil {
			slog.ErrorContext(ctx, "error marshalling data into JSON", "error", err)
			return nil, err
		}
		var jsonData map[string]any
		if err := json.Unmarshal(data, &jsonData); err != nil {
			slog.ErrorContext(ctx, "error unmarshalling data into JSON", "error", err)
			return nil, err
		}
		payload = jsonData
	case ActionDeleted:
		payload = input
	}

	g.Data = payload
	return g, nil
}

// AccessMessage is the message consumed by the access control sync service
type AccessMessage struct {
	UID string `json:"uid"`
	// ObjectType is the type of the object, e.g. "mailchimp_member"
	ObjectType string `json:"object_type"`
	Public     bool   `json:"public"`
	// Relations is left empty; permissions are inherited through References
	Relations  map[string][]string `json:"relations"`
	References map[string][]string `json:"references"`
}

// NewMemberAccessMessage builds the access message of m. Members inherit
// their permissions from the list they belong to.
func NewMemberAccessMessage(m *Member) *AccessMessage {
	return &AccessMessage{
		UID:        m.UID,
		ObjectType: constants.ResourceTypeMember,
		Public:     false,
		Relations:  map[string][]string{},
		References: map[string][]string{
			constants.RelationList: {m.ListUID},
		},
	}
}

// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-mailchimp-sync-service/pkg/utils"
)

// MemberResponse is the member record returned by the API. Unset fields are
// rendered as null.
type MemberResponse struct {
	ID                   string                      `json:"id"`
	ListID               string                      `json:"list_id"`
	MailChimpID          *string                     `json:"mail_chimp_id"`
	EmailAddress         string                      `json:"email_address"`
	EmailType            *string                     `json:"email_type"`
	Status               string                      `json:"status"`
	MergeFields          map[string]any              `json:"merge_fields"`
	Interests            map[string]bool             `json:"interests"`
	Language             *string                     `json:"language"`
	VIP                  *bool                       `json:"vip"`
	Location             map[string]any              `json:"location"`
	MarketingPermissions []model.MarketingPermission `json:"marketing_permissions"`
	IPSignup             *string                     `json:"ip_signup"`
	TimestampSignup      *string                     `json:"timestamp_signup"`
	IPOpt                *string                     `json:"ip_opt"`
	TimestampOpt         *string                     `json:"timestamp_opt"`
	Tags                 []string                    `json:"tags"`
	CreatedAt            string                      `json:"created_at"`
	UpdatedAt            string                      `json:"updated_at"`
}

func convertMemberToResponse(member *model.Member) *MemberResponse {
	if member == nil {
		return nil
	}

	response := &MemberResponse{
		ID:                   member.UID,
		ListID:               member.ListUID,
		MailChimpID:          member.RemoteID,
		EmailAddress:         member.EmailAddress,
		EmailType:            member.EmailType,
		Status:               string(member.Status),
		MergeFields:          member.MergeFields,
		Interests:            member.Interests,
		Language:             member.Language,
		VIP:                  member.VIP,
		MarketingPermissions: member.MarketingPermissions,
		IPSignup:             member.IPSignup,
		TimestampSignup:      member.TimestampSignup,
		IPOpt:                member.IPOpt,
		TimestampOpt:         member.TimestampOpt,
		Tags:                 member.Tags,
		CreatedAt:            utils.FormatTimestamp(member.CreatedAt),
		UpdatedAt:            utils.FormatTimestamp(member.UpdatedAt),
	}

	if member.Location != nil {
		location := map[string]any{"latitude": nil, "longitude": nil}
		if member.Location.Latitude != nil {
			location["latitude"] = member.Location.Latitude.WireValue()
		}
		if member.Location.Longitude != nil {
			location["longitude"] = member.Location.Longitude.WireValue()
		}
		response.Location = location
	}

	return response
}

func convertMembersToResponse(members []*model.Member) []*MemberResponse {
	responses := make([]*MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, convertMemberToResponse(member))
	}
	return responses
}

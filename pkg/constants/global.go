// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the mailchimp sync service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "mailchimp-sync"
)

// HTTP header constants
const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-Id"

	// AuthorizationHeader is the header carrying the bearer token
	AuthorizationHeader = "authorization"

	// XOnBehalfOfHeader carries the principal in published message headers
	XOnBehalfOfHeader = "x-on-behalf-of"

	// MaxRequestBodyBytes bounds member payloads
	MaxRequestBodyBytes = 1 << 20
)

// Environment variables
const (
	// EnvRepositorySource selects the member store backend
	EnvRepositorySource = "REPOSITORY_SOURCE"
	// EnvMailchimpSource selects the provider client
	EnvMailchimpSource = "MAILCHIMP_SOURCE"
	// EnvPublisherSource selects the message publisher
	EnvPublisherSource = "PUBLISHER_SOURCE"
	// EnvAuthSource selects the authenticator
	EnvAuthSource = "AUTH_SOURCE"
)

// Resource type constants for index and access messages
const (
	// ResourceTypeMember represents a mailchimp list member resource
	ResourceTypeMember = "mailchimp_member"
)

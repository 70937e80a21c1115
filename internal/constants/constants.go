package constants

import "time"

// Session and request context keys
const (
	SessionCookieName   = "project_session"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)

// Pagination
const (
	MinPageSize           = 1
	MaxPageSize           = 100
	DefaultMemberPageSize = 10
	DefaultTaskPageSize   = 20
)

// Accounts
const (
	MinPasswordLength = 8
)

// Invitations
const (
	DefaultInvitationTTL = 7 * 24 * time.Hour
	InvitationTokenType  = "invitation"
)

// Tasks
const (
	// MaxTaskNumberAttempts bounds retries when two creations race for the
	// same task number.
	MaxTaskNumberAttempts = 5
	MaxAIGeneratedTasks   = 20
)

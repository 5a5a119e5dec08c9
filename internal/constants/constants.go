package constants

// Context keys
const (
	ContextKeyUserID     = "user_id"
	ContextKeyActor      = "actor"
	ContextKeyResourceID = "resource_id"
)

// TokenHeader carries the access token on authenticated requests.
const TokenHeader = "x-access-token"

// Credential rules
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	ResetCodeLength   = 6
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Upload categories
const (
	UploadCategoryAttachments   = "attachments"
	UploadCategoryProfileImages = "profiles"
)

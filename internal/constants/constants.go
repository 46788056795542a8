package constants

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyClaims   = "token_claims"
)

// Session
const (
	SessionCookieName    = "board_session"
	SessionKeyOAuthState = "oauth_state"
)

// Users
const (
	MinPasswordLength = 6
	DefaultUserRole   = "member"
	ResetTokenBytes   = 20
	OAuthStateBytes   = 16
)

// Tasks
const (
	DueDateLayout       = "2006-01-02"
	MaxAIGeneratedTasks = 20
)

// DefaultColumnTitles are created by the seed command on an empty board.
var DefaultColumnTitles = []string{"To Do", "In Progress", "Done"}

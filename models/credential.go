package models

import "time"

// CredentialScope separates read-only browsing credentials from the higher-risk
// write credentials used for invitations.
type CredentialScope string

const (
	ScopeRead  CredentialScope = "read"
	ScopeWrite CredentialScope = "write"
)

// Credential is one authenticated session cookie pair for an account and scope.
// It is owned by the session guard and must not be copied into outcome records.
type Credential struct {
	AccountID  string
	Scope      CredentialScope
	Token      string // li_at cookie value
	CSRFToken  string // JSESSIONID cookie value, quotes included as stored
	ObtainedAt time.Time
}

// ActionType is one externally rate-limited action category.
type ActionType string

const (
	ActionConnections  ActionType = "connections"
	ActionMessages     ActionType = "messages"
	ActionInMails      ActionType = "inmails"
	ActionProfileViews ActionType = "profile_views"
)

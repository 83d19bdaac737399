package models

import "time"

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusInactive  AccountStatus = "inactive"
)

type SecurityLevel string

const (
	SecurityStandard SecurityLevel = "standard"
	SecurityElevated SecurityLevel = "elevated"
	SecurityAdmin    SecurityLevel = "admin"
)

// Profile is the local application record for an identity-provider user. The
// provider owns credentials; the profile owns role, status, and organization.
type Profile struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	FullName      string        `json:"full_name"`
	Role          Role          `json:"role"`
	Organization  string        `json:"organization,omitempty"`
	AccountStatus AccountStatus `json:"account_status"`
	SecurityLevel SecurityLevel `json:"security_level"`
	LastLogin     *time.Time    `json:"last_login,omitempty"`
	Created       time.Time     `json:"created_at"`
	Updated       time.Time     `json:"updated_at"`
}

type SecuritySettings struct {
	UserID           string        `json:"user_id"`
	TwoFactorEnabled bool          `json:"two_factor_enabled"`
	TwoFactorMethod  string        `json:"two_factor_method,omitempty"`
	SessionTimeout   time.Duration `json:"session_timeout"`
	IPAllowList      []string      `json:"ip_allowlist,omitempty"`
	Created          time.Time     `json:"created_at"`
	Updated          time.Time     `json:"updated_at"`
}

type Session struct {
	Token        string    `json:"session_token"`
	UserID       string    `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	Created      time.Time `json:"created_at"`
}

// ActivityLogEntry is append-only. It serves both the audit trail and the
// rate limiter's attempt counting.
type ActivityLogEntry struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id,omitempty"`
	ActionType  string            `json:"action_type"`
	Description string            `json:"action_description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Created     time.Time         `json:"created_at"`
}

package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// ParseRole normalizes a role string to the closed set. The legacy
// "operator" role maps to staff; an empty string gets the default.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "operator":
		return RoleStaff, true
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleStaff):
		return RoleStaff, true
	case string(RoleViewer):
		return RoleViewer, true
	default:
		return "", false
	}
}

// MFAState tracks TOTP enrollment. Secret is set only while Enabled is true;
// PendingSecret exists only during an in-progress enrollment.
type MFAState struct {
	Enabled       bool
	Secret        string
	PendingSecret string
}

// OneTimeCode is the transient email login code. Cleared on successful
// verification or on the first check past ExpiresAt.
type OneTimeCode struct {
	Code      string
	ExpiresAt time.Time
}

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         Role         `json:"role"`
	Active       bool         `json:"active"`
	MFA          MFAState     `json:"-"`
	OTP          *OneTimeCode `json:"-"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

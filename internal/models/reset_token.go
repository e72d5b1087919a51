package models

import "time"

// PasswordResetToken is a single-use reset capability. Consuming it or
// detecting expiry deletes the row; it can never be redeemed twice.
type PasswordResetToken struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

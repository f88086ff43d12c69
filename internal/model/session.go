package model

import "time"

// Session is a server-side login session referenced by a cookie token.
type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Verification code purposes.
const (
	PurposeRegister = "register"
	PurposeLogin    = "login"
)

// VerificationCode is a short-lived emailed code proving address ownership.
type VerificationCode struct {
	ID        int64      `json:"id"`
	Code      string     `json:"-"`
	Email     string     `json:"email"`
	Purpose   string     `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
}

// Valid reports whether the code can still be redeemed.
func (v *VerificationCode) Valid() bool {
	return v.UsedAt == nil && time.Now().Before(v.ExpiresAt) && v.Attempts < 5
}

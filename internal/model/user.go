package model

import "time"

// User is an account holder. PasswordHash is never serialized.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	ReminderHour *int       `json:"reminder_hour,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Verified reports whether the account has completed email verification.
func (u *User) Verified() bool {
	return u.VerifiedAt != nil
}

package model

import "time"

// Habit frequency values. Frequency is informational; the streak
// arithmetic always works on consecutive calendar days.
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyWeekdays = "weekdays"
	FrequencyCustom   = "custom"
)

// ValidFrequency reports whether f is a recognized habit frequency.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyWeekdays, FrequencyCustom:
		return true
	}
	return false
}

// Habit is a recurring practice a user tracks with daily check-ins.
// The streak counters are denormalized onto the row and updated in the
// same transaction as each check-in insert.
type Habit struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Frequency     string     `json:"frequency"`
	Target        string     `json:"target"`
	Icon          string     `json:"icon"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	TotalCheckIns int        `json:"total_checkins"`
	LastCheckInAt *time.Time `json:"last_checkin_at,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// CheckedToday is filled by list/read queries, not stored.
	CheckedToday bool `json:"checked_today"`
}

package model

import "time"

// DateLayout is the calendar-date format used everywhere check-in dates
// are stored or compared. All dates are UTC.
const DateLayout = "2006-01-02"

// CheckIn records that a habit was completed on one calendar date.
type CheckIn struct {
	ID        int64     `json:"id"`
	HabitID   int64     `json:"habit_id"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

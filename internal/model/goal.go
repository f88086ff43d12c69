package model

import "time"

// Goal type values.
const (
	GoalTypeCount    = "count"
	GoalTypeStreak   = "streak"
	GoalTypeDuration = "duration"
)

// ValidGoalType reports whether t is a recognized goal type.
func ValidGoalType(t string) bool {
	switch t {
	case GoalTypeCount, GoalTypeStreak, GoalTypeDuration:
		return true
	}
	return false
}

// Goal is a longer-horizon target, optionally linked to a habit.
type Goal struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Type          string     `json:"type"`
	Icon          string     `json:"icon"`
	Category      string     `json:"category"`
	TargetValue   int        `json:"target_value"`
	CurrentValue  int        `json:"current_value"`
	Unit          string     `json:"unit"`
	StartDate     *string    `json:"start_date,omitempty"`
	Deadline      *string    `json:"deadline,omitempty"`
	LinkedHabitID *int64     `json:"linked_habit_id,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProgressPercent returns completion as a whole percentage, capped at 100.
func (g *Goal) ProgressPercent() int {
	if g.TargetValue <= 0 {
		return 0
	}
	p := g.CurrentValue * 100 / g.TargetValue
	if p > 100 {
		p = 100
	}
	return p
}

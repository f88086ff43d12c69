package store

import (
	"database/sql"
	"fmt"

	"github.com/cadencehq/cadence/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	var startDate, deadline sql.NullString
	var linkedHabitID sql.NullInt64
	var completedAt sql.NullTime

	err := scanner.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.Type, &g.Icon,
		&g.Category, &g.TargetValue, &g.CurrentValue, &g.Unit,
		&startDate, &deadline, &linkedHabitID, &g.Completed, &completedAt,
		&g.Active, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startDate.Valid {
		g.StartDate = &startDate.String
	}
	if deadline.Valid {
		g.Deadline = &deadline.String
	}
	if linkedHabitID.Valid {
		g.LinkedHabitID = &linkedHabitID.Int64
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Time
	}
	return &g, nil
}

const goalCols = `id, user_id, title, description, type, icon, category, target_value,
	current_value, unit, start_date, deadline, linked_habit_id, completed,
	completed_at, active, created_at, updated_at`

func (s *GoalStore) Create(g *model.Goal) (*model.Goal, error) {
	var linked sql.NullInt64
	if g.LinkedHabitID != nil {
		linked = sql.NullInt64{Int64: *g.LinkedHabitID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO goals (user_id, title, description, type, icon, category, target_value, current_value, unit, start_date, deadline, linked_habit_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Description, g.Type, g.Icon, g.Category,
		g.TargetValue, g.CurrentValue, g.Unit, g.StartDate, g.Deadline, linked,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, g.UserID)
}

// GetByID returns the goal, or nil when it does not exist or belongs to
// someone else.
func (s *GoalStore) GetByID(id, userID int64) (*model.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListActiveByUser(userID int64) ([]model.Goal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM goals WHERE user_id = ? AND active = 1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) Update(g *model.Goal) (*model.Goal, error) {
	var linked sql.NullInt64
	if g.LinkedHabitID != nil {
		linked = sql.NullInt64{Int64: *g.LinkedHabitID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE goals SET title = ?, description = ?, type = ?, icon = ?, category = ?, target_value = ?, unit = ?, start_date = ?, deadline = ?, linked_habit_id = ?, updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.Description, g.Type, g.Icon, g.Category, g.TargetValue,
		g.Unit, g.StartDate, g.Deadline, linked, g.ID, g.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.GetByID(g.ID, g.UserID)
}

// SetProgress sets current_value and stamps completion the first time the
// target is reached. Reaching the target again later does not re-stamp.
func (s *GoalStore) SetProgress(id, userID int64, value int) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET current_value = ?,
		 completed = CASE WHEN ? >= target_value THEN 1 ELSE completed END,
		 completed_at = CASE WHEN ? >= target_value AND completed_at IS NULL THEN datetime('now') ELSE completed_at END,
		 updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		value, value, value, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("set goal progress: %w", err)
	}
	return s.GetByID(id, userID)
}

// Increment bumps current_value by one with the same completion stamping
// as SetProgress.
func (s *GoalStore) Increment(id, userID int64) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET current_value = current_value + 1,
		 completed = CASE WHEN current_value + 1 >= target_value THEN 1 ELSE completed END,
		 completed_at = CASE WHEN current_value + 1 >= target_value AND completed_at IS NULL THEN datetime('now') ELSE completed_at END,
		 updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment goal: %w", err)
	}
	return s.GetByID(id, userID)
}

// Archive soft-deletes a goal.
func (s *GoalStore) Archive(id, userID int64) error {
	_, err := s.db.Exec(
		`UPDATE goals SET active = 0, updated_at = datetime('now') WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("archive goal: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cadencehq/cadence/internal/model"
)

type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	var lastCheckIn sql.NullTime
	var checkedToday int

	err := scanner.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency, &h.Target,
		&h.Icon, &h.CurrentStreak, &h.LongestStreak, &h.TotalCheckIns,
		&lastCheckIn, &h.Active, &h.CreatedAt, &h.UpdatedAt, &checkedToday,
	)
	if err != nil {
		return nil, err
	}

	if lastCheckIn.Valid {
		h.LastCheckInAt = &lastCheckIn.Time
	}
	h.CheckedToday = checkedToday == 1
	return &h, nil
}

// habitCols selects the habit row plus a checked-on-date flag. Queries
// using it bind the date as the first parameter.
const habitCols = `h.id, h.user_id, h.name, h.description, h.frequency, h.target,
	h.icon, h.current_streak, h.longest_streak, h.total_checkins,
	h.last_checkin_at, h.active, h.created_at, h.updated_at,
	EXISTS(SELECT 1 FROM checkins c WHERE c.habit_id = h.id AND c.checkin_date = ?)`

func (s *HabitStore) Create(userID int64, name, description, frequency, target, icon, today string) (*model.Habit, error) {
	result, err := s.db.Exec(
		`INSERT INTO habits (user_id, name, description, frequency, target, icon) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, description, frequency, target, icon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, userID, today)
}

// GetByID returns the habit, or nil when it does not exist or belongs to
// someone else.
func (s *HabitStore) GetByID(id, userID int64, today string) (*model.Habit, error) {
	row := s.db.QueryRow(
		`SELECT `+habitCols+` FROM habits h WHERE h.id = ? AND h.user_id = ?`,
		today, id, userID,
	)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s *HabitStore) ListActiveByUser(userID int64, today string) ([]model.Habit, error) {
	rows, err := s.db.Query(
		`SELECT `+habitCols+` FROM habits h WHERE h.user_id = ? AND h.active = 1 ORDER BY h.created_at, h.id`,
		today, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func (s *HabitStore) Update(id, userID int64, name, description, frequency, target, icon, today string) (*model.Habit, error) {
	_, err := s.db.Exec(
		`UPDATE habits SET name = ?, description = ?, frequency = ?, target = ?, icon = ?, updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		name, description, frequency, target, icon, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return s.GetByID(id, userID, today)
}

// Archive soft-deletes a habit. Its history and counters are kept.
func (s *HabitStore) Archive(id, userID int64) error {
	_, err := s.db.Exec(
		`UPDATE habits SET active = 0, updated_at = datetime('now') WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("archive habit: %w", err)
	}
	return nil
}

// CountByUser counts all of a user's habits, archived included.
func (s *HabitStore) CountByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return count, nil
}

func (s *HabitStore) CountActiveByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE user_id = ? AND active = 1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active habits: %w", err)
	}
	return count, nil
}

// TopByStreak returns the user's active habits ordered by current streak.
func (s *HabitStore) TopByStreak(userID int64, limit int, today string) ([]model.Habit, error) {
	rows, err := s.db.Query(
		`SELECT `+habitCols+` FROM habits h WHERE h.user_id = ? AND h.active = 1
		 ORDER BY h.current_streak DESC, h.id LIMIT ?`,
		today, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top habits by streak: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// CheckIn records a completion for the given calendar date and updates the
// streak counters in the same transaction. The second return value is true
// when the habit was already checked in on that date; the habit state is
// returned unchanged in that case. Returns (nil, false, nil) when the habit
// does not exist, is archived, or belongs to another user.
//
// Continuity only looks at the previous calendar day: a check-in after a
// gap restarts the streak at 1. Counters are otherwise left stale until
// the next check-in rewrites them.
func (s *HabitStore) CheckIn(habitID, userID int64, date time.Time, notes string) (*model.Habit, bool, error) {
	date = date.UTC()
	day := date.Format(model.DateLayout)
	prevDay := date.AddDate(0, 0, -1).Format(model.DateLayout)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin checkin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT `+habitCols+` FROM habits h WHERE h.id = ? AND h.user_id = ? AND h.active = 1`,
		day, habitID, userID,
	)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get habit for checkin: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO checkins (habit_id, checkin_date, notes) VALUES (?, ?, ?)`,
		habitID, day, notes,
	)
	if err != nil {
		// The unique index is the arbiter under concurrency: the loser
		// reports the day as already recorded.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			h.CheckedToday = true
			return h, true, nil
		}
		return nil, false, fmt.Errorf("insert checkin: %w", err)
	}

	var prevExists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM checkins WHERE habit_id = ? AND checkin_date = ?)`,
		habitID, prevDay,
	).Scan(&prevExists)
	if err != nil {
		return nil, false, fmt.Errorf("check previous day: %w", err)
	}

	streak := 1
	if prevExists {
		streak = h.CurrentStreak + 1
	}
	longest := h.LongestStreak
	if streak > longest {
		longest = streak
	}

	_, err = tx.Exec(
		`UPDATE habits SET current_streak = ?, longest_streak = ?, total_checkins = total_checkins + 1,
		 last_checkin_at = ?, updated_at = datetime('now') WHERE id = ?`,
		streak, longest, date, habitID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit checkin tx: %w", err)
	}

	updated, err := s.GetByID(habitID, userID, day)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}

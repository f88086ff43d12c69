package store

import (
	"database/sql"
	"fmt"

	"github.com/cadencehq/cadence/internal/model"
)

// CheckInStore reads the check-in ledger. Writes happen only through
// HabitStore.CheckIn so the streak counters never drift from the ledger.
type CheckInStore struct {
	db *sql.DB
}

func NewCheckInStore(db *sql.DB) *CheckInStore {
	return &CheckInStore{db: db}
}

func scanCheckIn(scanner interface{ Scan(...any) error }) (*model.CheckIn, error) {
	var c model.CheckIn
	err := scanner.Scan(&c.ID, &c.HabitID, &c.Date, &c.Completed, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CheckInStore) Exists(habitID int64, date string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM checkins WHERE habit_id = ? AND checkin_date = ?)`,
		habitID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checkin exists: %w", err)
	}
	return exists, nil
}

// DatesInRange returns a habit's check-in dates in [start, end], ascending.
func (s *CheckInStore) DatesInRange(habitID int64, start, end string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT checkin_date FROM checkins WHERE habit_id = ? AND checkin_date BETWEEN ? AND ? ORDER BY checkin_date`,
		habitID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("checkin dates in range: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

// UserDatesInRange returns the distinct dates on which the user checked in
// any active habit, ascending.
func (s *CheckInStore) UserDatesInRange(userID int64, start, end string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT c.checkin_date FROM checkins c
		 JOIN habits h ON h.id = c.habit_id
		 WHERE h.user_id = ? AND h.active = 1 AND c.checkin_date BETWEEN ? AND ?
		 ORDER BY c.checkin_date`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("user checkin dates: %w", err)
	}
	defer rows.Close()
	return scanDates(rows)
}

// CountsByDate returns, for each date in [start, end] with activity, how
// many of the user's active habits were checked in.
func (s *CheckInStore) CountsByDate(userID int64, start, end string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT c.checkin_date, COUNT(*) FROM checkins c
		 JOIN habits h ON h.id = c.habit_id
		 WHERE h.user_id = ? AND h.active = 1 AND c.checkin_date BETWEEN ? AND ?
		 GROUP BY c.checkin_date`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("checkin counts by date: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var date string
		var n int
		if err := rows.Scan(&date, &n); err != nil {
			return nil, fmt.Errorf("scan date count: %w", err)
		}
		counts[date] = n
	}
	return counts, rows.Err()
}

// CountsByHabit returns per-habit check-in counts over [start, end] for the
// user's active habits.
func (s *CheckInStore) CountsByHabit(userID int64, start, end string) (map[int64]int, error) {
	rows, err := s.db.Query(
		`SELECT c.habit_id, COUNT(*) FROM checkins c
		 JOIN habits h ON h.id = c.habit_id
		 WHERE h.user_id = ? AND h.active = 1 AND c.checkin_date BETWEEN ? AND ?
		 GROUP BY c.habit_id`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("checkin counts by habit: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var habitID int64
		var n int
		if err := rows.Scan(&habitID, &n); err != nil {
			return nil, fmt.Errorf("scan habit count: %w", err)
		}
		counts[habitID] = n
	}
	return counts, rows.Err()
}

// History returns a habit's check-ins in [start, end], newest first. The
// habit must belong to the user.
func (s *CheckInStore) History(habitID, userID int64, start, end string) ([]model.CheckIn, error) {
	rows, err := s.db.Query(
		`SELECT `+checkInColsPrefixed+` FROM checkins c
		 JOIN habits h ON h.id = c.habit_id
		 WHERE c.habit_id = ? AND h.user_id = ? AND c.checkin_date BETWEEN ? AND ?
		 ORDER BY c.checkin_date DESC`,
		habitID, userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("checkin history: %w", err)
	}
	defer rows.Close()

	var checkins []model.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}

const checkInColsPrefixed = `c.id, c.habit_id, c.checkin_date, c.completed, c.notes, c.created_at`

// CountForUser counts every check-in across all of the user's habits,
// archived included.
func (s *CheckInStore) CountForUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM checkins c JOIN habits h ON h.id = c.habit_id WHERE h.user_id = ?`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count user checkins: %w", err)
	}
	return count, nil
}

func scanDates(rows *sql.Rows) ([]string, error) {
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

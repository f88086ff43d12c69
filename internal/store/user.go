package store

import (
	"database/sql"
	"fmt"

	"github.com/cadencehq/cadence/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var verifiedAt sql.NullTime
	var reminderHour sql.NullInt64

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &verifiedAt,
		&reminderHour, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifiedAt.Valid {
		u.VerifiedAt = &verifiedAt.Time
	}
	if reminderHour.Valid {
		h := int(reminderHour.Int64)
		u.ReminderHour = &h
	}
	return &u, nil
}

const userCols = `id, email, name, password_hash, verified_at, reminder_hour, created_at, updated_at`

func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
		email, name, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateName(id int64, name string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, updated_at = datetime('now') WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) MarkVerified(id int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET verified_at = datetime('now'), updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	return nil
}

// SetReminderHour sets the daily reminder hour (0-23 UTC), or clears it
// when hour is nil.
func (s *UserStore) SetReminderHour(id int64, hour *int) error {
	var h sql.NullInt64
	if hour != nil {
		h = sql.NullInt64{Int64: int64(*hour), Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE users SET reminder_hour = ?, updated_at = datetime('now') WHERE id = ?`,
		h, id,
	)
	if err != nil {
		return fmt.Errorf("set reminder hour: %w", err)
	}
	return nil
}

// ListByReminderHour returns verified users whose reminder hour matches.
func (s *UserStore) ListByReminderHour(hour int) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE reminder_hour = ? AND verified_at IS NOT NULL`,
		hour,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by reminder hour: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

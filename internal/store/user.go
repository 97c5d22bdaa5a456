package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Pace, &u.PreferredWorkTime, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, pace, preferred_work_time, created_at, updated_at`

// Create inserts a user together with an empty reward profile.
func (s *UserStore) Create(email string, name, pace, preferredWorkTime *string) (*model.User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := newID()
	now := timestamp()
	_, err = tx.Exec(
		`INSERT INTO users (id, email, name, pace, preferred_work_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, email, name, pace, preferredWorkTime, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO reward_profiles (id, user_id, tree_stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		newID(), id, string(reward.TierSeed), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
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
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update applies the non-nil fields of upd. Returns nil if the user does not exist.
func (s *UserStore) Update(id string, upd model.UserUpdate) (*model.User, error) {
	u, err := s.GetByID(id)
	if err != nil || u == nil {
		return nil, err
	}

	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = upd.Name
	}
	if upd.Pace != nil {
		u.Pace = upd.Pace
	}
	if upd.PreferredWorkTime != nil {
		u.PreferredWorkTime = upd.PreferredWorkTime
	}

	_, err = s.db.Exec(
		`UPDATE users SET email = ?, name = ?, pace = ?, preferred_work_time = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.Name, u.Pace, u.PreferredWorkTime, timestamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a user and, through cascading keys, everything they own.
func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/neuri/internal/model"
)

type RoutineStore struct {
	db *sql.DB
}

func NewRoutineStore(db *sql.DB) *RoutineStore {
	return &RoutineStore{db: db}
}

func scanRoutine(s scanner) (*model.Routine, error) {
	var r model.Routine
	err := s.Scan(&r.ID, &r.UserID, &r.CategoryID, &r.Title, &r.Schedule, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const routineCols = `id, user_id, category_id, title, schedule, created_at, updated_at`

func (s *RoutineStore) Create(userID string, categoryID *string, title string, schedule *string) (*model.Routine, error) {
	id := newID()
	now := timestamp()
	_, err := s.db.Exec(
		`INSERT INTO routines (id, user_id, category_id, title, schedule, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, categoryID, title, schedule, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert routine: %w", err)
	}
	return s.GetByID(id)
}

func (s *RoutineStore) GetByID(id string) (*model.Routine, error) {
	row := s.db.QueryRow(`SELECT `+routineCols+` FROM routines WHERE id = ?`, id)
	r, err := scanRoutine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return r, nil
}

func (s *RoutineStore) list(query string, args ...any) ([]model.Routine, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	routines := []model.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, *r)
	}
	return routines, rows.Err()
}

func (s *RoutineStore) ListByUser(userID string) ([]model.Routine, error) {
	return s.list(`SELECT `+routineCols+` FROM routines WHERE user_id = ? ORDER BY title ASC`, userID)
}

func (s *RoutineStore) ListByCategory(categoryID string) ([]model.Routine, error) {
	return s.list(`SELECT `+routineCols+` FROM routines WHERE category_id = ? ORDER BY title ASC`, categoryID)
}

// ListAll returns every routine that has a schedule.
func (s *RoutineStore) ListAll() ([]model.Routine, error) {
	return s.list(`SELECT ` + routineCols + ` FROM routines WHERE schedule IS NOT NULL AND schedule != '' ORDER BY user_id, title`)
}

// Update applies the non-nil fields of upd. Returns nil if the routine does not exist.
func (s *RoutineStore) Update(id string, upd model.RoutineUpdate) (*model.Routine, error) {
	r, err := s.GetByID(id)
	if err != nil || r == nil {
		return nil, err
	}

	if upd.CategoryID != nil {
		r.CategoryID = upd.CategoryID
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Schedule != nil {
		r.Schedule = upd.Schedule
	}

	_, err = s.db.Exec(
		`UPDATE routines SET category_id = ?, title = ?, schedule = ?, updated_at = ? WHERE id = ?`,
		r.CategoryID, r.Title, r.Schedule, timestamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	return s.GetByID(id)
}

func (s *RoutineStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	return nil
}

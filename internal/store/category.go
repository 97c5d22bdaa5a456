package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/neuri/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func scanCategory(s scanner) (*model.Category, error) {
	var c model.Category
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const categoryCols = `id, user_id, name, created_at, updated_at`

func (s *CategoryStore) Create(userID, name string) (*model.Category, error) {
	id := newID()
	now := timestamp()
	_, err := s.db.Exec(
		`INSERT INTO categories (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetByID(id)
}

func (s *CategoryStore) GetByID(id string) (*model.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetByName matches the name case-insensitively within a user's categories.
func (s *CategoryStore) GetByName(userID, name string) (*model.Category, error) {
	row := s.db.QueryRow(
		`SELECT `+categoryCols+` FROM categories WHERE user_id = ? AND name = ? COLLATE NOCASE`,
		userID, name,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

// GetOrCreate returns the user's category with the given name, creating it
// when absent. The boolean reports whether a new row was inserted.
func (s *CategoryStore) GetOrCreate(userID, name string) (*model.Category, bool, error) {
	c, err := s.GetByName(userID, name)
	if err != nil {
		return nil, false, err
	}
	if c != nil {
		return c, false, nil
	}
	c, err = s.Create(userID, name)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *CategoryStore) ListByUser(userID string) ([]model.Category, error) {
	rows, err := s.db.Query(`SELECT `+categoryCols+` FROM categories WHERE user_id = ? ORDER BY name COLLATE NOCASE ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) Update(id, name string) (*model.Category, error) {
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, updated_at = ? WHERE id = ?`,
		name, timestamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id)
}

func (s *CategoryStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

package model

import "time"

// Routine is a recurring template. Schedule holds the raw stored schedule
// exactly as the client sent it; see package schedule for its formats.
type Routine struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CategoryID *string   `json:"category_id"`
	Title      string    `json:"title"`
	Schedule   *string   `json:"schedule"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RoutineUpdate struct {
	CategoryID *string `json:"category_id"`
	Title      *string `json:"title"`
	Schedule   *string `json:"schedule"`
}

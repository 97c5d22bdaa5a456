package model

import "time"

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              *string   `json:"name"`
	Pace              *string   `json:"pace"`
	PreferredWorkTime *string   `json:"preferred_work_time"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserUpdate carries a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Email             *string `json:"email"`
	Name              *string `json:"name"`
	Pace              *string `json:"pace"`
	PreferredWorkTime *string `json:"preferred_work_time"`
}

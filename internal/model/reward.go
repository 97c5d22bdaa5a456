package model

import "time"

// RewardProfile is the per-user gamification state. Tier is derived from
// Points and is recomputed on every write.
type RewardProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Points         int       `json:"points"`
	Streak         int       `json:"streak"`
	TotalTasksDone int       `json:"total_tasks_done"`
	Tier           string    `json:"tree_stage"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

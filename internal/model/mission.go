package model

import "time"

type MissionType string

const (
	MissionTask     MissionType = "task"
	MissionProject  MissionType = "project"
	MissionReminder MissionType = "reminder"
	MissionNote     MissionType = "note"
)

// Valid reports whether t is one of the stored mission types.
func (t MissionType) Valid() bool {
	switch t {
	case MissionTask, MissionProject, MissionReminder, MissionNote:
		return true
	}
	return false
}

type Mission struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	CategoryID       *string     `json:"category_id"`
	ParentProjectID  *string     `json:"parent_project_id"`
	ParentRoutineID  *string     `json:"parent_routine_id"`
	Title            string      `json:"title"`
	Type             MissionType `json:"type"`
	Body             *string     `json:"body"`
	TrueDeadline     *time.Time  `json:"true_deadline"`
	PersonalDeadline *time.Time  `json:"personal_deadline"`
	RecurrenceRule   *string     `json:"recurrence_rule"`
	IsComplete       bool        `json:"is_complete"`
	CompletedAt      *time.Time  `json:"completed_at"`
	Heaviness        *int        `json:"heaviness"`
	Priority         *int        `json:"priority"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// Deadline returns the personal deadline if set, otherwise the true deadline.
func (m Mission) Deadline() *time.Time {
	if m.PersonalDeadline != nil {
		return m.PersonalDeadline
	}
	return m.TrueDeadline
}

// IsSubtask reports whether the mission was broken out of a project.
func (m Mission) IsSubtask() bool {
	return m.ParentProjectID != nil
}

// MissionUpdate carries a partial update; nil fields are left unchanged.
type MissionUpdate struct {
	Title            *string      `json:"title"`
	Type             *MissionType `json:"type"`
	CategoryID       *string      `json:"category_id"`
	ParentProjectID  *string      `json:"parent_project_id"`
	ParentRoutineID  *string      `json:"parent_routine_id"`
	Body             *string      `json:"body"`
	TrueDeadline     *time.Time   `json:"true_deadline"`
	PersonalDeadline *time.Time   `json:"personal_deadline"`
	RecurrenceRule   *string      `json:"recurrence_rule"`
	IsComplete       *bool        `json:"is_complete"`
	Heaviness        *int         `json:"heaviness"`
	Priority         *int         `json:"priority"`
}

type MissionStats struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	ByType     map[string]int `json:"by_type"`
	ByCategory map[string]int `json:"by_category"`
}

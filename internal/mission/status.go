package mission

import (
	"time"

	"github.com/dukerupert/neuri/internal/model"
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusDueToday   Status = "due_today"
	StatusPending    Status = "pending"
	StatusNoDeadline Status = "no_deadline"
)

// Missions at or above these levels are flagged for the user's attention.
const (
	HeavyThreshold        = 7
	HighPriorityThreshold = 7
)

// WithStatus is a mission decorated with its derived status.
type WithStatus struct {
	model.Mission
	Status Status `json:"status"`
}

// ComputeStatus determines a mission's status at now, using loc to decide
// which calendar day "today" is.
func ComputeStatus(m model.Mission, now time.Time, loc *time.Location) Status {
	if m.IsComplete {
		return StatusCompleted
	}

	deadline := m.Deadline()
	if deadline == nil {
		return StatusNoDeadline
	}

	_, tomorrow := DayBounds(now, loc)
	switch {
	case deadline.Before(now):
		return StatusOverdue
	case deadline.Before(tomorrow):
		return StatusDueToday
	}
	return StatusPending
}

// Decorate attaches statuses to a list of missions. The result is never nil.
func Decorate(missions []model.Mission, now time.Time, loc *time.Location) []WithStatus {
	out := make([]WithStatus, 0, len(missions))
	for _, m := range missions {
		out = append(out, WithStatus{Mission: m, Status: ComputeStatus(m, now, loc)})
	}
	return out
}

// IsHeavy reports whether a pending mission might need breaking down.
func IsHeavy(m model.Mission) bool {
	return !m.IsComplete && m.Heaviness != nil && *m.Heaviness >= HeavyThreshold
}

// IsHighPriority reports whether a pending mission is high priority.
func IsHighPriority(m model.Mission) bool {
	return !m.IsComplete && m.Priority != nil && *m.Priority >= HighPriorityThreshold
}

// DayBounds returns midnight of now's date in loc and the following midnight.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

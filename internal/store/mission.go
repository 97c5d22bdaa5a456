package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/schedule"
)

type MissionStore struct {
	db *sql.DB
}

func NewMissionStore(db *sql.DB) *MissionStore {
	return &MissionStore{db: db}
}

func scanMission(s scanner) (*model.Mission, error) {
	var m model.Mission
	var complete int
	err := s.Scan(
		&m.ID, &m.UserID, &m.CategoryID, &m.ParentProjectID, &m.ParentRoutineID,
		&m.Title, &m.Type, &m.Body, &m.TrueDeadline, &m.PersonalDeadline,
		&m.RecurrenceRule, &complete, &m.CompletedAt, &m.Heaviness, &m.Priority,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.IsComplete = complete != 0
	return &m, nil
}

const missionCols = `id, user_id, category_id, parent_project_id, parent_routine_id, title, type, body, true_deadline, personal_deadline, recurrence_rule, is_complete, completed_at, heaviness, priority, created_at, updated_at`

const effectiveDeadline = `COALESCE(personal_deadline, true_deadline)`

const missionOrder = ` ORDER BY ` + effectiveDeadline + ` IS NULL, ` + effectiveDeadline + ` ASC, created_at ASC`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertMission(db execer, m model.Mission) (string, error) {
	id := newID()
	now := timestamp()
	if m.Type == "" {
		m.Type = model.MissionTask
	}
	var completedAt *time.Time
	if m.IsComplete {
		completedAt = &now
	}
	_, err := db.Exec(
		`INSERT INTO missions (`+missionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, m.UserID, m.CategoryID, m.ParentProjectID, m.ParentRoutineID,
		m.Title, string(m.Type), m.Body, utc(m.TrueDeadline), utc(m.PersonalDeadline),
		m.RecurrenceRule, boolInt(m.IsComplete), completedAt, m.Heaviness, m.Priority,
		now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert mission: %w", err)
	}
	return id, nil
}

// Create inserts m. ID and timestamps are assigned; an empty type means task.
func (s *MissionStore) Create(m model.Mission) (*model.Mission, error) {
	id, err := insertMission(s.db, m)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *MissionStore) GetByID(id string) (*model.Mission, error) {
	row := s.db.QueryRow(`SELECT `+missionCols+` FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

// Update applies the non-nil fields of upd. Returns nil if the mission does not exist.
func (s *MissionStore) Update(id string, upd model.MissionUpdate) (*model.Mission, error) {
	m, err := s.GetByID(id)
	if err != nil || m == nil {
		return nil, err
	}

	if upd.Title != nil {
		m.Title = *upd.Title
	}
	if upd.Type != nil {
		m.Type = *upd.Type
	}
	if upd.CategoryID != nil {
		m.CategoryID = upd.CategoryID
	}
	if upd.ParentProjectID != nil {
		m.ParentProjectID = upd.ParentProjectID
	}
	if upd.ParentRoutineID != nil {
		m.ParentRoutineID = upd.ParentRoutineID
	}
	if upd.Body != nil {
		m.Body = upd.Body
	}
	if upd.TrueDeadline != nil {
		m.TrueDeadline = upd.TrueDeadline
	}
	if upd.PersonalDeadline != nil {
		m.PersonalDeadline = upd.PersonalDeadline
	}
	if upd.RecurrenceRule != nil {
		m.RecurrenceRule = upd.RecurrenceRule
	}
	if upd.Heaviness != nil {
		m.Heaviness = upd.Heaviness
	}
	if upd.Priority != nil {
		m.Priority = upd.Priority
	}
	now := timestamp()
	if upd.IsComplete != nil && *upd.IsComplete != m.IsComplete {
		m.IsComplete = *upd.IsComplete
		m.CompletedAt = nil
		if m.IsComplete {
			m.CompletedAt = &now
		}
	}

	_, err = s.db.Exec(
		`UPDATE missions SET category_id = ?, parent_project_id = ?, parent_routine_id = ?, title = ?, type = ?,
			body = ?, true_deadline = ?, personal_deadline = ?, recurrence_rule = ?, is_complete = ?,
			completed_at = ?, heaviness = ?, priority = ?, updated_at = ?
		WHERE id = ?`,
		m.CategoryID, m.ParentProjectID, m.ParentRoutineID, m.Title, string(m.Type),
		m.Body, utc(m.TrueDeadline), utc(m.PersonalDeadline), m.RecurrenceRule, boolInt(m.IsComplete),
		m.CompletedAt, m.Heaviness, m.Priority, now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update mission: %w", err)
	}
	return s.GetByID(id)
}

func (s *MissionStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM missions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	return nil
}

func (s *MissionStore) list(query string, args ...any) ([]model.Mission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	missions := []model.Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

func (s *MissionStore) ListByUser(userID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE user_id = ?`+missionOrder, userID)
}

func (s *MissionStore) ListByCategory(categoryID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE category_id = ?`+missionOrder, categoryID)
}

func (s *MissionStore) ListByType(userID string, kind model.MissionType) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE user_id = ? AND type = ?`+missionOrder, userID, string(kind))
}

// ListSubtasks returns the missions broken out of a project, oldest first.
func (s *MissionStore) ListSubtasks(projectID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE parent_project_id = ? ORDER BY created_at ASC, title ASC`, projectID)
}

func (s *MissionStore) ListByRoutine(routineID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE parent_routine_id = ?`+missionOrder, routineID)
}

func (s *MissionStore) ListCompleted(userID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE user_id = ? AND is_complete = 1 ORDER BY completed_at DESC`, userID)
}

func (s *MissionStore) ListPending(userID string) ([]model.Mission, error) {
	return s.list(`SELECT `+missionCols+` FROM missions WHERE user_id = ? AND is_complete = 0`+missionOrder, userID)
}

// ListDueBetween returns pending missions whose effective deadline falls in [from, to).
func (s *MissionStore) ListDueBetween(userID string, from, to time.Time) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions
		WHERE user_id = ? AND is_complete = 0 AND `+effectiveDeadline+` >= ? AND `+effectiveDeadline+` < ?`+missionOrder,
		userID, from.UTC(), to.UTC(),
	)
}

// ListOverdue returns pending missions whose effective deadline is before now.
func (s *MissionStore) ListOverdue(userID string, now time.Time) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions
		WHERE user_id = ? AND is_complete = 0 AND `+effectiveDeadline+` < ?`+missionOrder,
		userID, now.UTC(),
	)
}

// ListHighPriority returns pending missions with priority at or above min, highest first.
func (s *MissionStore) ListHighPriority(userID string, min int) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions
		WHERE user_id = ? AND is_complete = 0 AND priority >= ?
		ORDER BY priority DESC, created_at ASC`,
		userID, min,
	)
}

// ListHeavy returns pending missions with heaviness at or above min, heaviest first.
func (s *MissionStore) ListHeavy(userID string, min int) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions
		WHERE user_id = ? AND is_complete = 0 AND heaviness >= ?
		ORDER BY heaviness DESC, created_at ASC`,
		userID, min,
	)
}

// Search matches titles containing q, ignoring ASCII case.
func (s *MissionStore) Search(userID, q string) ([]model.Mission, error) {
	pattern := "%" + escapeLike(q) + "%"
	return s.list(
		`SELECT `+missionCols+` FROM missions WHERE user_id = ? AND title LIKE ? ESCAPE '\'`+missionOrder,
		userID, pattern,
	)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListRecent returns missions created at or after since, newest first.
func (s *MissionStore) ListRecent(userID string, since time.Time) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`,
		userID, since.UTC().Truncate(time.Second),
	)
}

func markComplete(db execer, id string) (bool, error) {
	result, err := db.Exec(
		`UPDATE missions SET is_complete = 1, completed_at = ?, updated_at = ? WHERE id = ? AND is_complete = 0`,
		timestamp(), timestamp(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark mission complete: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkComplete flags a mission complete. It reports false when the mission
// was already complete or does not exist.
func (s *MissionStore) MarkComplete(id string) (bool, error) {
	return markComplete(s.db, id)
}

// CreateSubtasks breaks a project into task missions, one per title. Blank
// titles are skipped. Subtasks inherit the project's owner and category.
func (s *MissionStore) CreateSubtasks(project model.Mission, titles []string) ([]model.Mission, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	for _, title := range titles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		id, err := insertMission(tx, model.Mission{
			UserID:          project.UserID,
			CategoryID:      project.CategoryID,
			ParentProjectID: &project.ID,
			Title:           title,
			Type:            model.MissionTask,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	subtasks := make([]model.Mission, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			subtasks = append(subtasks, *m)
		}
	}
	return subtasks, nil
}

// Stats counts a user's missions by completion, type and category.
// Uncategorised missions are counted under "uncategorized".
func (s *MissionStore) Stats(userID string) (*model.MissionStats, error) {
	stats := &model.MissionStats{
		ByType:     map[string]int{},
		ByCategory: map[string]int{},
	}

	rows, err := s.db.Query(
		`SELECT m.type, m.is_complete, COALESCE(c.name, 'uncategorized'), COUNT(*)
		FROM missions m LEFT JOIN categories c ON c.id = m.category_id
		WHERE m.user_id = ?
		GROUP BY m.type, m.is_complete, COALESCE(c.name, 'uncategorized')`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("mission stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, category string
		var complete, n int
		if err := rows.Scan(&kind, &complete, &category, &n); err != nil {
			return nil, fmt.Errorf("scan mission stats: %w", err)
		}
		stats.Total += n
		if complete != 0 {
			stats.Completed += n
		} else {
			stats.Pending += n
		}
		stats.ByType[kind] += n
		stats.ByCategory[category] += n
	}
	return stats, rows.Err()
}

// MaterializeOccurrences stores each occurrence as a task mission owned by
// the routine's user, with the occurrence time as its personal deadline.
// Occurrences already stored for the routine at the same time are skipped.
// Returns the missions created.
func (s *MissionStore) MaterializeOccurrences(r model.Routine, occurrences []schedule.Occurrence) ([]model.Mission, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	for _, occ := range occurrences {
		at := utc(&occ.ScheduledDate)

		var exists int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM missions WHERE parent_routine_id = ? AND personal_deadline = ?`,
			r.ID, at,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check occurrence: %w", err)
		}
		if exists > 0 {
			continue
		}

		id, err := insertMission(tx, model.Mission{
			UserID:           r.UserID,
			CategoryID:       r.CategoryID,
			ParentRoutineID:  &r.ID,
			Title:            occ.Title,
			Type:             model.MissionTask,
			PersonalDeadline: at,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	created := make([]model.Mission, 0, len(ids))
	for _, id := range ids {
		m, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			created = append(created, *m)
		}
	}
	return created, nil
}

package store

import (
	"fmt"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
)

// Completion is the outcome of completing a mission.
type Completion struct {
	Mission model.Mission `json:"mission"`
	// Awarded is false when the mission was already complete.
	Awarded bool    `json:"awarded"`
	Points  int     `json:"points_awarded"`
	Reward  *Change `json:"-"`
}

// Complete marks a mission complete and credits its owner in one
// transaction. A mission is only ever rewarded once; completing it again
// returns Awarded false and leaves the profile untouched. Returns nil if the
// mission does not exist.
func (s *MissionStore) Complete(id string) (*Completion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+missionCols+` FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mission: %w", err)
	}

	changed, err := markComplete(tx, id)
	if err != nil {
		return nil, err
	}

	result := &Completion{}
	if changed {
		change, err := applyProfile(tx, m.UserID, completionFn(m.Type, m.IsSubtask()))
		if err != nil {
			return nil, err
		}
		result.Awarded = true
		result.Points = reward.PointsForCompletion(m.Type, m.IsSubtask())
		result.Reward = change
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	updated, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if updated != nil {
		result.Mission = *updated
	}
	return result, nil
}

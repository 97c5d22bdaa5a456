package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

func scanProfile(s scanner) (*model.RewardProfile, error) {
	var p model.RewardProfile
	err := s.Scan(&p.ID, &p.UserID, &p.Points, &p.Streak, &p.TotalTasksDone, &p.Tier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const profileCols = `id, user_id, points, streak, total_tasks_done, tree_stage, created_at, updated_at`

type querier interface {
	execer
	QueryRow(query string, args ...any) *sql.Row
}

func getProfile(db querier, userID string) (*model.RewardProfile, error) {
	row := db.QueryRow(`SELECT `+profileCols+` FROM reward_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward profile: %w", err)
	}
	return p, nil
}

func ensureProfile(db querier, userID string) (*model.RewardProfile, error) {
	p, err := getProfile(db, userID)
	if err != nil || p != nil {
		return p, err
	}
	now := timestamp()
	_, err = db.Exec(
		`INSERT INTO reward_profiles (id, user_id, tree_stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		newID(), userID, string(reward.TierSeed), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward profile: %w", err)
	}
	return getProfile(db, userID)
}

// Change is a reward profile before and after a write.
type Change struct {
	Before model.RewardProfile
	After  model.RewardProfile
}

// TierChanged reports whether the write moved the profile to another tier.
func (c Change) TierChanged() bool {
	return c.Before.Tier != c.After.Tier
}

// applyProfile runs a read-modify-write of the user's profile on tx,
// creating the profile first if it is missing.
func applyProfile(tx *sql.Tx, userID string, fn func(model.RewardProfile) model.RewardProfile) (*Change, error) {
	before, err := ensureProfile(tx, userID)
	if err != nil {
		return nil, err
	}
	if before == nil {
		return nil, fmt.Errorf("reward profile for user %s vanished", userID)
	}

	after := fn(*before)
	after.UpdatedAt = timestamp()
	_, err = tx.Exec(
		`UPDATE reward_profiles SET points = ?, streak = ?, total_tasks_done = ?, tree_stage = ?, updated_at = ? WHERE id = ?`,
		after.Points, after.Streak, after.TotalTasksDone, after.Tier, after.UpdatedAt, before.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward profile: %w", err)
	}
	return &Change{Before: *before, After: after}, nil
}

func (s *RewardStore) update(userID string, fn func(model.RewardProfile) model.RewardProfile) (*Change, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := applyProfile(tx, userID, fn)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return c, nil
}

// GetByUser returns the user's profile, or nil if none exists.
func (s *RewardStore) GetByUser(userID string) (*model.RewardProfile, error) {
	return getProfile(s.db, userID)
}

// EnsureForUser returns the user's profile, creating an empty one if missing.
func (s *RewardStore) EnsureForUser(userID string) (*model.RewardProfile, error) {
	return ensureProfile(s.db, userID)
}

func completionFn(kind model.MissionType, isSubtask bool) func(model.RewardProfile) model.RewardProfile {
	return func(p model.RewardProfile) model.RewardProfile {
		p = reward.ApplyCompletion(p, kind, isSubtask)
		p.TotalTasksDone++
		return p
	}
}

// RecordCompletion awards the points for one completed mission of the given
// kind and counts it towards the user's total.
func (s *RewardStore) RecordCompletion(userID string, kind model.MissionType, isSubtask bool) (*Change, error) {
	return s.update(userID, completionFn(kind, isSubtask))
}

// AdjustPoints applies a manual point change, never dropping below zero.
func (s *RewardStore) AdjustPoints(userID string, delta int) (*Change, error) {
	return s.update(userID, func(p model.RewardProfile) model.RewardProfile {
		return reward.AdjustPoints(p, delta)
	})
}

func (s *RewardStore) AdjustStreak(userID string, delta int) (*Change, error) {
	return s.update(userID, func(p model.RewardProfile) model.RewardProfile {
		return reward.AdjustStreak(p, delta)
	})
}

func (s *RewardStore) IncrementTasksDone(userID string) (*Change, error) {
	return s.update(userID, func(p model.RewardProfile) model.RewardProfile {
		p.TotalTasksDone++
		return p
	})
}

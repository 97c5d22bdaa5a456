package handler

import (
	"net/http"
	"testing"

	"github.com/dukerupert/neuri/internal/reward"
)

func TestRewardPointsClampAtZero(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	path := "/api/users/" + u.ID + "/reward/points"

	var res rewardResult
	expectStatus(t, e.do(t, "PATCH", path, map[string]any{"points_change": 20}), http.StatusOK, &res)
	if res.Profile.Points != 20 || res.Profile.Tier != string(reward.TierSapling) {
		t.Errorf("profile = %+v, want 20 at sapling", res.Profile)
	}

	expectStatus(t, e.do(t, "PATCH", path, map[string]any{"points_change": -100}), http.StatusOK, &res)
	if res.Profile.Points != 0 || res.Progress.Tier != reward.TierSeed {
		t.Errorf("profile = %+v, want clamped to 0 at seed", res.Profile)
	}

	expectStatus(t, e.do(t, "PATCH", path, map[string]any{}), http.StatusBadRequest, nil)
}

func TestRewardStreak(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	path := "/api/users/" + u.ID + "/reward/streak"

	var res rewardResult
	expectStatus(t, e.do(t, "PATCH", path, map[string]any{"streak_change": 3}), http.StatusOK, &res)
	expectStatus(t, e.do(t, "PATCH", path, map[string]any{"streak_change": -1}), http.StatusOK, &res)
	if res.Profile.Streak != 2 {
		t.Errorf("Streak = %d, want 2", res.Profile.Streak)
	}
	expectStatus(t, e.do(t, "PATCH", path, map[string]any{}), http.StatusBadRequest, nil)
}

func TestRewardMissionPoints(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	path := "/api/users/" + u.ID + "/reward/mission-points"

	tests := []struct {
		body  map[string]any
		total int
	}{
		{map[string]any{"mission_type": "project"}, 5},
		{map[string]any{"mission_type": "project", "is_subtask": true}, 6},
		{map[string]any{"mission_type": "Reminder"}, 8},
		{map[string]any{"mission_type": "habit"}, 9},
	}
	for _, tt := range tests {
		var res rewardResult
		expectStatus(t, e.do(t, "POST", path, tt.body), http.StatusOK, &res)
		if res.Profile.Points != tt.total {
			t.Errorf("after %v: points = %d, want %d", tt.body, res.Profile.Points, tt.total)
		}
	}

	expectStatus(t, e.do(t, "POST", path, map[string]any{}), http.StatusBadRequest, nil)
	expectStatus(t, e.do(t, "POST", "/api/users/7d3c8a30-63d5-4b34-9d8c-3c7b7e8f2a11/reward/mission-points",
		map[string]any{"mission_type": "task"}), http.StatusNotFound, nil)
}

func TestRewardDashboard(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	expectStatus(t, e.do(t, "PATCH", "/api/users/"+u.ID+"/reward/points", map[string]any{"points_change": 31}), http.StatusOK, nil)

	var d struct {
		Points             int             `json:"points"`
		TreeStage          reward.Tier     `json:"tree_stage"`
		TreeProgress       reward.Progress `json:"tree_progress"`
		MilestonesUnlocked []reward.Tier   `json:"milestones_unlocked"`
	}
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/reward/dashboard", nil), http.StatusOK, &d)
	if d.Points != 31 || d.TreeStage != reward.TierSmallTree {
		t.Errorf("dashboard = %+v, want 31 at small-tree", d)
	}
	if d.TreeProgress.NextStagePoints == nil || *d.TreeProgress.NextStagePoints != 51 {
		t.Errorf("NextStagePoints = %v, want 51", d.TreeProgress.NextStagePoints)
	}
	want := []reward.Tier{reward.TierSeed, reward.TierSprout, reward.TierSapling, reward.TierSmallTree}
	if len(d.MilestonesUnlocked) != len(want) {
		t.Fatalf("milestones = %v, want %v", d.MilestonesUnlocked, want)
	}
	for i := range want {
		if d.MilestonesUnlocked[i] != want[i] {
			t.Errorf("milestones[%d] = %s, want %s", i, d.MilestonesUnlocked[i], want[i])
		}
	}
}

package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/dukerupert/neuri/internal/database"
	"github.com/dukerupert/neuri/internal/model"
)

func TestRewardEnsureForUser(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	if _, err := s.db.Exec(`DELETE FROM reward_profiles WHERE user_id = ?`, u.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	p, err := s.rewards.GetByUser(u.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p != nil {
		t.Fatal("expected profile to be gone")
	}

	p, err = s.rewards.EnsureForUser(u.ID)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if p == nil || p.Points != 0 || p.Tier != "seed" {
		t.Errorf("profile = %+v, want empty seed profile", p)
	}

	again, err := s.rewards.EnsureForUser(u.ID)
	if err != nil {
		t.Fatalf("ensure profile again: %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("EnsureForUser created a second profile")
	}
}

func TestRewardRecordCompletion(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	if _, err := s.rewards.AdjustPoints(u.ID, 4); err != nil {
		t.Fatalf("adjust points: %v", err)
	}

	change, err := s.rewards.RecordCompletion(u.ID, model.MissionProject, false)
	if err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if change.Before.Points != 4 || change.After.Points != 9 {
		t.Errorf("points %d -> %d, want 4 -> 9", change.Before.Points, change.After.Points)
	}
	if change.Before.Tier != "seed" || change.After.Tier != "sprout" {
		t.Errorf("tier %s -> %s, want seed -> sprout", change.Before.Tier, change.After.Tier)
	}
	if !change.TierChanged() {
		t.Error("expected TierChanged")
	}
	if change.After.TotalTasksDone != 1 {
		t.Errorf("total_tasks_done = %d, want 1", change.After.TotalTasksDone)
	}

	stored, _ := s.rewards.GetByUser(u.ID)
	if stored.Points != 9 || stored.Tier != "sprout" || stored.TotalTasksDone != 1 {
		t.Errorf("stored profile = %+v", stored)
	}
}

func TestRewardRecordCompletionSubtask(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	change, err := s.rewards.RecordCompletion(u.ID, model.MissionProject, true)
	if err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if change.After.Points != 1 {
		t.Errorf("points = %d, want 1 for a subtask", change.After.Points)
	}
}

func TestRewardAdjustPointsClampsAtZero(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")
	s.rewards.AdjustPoints(u.ID, 20)

	change, err := s.rewards.AdjustPoints(u.ID, -50)
	if err != nil {
		t.Fatalf("adjust points: %v", err)
	}
	if change.After.Points != 0 || change.After.Tier != "seed" {
		t.Errorf("after = %+v, want 0 points at seed", change.After)
	}
}

func TestRewardAdjustStreakAndTasksDone(t *testing.T) {
	s := setupTestDB(t)
	u := createTestUser(t, s, "alice@example.com")

	s.rewards.AdjustStreak(u.ID, 3)
	change, err := s.rewards.AdjustStreak(u.ID, -1)
	if err != nil {
		t.Fatalf("adjust streak: %v", err)
	}
	if change.After.Streak != 2 {
		t.Errorf("streak = %d, want 2", change.After.Streak)
	}

	change, err = s.rewards.IncrementTasksDone(u.ID)
	if err != nil {
		t.Fatalf("increment tasks done: %v", err)
	}
	if change.After.TotalTasksDone != 1 || change.After.Points != 0 {
		t.Errorf("after = %+v", change.After)
	}
}

func TestRewardConcurrentCompletions(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "neuri.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := NewUserStore(db)
	rewards := NewRewardStore(db)
	u, err := users.Create("alice@example.com", nil, nil, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rewards.RecordCompletion(u.ID, model.MissionTask, false); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("record completion: %v", err)
	}

	p, err := rewards.GetByUser(u.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Points != n*3 {
		t.Errorf("points = %d, want %d", p.Points, n*3)
	}
	if p.TotalTasksDone != n {
		t.Errorf("total_tasks_done = %d, want %d", p.TotalTasksDone, n)
	}
	if p.Tier != "sapling" {
		t.Errorf("tier = %q, want sapling", p.Tier)
	}
}

package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/neuri/internal/database"
	"github.com/dukerupert/neuri/internal/model"
)

type testStores struct {
	db         *sql.DB
	users      *UserStore
	categories *CategoryStore
	routines   *RoutineStore
	missions   *MissionStore
	rewards    *RewardStore
}

func setupTestDB(t *testing.T) testStores {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return testStores{
		db:         db,
		users:      NewUserStore(db),
		categories: NewCategoryStore(db),
		routines:   NewRoutineStore(db),
		missions:   NewMissionStore(db),
		rewards:    NewRewardStore(db),
	}
}

func createTestUser(t *testing.T, s testStores, email string) *model.User {
	t.Helper()
	u, err := s.users.Create(email, nil, nil, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

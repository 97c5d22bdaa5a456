package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dukerupert/neuri/internal/model"
)

func TestUserCreate(t *testing.T) {
	e := setupTestEnv(t)

	u := e.createUser(t, "  sam@example.com ")
	if u.Email != "sam@example.com" {
		t.Errorf("Email = %q, want trimmed", u.Email)
	}
	if u.ID == "" {
		t.Error("expected an id")
	}

	tests := []struct {
		name  string
		email string
		want  int
	}{
		{"duplicate", "sam@example.com", http.StatusConflict},
		{"duplicate other case", "SAM@Example.com", http.StatusConflict},
		{"missing", "", http.StatusBadRequest},
		{"malformed", "not-an-email", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, "POST", "/api/users", map[string]any{"email": tt.email})
			expectStatus(t, rec, tt.want, nil)
		})
	}
}

func TestUserCreateSeedsRewardProfile(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")

	var p model.RewardProfile
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/reward", nil), http.StatusOK, &p)
	if p.Points != 0 || p.Tier != "seed" {
		t.Errorf("profile = %+v, want 0 points at seed", p)
	}
}

func TestUserGetByEmail(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")

	var got model.User
	expectStatus(t, e.do(t, "GET", "/api/users/by-email?email=Sam@Example.com", nil), http.StatusOK, &got)
	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}

	expectStatus(t, e.do(t, "GET", "/api/users/by-email?email=nobody@example.com", nil), http.StatusNotFound, nil)
	expectStatus(t, e.do(t, "GET", "/api/users/by-email", nil), http.StatusBadRequest, nil)
}

func TestUserUpdateAndDelete(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	e.createUser(t, "alex@example.com")

	var updated model.User
	rec := e.do(t, "PUT", "/api/users/"+u.ID, map[string]any{"name": "Sam", "pace": "slow"})
	expectStatus(t, rec, http.StatusOK, &updated)
	if updated.Name == nil || *updated.Name != "Sam" {
		t.Errorf("Name = %v, want Sam", updated.Name)
	}
	if updated.Pace == nil || *updated.Pace != "slow" {
		t.Errorf("Pace = %v, want slow", updated.Pace)
	}
	if updated.Email != u.Email {
		t.Errorf("Email changed to %q", updated.Email)
	}

	rec = e.do(t, "PUT", "/api/users/"+u.ID, map[string]any{"email": "alex@example.com"})
	expectStatus(t, rec, http.StatusConflict, nil)

	var users []model.User
	expectStatus(t, e.do(t, "GET", "/api/users", nil), http.StatusOK, &users)
	if len(users) != 2 {
		t.Errorf("len(users) = %d, want 2", len(users))
	}

	expectStatus(t, e.do(t, "DELETE", "/api/users/"+u.ID, nil), http.StatusNoContent, nil)
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID, nil), http.StatusNotFound, nil)
	expectStatus(t, e.do(t, "PUT", "/api/users/"+u.ID, map[string]any{"name": "x"}), http.StatusNotFound, nil)
}

func TestUserSetup(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")

	body := map[string]any{
		"pace":                "steady",
		"preferred_work_time": "morning",
		"categories":          []string{"Home", "Work", " ", "home"},
	}
	var out struct {
		User       model.User       `json:"user"`
		Categories []model.Category `json:"categories"`
	}
	expectStatus(t, e.do(t, "POST", "/api/users/"+u.ID+"/setup", body), http.StatusOK, &out)

	if out.User.PreferredWorkTime == nil || *out.User.PreferredWorkTime != "morning" {
		t.Errorf("PreferredWorkTime = %v, want morning", out.User.PreferredWorkTime)
	}
	if len(out.Categories) != 3 {
		t.Fatalf("len(categories) = %d, want 3", len(out.Categories))
	}
	if out.Categories[0].ID != out.Categories[2].ID {
		t.Error("expected \"home\" to reuse the \"Home\" category")
	}

	var listed []model.Category
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/categories", nil), http.StatusOK, &listed)
	if len(listed) != 2 {
		t.Errorf("stored categories = %d, want 2", len(listed))
	}
}

func TestUserDashboard(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")

	e.createMission(t, map[string]any{"user_id": u.ID, "title": "Due today", "true_deadline": "2024-01-01T15:00:00Z"})
	e.createMission(t, map[string]any{"user_id": u.ID, "title": "Late", "true_deadline": "2023-12-30T09:00:00Z"})
	e.createMission(t, map[string]any{"user_id": u.ID, "title": "Later", "true_deadline": "2024-01-09T09:00:00Z"})
	routine := map[string]any{"user_id": u.ID, "title": "Plan week", "schedule": "Monday"}
	expectStatus(t, e.do(t, "POST", "/api/routines", routine), http.StatusCreated, nil)

	var d struct {
		Today         []map[string]any `json:"today"`
		Overdue       []map[string]any `json:"overdue"`
		RoutinesToday []model.Routine  `json:"routines_today"`
	}
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/dashboard", nil), http.StatusOK, &d)

	if len(d.Today) != 1 || d.Today[0]["title"] != "Due today" || d.Today[0]["status"] != "due_today" {
		t.Errorf("today = %v", d.Today)
	}
	if len(d.Overdue) != 1 || d.Overdue[0]["status"] != "overdue" {
		t.Errorf("overdue = %v", d.Overdue)
	}
	if len(d.RoutinesToday) != 1 {
		t.Errorf("routines_today = %d, want 1", len(d.RoutinesToday))
	}
}

func TestUserExport(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	e.createMission(t, map[string]any{"user_id": u.ID, "title": "One"})

	rec := e.do(t, "GET", "/api/users/"+u.ID+"/export", nil)
	var out struct {
		User     model.User           `json:"user"`
		Missions []model.Mission      `json:"missions"`
		Reward   *model.RewardProfile `json:"reward"`
	}
	expectStatus(t, rec, http.StatusOK, &out)
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if out.User.ID != u.ID || len(out.Missions) != 1 || out.Reward == nil {
		t.Errorf("export = %+v", out)
	}
}

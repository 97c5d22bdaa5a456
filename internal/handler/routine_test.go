package handler

import (
	"net/http"
	"testing"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/schedule"
)

func (e testEnv) createRoutine(t *testing.T, userID, title, sched string) model.Routine {
	t.Helper()
	var rt model.Routine
	body := map[string]any{"user_id": userID, "title": title, "schedule": sched}
	expectStatus(t, e.do(t, "POST", "/api/routines", body), http.StatusCreated, &rt)
	return rt
}

func TestRoutineCreateValidation(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	other := e.createUser(t, "alex@example.com")

	var theirs model.Category
	expectStatus(t, e.do(t, "POST", "/api/categories", map[string]any{"user_id": other.ID, "name": "Gym"}), http.StatusCreated, &theirs)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing title", map[string]any{"user_id": u.ID, "title": "  "}, http.StatusBadRequest},
		{"bad user id", map[string]any{"user_id": "nope", "title": "Walk"}, http.StatusBadRequest},
		{"unknown user", map[string]any{"user_id": "7d3c8a30-63d5-4b34-9d8c-3c7b7e8f2a11", "title": "Walk"}, http.StatusNotFound},
		{"foreign category", map[string]any{"user_id": u.ID, "title": "Walk", "category_id": theirs.ID}, http.StatusBadRequest},
		{"no schedule", map[string]any{"user_id": u.ID, "title": "Walk"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, e.do(t, "POST", "/api/routines", tt.body), tt.want, nil)
		})
	}
}

func TestRoutineGenerateTasks(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	rt := e.createRoutine(t, u.ID, "Gym", `[{"day":"Monday","time":"07:30"},{"day":"wednesday","time":"18:00"}]`)

	var occs []schedule.Occurrence
	expectStatus(t, e.do(t, "POST", "/api/routines/"+rt.ID+"/generate-tasks?days=8", nil), http.StatusOK, &occs)

	wantDays := []int{1, 3, 8}
	wantTokens := []string{"Mon", "Wed", "Mon"}
	if len(occs) != len(wantDays) {
		t.Fatalf("len = %d, want %d: %+v", len(occs), len(wantDays), occs)
	}
	for i, o := range occs {
		if o.DayNumber != wantDays[i] || o.DayOfWeek != wantTokens[i] {
			t.Errorf("occs[%d] = day %d %s, want day %d %s", i, o.DayNumber, o.DayOfWeek, wantDays[i], wantTokens[i])
		}
		if o.Title != "Gym" {
			t.Errorf("occs[%d].Title = %q", i, o.Title)
		}
	}
	if got := occs[0].ScheduledDate.Format("2006-01-02 15:04"); got != "2024-01-01 07:30" {
		t.Errorf("first occurrence at %s, want 2024-01-01 07:30", got)
	}
	if got := occs[2].ScheduledDate.Format("2006-01-02 15:04"); got != "2024-01-08 07:30" {
		t.Errorf("last occurrence at %s, want 2024-01-08 07:30", got)
	}
}

func TestRoutineGenerateTasksDays(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	rt := e.createRoutine(t, u.ID, "Walk", "Mon,Tue,Wed,Thu,Fri,Sat,Sun")

	tests := []struct {
		query string
		want  int
		count int
	}{
		{"days=0", http.StatusOK, 0},
		{"days=-3", http.StatusOK, 0},
		{"days=365", http.StatusOK, 365},
		{"days=366", http.StatusBadRequest, 0},
		{"days=abc", http.StatusBadRequest, 0},
		{"", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := e.do(t, "POST", "/api/routines/"+rt.ID+"/generate-tasks?"+tt.query, nil)
			if tt.want != http.StatusOK {
				expectStatus(t, rec, tt.want, nil)
				return
			}
			var occs []schedule.Occurrence
			expectStatus(t, rec, tt.want, &occs)
			if occs == nil || len(occs) != tt.count {
				t.Errorf("len = %d (nil=%v), want %d", len(occs), occs == nil, tt.count)
			}
		})
	}
}

func TestRoutineGenerateTasksPersist(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	rt := e.createRoutine(t, u.ID, "Stretch", "Mon,Thu")

	var first struct {
		Occurrences []schedule.Occurrence `json:"occurrences"`
		Missions    []model.Mission       `json:"missions"`
	}
	path := "/api/routines/" + rt.ID + "/generate-tasks?days=7&persist=true"
	expectStatus(t, e.do(t, "POST", path, nil), http.StatusOK, &first)
	if len(first.Occurrences) != 2 || len(first.Missions) != 2 {
		t.Fatalf("got %d occurrences, %d missions; want 2, 2", len(first.Occurrences), len(first.Missions))
	}
	for _, m := range first.Missions {
		if m.ParentRoutineID == nil || *m.ParentRoutineID != rt.ID {
			t.Errorf("mission %s not linked to routine", m.ID)
		}
		if m.Type != model.MissionTask {
			t.Errorf("Type = %s, want task", m.Type)
		}
	}

	var second struct {
		Missions []model.Mission `json:"missions"`
	}
	expectStatus(t, e.do(t, "POST", path, nil), http.StatusOK, &second)
	if len(second.Missions) != 0 {
		t.Errorf("second run created %d missions, want 0", len(second.Missions))
	}
}

func TestRoutineScheduleAndDay(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	rt := e.createRoutine(t, u.ID, "Laundry", `{"day":"Saturday","time":"10:15"}`)
	e.createRoutine(t, u.ID, "Standup", "Mon, Tue")

	var entries []map[string]any
	expectStatus(t, e.do(t, "GET", "/api/routines/"+rt.ID+"/schedule", nil), http.StatusOK, &entries)
	if len(entries) != 1 || entries[0]["day"] != "Sat" || entries[0]["time"] != "10:15" {
		t.Errorf("entries = %v, want [{Sat 10:15}]", entries)
	}

	var sat []model.Routine
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/routines/day/saturday", nil), http.StatusOK, &sat)
	if len(sat) != 1 || sat[0].ID != rt.ID {
		t.Errorf("saturday routines = %+v", sat)
	}
	var tue []model.Routine
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/routines/day/Tue", nil), http.StatusOK, &tue)
	if len(tue) != 1 || tue[0].Title != "Standup" {
		t.Errorf("tuesday routines = %+v", tue)
	}
	expectStatus(t, e.do(t, "GET", "/api/users/"+u.ID+"/routines/day/someday", nil), http.StatusBadRequest, nil)
}

func TestRoutineUpdate(t *testing.T) {
	e := setupTestEnv(t)
	u := e.createUser(t, "sam@example.com")
	rt := e.createRoutine(t, u.ID, "Walk", "Mon")

	var updated model.Routine
	expectStatus(t, e.do(t, "PUT", "/api/routines/"+rt.ID, map[string]any{"schedule": "Fri"}), http.StatusOK, &updated)
	if updated.Schedule == nil || *updated.Schedule != "Fri" || updated.Title != "Walk" {
		t.Errorf("updated = %+v", updated)
	}
	expectStatus(t, e.do(t, "PUT", "/api/routines/"+rt.ID, map[string]any{"title": ""}), http.StatusBadRequest, nil)
}

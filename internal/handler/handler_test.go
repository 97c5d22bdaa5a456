package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/neuri/internal/database"
	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/store"
)

// testNow is Monday 2024-01-01 10:00 UTC.
var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	deps Deps
	mux  *http.ServeMux
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	d := Deps{
		Users:      store.NewUserStore(db),
		Categories: store.NewCategoryStore(db),
		Routines:   store.NewRoutineStore(db),
		Missions:   store.NewMissionStore(db),
		Rewards:    store.NewRewardStore(db),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
	}
	return testEnv{deps: d, mux: newTestMux(d)}
}

func newTestMux(d Deps) *http.ServeMux {
	users := NewUserHandler(d)
	categories := NewCategoryHandler(d)
	routines := NewRoutineHandler(d)
	missions := NewMissionHandler(d)
	rewards := NewRewardHandler(d)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", users.Create)
	mux.HandleFunc("GET /api/users", users.List)
	mux.HandleFunc("GET /api/users/by-email", users.GetByEmail)
	mux.HandleFunc("GET /api/users/{id}", users.Get)
	mux.HandleFunc("PUT /api/users/{id}", users.Update)
	mux.HandleFunc("DELETE /api/users/{id}", users.Delete)
	mux.HandleFunc("POST /api/users/{id}/setup", users.Setup)
	mux.HandleFunc("GET /api/users/{id}/dashboard", users.Dashboard)
	mux.HandleFunc("GET /api/users/{id}/export", users.Export)

	mux.HandleFunc("POST /api/categories", categories.Create)
	mux.HandleFunc("GET /api/users/{id}/categories", categories.ListByUser)
	mux.HandleFunc("PUT /api/categories/{id}", categories.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", categories.Delete)

	mux.HandleFunc("POST /api/routines", routines.Create)
	mux.HandleFunc("GET /api/routines/{id}", routines.Get)
	mux.HandleFunc("PUT /api/routines/{id}", routines.Update)
	mux.HandleFunc("GET /api/routines/{id}/schedule", routines.Schedule)
	mux.HandleFunc("POST /api/routines/{id}/generate-tasks", routines.GenerateTasks)
	mux.HandleFunc("GET /api/users/{id}/routines/day/{day}", routines.ListForDay)

	mux.HandleFunc("POST /api/missions", missions.Create)
	mux.HandleFunc("GET /api/missions/{id}", missions.Get)
	mux.HandleFunc("GET /api/missions/{id}/relations", missions.Relations)
	mux.HandleFunc("PUT /api/missions/{id}", missions.Update)
	mux.HandleFunc("DELETE /api/missions/{id}", missions.Delete)
	mux.HandleFunc("POST /api/missions/{id}/complete", missions.Complete)
	mux.HandleFunc("POST /api/missions/{id}/break-down", missions.BreakDown)
	mux.HandleFunc("GET /api/users/{id}/missions", missions.List)
	mux.HandleFunc("GET /api/users/{id}/missions/today", missions.Today)
	mux.HandleFunc("GET /api/users/{id}/missions/overdue", missions.Overdue)
	mux.HandleFunc("GET /api/users/{id}/missions/high-priority", missions.HighPriority)
	mux.HandleFunc("GET /api/users/{id}/missions/heavy", missions.Heavy)
	mux.HandleFunc("GET /api/users/{id}/missions/stats", missions.Stats)
	mux.HandleFunc("GET /api/users/{id}/missions/context", missions.Context)

	mux.HandleFunc("GET /api/users/{id}/reward", rewards.Get)
	mux.HandleFunc("POST /api/users/{id}/reward/mission-points", rewards.MissionPoints)
	mux.HandleFunc("PATCH /api/users/{id}/reward/streak", rewards.Streak)
	mux.HandleFunc("PATCH /api/users/{id}/reward/points", rewards.Points)
	mux.HandleFunc("GET /api/users/{id}/reward/dashboard", rewards.Dashboard)
	return mux
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.mux, method, path, body)
}

func serve(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// expectStatus fails the test unless rec has the wanted status, and returns
// the decoded "data" field of the body into out when out is non-nil.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int, out any) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
	if out == nil {
		return
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v; body: %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v; body: %s", err, rec.Body.String())
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func (e testEnv) createUser(t *testing.T, email string) model.User {
	t.Helper()
	var u model.User
	expectStatus(t, e.do(t, "POST", "/api/users", map[string]any{"email": email}), http.StatusCreated, &u)
	return u
}

func (e testEnv) createMission(t *testing.T, body map[string]any) model.Mission {
	t.Helper()
	var m model.Mission
	expectStatus(t, e.do(t, "POST", "/api/missions", body), http.StatusCreated, &m)
	return m
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	e := setupTestEnv(t)
	req := httptest.NewRequest("POST", "/api/users", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "invalid JSON" {
		t.Errorf("error = %q, want %q", msg, "invalid JSON")
	}
}

func TestInvalidPathUUID(t *testing.T) {
	e := setupTestEnv(t)
	rec := e.do(t, "GET", "/api/users/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

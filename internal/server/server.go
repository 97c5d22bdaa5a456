package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/neuri/internal/handler"
	"github.com/dukerupert/neuri/internal/metrics"
	"github.com/dukerupert/neuri/internal/middleware"
	"github.com/dukerupert/neuri/internal/store"
	ws "github.com/dukerupert/neuri/internal/websocket"
)

// Config holds the request-facing settings the router needs.
type Config struct {
	Location *time.Location
	MaxDays  int

	AssistantUserID    string
	AssistantTokenHash string
	AssistantRateLimit int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	metrics     *metrics.Metrics
	userH       *handler.UserHandler
	categoryH   *handler.CategoryHandler
	routineH    *handler.RoutineHandler
	missionH    *handler.MissionHandler
	rewardH     *handler.RewardHandler
	assistantH  *handler.AssistantHandler
	rateLimiter *middleware.RateLimiter
	tokenHash   string
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	hub := ws.NewHub(logger.With("component", "websocket"))

	deps := handler.Deps{
		Users:      store.NewUserStore(db),
		Categories: store.NewCategoryStore(db),
		Routines:   store.NewRoutineStore(db),
		Missions:   store.NewMissionStore(db),
		Rewards:    store.NewRewardStore(db),
		Hub:        hub,
		Metrics:    m,
		Logger:     logger,
		Location:   cfg.Location,
		MaxDays:    cfg.MaxDays,
		Now:        cfg.Now,
	}

	perMinute := cfg.AssistantRateLimit
	if perMinute <= 0 {
		perMinute = 60
	}

	return &Server{
		db:          db,
		hub:         hub,
		metrics:     m,
		userH:       handler.NewUserHandler(deps),
		categoryH:   handler.NewCategoryHandler(deps),
		routineH:    handler.NewRoutineHandler(deps),
		missionH:    handler.NewMissionHandler(deps),
		rewardH:     handler.NewRewardHandler(deps),
		assistantH:  handler.NewAssistantHandler(deps, cfg.AssistantUserID),
		rateLimiter: middleware.NewRateLimiter(perMinute),
		tokenHash:   cfg.AssistantTokenHash,
		logger:      logger,
	}
}

// Hub returns the websocket hub so background jobs can publish changes.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the assistant rate limiter.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	s.registerAPIRoutes(mux)

	// Assistant routes sit behind the bearer check and a per-IP limit
	assistantMux := http.NewServeMux()
	s.registerAssistantRoutes(assistantMux)
	mux.Handle("/api/assistant/", middleware.Chain(assistantMux,
		middleware.RateLimit(s.rateLimiter, middleware.RealIP),
		middleware.RequireBearer(s.tokenHash),
	))

	return middleware.Chain(mux, middleware.RequestLogger(s.logger.With("component", "http"), s.metrics))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Users
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("GET /api/users/by-email", s.userH.GetByEmail)
	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)
	mux.HandleFunc("POST /api/users/{id}/setup", s.userH.Setup)
	mux.HandleFunc("GET /api/users/{id}/dashboard", s.userH.Dashboard)
	mux.HandleFunc("GET /api/users/{id}/export", s.userH.Export)

	// Categories
	mux.HandleFunc("POST /api/categories", s.categoryH.Create)
	mux.HandleFunc("GET /api/users/{id}/categories", s.categoryH.ListByUser)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Routines
	mux.HandleFunc("POST /api/routines", s.routineH.Create)
	mux.HandleFunc("GET /api/routines/{id}", s.routineH.Get)
	mux.HandleFunc("PUT /api/routines/{id}", s.routineH.Update)
	mux.HandleFunc("DELETE /api/routines/{id}", s.routineH.Delete)
	mux.HandleFunc("GET /api/routines/{id}/schedule", s.routineH.Schedule)
	mux.HandleFunc("POST /api/routines/{id}/generate-tasks", s.routineH.GenerateTasks)
	mux.HandleFunc("GET /api/users/{id}/routines", s.routineH.ListByUser)
	mux.HandleFunc("GET /api/users/{id}/routines/category/{category_id}", s.routineH.ListByCategory)
	mux.HandleFunc("GET /api/users/{id}/routines/day/{day}", s.routineH.ListForDay)

	// Missions
	mux.HandleFunc("POST /api/missions", s.missionH.Create)
	mux.HandleFunc("GET /api/missions/{id}", s.missionH.Get)
	mux.HandleFunc("GET /api/missions/{id}/relations", s.missionH.Relations)
	mux.HandleFunc("PUT /api/missions/{id}", s.missionH.Update)
	mux.HandleFunc("DELETE /api/missions/{id}", s.missionH.Delete)
	mux.HandleFunc("POST /api/missions/{id}/complete", s.missionH.Complete)
	mux.HandleFunc("POST /api/missions/{id}/break-down", s.missionH.BreakDown)
	mux.HandleFunc("GET /api/users/{id}/missions", s.missionH.List)
	mux.HandleFunc("GET /api/users/{id}/missions/today", s.missionH.Today)
	mux.HandleFunc("GET /api/users/{id}/missions/overdue", s.missionH.Overdue)
	mux.HandleFunc("GET /api/users/{id}/missions/high-priority", s.missionH.HighPriority)
	mux.HandleFunc("GET /api/users/{id}/missions/heavy", s.missionH.Heavy)
	mux.HandleFunc("GET /api/users/{id}/missions/recent", s.missionH.Recent)
	mux.HandleFunc("GET /api/users/{id}/missions/stats", s.missionH.Stats)
	mux.HandleFunc("GET /api/users/{id}/missions/context", s.missionH.Context)
	mux.HandleFunc("GET /api/users/{id}/missions/subtasks/{project_id}", s.missionH.Subtasks)
	mux.HandleFunc("GET /api/users/{id}/missions/routine/{routine_id}", s.missionH.ByRoutine)

	// Rewards
	mux.HandleFunc("GET /api/users/{id}/reward", s.rewardH.Get)
	mux.HandleFunc("POST /api/users/{id}/reward/mission-points", s.rewardH.MissionPoints)
	mux.HandleFunc("PATCH /api/users/{id}/reward/streak", s.rewardH.Streak)
	mux.HandleFunc("PATCH /api/users/{id}/reward/points", s.rewardH.Points)
	mux.HandleFunc("GET /api/users/{id}/reward/tree-progress", s.rewardH.TreeProgress)
	mux.HandleFunc("GET /api/users/{id}/reward/dashboard", s.rewardH.Dashboard)
}

func (s *Server) registerAssistantRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assistant/routines", s.assistantH.CreateRoutine)
	mux.HandleFunc("POST /api/assistant/routines/generate-tasks", s.assistantH.GenerateRoutineTasks)
	mux.HandleFunc("POST /api/assistant/missions/complete", s.assistantH.CompleteMission)
	mux.HandleFunc("POST /api/assistant/missions/break-down", s.assistantH.BreakDownMission)
	mux.HandleFunc("PUT /api/assistant/missions", s.assistantH.UpdateMission)
	mux.HandleFunc("POST /api/assistant/categories", s.assistantH.CreateCategory)
	mux.HandleFunc("POST /api/assistant/categories/get-or-create", s.assistantH.GetOrCreateCategory)
	mux.HandleFunc("PATCH /api/assistant/streak", s.assistantH.UpdateStreak)
	mux.HandleFunc("POST /api/assistant/mission-points", s.assistantH.AddMissionPoints)
	mux.HandleFunc("PUT /api/assistant/user", s.assistantH.UpdateUser)
	mux.HandleFunc("GET /api/assistant/context", s.assistantH.Context)
}

package handler

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/dukerupert/neuri/internal/mission"
	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
	"github.com/dukerupert/neuri/internal/schedule"
	"github.com/dukerupert/neuri/internal/websocket"
)

type UserHandler struct {
	base
}

func NewUserHandler(d Deps) *UserHandler {
	return &UserHandler{base: newBase(d, "user")}
}

// requireUser loads a user, mapping a missing row to 404.
func (b *base) requireUser(id string) (*model.User, *apiError) {
	u, err := b.Users.GetByID(id)
	if err != nil {
		return nil, internal("failed to get user", err)
	}
	if u == nil {
		return nil, notFound("user")
	}
	return u, nil
}

func (b *base) userFromPath(r *http.Request) (*model.User, *apiError) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		return nil, aerr
	}
	return b.requireUser(id)
}

type userRequest struct {
	Email             string  `json:"email"`
	Name              *string `json:"name"`
	Pace              *string `json:"pace"`
	PreferredWorkTime *string `json:"preferred_work_time"`
}

func normalizeEmail(s string) (string, *apiError) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", badRequest("email is required")
	}
	if len(s) > maxTextLen {
		return "", badRequest("email is too long")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return "", badRequest("invalid email")
	}
	return s, nil
}

func checkProfileFields(name, pace, workTime *string) *apiError {
	if aerr := checkLen("name", name, maxTextLen); aerr != nil {
		return aerr
	}
	if aerr := checkLen("pace", pace, maxShortLen); aerr != nil {
		return aerr
	}
	return checkLen("preferred_work_time", workTime, maxShortLen)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	email, aerr := normalizeEmail(req.Email)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if aerr := checkProfileFields(req.Name, req.Pace, req.PreferredWorkTime); aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	existing, err := h.Users.GetByEmail(email)
	if err != nil {
		h.fail(w, r, internal("failed to check email", err))
		return
	}
	if existing != nil {
		h.fail(w, r, conflict("email already registered"))
		return
	}

	u, err := h.Users.Create(email, req.Name, req.Pace, req.PreferredWorkTime)
	if err != nil {
		h.fail(w, r, internal("failed to create user", err))
		return
	}

	h.broadcast(websocket.NewMessage("user", "created", u.ID, u.ID, nil))
	writeData(w, http.StatusCreated, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List()
	if err != nil {
		h.fail(w, r, internal("failed to list users", err))
		return
	}
	writeData(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.fail(w, r, badRequest("email is required"))
		return
	}
	u, err := h.Users.GetByEmail(email)
	if err != nil {
		h.fail(w, r, internal("failed to get user", err))
		return
	}
	if u == nil {
		h.fail(w, r, notFound("user"))
		return
	}
	writeData(w, http.StatusOK, u)
}

// updateUser applies a partial update shared by the REST and assistant routes.
func (b *base) updateUser(id string, upd model.UserUpdate) (*model.User, *apiError) {
	if _, aerr := b.requireUser(id); aerr != nil {
		return nil, aerr
	}
	if aerr := checkProfileFields(upd.Name, upd.Pace, upd.PreferredWorkTime); aerr != nil {
		return nil, aerr
	}
	if upd.Email != nil {
		email, aerr := normalizeEmail(*upd.Email)
		if aerr != nil {
			return nil, aerr
		}
		other, err := b.Users.GetByEmail(email)
		if err != nil {
			return nil, internal("failed to check email", err)
		}
		if other != nil && other.ID != id {
			return nil, conflict("email already registered")
		}
		upd.Email = &email
	}

	u, err := b.Users.Update(id, upd)
	if err != nil {
		return nil, internal("failed to update user", err)
	}
	if u == nil {
		return nil, notFound("user")
	}
	b.broadcast(websocket.NewMessage("user", "updated", u.ID, u.ID, nil))
	return u, nil
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var upd model.UserUpdate
	if aerr := decodeJSON(w, r, &upd); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	u, aerr := h.updateUser(id, upd)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if err := h.Users.Delete(u.ID); err != nil {
		h.fail(w, r, internal("failed to delete user", err))
		return
	}
	h.broadcast(websocket.NewMessage("user", "deleted", u.ID, u.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type setupRequest struct {
	Pace              string   `json:"pace"`
	PreferredWorkTime string   `json:"preferred_work_time"`
	Categories        []string `json:"categories"`
}

// Setup records onboarding preferences and creates the user's starting categories.
func (h *UserHandler) Setup(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req setupRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	upd := model.UserUpdate{}
	if p := strings.TrimSpace(req.Pace); p != "" {
		upd.Pace = &p
	}
	if t := strings.TrimSpace(req.PreferredWorkTime); t != "" {
		upd.PreferredWorkTime = &t
	}
	u, aerr = h.updateUser(u.ID, upd)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	categories := []model.Category{}
	for _, name := range req.Categories {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, _, err := h.Categories.GetOrCreate(u.ID, name)
		if err != nil {
			h.fail(w, r, internal("failed to create category", err))
			return
		}
		categories = append(categories, *c)
	}

	writeData(w, http.StatusOK, map[string]any{
		"user":       u,
		"categories": categories,
	})
}

type dashboard struct {
	User          *model.User          `json:"user"`
	Reward        reward.Progress      `json:"reward"`
	Stats         *model.MissionStats  `json:"stats"`
	Today         []mission.WithStatus `json:"today"`
	Overdue       []mission.WithStatus `json:"overdue"`
	RoutinesToday []model.Routine      `json:"routines_today"`
}

// Dashboard summarises what the user should look at today.
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	now := h.now()
	start, end := mission.DayBounds(now, h.Location)

	profile, err := h.Rewards.EnsureForUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to get reward profile", err))
		return
	}
	stats, err := h.Missions.Stats(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to get mission stats", err))
		return
	}
	today, err := h.Missions.ListDueBetween(u.ID, start, end)
	if err != nil {
		h.fail(w, r, internal("failed to list today's missions", err))
		return
	}
	overdue, err := h.Missions.ListOverdue(u.ID, now)
	if err != nil {
		h.fail(w, r, internal("failed to list overdue missions", err))
		return
	}
	routines, err := h.Routines.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list routines", err))
		return
	}

	writeData(w, http.StatusOK, dashboard{
		User:          u,
		Reward:        reward.ProgressFor(*profile),
		Stats:         stats,
		Today:         mission.Decorate(today, now, h.Location),
		Overdue:       mission.Decorate(overdue, now, h.Location),
		RoutinesToday: routinesForDay(routines, schedule.Abbrev(now.Weekday())),
	})
}

type export struct {
	User       *model.User          `json:"user"`
	Categories []model.Category     `json:"categories"`
	Routines   []model.Routine      `json:"routines"`
	Missions   []model.Mission      `json:"missions"`
	Reward     *model.RewardProfile `json:"reward"`
}

// Export returns everything stored for the user.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	categories, err := h.Categories.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list categories", err))
		return
	}
	routines, err := h.Routines.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list routines", err))
		return
	}
	missions, err := h.Missions.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list missions", err))
		return
	}
	profile, err := h.Rewards.EnsureForUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to get reward profile", err))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="neuri-export.json"`)
	writeData(w, http.StatusOK, export{
		User:       u,
		Categories: categories,
		Routines:   routines,
		Missions:   missions,
		Reward:     profile,
	})
}

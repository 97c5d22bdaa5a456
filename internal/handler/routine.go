package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/schedule"
	"github.com/dukerupert/neuri/internal/websocket"
)

type RoutineHandler struct {
	base
}

func NewRoutineHandler(d Deps) *RoutineHandler {
	return &RoutineHandler{base: newBase(d, "routine")}
}

type routineRequest struct {
	UserID     string  `json:"user_id"`
	CategoryID *string `json:"category_id"`
	Title      string  `json:"title"`
	Schedule   *string `json:"schedule"`
}

func (b *base) requireRoutine(id string) (*model.Routine, *apiError) {
	rt, err := b.Routines.GetByID(id)
	if err != nil {
		return nil, internal("failed to get routine", err)
	}
	if rt == nil {
		return nil, notFound("routine")
	}
	return rt, nil
}

func (b *base) createRoutine(userID string, req routineRequest) (*model.Routine, *apiError) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, badRequest("title is required")
	}
	if aerr := checkLen("title", &title, maxTextLen); aerr != nil {
		return nil, aerr
	}
	if _, aerr := b.requireUser(userID); aerr != nil {
		return nil, aerr
	}
	categoryID, aerr := parseOptionalUUID(req.CategoryID, "category_id")
	if aerr != nil {
		return nil, aerr
	}
	if aerr := b.checkCategory(userID, categoryID); aerr != nil {
		return nil, aerr
	}

	rt, err := b.Routines.Create(userID, categoryID, title, req.Schedule)
	if err != nil {
		return nil, internal("failed to create routine", err)
	}
	b.broadcast(websocket.NewMessage("routine", "created", userID, rt.ID, nil))
	return rt, nil
}

func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req routineRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	userID, aerr := parseUUID(req.UserID, "user_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	rt, aerr := h.createRoutine(userID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusCreated, rt)
}

func (h *RoutineHandler) routineFromPath(r *http.Request) (*model.Routine, *apiError) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		return nil, aerr
	}
	return h.requireRoutine(id)
}

func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	rt, aerr := h.routineFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, rt)
}

func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	rt, aerr := h.routineFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var upd model.RoutineUpdate
	if aerr := decodeJSON(w, r, &upd); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			h.fail(w, r, badRequest("title cannot be empty"))
			return
		}
		if aerr := checkLen("title", &title, maxTextLen); aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		upd.Title = &title
	}
	if upd.CategoryID != nil {
		categoryID, aerr := parseOptionalUUID(upd.CategoryID, "category_id")
		if aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		if aerr := h.checkCategory(rt.UserID, categoryID); aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		upd.CategoryID = categoryID
	}

	updated, err := h.Routines.Update(rt.ID, upd)
	if err != nil {
		h.fail(w, r, internal("failed to update routine", err))
		return
	}
	h.broadcast(websocket.NewMessage("routine", "updated", rt.UserID, rt.ID, nil))
	writeData(w, http.StatusOK, updated)
}

func (h *RoutineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rt, aerr := h.routineFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if err := h.Routines.Delete(rt.ID); err != nil {
		h.fail(w, r, internal("failed to delete routine", err))
		return
	}
	h.broadcast(websocket.NewMessage("routine", "deleted", rt.UserID, rt.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoutineHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	routines, err := h.Routines.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list routines", err))
		return
	}
	writeData(w, http.StatusOK, routines)
}

func (h *RoutineHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	categoryID, aerr := parseUUIDParam(r, "category_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	routines, err := h.Routines.ListByCategory(categoryID)
	if err != nil {
		h.fail(w, r, internal("failed to list routines", err))
		return
	}
	mine := []model.Routine{}
	for _, rt := range routines {
		if rt.UserID == u.ID {
			mine = append(mine, rt)
		}
	}
	writeData(w, http.StatusOK, mine)
}

// ListForDay returns the user's routines scheduled on the given weekday.
func (h *RoutineHandler) ListForDay(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	wd, ok := schedule.ParseWeekday(r.PathValue("day"))
	if !ok {
		h.fail(w, r, badRequest("invalid day"))
		return
	}
	routines, err := h.Routines.ListByUser(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list routines", err))
		return
	}
	writeData(w, http.StatusOK, routinesForDay(routines, schedule.Abbrev(wd)))
}

func routinesForDay(routines []model.Routine, token string) []model.Routine {
	out := []model.Routine{}
	for _, rt := range routines {
		if rt.Schedule == nil {
			continue
		}
		if schedule.MatchesDay(schedule.Parse(*rt.Schedule), token) {
			out = append(out, rt)
		}
	}
	return out
}

// Schedule returns the routine's schedule in normalised form.
func (h *RoutineHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	rt, aerr := h.routineFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	entries := []schedule.Entry{}
	if rt.Schedule != nil {
		entries = append(entries, schedule.Parse(*rt.Schedule)...)
	}
	writeData(w, http.StatusOK, entries)
}

type generatedTasks struct {
	Occurrences []schedule.Occurrence `json:"occurrences"`
	Missions    []model.Mission       `json:"missions"`
}

// generateTasks expands a routine over days starting today. When persist is
// set, the occurrences are also stored as missions.
func (b *base) generateTasks(rt *model.Routine, days int, persist bool) (any, *apiError) {
	if days > b.MaxDays {
		return nil, badRequest("days must be at most " + strconv.Itoa(b.MaxDays))
	}

	var entries []schedule.Entry
	if rt.Schedule != nil {
		entries = schedule.Parse(*rt.Schedule)
	}
	start := schedule.StartOfDay(b.now(), b.Location)
	occurrences := schedule.Expand(rt.Title, entries, days, start)
	b.Metrics.OccurrencesGenerated(len(occurrences))

	if !persist {
		return occurrences, nil
	}

	created, err := b.Missions.MaterializeOccurrences(*rt, occurrences)
	if err != nil {
		return nil, internal("failed to store generated tasks", err)
	}
	b.Metrics.OccurrencesMaterialized(len(created))
	if len(created) > 0 {
		b.broadcast(websocket.NewMessage("routine", "tasks_generated", rt.UserID, rt.ID,
			map[string]any{"count": len(created)}))
	}
	return generatedTasks{Occurrences: occurrences, Missions: created}, nil
}

func (h *RoutineHandler) GenerateTasks(w http.ResponseWriter, r *http.Request) {
	rt, aerr := h.routineFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	q := r.URL.Query()
	days, err := strconv.Atoi(q.Get("days"))
	if err != nil {
		h.fail(w, r, badRequest("days must be an integer"))
		return
	}
	persist, _ := strconv.ParseBool(q.Get("persist"))

	result, aerr := h.generateTasks(rt, days, persist)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, result)
}

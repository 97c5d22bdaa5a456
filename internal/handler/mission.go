package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/neuri/internal/mission"
	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
	"github.com/dukerupert/neuri/internal/schedule"
	"github.com/dukerupert/neuri/internal/websocket"
)

const defaultRecentDays = 7

type MissionHandler struct {
	base
}

func NewMissionHandler(d Deps) *MissionHandler {
	return &MissionHandler{base: newBase(d, "mission")}
}

type missionRequest struct {
	UserID           string            `json:"user_id"`
	CategoryID       *string           `json:"category_id"`
	ParentProjectID  *string           `json:"parent_project_id"`
	ParentRoutineID  *string           `json:"parent_routine_id"`
	Title            string            `json:"title"`
	Type             model.MissionType `json:"type"`
	Body             *string           `json:"body"`
	TrueDeadline     *time.Time        `json:"true_deadline"`
	PersonalDeadline *time.Time        `json:"personal_deadline"`
	RecurrenceRule   *string           `json:"recurrence_rule"`
	Heaviness        *int              `json:"heaviness"`
	Priority         *int              `json:"priority"`
}

func checkLevel(name string, v *int) *apiError {
	if v != nil && (*v < 1 || *v > 10) {
		return badRequest(name + " must be between 1 and 10")
	}
	return nil
}

func (b *base) requireMission(id string) (*model.Mission, *apiError) {
	m, err := b.Missions.GetByID(id)
	if err != nil {
		return nil, internal("failed to get mission", err)
	}
	if m == nil {
		return nil, notFound("mission")
	}
	return m, nil
}

// checkRefs validates the optional references a mission may carry against
// its owner.
func (b *base) checkRefs(userID string, categoryID, projectID, routineID *string) *apiError {
	if aerr := b.checkCategory(userID, categoryID); aerr != nil {
		return aerr
	}
	if projectID != nil {
		p, err := b.Missions.GetByID(*projectID)
		if err != nil {
			return internal("failed to get parent project", err)
		}
		if p == nil || p.UserID != userID {
			return badRequest("unknown parent_project_id")
		}
	}
	if routineID != nil {
		rt, err := b.Routines.GetByID(*routineID)
		if err != nil {
			return internal("failed to get routine", err)
		}
		if rt == nil || rt.UserID != userID {
			return badRequest("unknown parent_routine_id")
		}
	}
	return nil
}

// parseRefs canonicalises the category, parent project and parent routine ids.
func parseRefs(categoryID, projectID, routineID *string) ([3]*string, *apiError) {
	var refs [3]*string
	for i, ref := range []struct {
		v    *string
		name string
	}{
		{categoryID, "category_id"},
		{projectID, "parent_project_id"},
		{routineID, "parent_routine_id"},
	} {
		v, aerr := parseOptionalUUID(ref.v, ref.name)
		if aerr != nil {
			return refs, aerr
		}
		refs[i] = v
	}
	return refs, nil
}

func (b *base) withStatus(m model.Mission) mission.WithStatus {
	return mission.WithStatus{Mission: m, Status: mission.ComputeStatus(m, b.now(), b.Location)}
}

func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	m, aerr := h.buildMission(req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	created, err := h.Missions.Create(*m)
	if err != nil {
		h.fail(w, r, internal("failed to create mission", err))
		return
	}
	h.broadcast(websocket.NewMessage("mission", "created", created.UserID, created.ID, nil))
	writeData(w, http.StatusCreated, h.withStatus(*created))
}

func (h *MissionHandler) buildMission(req missionRequest) (*model.Mission, *apiError) {
	userID, aerr := parseUUID(req.UserID, "user_id")
	if aerr != nil {
		return nil, aerr
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, badRequest("title is required")
	}
	if aerr := checkLen("title", &title, maxTextLen); aerr != nil {
		return nil, aerr
	}
	if aerr := checkLen("recurrence_rule", req.RecurrenceRule, maxRuleLen); aerr != nil {
		return nil, aerr
	}
	if req.Type == "" {
		req.Type = model.MissionTask
	}
	if !req.Type.Valid() {
		return nil, badRequest("type must be one of task, project, reminder, note")
	}
	if aerr := checkLevel("heaviness", req.Heaviness); aerr != nil {
		return nil, aerr
	}
	if aerr := checkLevel("priority", req.Priority); aerr != nil {
		return nil, aerr
	}
	if _, aerr := h.requireUser(userID); aerr != nil {
		return nil, aerr
	}

	refs, aerr := parseRefs(req.CategoryID, req.ParentProjectID, req.ParentRoutineID)
	if aerr != nil {
		return nil, aerr
	}
	if aerr := h.checkRefs(userID, refs[0], refs[1], refs[2]); aerr != nil {
		return nil, aerr
	}

	return &model.Mission{
		UserID:           userID,
		CategoryID:       refs[0],
		ParentProjectID:  refs[1],
		ParentRoutineID:  refs[2],
		Title:            title,
		Type:             req.Type,
		Body:             req.Body,
		TrueDeadline:     req.TrueDeadline,
		PersonalDeadline: req.PersonalDeadline,
		RecurrenceRule:   req.RecurrenceRule,
		Heaviness:        req.Heaviness,
		Priority:         req.Priority,
	}, nil
}

func (h *MissionHandler) missionFromPath(r *http.Request) (*model.Mission, *apiError) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		return nil, aerr
	}
	return h.requireMission(id)
}

func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, aerr := h.missionFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, h.withStatus(*m))
}

type relations struct {
	Mission       mission.WithStatus   `json:"mission"`
	Category      *model.Category      `json:"category"`
	ParentProject *mission.WithStatus  `json:"parent_project"`
	Routine       *model.Routine       `json:"routine"`
	Subtasks      []mission.WithStatus `json:"subtasks"`
}

// Relations returns the mission together with everything it links to.
func (h *MissionHandler) Relations(w http.ResponseWriter, r *http.Request) {
	m, aerr := h.missionFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	out := relations{Mission: h.withStatus(*m)}
	var err error
	if m.CategoryID != nil {
		if out.Category, err = h.Categories.GetByID(*m.CategoryID); err != nil {
			h.fail(w, r, internal("failed to get category", err))
			return
		}
	}
	if m.ParentProjectID != nil {
		parent, err := h.Missions.GetByID(*m.ParentProjectID)
		if err != nil {
			h.fail(w, r, internal("failed to get parent project", err))
			return
		}
		if parent != nil {
			ps := h.withStatus(*parent)
			out.ParentProject = &ps
		}
	}
	if m.ParentRoutineID != nil {
		if out.Routine, err = h.Routines.GetByID(*m.ParentRoutineID); err != nil {
			h.fail(w, r, internal("failed to get routine", err))
			return
		}
	}
	subtasks, err := h.Missions.ListSubtasks(m.ID)
	if err != nil {
		h.fail(w, r, internal("failed to list subtasks", err))
		return
	}
	out.Subtasks = mission.Decorate(subtasks, h.now(), h.Location)

	writeData(w, http.StatusOK, out)
}

// updateMission applies a partial update. Setting is_complete to true goes
// through completion so the owner is rewarded exactly once.
func (b *base) updateMission(id string, upd model.MissionUpdate) (*mission.WithStatus, *apiError) {
	m, aerr := b.requireMission(id)
	if aerr != nil {
		return nil, aerr
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, badRequest("title cannot be empty")
		}
		upd.Title = &title
	}
	if aerr := checkLen("title", upd.Title, maxTextLen); aerr != nil {
		return nil, aerr
	}
	if aerr := checkLen("recurrence_rule", upd.RecurrenceRule, maxRuleLen); aerr != nil {
		return nil, aerr
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, badRequest("type must be one of task, project, reminder, note")
	}
	if aerr := checkLevel("heaviness", upd.Heaviness); aerr != nil {
		return nil, aerr
	}
	if aerr := checkLevel("priority", upd.Priority); aerr != nil {
		return nil, aerr
	}
	refs, aerr := parseRefs(upd.CategoryID, upd.ParentProjectID, upd.ParentRoutineID)
	if aerr != nil {
		return nil, aerr
	}
	if refs[1] != nil && *refs[1] == id {
		return nil, badRequest("a mission cannot be its own parent")
	}
	if aerr := b.checkRefs(m.UserID, refs[0], refs[1], refs[2]); aerr != nil {
		return nil, aerr
	}
	upd.CategoryID, upd.ParentProjectID, upd.ParentRoutineID = refs[0], refs[1], refs[2]

	complete := upd.IsComplete != nil && *upd.IsComplete
	if complete {
		upd.IsComplete = nil
	}

	updated, err := b.Missions.Update(id, upd)
	if err != nil {
		return nil, internal("failed to update mission", err)
	}
	if updated == nil {
		return nil, notFound("mission")
	}
	b.broadcast(websocket.NewMessage("mission", "updated", updated.UserID, updated.ID, nil))

	if complete {
		res, aerr := b.completeMission(id)
		if aerr != nil {
			return nil, aerr
		}
		return &res.Mission, nil
	}
	ws := b.withStatus(*updated)
	return &ws, nil
}

func (h *MissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var upd model.MissionUpdate
	if aerr := decodeJSON(w, r, &upd); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	m, aerr := h.updateMission(id, upd)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, m)
}

func (h *MissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	m, aerr := h.missionFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if err := h.Missions.Delete(m.ID); err != nil {
		h.fail(w, r, internal("failed to delete mission", err))
		return
	}
	h.broadcast(websocket.NewMessage("mission", "deleted", m.UserID, m.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type completionResult struct {
	Mission       mission.WithStatus `json:"mission"`
	Awarded       bool               `json:"awarded"`
	PointsAwarded int                `json:"points_awarded"`
	TierChanged   bool               `json:"tier_changed"`
	Reward        *reward.Progress   `json:"reward"`
}

// completeMission marks a mission done and credits its owner. Completing an
// already completed mission succeeds without awarding anything.
func (b *base) completeMission(id string) (*completionResult, *apiError) {
	res, err := b.Missions.Complete(id)
	if err != nil {
		return nil, internal("failed to complete mission", err)
	}
	if res == nil {
		return nil, notFound("mission")
	}

	out := &completionResult{
		Mission:       b.withStatus(res.Mission),
		Awarded:       res.Awarded,
		PointsAwarded: res.Points,
	}
	m := res.Mission
	if res.Awarded && res.Reward != nil {
		progress := reward.ProgressFor(res.Reward.After)
		out.Reward = &progress
		out.TierChanged = res.Reward.TierChanged()

		b.Metrics.MissionCompleted(string(m.Type), res.Points)
		b.logger.Info("mission completed", "mission_id", m.ID, "user_id", m.UserID, "type", m.Type,
			"points", res.Points, "total", res.Reward.After.Points)

		b.broadcast(websocket.NewMessage("mission", "completed", m.UserID, m.ID,
			map[string]any{"points": res.Points}))
		if out.TierChanged {
			b.Metrics.TierReached(res.Reward.After.Tier)
			b.broadcast(websocket.NewMessage("reward", "tier_changed", m.UserID, res.Reward.After.ID,
				map[string]any{"from": res.Reward.Before.Tier, "to": res.Reward.After.Tier}))
		}
	}
	return out, nil
}

func (h *MissionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.completeMission(id)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, res)
}

type breakDownRequest struct {
	SubtaskTitles []string `json:"subtask_titles"`
}

type breakDownResult struct {
	Project  mission.WithStatus   `json:"project"`
	Subtasks []mission.WithStatus `json:"subtasks"`
}

// breakDown splits a mission into subtasks. A mission that is not yet a
// project becomes one.
func (b *base) breakDown(id string, titles []string) (*breakDownResult, *apiError) {
	project, aerr := b.requireMission(id)
	if aerr != nil {
		return nil, aerr
	}
	if project.IsSubtask() {
		return nil, badRequest("subtasks cannot be broken down further")
	}
	var clean []string
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, badRequest("subtask_titles is required")
	}

	if project.Type != model.MissionProject {
		kind := model.MissionProject
		updated, err := b.Missions.Update(id, model.MissionUpdate{Type: &kind})
		if err != nil {
			return nil, internal("failed to convert mission to project", err)
		}
		project = updated
	}

	subtasks, err := b.Missions.CreateSubtasks(*project, clean)
	if err != nil {
		return nil, internal("failed to create subtasks", err)
	}
	b.broadcast(websocket.NewMessage("mission", "broken_down", project.UserID, project.ID,
		map[string]any{"subtasks": len(subtasks)}))

	now := b.now()
	return &breakDownResult{
		Project:  mission.WithStatus{Mission: *project, Status: mission.ComputeStatus(*project, now, b.Location)},
		Subtasks: mission.Decorate(subtasks, now, b.Location),
	}, nil
}

func (h *MissionHandler) BreakDown(w http.ResponseWriter, r *http.Request) {
	id, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req breakDownRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.breakDown(id, req.SubtaskTitles)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusCreated, res)
}

func (h *MissionHandler) writeMissions(w http.ResponseWriter, r *http.Request, missions []model.Mission, err error) {
	if err != nil {
		h.fail(w, r, internal("failed to list missions", err))
		return
	}
	writeData(w, http.StatusOK, mission.Decorate(missions, h.now(), h.Location))
}

// List returns a user's missions, optionally filtered by type, category_id
// or a title search term q.
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	q := r.URL.Query()

	var missions []model.Mission
	var err error
	switch {
	case q.Get("q") != "":
		missions, err = h.Missions.Search(u.ID, strings.TrimSpace(q.Get("q")))
	case q.Get("type") != "":
		kind := model.MissionType(strings.ToLower(q.Get("type")))
		if !kind.Valid() {
			h.fail(w, r, badRequest("invalid type"))
			return
		}
		missions, err = h.Missions.ListByType(u.ID, kind)
	case q.Get("category_id") != "":
		categoryID, aerr := parseUUID(q.Get("category_id"), "category_id")
		if aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		if aerr := h.checkCategory(u.ID, &categoryID); aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		missions, err = h.Missions.ListByCategory(categoryID)
	case q.Get("status") == "completed":
		missions, err = h.Missions.ListCompleted(u.ID)
	case q.Get("status") == "pending":
		missions, err = h.Missions.ListPending(u.ID)
	default:
		missions, err = h.Missions.ListByUser(u.ID)
	}
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) Today(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	start, end := mission.DayBounds(h.now(), h.Location)
	missions, err := h.Missions.ListDueBetween(u.ID, start, end)
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	missions, err := h.Missions.ListOverdue(u.ID, h.now())
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) HighPriority(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	missions, err := h.Missions.ListHighPriority(u.ID, mission.HighPriorityThreshold)
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) Heavy(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	missions, err := h.Missions.ListHeavy(u.ID, mission.HeavyThreshold)
	h.writeMissions(w, r, missions, err)
}

// Recent returns missions created in the last ?days= days (default 7).
func (h *MissionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	days := defaultRecentDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > h.MaxDays {
			h.fail(w, r, badRequest("days must be an integer between 0 and "+strconv.Itoa(h.MaxDays)))
			return
		}
		days = n
	}
	missions, err := h.Missions.ListRecent(u.ID, h.now().AddDate(0, 0, -days))
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	stats, err := h.Missions.Stats(u.ID)
	if err != nil {
		h.fail(w, r, internal("failed to get mission stats", err))
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *MissionHandler) Subtasks(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	projectID, aerr := parseUUIDParam(r, "project_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	project, aerr := h.requireMission(projectID)
	if aerr != nil || project.UserID != u.ID {
		if aerr == nil {
			aerr = notFound("mission")
		}
		h.fail(w, r, aerr)
		return
	}
	missions, err := h.Missions.ListSubtasks(projectID)
	h.writeMissions(w, r, missions, err)
}

func (h *MissionHandler) ByRoutine(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	routineID, aerr := parseUUIDParam(r, "routine_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	rt, aerr := h.requireRoutine(routineID)
	if aerr != nil || rt.UserID != u.ID {
		if aerr == nil {
			aerr = notFound("routine")
		}
		h.fail(w, r, aerr)
		return
	}
	missions, err := h.Missions.ListByRoutine(routineID)
	h.writeMissions(w, r, missions, err)
}

type missionContext struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Today         []mission.WithStatus `json:"today"`
	Overdue       []mission.WithStatus `json:"overdue"`
	HighPriority  []mission.WithStatus `json:"high_priority"`
	Heavy         []mission.WithStatus `json:"heavy"`
	Recent        []mission.WithStatus `json:"recent"`
	RoutinesToday []model.Routine      `json:"routines_today"`
	Stats         *model.MissionStats  `json:"stats"`
	Reward        reward.Progress      `json:"reward"`
}

// missionContext gathers what a voice assistant needs to talk about the
// user's day.
func (b *base) missionContext(userID string) (*missionContext, *apiError) {
	now := b.now()
	start, end := mission.DayBounds(now, b.Location)

	today, err := b.Missions.ListDueBetween(userID, start, end)
	if err != nil {
		return nil, internal("failed to list today's missions", err)
	}
	overdue, err := b.Missions.ListOverdue(userID, now)
	if err != nil {
		return nil, internal("failed to list overdue missions", err)
	}
	high, err := b.Missions.ListHighPriority(userID, mission.HighPriorityThreshold)
	if err != nil {
		return nil, internal("failed to list high priority missions", err)
	}
	heavy, err := b.Missions.ListHeavy(userID, mission.HeavyThreshold)
	if err != nil {
		return nil, internal("failed to list heavy missions", err)
	}
	recent, err := b.Missions.ListRecent(userID, now.AddDate(0, 0, -defaultRecentDays))
	if err != nil {
		return nil, internal("failed to list recent missions", err)
	}
	routines, err := b.Routines.ListByUser(userID)
	if err != nil {
		return nil, internal("failed to list routines", err)
	}
	stats, err := b.Missions.Stats(userID)
	if err != nil {
		return nil, internal("failed to get mission stats", err)
	}
	profile, err := b.Rewards.EnsureForUser(userID)
	if err != nil {
		return nil, internal("failed to get reward profile", err)
	}

	return &missionContext{
		GeneratedAt:   now,
		Today:         mission.Decorate(today, now, b.Location),
		Overdue:       mission.Decorate(overdue, now, b.Location),
		HighPriority:  mission.Decorate(high, now, b.Location),
		Heavy:         mission.Decorate(heavy, now, b.Location),
		Recent:        mission.Decorate(recent, now, b.Location),
		RoutinesToday: routinesForDay(routines, schedule.Abbrev(now.Weekday())),
		Stats:         stats,
		Reward:        reward.ProgressFor(*profile),
	}, nil
}

func (h *MissionHandler) Context(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	ctx, aerr := h.missionContext(u.ID)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, ctx)
}

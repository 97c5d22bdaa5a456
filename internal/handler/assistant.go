package handler

import (
	"net/http"

	"github.com/dukerupert/neuri/internal/model"
)

// AssistantHandler serves the voice-assistant tool calls. The assistant has
// no notion of users, so every call acts on one configured user.
type AssistantHandler struct {
	base
	userID string
}

func NewAssistantHandler(d Deps, userID string) *AssistantHandler {
	return &AssistantHandler{base: newBase(d, "assistant"), userID: userID}
}

// user resolves the configured user, failing if it is unset or missing.
func (h *AssistantHandler) user() (*model.User, *apiError) {
	if h.userID == "" {
		return nil, &apiError{status: http.StatusServiceUnavailable, msg: "assistant user not configured"}
	}
	return h.requireUser(h.userID)
}

// ownMission loads a mission by id and checks it belongs to the assistant user.
func (h *AssistantHandler) ownMission(rawID string) (string, *apiError) {
	u, aerr := h.user()
	if aerr != nil {
		return "", aerr
	}
	id, aerr := parseUUID(rawID, "mission_id")
	if aerr != nil {
		return "", aerr
	}
	m, aerr := h.requireMission(id)
	if aerr != nil {
		return "", aerr
	}
	if m.UserID != u.ID {
		return "", notFound("mission")
	}
	return id, nil
}

func (h *AssistantHandler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req routineRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	rt, aerr := h.createRoutine(u.ID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusCreated, rt)
}

type generateTasksRequest struct {
	RoutineID string `json:"routine_id"`
	Days      int    `json:"days"`
	Persist   bool   `json:"persist"`
}

func (h *AssistantHandler) GenerateRoutineTasks(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req generateTasksRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	id, aerr := parseUUID(req.RoutineID, "routine_id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	rt, aerr := h.requireRoutine(id)
	if aerr == nil && rt.UserID != u.ID {
		aerr = notFound("routine")
	}
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	result, aerr := h.generateTasks(rt, req.Days, req.Persist)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, result)
}

type missionIDRequest struct {
	MissionID string `json:"mission_id"`
}

func (h *AssistantHandler) CompleteMission(w http.ResponseWriter, r *http.Request) {
	var req missionIDRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	id, aerr := h.ownMission(req.MissionID)
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

type assistantBreakDownRequest struct {
	MissionID     string   `json:"mission_id"`
	SubtaskTitles []string `json:"subtask_titles"`
}

func (h *AssistantHandler) BreakDownMission(w http.ResponseWriter, r *http.Request) {
	var req assistantBreakDownRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	id, aerr := h.ownMission(req.MissionID)
	if aerr != nil {
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

type assistantUpdateMissionRequest struct {
	MissionID string `json:"mission_id"`
	model.MissionUpdate
}

func (h *AssistantHandler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	var req assistantUpdateMissionRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	id, aerr := h.ownMission(req.MissionID)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	m, aerr := h.updateMission(id, req.MissionUpdate)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, m)
}

func (h *AssistantHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req categoryRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	c, aerr := h.createCategory(u.ID, req.Name)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusCreated, c)
}

type getOrCreateCategoryRequest struct {
	UserID       string `json:"user_id"`
	CategoryName string `json:"category_name"`
}

// GetOrCreateCategory honours an explicit user_id and otherwise uses the
// configured user.
func (h *AssistantHandler) GetOrCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req getOrCreateCategoryRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	userID := h.userID
	if req.UserID != "" {
		id, aerr := parseUUID(req.UserID, "user_id")
		if aerr != nil {
			h.fail(w, r, aerr)
			return
		}
		userID = id
	} else if _, aerr := h.user(); aerr != nil {
		h.fail(w, r, aerr)
		return
	}

	c, created, aerr := h.getOrCreateCategory(userID, req.CategoryName)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeData(w, status, c)
}

func (h *AssistantHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req streakRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.adjustStreak(u.ID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *AssistantHandler) AddMissionPoints(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req missionPointsRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.addMissionPoints(u.ID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, res)
}

type assistantUserRequest struct {
	Name              *string `json:"name"`
	Pace              *string `json:"pace"`
	PreferredWorkTime *string `json:"preferred_work_time"`
}

func (h *AssistantHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req assistantUserRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	updated, aerr := h.updateUser(u.ID, model.UserUpdate{
		Name:              req.Name,
		Pace:              req.Pace,
		PreferredWorkTime: req.PreferredWorkTime,
	})
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (h *AssistantHandler) Context(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.user()
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

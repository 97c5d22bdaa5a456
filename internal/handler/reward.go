package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/neuri/internal/model"
	"github.com/dukerupert/neuri/internal/reward"
	"github.com/dukerupert/neuri/internal/store"
	"github.com/dukerupert/neuri/internal/websocket"
)

type RewardHandler struct {
	base
}

func NewRewardHandler(d Deps) *RewardHandler {
	return &RewardHandler{base: newBase(d, "reward")}
}

type rewardResult struct {
	Profile  model.RewardProfile `json:"profile"`
	Progress reward.Progress     `json:"progress"`
}

func newRewardResult(p model.RewardProfile) rewardResult {
	return rewardResult{Profile: p, Progress: reward.ProgressFor(p)}
}

// publishChange broadcasts a profile write and records tier movement.
func (b *base) publishChange(c *store.Change) {
	b.broadcast(websocket.NewMessage("reward", "updated", c.After.UserID, c.After.ID, nil))
	if c.TierChanged() {
		b.Metrics.TierReached(c.After.Tier)
		b.broadcast(websocket.NewMessage("reward", "tier_changed", c.After.UserID, c.After.ID,
			map[string]any{"from": c.Before.Tier, "to": c.After.Tier}))
	}
}

type missionPointsRequest struct {
	MissionType string `json:"mission_type"`
	IsSubtask   bool   `json:"is_subtask"`
}

// addMissionPoints credits a completion that happened outside a stored mission.
func (b *base) addMissionPoints(userID string, req missionPointsRequest) (*rewardResult, *apiError) {
	kind := model.MissionType(strings.ToLower(strings.TrimSpace(req.MissionType)))
	if kind == "" {
		return nil, badRequest("mission_type is required")
	}
	if _, aerr := b.requireUser(userID); aerr != nil {
		return nil, aerr
	}
	c, err := b.Rewards.RecordCompletion(userID, kind, req.IsSubtask)
	if err != nil {
		return nil, internal("failed to add mission points", err)
	}
	b.Metrics.MissionCompleted(string(kind), c.After.Points-c.Before.Points)
	b.publishChange(c)
	res := newRewardResult(c.After)
	return &res, nil
}

type streakRequest struct {
	StreakChange *int `json:"streak_change"`
}

func (b *base) adjustStreak(userID string, req streakRequest) (*rewardResult, *apiError) {
	if req.StreakChange == nil {
		return nil, badRequest("streak_change is required")
	}
	if _, aerr := b.requireUser(userID); aerr != nil {
		return nil, aerr
	}
	c, err := b.Rewards.AdjustStreak(userID, *req.StreakChange)
	if err != nil {
		return nil, internal("failed to update streak", err)
	}
	b.publishChange(c)
	res := newRewardResult(c.After)
	return &res, nil
}

type pointsRequest struct {
	PointsChange *int `json:"points_change"`
}

func (h *RewardHandler) profileFor(r *http.Request) (*model.RewardProfile, *apiError) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		return nil, aerr
	}
	p, err := h.Rewards.EnsureForUser(u.ID)
	if err != nil {
		return nil, internal("failed to get reward profile", err)
	}
	return p, nil
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, aerr := h.profileFor(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *RewardHandler) MissionPoints(w http.ResponseWriter, r *http.Request) {
	userID, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req missionPointsRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.addMissionPoints(userID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (h *RewardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID, aerr := parseUUIDParam(r, "id")
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req streakRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	res, aerr := h.adjustStreak(userID, req)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, res)
}

// Points applies a manual adjustment. Totals never drop below zero.
func (h *RewardHandler) Points(w http.ResponseWriter, r *http.Request) {
	u, aerr := h.userFromPath(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	var req pointsRequest
	if aerr := decodeJSON(w, r, &req); aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	if req.PointsChange == nil {
		h.fail(w, r, badRequest("points_change is required"))
		return
	}
	c, err := h.Rewards.AdjustPoints(u.ID, *req.PointsChange)
	if err != nil {
		h.fail(w, r, internal("failed to update points", err))
		return
	}
	h.publishChange(c)
	writeData(w, http.StatusOK, newRewardResult(c.After))
}

func (h *RewardHandler) TreeProgress(w http.ResponseWriter, r *http.Request) {
	p, aerr := h.profileFor(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	writeData(w, http.StatusOK, reward.ProgressFor(*p))
}

type rewardDashboard struct {
	Points             int             `json:"points"`
	Streak             int             `json:"streak"`
	TotalTasksDone     int             `json:"total_tasks_done"`
	TreeStage          reward.Tier     `json:"tree_stage"`
	TreeProgress       reward.Progress `json:"tree_progress"`
	MilestonesUnlocked []reward.Tier   `json:"milestones_unlocked"`
}

func (h *RewardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, aerr := h.profileFor(r)
	if aerr != nil {
		h.fail(w, r, aerr)
		return
	}
	progress := reward.ProgressFor(*p)
	writeData(w, http.StatusOK, rewardDashboard{
		Points:             p.Points,
		Streak:             p.Streak,
		TotalTasksDone:     p.TotalTasksDone,
		TreeStage:          progress.Tier,
		TreeProgress:       progress,
		MilestonesUnlocked: reward.Milestones(p.Points),
	})
}

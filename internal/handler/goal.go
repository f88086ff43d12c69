package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
	"github.com/cadencehq/cadence/internal/websocket"
)

type GoalHandler struct {
	goals  *store.GoalStore
	habits *store.HabitStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGoalHandler(gs *store.GoalStore, hs *store.HabitStore, hub *websocket.Hub, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: gs, habits: hs, hub: hub, logger: logger}
}

func (h *GoalHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Send(userID, msg)
	}
}

type goalRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	Icon          string  `json:"icon"`
	Category      string  `json:"category"`
	TargetValue   int     `json:"target_value"`
	Unit          string  `json:"unit"`
	StartDate     *string `json:"start_date"`
	Deadline      *string `json:"deadline"`
	LinkedHabitID *int64  `json:"linked_habit_id"`
}

func (req *goalRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.TargetValue <= 0 {
		return "target_value must be positive"
	}
	if req.Type == "" {
		req.Type = model.GoalTypeCount
	}
	if !model.ValidGoalType(req.Type) {
		return "invalid goal type"
	}
	if req.Icon == "" {
		req.Icon = "🎯"
	}
	for _, d := range []*string{req.StartDate, req.Deadline} {
		if d == nil {
			continue
		}
		if _, err := time.Parse(model.DateLayout, *d); err != nil {
			return "dates must be YYYY-MM-DD"
		}
	}
	return ""
}

// checkLinkedHabit verifies a linked habit exists and belongs to the user.
func (h *GoalHandler) checkLinkedHabit(userID int64, habitID *int64) (bool, error) {
	if habitID == nil {
		return true, nil
	}
	habit, err := h.habits.GetByID(*habitID, userID, today())
	if err != nil {
		return false, err
	}
	return habit != nil, nil
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	goals, err := h.goals.ListActiveByUser(userID)
	if err != nil {
		h.logger.Error("list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ok, err := h.checkLinkedHabit(userID, req.LinkedHabitID)
	if err != nil {
		h.logger.Error("check linked habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "linked habit not found")
		return
	}

	goal, err := h.goals.Create(&model.Goal{
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Icon:          req.Icon,
		Category:      req.Category,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
		StartDate:     req.StartDate,
		Deadline:      req.Deadline,
		LinkedHabitID: req.LinkedHabitID,
	})
	if err != nil {
		h.logger.Error("create goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	h.notify(userID, websocket.NewMessage("goal", "created", goal.ID, nil))

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	goal, err := h.goals.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if goal == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.goals.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ok, err := h.checkLinkedHabit(userID, req.LinkedHabitID)
	if err != nil {
		h.logger.Error("check linked habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update goal")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "linked habit not found")
		return
	}

	goal, err := h.goals.Update(&model.Goal{
		ID:            id,
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Icon:          req.Icon,
		Category:      req.Category,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
		StartDate:     req.StartDate,
		Deadline:      req.Deadline,
		LinkedHabitID: req.LinkedHabitID,
	})
	if err != nil {
		h.logger.Error("update goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update goal")
		return
	}

	h.notify(userID, websocket.NewMessage("goal", "updated", id, nil))

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.goals.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	if err := h.goals.Archive(id, userID); err != nil {
		h.logger.Error("archive goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	h.notify(userID, websocket.NewMessage("goal", "archived", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type progressRequest struct {
	CurrentValue int `json:"current_value"`
}

func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CurrentValue < 0 {
		writeError(w, http.StatusBadRequest, "current_value must not be negative")
		return
	}

	existing, err := h.goals.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	goal, err := h.goals.SetProgress(id, userID, req.CurrentValue)
	if err != nil {
		h.logger.Error("set goal progress", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update progress")
		return
	}

	h.notify(userID, websocket.NewMessage("goal", "progress", id, map[string]any{
		"current_value": goal.CurrentValue,
		"completed":     goal.Completed,
	}))

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Increment(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.goals.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "goal not found")
		return
	}

	goal, err := h.goals.Increment(id, userID)
	if err != nil {
		h.logger.Error("increment goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update progress")
		return
	}

	h.notify(userID, websocket.NewMessage("goal", "progress", id, map[string]any{
		"current_value": goal.CurrentValue,
		"completed":     goal.Completed,
	}))

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	goals, err := h.goals.ListActiveByUser(userID)
	if err != nil {
		h.logger.Error("goal stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	now := time.Now().UTC()
	weekOut := now.AddDate(0, 0, 7).Format(model.DateLayout)
	todayStr := now.Format(model.DateLayout)

	completed := 0
	upcoming := 0
	progressSum := 0
	incomplete := 0
	for i := range goals {
		g := &goals[i]
		if g.Completed {
			completed++
			continue
		}
		incomplete++
		progressSum += g.ProgressPercent()
		if g.Deadline != nil && *g.Deadline >= todayStr && *g.Deadline <= weekOut {
			upcoming++
		}
	}

	avgProgress := 0.0
	if incomplete > 0 {
		avgProgress = float64(progressSum) / float64(incomplete)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_goals":        len(goals),
		"completed_goals":    completed,
		"in_progress_goals":  incomplete,
		"upcoming_deadlines": upcoming,
		"average_progress":   avgProgress,
	})
}

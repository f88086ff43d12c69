package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
	"github.com/cadencehq/cadence/internal/websocket"
)

type HabitHandler struct {
	habits   *store.HabitStore
	checkins *store.CheckInStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewHabitHandler(hs *store.HabitStore, cs *store.CheckInStore, hub *websocket.Hub, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{habits: hs, checkins: cs, hub: hub, logger: logger}
}

func (h *HabitHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Send(userID, msg)
	}
}

func today() string {
	return time.Now().UTC().Format(model.DateLayout)
}

type habitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Target      string `json:"target"`
	Icon        string `json:"icon"`
}

// validate normalizes the request and returns an error message, empty on
// success.
func (req *habitRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(req.Name); n < 2 || n > 100 {
		return "name must be 2-100 characters"
	}
	if utf8.RuneCountInString(req.Description) > 500 {
		return "description must be at most 500 characters"
	}
	if req.Frequency == "" {
		req.Frequency = model.FrequencyDaily
	}
	if !model.ValidFrequency(req.Frequency) {
		return "invalid frequency"
	}
	if req.Icon == "" {
		req.Icon = "✅"
	}
	return ""
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	habits, err := h.habits.ListActiveByUser(userID, today())
	if err != nil {
		h.logger.Error("list habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list habits")
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	habit, err := h.habits.Create(userID, req.Name, req.Description, req.Frequency, req.Target, req.Icon, today())
	if err != nil {
		h.logger.Error("create habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create habit")
		return
	}

	h.notify(userID, websocket.NewMessage("habit", "created", habit.ID, nil))

	writeJSON(w, http.StatusCreated, habit)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	habit, err := h.habits.GetByID(id, userID, today())
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get habit")
		return
	}
	if habit == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	habit, err := h.habits.Update(id, userID, req.Name, req.Description, req.Frequency, req.Target, req.Icon, today())
	if err != nil {
		h.logger.Error("update habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update habit")
		return
	}
	if habit == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}

	h.notify(userID, websocket.NewMessage("habit", "updated", id, nil))

	writeJSON(w, http.StatusOK, habit)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	habit, err := h.habits.GetByID(id, userID, today())
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get habit")
		return
	}
	if habit == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}

	if err := h.habits.Archive(id, userID); err != nil {
		h.logger.Error("archive habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete habit")
		return
	}

	h.notify(userID, websocket.NewMessage("habit", "archived", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type checkInRequest struct {
	Notes string `json:"notes"`
}

func (h *HabitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req checkInRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if utf8.RuneCountInString(req.Notes) > 500 {
		writeError(w, http.StatusBadRequest, "notes must be at most 500 characters")
		return
	}

	habit, already, err := h.habits.CheckIn(id, userID, time.Now().UTC(), req.Notes)
	if err != nil {
		h.logger.Error("check in", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check in")
		return
	}
	if habit == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}

	if !already {
		h.notify(userID, websocket.NewMessage("habit", "checked_in", id, map[string]any{
			"current_streak": habit.CurrentStreak,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"habit":            habit,
		"already_recorded": already,
	})
}

func (h *HabitHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	days := queryInt(r, "days", 30)
	if days < 1 {
		days = 30
	}

	habit, err := h.habits.GetByID(id, userID, today())
	if err != nil {
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get habit")
		return
	}
	if habit == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -(days - 1))

	history, err := h.checkins.History(id, userID, start.Format(model.DateLayout), end.Format(model.DateLayout))
	if err != nil {
		h.logger.Error("check-in history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if history == nil {
		history = []model.CheckIn{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *HabitHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	habits, err := h.habits.ListActiveByUser(userID, today())
	if err != nil {
		h.logger.Error("habit stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	completed := 0
	streakTotal := 0
	for _, habit := range habits {
		if habit.CheckedToday {
			completed++
		}
		streakTotal += habit.CurrentStreak
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_habits":         len(habits),
		"completed_today":      completed,
		"remaining_today":      len(habits) - completed,
		"current_streak_total": streakTotal,
	})
}

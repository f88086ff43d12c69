package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cadencehq/cadence/internal/achievement"
	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/dashboard"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

type DashboardHandler struct {
	dash   *dashboard.Summarizer
	habits *store.HabitStore
	logger *slog.Logger
}

func NewDashboardHandler(dash *dashboard.Summarizer, hs *store.HabitStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dash: dash, habits: hs, logger: logger}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	summary, err := h.dash.Summary(userID)
	if err != nil {
		h.logger.Error("dashboard summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	weekly, err := h.dash.WeeklyProgress(userID)
	if err != nil {
		h.logger.Error("weekly progress", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build weekly progress")
		return
	}
	writeJSON(w, http.StatusOK, weekly)
}

func (h *DashboardHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	now := time.Now().UTC()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	cal, err := h.dash.MonthlyCalendar(userID, year, month)
	if err != nil {
		h.logger.Error("monthly calendar", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	habits, err := h.dash.Leaderboard(userID)
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *DashboardHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	habits, err := h.habits.ListActiveByUser(userID, today())
	if err != nil {
		h.logger.Error("achievements habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to evaluate achievements")
		return
	}
	totalHabits, err := h.habits.CountByUser(userID)
	if err != nil {
		h.logger.Error("achievements habit count", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to evaluate achievements")
		return
	}

	metrics := achievement.Metrics{TotalHabits: totalHabits}
	perfect := len(habits) > 0
	for _, habit := range habits {
		if habit.LongestStreak > metrics.LongestStreak {
			metrics.LongestStreak = habit.LongestStreak
		}
		metrics.TotalCheckIns += habit.TotalCheckIns
		if !habit.CheckedToday {
			perfect = false
		}
	}
	metrics.PerfectDay = perfect

	writeJSON(w, http.StatusOK, achievement.Evaluate(metrics))
}

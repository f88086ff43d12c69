package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cadencehq/cadence/internal/analytics"
	"github.com/cadencehq/cadence/internal/auth"
)

type AnalyticsHandler struct {
	agg    *analytics.Aggregator
	logger *slog.Logger
}

func NewAnalyticsHandler(agg *analytics.Aggregator, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{agg: agg, logger: logger}
}

func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	switch period := r.URL.Query().Get("period"); period {
	case "", "daily":
		days := queryInt(r, "days", 30)
		if days < 1 || days > 365 {
			days = 30
		}
		trend, err := h.agg.DailyTrend(userID, days)
		if err != nil {
			h.logger.Error("daily trend", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to compute trend")
			return
		}
		writeJSON(w, http.StatusOK, trend)
	case "weekly":
		weeks := queryInt(r, "weeks", 12)
		if weeks < 1 || weeks > 52 {
			weeks = 12
		}
		trend, err := h.agg.WeeklyTrend(userID, weeks)
		if err != nil {
			h.logger.Error("weekly trend", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to compute trend")
			return
		}
		writeJSON(w, http.StatusOK, trend)
	default:
		writeError(w, http.StatusBadRequest, "period must be daily or weekly")
	}
}

func (h *AnalyticsHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	year := queryInt(r, "year", time.Now().UTC().Year())
	if year < 2000 || year > 2100 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	heatmap, err := h.agg.YearHeatmap(userID, year)
	if err != nil {
		h.logger.Error("year heatmap", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute heatmap")
		return
	}
	writeJSON(w, http.StatusOK, heatmap)
}

func (h *AnalyticsHandler) HabitRates(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	days := queryInt(r, "days", 30)
	if days < 1 || days > 365 {
		days = 30
	}

	rates, err := h.agg.HabitRates(userID, days)
	if err != nil {
		h.logger.Error("habit rates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute rates")
		return
	}
	if rates == nil {
		rates = []analytics.HabitRate{}
	}
	writeJSON(w, http.StatusOK, rates)
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/motivation"
)

type MotivationHandler struct {
	svc    *motivation.Service
	logger *slog.Logger
}

func NewMotivationHandler(svc *motivation.Service, logger *slog.Logger) *MotivationHandler {
	return &MotivationHandler{svc: svc, logger: logger}
}

func (h *MotivationHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	resp, err := h.svc.Daily(userID)
	if err != nil {
		h.logger.Error("daily motivation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build motivation")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MotivationHandler) Celebration(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	resp, err := h.svc.Celebration(userID)
	if err != nil {
		h.logger.Error("celebration", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build celebration")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MotivationHandler) HabitTips(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	resp, err := h.svc.HabitTips(userID, id)
	if err != nil {
		h.logger.Error("habit tips", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build tips")
		return
	}
	if resp == nil {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *MotivationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(req.Message) > 1000 {
		writeError(w, http.StatusBadRequest, "message must be at most 1000 characters")
		return
	}

	resp, err := h.svc.Chat(userID, req.Message)
	if err != nil {
		h.logger.Error("chat", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build reply")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

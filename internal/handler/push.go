package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/push"
	"github.com/cadencehq/cadence/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	users   *store.UserStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(ps *store.PushStore, us *store.UserStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: ps, users: us, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.subs.CreateSubscription(userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	sub, err := h.subs.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}

	if err := h.subs.DeleteSubscription(id, userID); err != nil {
		h.logger.Error("delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || !h.service.Configured() {
		writeError(w, http.StatusServiceUnavailable, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type reminderRequest struct {
	Hour *int `json:"hour"`
}

// UpdateReminder sets or clears the daily reminder hour (UTC).
func (h *PushHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Hour != nil && (*req.Hour < 0 || *req.Hour > 23) {
		writeError(w, http.StatusBadRequest, "hour must be 0-23")
		return
	}

	if err := h.users.SetReminderHour(userID, req.Hour); err != nil {
		h.logger.Error("set reminder hour", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reminder")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminder_hour": req.Hour})
}

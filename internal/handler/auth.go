package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/email"
	"github.com/cadencehq/cadence/internal/middleware"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

const maxCodeAttempts = 5

type AuthHandler struct {
	users    *store.UserStore
	sessions *store.SessionStore
	codes    *store.VerificationStore
	email    *email.Client
	logger   *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, vs *store.VerificationStore, ec *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    us,
		sessions: ss,
		codes:    vs,
		email:    ec,
		logger:   logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.sendCode(user.Email, model.PurposeRegister); err != nil {
		h.logger.Error("send verification code", "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "verification code sent",
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)

	if errMsg := h.validateCode(req.Email, req.Code); errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil || user == nil {
		h.logger.Error("verify user lookup", "error", err)
		writeError(w, http.StatusBadRequest, "user not found")
		return
	}

	if !user.Verified() {
		if err := h.users.MarkVerified(user.ID); err != nil {
			h.logger.Error("mark verified", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !user.Verified() {
		if err := h.sendCode(user.Email, model.PurposeLogin); err != nil {
			h.logger.Error("send verification code", "error", err)
		}
		writeError(w, http.StatusForbidden, "email not verified; a new code has been sent")
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	user, err := h.users.GetByID(userID)
	if err != nil {
		h.logger.Error("me lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) sendCode(emailAddr, purpose string) error {
	vc, err := h.codes.Create(emailAddr, purpose)
	if err != nil {
		return err
	}
	return h.email.SendVerificationCode(emailAddr, vc.Code, purpose)
}

// validateCode checks the code for the given email, handling attempts and
// expiry. Returns an error message on failure, empty string on success.
func (h *AuthHandler) validateCode(emailAddr, code string) string {
	if emailAddr == "" || code == "" {
		return "email and code are required"
	}

	latest, err := h.codes.GetLatestByEmail(emailAddr)
	if err != nil {
		h.logger.Error("validate code lookup", "error", err)
		return "internal error"
	}
	if latest == nil || !latest.Valid() {
		return "code has expired or already been used; request a new one"
	}

	if latest.Code != code {
		attempts, err := h.codes.IncrementAttempts(latest.ID)
		if err != nil {
			h.logger.Error("increment attempts", "error", err)
		}
		if attempts >= maxCodeAttempts {
			h.codes.MarkUsed(latest.ID)
			return "too many incorrect attempts; request a new code"
		}
		return "incorrect code"
	}

	if err := h.codes.MarkUsed(latest.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
		return "internal error"
	}
	return ""
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess, err := h.sessions.Create(userID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(store.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return nil
}

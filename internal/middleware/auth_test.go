package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cadencehq/cadence/internal/auth"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("ana@example.com", "Ana", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return store.NewSessionStore(db), user.ID
}

func TestRequireAuthValidSession(t *testing.T) {
	sessions, userID := setupAuthTest(t)

	sess, err := sessions.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotUserID int64
	handler := RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/habits", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != userID {
		t.Errorf("user id = %d, want %d", gotUserID, userID)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	sessions, _ := setupAuthTest(t)

	handler := RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without session")
	}))

	// No cookie
	req := httptest.NewRequest("GET", "/api/habits", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	// Bogus token
	req = httptest.NewRequest("GET", "/api/habits", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

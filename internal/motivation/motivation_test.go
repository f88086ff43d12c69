package motivation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cadencehq/cadence/internal/dashboard"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

func setupService(t *testing.T, gen *GeminiClient) (*Service, *store.HabitStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("test@example.com", "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	hs := store.NewHabitStore(db)
	dash := dashboard.New(hs, store.NewCheckInStore(db))
	svc := NewService(gen, dash, hs, slog.Default()).WithPicker(func(n int) int { return 0 })
	return svc, hs, user.ID
}

func TestDailyFallbackWhenUnconfigured(t *testing.T) {
	svc, _, userID := setupService(t, NewGeminiClient("", ""))

	resp, err := svc.Daily(userID)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if resp.AIGenerated {
		t.Error("unconfigured client produced AI message")
	}
	if resp.Message != fallbackQuotes[0] {
		t.Errorf("message = %q, want pinned fallback", resp.Message)
	}
	if resp.Type != TypeDaily {
		t.Errorf("type = %q, want %q", resp.Type, TypeDaily)
	}
}

func TestDailyUsesGeneratedText(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := readJSON(r, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		prompt = req.Contents[0].Parts[0].Text
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"You are on fire! Keep it up."}]}}]}`))
	}))
	defer server.Close()

	gen := NewGeminiClient("test-key", server.URL)
	svc, hs, userID := setupService(t, gen)

	if _, err := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10"); err != nil {
		t.Fatalf("create habit: %v", err)
	}

	resp, err := svc.Daily(userID)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if !resp.AIGenerated {
		t.Error("expected AI-generated message")
	}
	if resp.Message != "You are on fire! Keep it up." {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.Contains(prompt, "Active habits: 1") {
		t.Errorf("prompt missing stats: %q", prompt)
	}
	if resp.Context.TotalHabits != 1 {
		t.Errorf("context = %+v", resp.Context)
	}
}

func TestDailyFallsBackOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, _, userID := setupService(t, NewGeminiClient("test-key", server.URL))

	resp, err := svc.Daily(userID)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if resp.AIGenerated {
		t.Error("failed API call still marked AI-generated")
	}
	if resp.Message != fallbackQuotes[0] {
		t.Errorf("message = %q, want fallback", resp.Message)
	}
}

func TestHabitTips(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := readJSON(r, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		prompt = req.Contents[0].Parts[0].Text
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- Lay out your shoes the night before."}]}}]}`))
	}))
	defer server.Close()

	svc, hs, userID := setupService(t, NewGeminiClient("test-key", server.URL))
	habit, err := hs.Create(userID, "Morning run", "", model.FrequencyDaily, "5k", "🏃", "2026-01-10")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	resp, err := svc.HabitTips(userID, habit.ID)
	if err != nil {
		t.Fatalf("habit tips: %v", err)
	}
	if resp == nil {
		t.Fatal("expected a response")
	}
	if resp.Type != TypeHabitTip || resp.Context.HabitName != "Morning run" {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(prompt, "Morning run") || !strings.Contains(prompt, "5k") {
		t.Errorf("prompt missing habit detail: %q", prompt)
	}

	// Unknown habit
	resp, err = svc.HabitTips(userID, 9999)
	if err != nil {
		t.Fatalf("habit tips: %v", err)
	}
	if resp != nil {
		t.Error("expected nil for unknown habit")
	}
}

func TestChatIncludesUserMessage(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := readJSON(r, &req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		prompt = req.Contents[0].Parts[0].Text
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Try habit stacking."}]}}]}`))
	}))
	defer server.Close()

	svc, _, userID := setupService(t, NewGeminiClient("test-key", server.URL))

	resp, err := svc.Chat(userID, "How do I stay consistent?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Type != TypeChat || resp.Message != "Try habit stacking." {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(prompt, "How do I stay consistent?") {
		t.Errorf("prompt missing user message: %q", prompt)
	}
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cadencehq/cadence/internal/model"
)

func TestSendVerificationCodeRegister(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	err := client.SendVerificationCode("alice@example.com", "123456", model.PurposeRegister)
	if err != nil {
		t.Fatalf("send verification code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "Welcome to Cadence" {
		t.Errorf("Subject = %q, want %q", received.Subject, "Welcome to Cadence")
	}
	if !strings.Contains(received.TextBody, "123456") {
		t.Errorf("code missing from body: %q", received.TextBody)
	}
}

func TestSendVerificationCodeLogin(t *testing.T) {
	var received postmarkEmail

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	if err := client.SendVerificationCode("bob@example.com", "654321", model.PurposeLogin); err != nil {
		t.Fatalf("send verification code: %v", err)
	}
	if received.Subject != "Sign in to Cadence" {
		t.Errorf("Subject = %q, want login subject", received.Subject)
	}
}

func TestSendVerificationCodeNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")

	err := client.SendVerificationCode("alice@example.com", "123456", model.PurposeRegister)
	if err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestSendVerificationCodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	err := client.SendVerificationCode("alice@example.com", "123456", model.PurposeRegister)
	if err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}

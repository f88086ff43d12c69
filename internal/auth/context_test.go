package auth

import (
	"context"
	"testing"
)

func TestAuthContextRoundTrip(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 42, SessionID: 7})

	ac, ok := FromContext(ctx)
	if !ok {
		t.Fatal("auth context missing")
	}
	if ac.UserID != 42 || ac.SessionID != 7 {
		t.Errorf("auth context = %+v", ac)
	}
	if UserID(ctx) != 42 {
		t.Errorf("UserID = %d, want 42", UserID(ctx))
	}
}

func TestAuthContextAbsent(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no auth context")
	}
	if UserID(context.Background()) != 0 {
		t.Error("expected zero user id without auth context")
	}
}

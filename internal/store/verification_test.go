package store

import (
	"testing"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/model"
)

func setupVerificationTestDB(t *testing.T) *VerificationStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVerificationStore(db)
}

func TestVerificationCodeLifecycle(t *testing.T) {
	vs := setupVerificationTestDB(t)

	vc, err := vs.Create("ana@example.com", model.PurposeRegister)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	if len(vc.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(vc.Code))
	}
	if !vc.Valid() {
		t.Error("fresh code should be valid")
	}

	got, err := vs.GetByEmailAndCode("ana@example.com", vc.Code)
	if err != nil {
		t.Fatalf("get code: %v", err)
	}
	if got == nil || got.ID != vc.ID {
		t.Errorf("get code = %+v", got)
	}

	if err := vs.MarkUsed(vc.ID); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	got, err = vs.GetByEmailAndCode("ana@example.com", vc.Code)
	if err != nil {
		t.Fatalf("get code: %v", err)
	}
	if got != nil {
		t.Error("used code still redeemable")
	}
}

func TestVerificationCodeInvalidatesPrevious(t *testing.T) {
	vs := setupVerificationTestDB(t)

	first, err := vs.Create("ana@example.com", model.PurposeRegister)
	if err != nil {
		t.Fatalf("create first code: %v", err)
	}
	second, err := vs.Create("ana@example.com", model.PurposeRegister)
	if err != nil {
		t.Fatalf("create second code: %v", err)
	}

	got, err := vs.GetByEmailAndCode("ana@example.com", first.Code)
	if err != nil {
		t.Fatalf("get code: %v", err)
	}
	// The first code may collide with the second by chance; only the
	// latest row may match.
	if got != nil && got.ID == first.ID {
		t.Error("superseded code still redeemable")
	}

	latest, err := vs.GetLatestByEmail("ana@example.com")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("latest = %+v, want id %d", latest, second.ID)
	}
}

func TestVerificationAttempts(t *testing.T) {
	vs := setupVerificationTestDB(t)

	vc, err := vs.Create("ana@example.com", model.PurposeLogin)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}

	for i := 1; i <= 5; i++ {
		n, err := vs.IncrementAttempts(vc.ID)
		if err != nil {
			t.Fatalf("increment attempts: %v", err)
		}
		if n != i {
			t.Errorf("attempts = %d, want %d", n, i)
		}
	}

	got, err := vs.GetByEmailAndCode("ana@example.com", vc.Code)
	if err != nil {
		t.Fatalf("get code: %v", err)
	}
	if got != nil && got.Valid() {
		t.Error("code should be invalid after 5 attempts")
	}
}

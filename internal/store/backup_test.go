package store

import (
	"testing"
	"time"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBackupStore(db)
}

func TestBackupLifecycle(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("cadence-20260110.db.enc", "backups/cadence-20260110.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.Status != model.BackupPending {
		t.Errorf("status = %q, want pending", b.Status)
	}

	if err := bs.MarkCompleted(b.ID, 4096); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest == nil || latest.ID != b.ID || latest.SizeBytes != 4096 {
		t.Errorf("latest = %+v", latest)
	}
	if latest.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestBackupMarkFailed(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("cadence-bad.db.enc", "backups/cadence-bad.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if err := bs.MarkFailed(b.ID, "upload timed out"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	backups, err := bs.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(backups) != 1 || backups[0].Status != model.BackupFailed || backups[0].Error != "upload timed out" {
		t.Errorf("backups = %+v", backups)
	}

	latest, err := bs.LatestCompleted()
	if err != nil {
		t.Fatalf("latest completed: %v", err)
	}
	if latest != nil {
		t.Error("failed backup reported as latest completed")
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := setupBackupTestDB(t)

	b, err := bs.Create("cadence-old.db.enc", "backups/cadence-old.db.enc")
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}

	keys, err := bs.DeleteOlderThan(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != b.S3Key {
		t.Errorf("keys = %v, want [%s]", keys, b.S3Key)
	}

	backups, _ := bs.List(10)
	if len(backups) != 0 {
		t.Error("old backup not deleted")
	}
}

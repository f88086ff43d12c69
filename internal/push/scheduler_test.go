package push

import (
	"testing"
	"time"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

func setupSchedulerTest(t *testing.T) (*Scheduler, *store.UserStore, *store.HabitStore, *store.PushStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	habits := store.NewHabitStore(db)
	pushStore := store.NewPushStore(db)

	sched := NewScheduler(NewService("pub", "priv"), pushStore, users, habits)
	return sched, users, habits, pushStore
}

func newReminderUser(t *testing.T, users *store.UserStore, email string, hour int) int64 {
	t.Helper()
	u, err := users.Create(email, "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := users.MarkVerified(u.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	if err := users.SetReminderHour(u.ID, &hour); err != nil {
		t.Fatalf("set reminder hour: %v", err)
	}
	return u.ID
}

func TestSendRemindersCountsUncheckedHabits(t *testing.T) {
	sched, users, habits, pushStore := setupSchedulerTest(t)

	now := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	today := now.Format(model.DateLayout)

	userID := newReminderUser(t, users, "a@example.com", 8)
	if _, err := habits.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", today); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	done, err := habits.Create(userID, "Read", "", model.FrequencyDaily, "", "📖", today)
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, _, err := habits.CheckIn(done.ID, userID, now, ""); err != nil {
		t.Fatalf("check in: %v", err)
	}

	if _, err := pushStore.CreateSubscription(userID, "https://push.example.com/a", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	var sent []Payload
	sched.send = func(sub *model.PushSubscription, p Payload) error {
		sent = append(sent, p)
		return nil
	}

	sched.sendReminders(now)

	if len(sent) != 1 {
		t.Fatalf("expected 1 push, got %d", len(sent))
	}
	if sent[0].Body != "1 habit still needs a check-in today" {
		t.Errorf("body = %q", sent[0].Body)
	}
	if sent[0].Tag != "reminder-"+today {
		t.Errorf("tag = %q", sent[0].Tag)
	}
}

func TestSendRemindersSkipsCompletedUsers(t *testing.T) {
	sched, users, habits, pushStore := setupSchedulerTest(t)

	now := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	today := now.Format(model.DateLayout)

	userID := newReminderUser(t, users, "a@example.com", 8)
	h, err := habits.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", today)
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, _, err := habits.CheckIn(h.ID, userID, now, ""); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := pushStore.CreateSubscription(userID, "https://push.example.com/a", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	// Another user with the same hour but no habits
	otherID := newReminderUser(t, users, "b@example.com", 8)
	if _, err := pushStore.CreateSubscription(otherID, "https://push.example.com/b", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	sent := 0
	sched.send = func(sub *model.PushSubscription, p Payload) error {
		sent++
		return nil
	}

	sched.sendReminders(now)

	if sent != 0 {
		t.Errorf("expected no pushes, got %d", sent)
	}
}

func TestSendRemindersOnlyMatchingHour(t *testing.T) {
	sched, users, habits, pushStore := setupSchedulerTest(t)

	now := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	today := now.Format(model.DateLayout)

	userID := newReminderUser(t, users, "a@example.com", 20)
	if _, err := habits.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", today); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := pushStore.CreateSubscription(userID, "https://push.example.com/a", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	sent := 0
	sched.send = func(sub *model.PushSubscription, p Payload) error {
		sent++
		return nil
	}

	sched.sendReminders(now)

	if sent != 0 {
		t.Errorf("expected no pushes at hour 8 for a 20:00 reminder, got %d", sent)
	}
}

func TestSendRemindersDropsExpiredSubscriptions(t *testing.T) {
	sched, users, habits, pushStore := setupSchedulerTest(t)

	now := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	today := now.Format(model.DateLayout)

	userID := newReminderUser(t, users, "a@example.com", 8)
	if _, err := habits.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", today); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := pushStore.CreateSubscription(userID, "https://push.example.com/gone", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	sched.send = func(sub *model.PushSubscription, p Payload) error {
		return ErrExpired
	}

	sched.sendReminders(now)

	subs, err := pushStore.ListByUser(userID)
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected expired subscription removed, got %d", len(subs))
	}
}

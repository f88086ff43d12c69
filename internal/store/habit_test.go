package store

import (
	"testing"
	"time"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/model"
)

func setupHabitTestDB(t *testing.T) (*HabitStore, *CheckInStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("test@example.com", "Test", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewHabitStore(db), NewCheckInStore(db), user.ID
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d
}

func TestHabitCRUD(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)

	habit, err := hs.Create(userID, "Read", "20 pages", model.FrequencyDaily, "20 pages", "📖", "2026-01-10")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if habit.Name != "Read" {
		t.Errorf("name = %q, want %q", habit.Name, "Read")
	}
	if habit.CurrentStreak != 0 || habit.LongestStreak != 0 || habit.TotalCheckIns != 0 {
		t.Errorf("new habit counters = %d/%d/%d, want zeros", habit.CurrentStreak, habit.LongestStreak, habit.TotalCheckIns)
	}
	if habit.CheckedToday {
		t.Error("new habit should not be checked today")
	}

	updated, err := hs.Update(habit.ID, userID, "Read books", "30 pages", model.FrequencyWeekdays, "30 pages", "📚", "2026-01-10")
	if err != nil {
		t.Fatalf("update habit: %v", err)
	}
	if updated.Name != "Read books" || updated.Frequency != model.FrequencyWeekdays {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := hs.Archive(habit.ID, userID); err != nil {
		t.Fatalf("archive habit: %v", err)
	}
	habits, err := hs.ListActiveByUser(userID, "2026-01-10")
	if err != nil {
		t.Fatalf("list habits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected no active habits after archive, got %d", len(habits))
	}

	// Archived habits still count toward totals
	count, err := hs.CountByUser(userID)
	if err != nil {
		t.Fatalf("count habits: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestHabitOwnershipHidden(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)

	habit, err := hs.Create(userID, "Meditate", "", model.FrequencyDaily, "", "🧘", "2026-01-10")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	got, err := hs.GetByID(habit.ID, userID+1, "2026-01-10")
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if got != nil {
		t.Error("expected nil for another user's habit")
	}
}

func TestCheckInStartsStreak(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	got, already, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-10"), "5k")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if already {
		t.Error("first checkin reported as duplicate")
	}
	if got.CurrentStreak != 1 || got.LongestStreak != 1 || got.TotalCheckIns != 1 {
		t.Errorf("counters = %d/%d/%d, want 1/1/1", got.CurrentStreak, got.LongestStreak, got.TotalCheckIns)
	}
	if !got.CheckedToday {
		t.Error("checked_today should be true after checkin")
	}
	if got.LastCheckInAt == nil {
		t.Error("last_checkin_at not set")
	}
}

func TestCheckInConsecutiveDaysExtendStreak(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	dates := []string{"2026-01-10", "2026-01-11", "2026-01-12"}
	var got *model.Habit
	for _, d := range dates {
		var err error
		got, _, err = hs.CheckIn(habit.ID, userID, day(t, d), "")
		if err != nil {
			t.Fatalf("checkin %s: %v", d, err)
		}
	}
	if got.CurrentStreak != 3 || got.LongestStreak != 3 || got.TotalCheckIns != 3 {
		t.Errorf("counters = %d/%d/%d, want 3/3/3", got.CurrentStreak, got.LongestStreak, got.TotalCheckIns)
	}
}

func TestCheckInGapResetsStreakKeepsLongest(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	for _, d := range []string{"2026-01-10", "2026-01-11", "2026-01-12"} {
		if _, _, err := hs.CheckIn(habit.ID, userID, day(t, d), ""); err != nil {
			t.Fatalf("checkin %s: %v", d, err)
		}
	}

	// Two missed days, then a new checkin
	got, _, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-15"), "")
	if err != nil {
		t.Fatalf("checkin after gap: %v", err)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1 after gap", got.CurrentStreak)
	}
	if got.LongestStreak != 3 {
		t.Errorf("longest streak = %d, want 3 preserved", got.LongestStreak)
	}
	if got.TotalCheckIns != 4 {
		t.Errorf("total checkins = %d, want 4", got.TotalCheckIns)
	}
}

func TestCheckInSameDayIdempotent(t *testing.T) {
	hs, cs, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	first, _, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-10"), "")
	if err != nil {
		t.Fatalf("first checkin: %v", err)
	}

	second, already, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-10"), "again")
	if err != nil {
		t.Fatalf("duplicate checkin: %v", err)
	}
	if !already {
		t.Error("duplicate checkin not reported")
	}
	if second.CurrentStreak != first.CurrentStreak || second.TotalCheckIns != first.TotalCheckIns {
		t.Errorf("duplicate changed state: %d/%d vs %d/%d",
			second.CurrentStreak, second.TotalCheckIns, first.CurrentStreak, first.TotalCheckIns)
	}

	dates, err := cs.DatesInRange(habit.ID, "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("dates in range: %v", err)
	}
	if len(dates) != 1 {
		t.Errorf("ledger has %d rows for the day, want 1", len(dates))
	}
}

// A habit left unchecked keeps reporting its old streak until the next
// checkin rewrites the counters.
func TestCheckInStaleStreakUntilNextCheckIn(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	for _, d := range []string{"2026-01-10", "2026-01-11"} {
		if _, _, err := hs.CheckIn(habit.ID, userID, day(t, d), ""); err != nil {
			t.Fatalf("checkin %s: %v", d, err)
		}
	}

	// Days later, nothing has rewritten the counter
	stale, err := hs.GetByID(habit.ID, userID, "2026-01-20")
	if err != nil {
		t.Fatalf("get habit: %v", err)
	}
	if stale.CurrentStreak != 2 {
		t.Errorf("stale streak = %d, want 2 until next checkin", stale.CurrentStreak)
	}

	got, _, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-20"), "")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("streak = %d, want reset to 1", got.CurrentStreak)
	}
}

func TestCheckInUnknownOrForeignHabit(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")

	got, _, err := hs.CheckIn(9999, userID, day(t, "2026-01-10"), "")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown habit")
	}

	got, _, err = hs.CheckIn(habit.ID, userID+1, day(t, "2026-01-10"), "")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if got != nil {
		t.Error("expected nil for another user's habit")
	}
}

func TestCheckInArchivedHabit(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)
	habit, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-10")
	if err := hs.Archive(habit.ID, userID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, _, err := hs.CheckIn(habit.ID, userID, day(t, "2026-01-10"), "")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if got != nil {
		t.Error("expected nil for archived habit")
	}
}

func TestTopByStreak(t *testing.T) {
	hs, _, userID := setupHabitTestDB(t)

	a, _ := hs.Create(userID, "Run", "", model.FrequencyDaily, "", "🏃", "2026-01-12")
	b, _ := hs.Create(userID, "Read", "", model.FrequencyDaily, "", "📖", "2026-01-12")

	for _, d := range []string{"2026-01-10", "2026-01-11", "2026-01-12"} {
		if _, _, err := hs.CheckIn(a.ID, userID, day(t, d), ""); err != nil {
			t.Fatalf("checkin: %v", err)
		}
	}
	if _, _, err := hs.CheckIn(b.ID, userID, day(t, "2026-01-12"), ""); err != nil {
		t.Fatalf("checkin: %v", err)
	}

	top, err := hs.TopByStreak(userID, 10, "2026-01-12")
	if err != nil {
		t.Fatalf("top by streak: %v", err)
	}
	if len(top) != 2 || top[0].ID != a.ID || top[0].CurrentStreak != 3 {
		t.Errorf("unexpected leaderboard: %+v", top)
	}
	if !top[0].CheckedToday || !top[1].CheckedToday {
		t.Error("checked_today not set on leaderboard rows")
	}
}

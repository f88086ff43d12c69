package dashboard

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

var quotes = []string{
	"Small steps every day lead to big changes! 🚀",
	"You're building something amazing, one day at a time! 💪",
	"Consistency is the key to success! 🔑",
	"Every check-in is a vote for your future self! ✨",
	"Keep going! Your streak is proof of your dedication! 🔥",
	"Progress, not perfection! 🌟",
	"The best time to start was yesterday. The next best time is now! ⏰",
	"You're stronger than you think! 💎",
}

// Summarizer aggregates habit state into dashboard views. Everything is
// computed on demand from the stores.
type Summarizer struct {
	habits   *store.HabitStore
	checkins *store.CheckInStore
	now      func() time.Time
	pick     func(n int) int
}

func New(habits *store.HabitStore, checkins *store.CheckInStore) *Summarizer {
	return &Summarizer{
		habits:   habits,
		checkins: checkins,
		now:      time.Now,
		pick:     rand.Intn,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Summarizer) WithClock(now func() time.Time) *Summarizer {
	s.now = now
	return s
}

// WithPicker overrides quote selection. Used by tests.
func (s *Summarizer) WithPicker(pick func(n int) int) *Summarizer {
	s.pick = pick
	return s
}

// Summary is the dashboard overview.
type Summary struct {
	TotalHabits          int     `json:"total_habits"`
	ActiveHabits         int     `json:"active_habits"`
	CompletedToday       int     `json:"completed_today"`
	RemainingToday       int     `json:"remaining_today"`
	CompletionPercentage float64 `json:"completion_percentage"`
	CurrentStreakTotal   int     `json:"current_streak_total"`
	LongestStreak        int     `json:"longest_streak"`
	LongestStreakHabit   string  `json:"longest_streak_habit,omitempty"`
	TotalCheckIns        int     `json:"total_checkins"`
	DaysActive           int     `json:"days_active"`
	MotivationalQuote    string  `json:"motivational_quote"`
}

// Summary returns overview statistics across the user's habits. Totals
// and streaks come from the active habits; TotalHabits counts archived
// ones too.
func (s *Summarizer) Summary(userID int64) (*Summary, error) {
	today := s.today()

	habits, err := s.habits.ListActiveByUser(userID, format(today))
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	totalHabits, err := s.habits.CountByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	sum := &Summary{
		TotalHabits:       totalHabits,
		ActiveHabits:      len(habits),
		MotivationalQuote: quotes[s.pick(len(quotes))],
	}

	var earliest *time.Time
	for i := range habits {
		h := &habits[i]
		if h.CheckedToday {
			sum.CompletedToday++
		}
		sum.CurrentStreakTotal += h.CurrentStreak
		sum.TotalCheckIns += h.TotalCheckIns
		if h.LongestStreak > sum.LongestStreak {
			sum.LongestStreak = h.LongestStreak
			sum.LongestStreakHabit = h.Name
		}
		if earliest == nil || h.CreatedAt.Before(*earliest) {
			earliest = &h.CreatedAt
		}
	}

	sum.RemainingToday = sum.ActiveHabits - sum.CompletedToday
	sum.CompletionPercentage = percent(sum.CompletedToday, sum.ActiveHabits)
	if earliest != nil {
		sum.DaysActive = int(today.Sub(dateOf(*earliest)).Hours() / 24)
	}
	return sum, nil
}

// DayProgress is one day within the weekly view.
type DayProgress struct {
	Date       string  `json:"date"`
	DayName    string  `json:"day_name"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	IsToday    bool    `json:"is_today"`
}

// WeeklyProgress covers the last seven days ending today.
type WeeklyProgress struct {
	WeekStart            string        `json:"week_start"`
	WeekEnd              string        `json:"week_end"`
	Days                 []DayProgress `json:"days"`
	TotalCompletions     int           `json:"total_completions"`
	TotalPossible        int           `json:"total_possible"`
	WeeklyCompletionRate float64       `json:"weekly_completion_rate"`
}

func (s *Summarizer) WeeklyProgress(userID int64) (*WeeklyProgress, error) {
	today := s.today()
	weekStart := today.AddDate(0, 0, -6)

	total, err := s.habits.CountActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}
	counts, err := s.checkins.CountsByDate(userID, format(weekStart), format(today))
	if err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}

	wp := &WeeklyProgress{
		WeekStart: format(weekStart),
		WeekEnd:   format(today),
	}
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		date := format(d)
		completed := counts[date]
		wp.Days = append(wp.Days, DayProgress{
			Date:       date,
			DayName:    d.Weekday().String()[:3],
			Completed:  completed,
			Total:      total,
			Percentage: percent(completed, total),
			IsToday:    d.Equal(today),
		})
		wp.TotalCompletions += completed
		wp.TotalPossible += total
	}
	wp.WeeklyCompletionRate = percent(wp.TotalCompletions, wp.TotalPossible)
	return wp, nil
}

// HabitMonth is one habit's activity within a month.
type HabitMonth struct {
	HabitID       int64    `json:"habit_id"`
	HabitName     string   `json:"habit_name"`
	Icon          string   `json:"icon"`
	CheckedDates  []string `json:"checked_dates"`
	CheckInCount  int      `json:"checkin_count"`
	CurrentStreak int      `json:"current_streak"`
}

// MonthlyCalendar is a month of activity across all active habits.
type MonthlyCalendar struct {
	Year                  int          `json:"year"`
	Month                 int          `json:"month"`
	MonthName             string       `json:"month_name"`
	CheckedDates          []string     `json:"checked_dates"`
	Habits                []HabitMonth `json:"habits"`
	TotalDaysInMonth      int          `json:"total_days_in_month"`
	DaysWithCheckIns      int          `json:"days_with_checkins"`
	MonthlyCompletionRate float64      `json:"monthly_completion_rate"`
}

func (s *Summarizer) MonthlyCalendar(userID int64, year, month int) (*MonthlyCalendar, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	daysInMonth := monthEnd.Day()

	habits, err := s.habits.ListActiveByUser(userID, format(s.today()))
	if err != nil {
		return nil, fmt.Errorf("monthly calendar: %w", err)
	}

	cal := &MonthlyCalendar{
		Year:             year,
		Month:            month,
		MonthName:        monthStart.Month().String(),
		TotalDaysInMonth: daysInMonth,
	}

	seen := make(map[string]bool)
	for _, h := range habits {
		dates, err := s.checkins.DatesInRange(h.ID, format(monthStart), format(monthEnd))
		if err != nil {
			return nil, fmt.Errorf("monthly calendar: %w", err)
		}
		for _, d := range dates {
			if !seen[d] {
				seen[d] = true
				cal.CheckedDates = append(cal.CheckedDates, d)
			}
		}
		cal.Habits = append(cal.Habits, HabitMonth{
			HabitID:       h.ID,
			HabitName:     h.Name,
			Icon:          h.Icon,
			CheckedDates:  dates,
			CheckInCount:  len(dates),
			CurrentStreak: h.CurrentStreak,
		})
	}

	sort.Strings(cal.CheckedDates)
	cal.DaysWithCheckIns = len(cal.CheckedDates)
	cal.MonthlyCompletionRate = percent(cal.DaysWithCheckIns, daysInMonth)
	return cal, nil
}

// Leaderboard returns the user's top ten active habits by current streak,
// with today's check-in state.
func (s *Summarizer) Leaderboard(userID int64) ([]model.Habit, error) {
	habits, err := s.habits.TopByStreak(userID, 10, format(s.today()))
	if err != nil {
		return nil, fmt.Errorf("streak leaderboard: %w", err)
	}
	return habits, nil
}

func (s *Summarizer) today() time.Time {
	return dateOf(s.now().UTC())
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func format(t time.Time) string {
	return t.Format(model.DateLayout)
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)*100/float64(total)*10) / 10
}

package motivation

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cadencehq/cadence/internal/dashboard"
	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

// Response types.
const (
	TypeDaily       = "daily"
	TypeHabitTip    = "habit_tip"
	TypeCelebration = "celebration"
	TypeChat        = "chat"
)

var fallbackQuotes = []string{
	"Every day is a new opportunity to become a better version of yourself! 🌟",
	"Small steps lead to big changes. Keep going! 💪",
	"You're building habits that will change your life. Be proud! 🔥",
	"Consistency beats perfection. Just show up! ⭐",
	"Your future self will thank you for the work you're doing today! 🚀",
	"Progress, not perfection. You're doing amazing! ✨",
	"Each check-in is proof of your dedication. Keep it up! 💎",
	"The best time to start was yesterday. The second best time is now! ⏰",
}

// Context is the stats snapshot a message was generated against.
type Context struct {
	HabitName      string `json:"habit_name,omitempty"`
	CurrentStreak  int    `json:"current_streak"`
	TotalHabits    int    `json:"total_habits,omitempty"`
	CompletedToday int    `json:"completed_today,omitempty"`
}

// Response is a coach message.
type Response struct {
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	AIGenerated bool      `json:"ai_generated"`
	GeneratedAt time.Time `json:"generated_at"`
	Context     Context   `json:"context"`
}

// Service produces coaching messages, preferring the text-generation API
// and falling back to canned quotes when it is unconfigured or failing.
type Service struct {
	gen    *GeminiClient
	dash   *dashboard.Summarizer
	habits *store.HabitStore
	logger *slog.Logger
	now    func() time.Time
	pick   func(n int) int
}

func NewService(gen *GeminiClient, dash *dashboard.Summarizer, habits *store.HabitStore, logger *slog.Logger) *Service {
	return &Service{
		gen:    gen,
		dash:   dash,
		habits: habits,
		logger: logger,
		now:    time.Now,
		pick:   rand.Intn,
	}
}

// WithPicker overrides fallback quote selection. Used by tests.
func (s *Service) WithPicker(pick func(n int) int) *Service {
	s.pick = pick
	return s
}

// Daily returns a motivation message personalized to the user's stats.
func (s *Service) Daily(userID int64) (*Response, error) {
	stats, err := s.dash.Summary(userID)
	if err != nil {
		return nil, err
	}
	ctx := Context{
		CurrentStreak:  stats.CurrentStreakTotal,
		TotalHabits:    stats.ActiveHabits,
		CompletedToday: stats.CompletedToday,
	}
	return s.respond(TypeDaily, ctx, dailyPrompt(stats)), nil
}

// HabitTips returns actionable tips for one habit. Returns nil when the
// habit does not exist or belongs to someone else.
func (s *Service) HabitTips(userID, habitID int64) (*Response, error) {
	today := s.now().UTC().Format(model.DateLayout)
	habit, err := s.habits.GetByID(habitID, userID, today)
	if err != nil {
		return nil, err
	}
	if habit == nil {
		return nil, nil
	}
	ctx := Context{
		HabitName:     habit.Name,
		CurrentStreak: habit.CurrentStreak,
	}
	return s.respond(TypeHabitTip, ctx, habitPrompt(habit)), nil
}

// Celebration returns an enthusiastic message about recent achievements.
func (s *Service) Celebration(userID int64) (*Response, error) {
	stats, err := s.dash.Summary(userID)
	if err != nil {
		return nil, err
	}
	ctx := Context{
		CurrentStreak:  stats.CurrentStreakTotal,
		TotalHabits:    stats.ActiveHabits,
		CompletedToday: stats.CompletedToday,
	}
	return s.respond(TypeCelebration, ctx, celebrationPrompt(stats)), nil
}

// Chat answers a free-form message with the user's stats as context.
func (s *Service) Chat(userID int64, message string) (*Response, error) {
	stats, err := s.dash.Summary(userID)
	if err != nil {
		return nil, err
	}
	ctx := Context{
		CurrentStreak:  stats.CurrentStreakTotal,
		TotalHabits:    stats.ActiveHabits,
		CompletedToday: stats.CompletedToday,
	}
	return s.respond(TypeChat, ctx, chatPrompt(message, stats)), nil
}

func (s *Service) respond(msgType string, ctx Context, prompt string) *Response {
	resp := &Response{
		Type:        msgType,
		GeneratedAt: s.now().UTC(),
		Context:     ctx,
	}

	if s.gen.Configured() {
		message, err := s.gen.Generate(prompt)
		if err == nil {
			resp.Message = message
			resp.AIGenerated = true
			return resp
		}
		s.logger.Warn("text generation failed, using fallback", "type", msgType, "error", err)
	}

	resp.Message = fallbackQuotes[s.pick(len(fallbackQuotes))]
	return resp
}

func dailyPrompt(stats *dashboard.Summary) string {
	best := stats.LongestStreakHabit
	if best == "" {
		best = "none yet"
	}
	return fmt.Sprintf(`You are a friendly, encouraging habit coach named "Coach".

The user's current stats:
- Active habits: %d
- Completed today: %d out of %d (%.1f%%)
- Current total streak: %d days
- Longest single streak: %d days (%s)
- Total check-ins all time: %d
- Days active: %d

Give a personalized, encouraging message (2-3 sentences max).
Be specific about their stats. Use emojis sparingly.
If they haven't completed all habits today, gently encourage them.
If they have a good streak, celebrate it!`,
		stats.ActiveHabits, stats.CompletedToday, stats.ActiveHabits,
		stats.CompletionPercentage, stats.CurrentStreakTotal,
		stats.LongestStreak, best, stats.TotalCheckIns, stats.DaysActive)
}

func habitPrompt(h *model.Habit) string {
	desc := h.Description
	if desc == "" {
		desc = "Not specified"
	}
	target := h.Target
	if target == "" {
		target = "Complete daily"
	}
	return fmt.Sprintf(`You are a friendly habit coach. Give specific, actionable tips.

The user is tracking this habit:
- Name: %q
- Description: %s
- Frequency: %s
- Current streak: %d days
- Total check-ins: %d
- Goal: %s

Give 2-3 practical tips to help them succeed with this specific habit.
Be specific to the habit type. Keep it concise and encouraging.
Use bullet points.`,
		h.Name, desc, h.Frequency, h.CurrentStreak, h.TotalCheckIns, target)
}

func celebrationPrompt(stats *dashboard.Summary) string {
	best := stats.LongestStreakHabit
	if best == "" {
		best = "their habits"
	}
	return fmt.Sprintf(`You are an enthusiastic celebration coach! 🎉

The user has achieved something great:
- Total streak across all habits: %d days
- Longest single streak: %d days on %q
- Total check-ins ever: %d
- Days active: %d

Write a SHORT, enthusiastic celebration message (2 sentences max).
Be very positive and use celebratory emojis!
Mention their specific achievement.`,
		stats.CurrentStreakTotal, stats.LongestStreak, best,
		stats.TotalCheckIns, stats.DaysActive)
}

func chatPrompt(message string, stats *dashboard.Summary) string {
	return fmt.Sprintf(`You are Coach, a friendly and supportive habit coach in the Cadence app.

User's context:
- Active habits: %d
- Completed today: %d/%d
- Current streak total: %d days

User's message: %q

Respond helpfully and encouragingly. Be conversational.
Keep response to 2-3 sentences max.
If they ask about habits, give practical advice.
If they seem discouraged, be supportive.`,
		stats.ActiveHabits, stats.CompletedToday, stats.ActiveHabits,
		stats.CurrentStreakTotal, message)
}

package achievement

import "sort"

// Categories.
const (
	CategoryStreak      = "STREAK"
	CategoryConsistency = "CONSISTENCY"
	CategoryMilestone   = "MILESTONE"
)

// Metrics are the inputs the catalog is evaluated against. Streak and
// check-in totals come from the user's active habits; TotalHabits counts
// archived ones too.
type Metrics struct {
	LongestStreak int
	TotalCheckIns int
	TotalHabits   int
	PerfectDay    bool
}

// Definition is one achievement in the static catalog.
type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
	Required    int
	metric      func(Metrics) int
}

// Achievement is an evaluated catalog entry.
type Achievement struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Category    string  `json:"category"`
	Unlocked    bool    `json:"unlocked"`
	Progress    int     `json:"current_progress"`
	Required    int     `json:"required_progress"`
	Percentage  float64 `json:"progress_percentage"`
}

func streak(m Metrics) int   { return m.LongestStreak }
func checkins(m Metrics) int { return m.TotalCheckIns }
func habits(m Metrics) int   { return m.TotalHabits }
func perfect(m Metrics) int {
	if m.PerfectDay {
		return 1
	}
	return 0
}

// Catalog is the full achievement set. Order here is the tie-break order
// in evaluated output.
var Catalog = []Definition{
	{"first_streak", "First Flame", "Get your first 3-day streak", "🔥", CategoryStreak, 3, streak},
	{"week_warrior", "Week Warrior", "Maintain a 7-day streak", "⭐", CategoryStreak, 7, streak},
	{"fortnight_fighter", "Fortnight Fighter", "Maintain a 14-day streak", "💪", CategoryStreak, 14, streak},
	{"habit_master", "Habit Master", "Achieve a 30-day streak", "🏆", CategoryStreak, 30, streak},
	{"legendary", "Legendary", "Achieve a 100-day streak", "👑", CategoryStreak, 100, streak},
	{"getting_started", "Getting Started", "Complete 10 total check-ins", "🌱", CategoryConsistency, 10, checkins},
	{"consistent", "Consistent", "Complete 50 total check-ins", "💎", CategoryConsistency, 50, checkins},
	{"dedicated", "Dedicated", "Complete 100 total check-ins", "🎯", CategoryConsistency, 100, checkins},
	{"unstoppable", "Unstoppable", "Complete 500 total check-ins", "🚀", CategoryConsistency, 500, checkins},
	{"first_habit", "First Step", "Create your first habit", "👣", CategoryMilestone, 1, habits},
	{"habit_collector", "Habit Collector", "Create 5 habits", "📚", CategoryMilestone, 5, habits},
	{"perfect_day", "Perfect Day", "Complete all habits in a day", "✨", CategoryMilestone, 1, perfect},
}

// Evaluate runs the catalog against the metrics. Results are sorted
// unlocked first, then by percentage descending; ties keep catalog order.
func Evaluate(m Metrics) []Achievement {
	results := make([]Achievement, 0, len(Catalog))
	for _, def := range Catalog {
		value := def.metric(m)
		progress := value
		if progress > def.Required {
			progress = def.Required
		}
		percentage := float64(value) * 100 / float64(def.Required)
		if percentage > 100 {
			percentage = 100
		}
		results = append(results, Achievement{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Icon:        def.Icon,
			Category:    def.Category,
			Unlocked:    value >= def.Required,
			Progress:    progress,
			Required:    def.Required,
			Percentage:  percentage,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Unlocked != results[j].Unlocked {
			return results[i].Unlocked
		}
		return results[i].Percentage > results[j].Percentage
	})
	return results
}

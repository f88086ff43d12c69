package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

// Aggregator computes trend and heatmap views from the check-in ledger.
// Nothing here is persisted; every call recomputes from storage.
type Aggregator struct {
	habits   *store.HabitStore
	checkins *store.CheckInStore
	now      func() time.Time
}

func New(habits *store.HabitStore, checkins *store.CheckInStore) *Aggregator {
	return &Aggregator{habits: habits, checkins: checkins, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// DayPoint is one day in a daily trend.
type DayPoint struct {
	Date      string  `json:"date"`
	DayName   string  `json:"day_name"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// DailyTrendData is a daily trend window with its summary numbers.
type DailyTrendData struct {
	Period                string     `json:"period"`
	Points                []DayPoint `json:"points"`
	TotalCheckIns         int        `json:"total_checkins"`
	AverageCompletionRate float64    `json:"average_completion_rate"`
}

// DailyTrend returns completion per day over the trailing window ending
// today, plus the mean of the per-day rates. Rates are against the
// current active habit count.
func (a *Aggregator) DailyTrend(userID int64, days int) (*DailyTrendData, error) {
	today := a.today()
	start := today.AddDate(0, 0, -(days - 1))

	total, err := a.habits.CountActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}
	counts, err := a.checkins.CountsByDate(userID, format(start), format(today))
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}

	trend := &DailyTrendData{Period: "daily", Points: make([]DayPoint, 0, days)}
	var rateSum float64
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		date := format(d)
		completed := counts[date]
		r := rate(completed, total)
		trend.Points = append(trend.Points, DayPoint{
			Date:      date,
			DayName:   d.Weekday().String()[:3],
			Completed: completed,
			Total:     total,
			Rate:      r,
		})
		trend.TotalCheckIns += completed
		rateSum += r
	}
	trend.AverageCompletionRate = meanRate(rateSum, len(trend.Points))
	return trend, nil
}

// WeekPoint is one week in a weekly trend. WeekStart is the Monday the
// bucket begins on.
type WeekPoint struct {
	WeekStart string  `json:"week_start"`
	Label     string  `json:"label"`
	Completed int     `json:"completed"`
	Possible  int     `json:"possible"`
	Rate      float64 `json:"rate"`
}

// WeeklyTrendData is a weekly trend window with its summary numbers.
type WeeklyTrendData struct {
	Period                string      `json:"period"`
	Points                []WeekPoint `json:"points"`
	TotalCheckIns         int         `json:"total_checkins"`
	AverageCompletionRate float64     `json:"average_completion_rate"`
}

// WeeklyTrend buckets check-ins into explicit Monday-start week ranges
// ending with the current week. Every bucket, the in-progress one
// included, is rated against a full seven days per habit.
func (a *Aggregator) WeeklyTrend(userID int64, weeks int) (*WeeklyTrendData, error) {
	today := a.today()
	thisMonday := mondayOf(today)
	start := thisMonday.AddDate(0, 0, -7*(weeks-1))

	total, err := a.habits.CountActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	counts, err := a.checkins.CountsByDate(userID, format(start), format(today))
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}

	trend := &WeeklyTrendData{Period: "weekly", Points: make([]WeekPoint, 0, weeks)}
	var rateSum float64
	for monday := start; !monday.After(thisMonday); monday = monday.AddDate(0, 0, 7) {
		completed := 0
		for i := 0; i < 7; i++ {
			completed += counts[format(monday.AddDate(0, 0, i))]
		}
		possible := total * 7
		r := rate(completed, possible)
		trend.Points = append(trend.Points, WeekPoint{
			WeekStart: format(monday),
			Label:     "Week of " + monday.Format("Jan 2"),
			Completed: completed,
			Possible:  possible,
			Rate:      r,
		})
		trend.TotalCheckIns += completed
		rateSum += r
	}
	trend.AverageCompletionRate = meanRate(rateSum, len(trend.Points))
	return trend, nil
}

// HeatmapCell is one calendar day of a year heatmap.
type HeatmapCell struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Intensity int    `json:"intensity"`
}

// Heatmap is a full-year activity view.
type Heatmap struct {
	Year          int           `json:"year"`
	Cells         []HeatmapCell `json:"cells"`
	TotalCheckIns int           `json:"total_checkins"`
	DaysActive    int           `json:"days_active"`
	LongestRun    int           `json:"longest_run"`
}

// YearHeatmap returns one cell per day of the year with a 0-4 intensity.
// Future days of the current year are included with zero counts. A user
// with no active habits gets an empty cell set.
func (a *Aggregator) YearHeatmap(userID int64, year int) (*Heatmap, error) {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	total, err := a.habits.CountActiveByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("year heatmap: %w", err)
	}
	if total == 0 {
		return &Heatmap{Year: year, Cells: []HeatmapCell{}}, nil
	}
	counts, err := a.checkins.CountsByDate(userID, format(start), format(end))
	if err != nil {
		return nil, fmt.Errorf("year heatmap: %w", err)
	}

	hm := &Heatmap{Year: year}
	var activeDates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := format(d)
		count := counts[date]
		hm.Cells = append(hm.Cells, HeatmapCell{
			Date:      date,
			Count:     count,
			Intensity: intensityLevel(count, total),
		})
		if count > 0 {
			hm.TotalCheckIns += count
			hm.DaysActive++
			activeDates = append(activeDates, date)
		}
	}
	hm.LongestRun = longestRun(activeDates)
	return hm, nil
}

// HabitRate is one habit's completion rate over a window.
type HabitRate struct {
	HabitID  int64   `json:"habit_id"`
	Name     string  `json:"name"`
	Icon     string  `json:"icon"`
	CheckIns int     `json:"checkins"`
	Days     int     `json:"days"`
	Rate     float64 `json:"rate"`
}

// HabitRates returns per-habit completion rates over the trailing window,
// best first. Ties keep the habit list order.
func (a *Aggregator) HabitRates(userID int64, days int) ([]HabitRate, error) {
	today := a.today()
	start := today.AddDate(0, 0, -(days - 1))

	habits, err := a.habits.ListActiveByUser(userID, format(today))
	if err != nil {
		return nil, fmt.Errorf("habit rates: %w", err)
	}
	counts, err := a.checkins.CountsByHabit(userID, format(start), format(today))
	if err != nil {
		return nil, fmt.Errorf("habit rates: %w", err)
	}

	rates := make([]HabitRate, 0, len(habits))
	for _, h := range habits {
		n := counts[h.ID]
		rates = append(rates, HabitRate{
			HabitID:  h.ID,
			Name:     h.Name,
			Icon:     h.Icon,
			CheckIns: n,
			Days:     days,
			Rate:     rate(n, days),
		})
	}
	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Rate > rates[j].Rate })
	return rates, nil
}

func (a *Aggregator) today() time.Time {
	n := a.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func format(t time.Time) string {
	return t.Format(model.DateLayout)
}

// mondayOf returns the Monday of the week containing d.
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// rate returns completed/total as a percentage rounded to one decimal.
func rate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)*100/float64(total)*10) / 10
}

// meanRate returns the average of n summed rates rounded to one decimal.
func meanRate(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*10) / 10
}

// intensityLevel maps a day's check-in count to a 0-4 heat level against
// the number of active habits.
func intensityLevel(count, totalHabits int) int {
	if count == 0 || totalHabits <= 0 {
		return 0
	}
	ratio := float64(count) / float64(totalHabits)
	switch {
	case ratio >= 1.0:
		return 4
	case ratio >= 0.75:
		return 3
	case ratio >= 0.5:
		return 2
	default:
		return 1
	}
}

// longestRun returns the longest stretch of consecutive dates. Input must
// be sorted ascending with no duplicates.
func longestRun(dates []string) int {
	longest, run := 0, 0
	var prev time.Time
	for i, s := range dates {
		d, err := time.Parse(model.DateLayout, s)
		if err != nil {
			continue
		}
		if i > 0 && d.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest
}

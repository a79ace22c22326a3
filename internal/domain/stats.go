package domain

import (
	"math"
	"time"
)

// DateLayout is the calendar-day key format used for stats.
const DateLayout = "2006-01-02"

// DayStats aggregates focus time for one calendar day. It is derived from the
// session history and only cached, never authoritative.
type DayStats struct {
	Date               string `json:"date"`
	TotalHours         int    `json:"totalHours"`
	TotalMinutes       int    `json:"totalMinutes"`
	SessionsCompleted  int    `json:"sessionsCompleted"`
	SessionsAbandoned  int    `json:"sessionsAbandoned"`
	PomodorosCompleted int    `json:"pomodorosCompleted"`
}

// Hours returns the day's focus time as fractional hours.
func (d DayStats) Hours() float64 {
	return float64(d.TotalHours) + float64(d.TotalMinutes)/60
}

// WeekStats summarizes seven consecutive days.
type WeekStats struct {
	WeekStartDate string     `json:"weekStartDate"`
	WeekEndDate   string     `json:"weekEndDate"`
	TotalHours    float64    `json:"totalHours"`
	TotalSessions int        `json:"totalSessions"`
	DailyStats    []DayStats `json:"dailyStats"`
	AveragePerDay float64    `json:"averagePerDay"`
}

// WeekComparison contrasts a week's focus hours with the week before it.
type WeekComparison struct {
	CurrentWeekHours int     `json:"currentWeekHours"`
	LastWeekHours    int     `json:"lastWeekHours"`
	PercentageChange float64 `json:"percentageChange"`
}

// CalendarDay returns midnight UTC of t's local year/month/day in loc, so
// that days can be compared and subtracted without DST effects.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t's calendar day in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return CalendarDay(t, loc).Format(DateLayout)
}

// DaysBetween returns the absolute number of whole days between two values
// produced by CalendarDay.
func DaysBetween(a, b time.Time) int {
	days := int(math.Round(b.Sub(a).Hours() / 24))
	if days < 0 {
		return -days
	}
	return days
}

// StartOfWeek returns local midnight of the Sunday on or before t.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)
}

// BuildDayStats aggregates the sessions that started on the calendar day
// named by date (a DateLayout key) in loc. Completed and still-active
// sessions contribute focus time; breaks are not study time.
func BuildDayStats(sessions []Session, date string, loc *time.Location) DayStats {
	stats := DayStats{Date: date}
	focusMinutes := 0
	for _, s := range sessions {
		if DateKey(s.StartTime, loc) != date {
			continue
		}
		switch s.Status {
		case SessionStatusCompleted:
			stats.SessionsCompleted++
		case SessionStatusAbandoned:
			stats.SessionsAbandoned++
			continue
		}
		focusMinutes += s.FocusMinutes()
		stats.PomodorosCompleted += s.PomodorosCompleted
	}
	stats.TotalHours = focusMinutes / 60
	stats.TotalMinutes = focusMinutes % 60
	return stats
}

// SummarizeWeek folds seven DayStats into a WeekStats.
func SummarizeWeek(days []DayStats) WeekStats {
	week := WeekStats{DailyStats: days}
	if len(days) == 0 {
		return week
	}
	week.WeekStartDate = days[0].Date
	week.WeekEndDate = days[len(days)-1].Date
	minutes := 0
	for _, d := range days {
		minutes += d.TotalHours*60 + d.TotalMinutes
		week.TotalSessions += d.SessionsCompleted
	}
	week.TotalHours = float64(minutes) / 60
	week.AveragePerDay = week.TotalHours / float64(len(days))
	return week
}

// CompareWeekHours builds a WeekComparison from two fractional totals. A
// week following an empty one reports no change rather than an infinite one.
func CompareWeekHours(current, last float64) WeekComparison {
	cmp := WeekComparison{
		CurrentWeekHours: int(math.Floor(current)),
		LastWeekHours:    int(math.Floor(last)),
	}
	if last > 0 {
		cmp.PercentageChange = (current - last) / last * 100
	}
	return cmp
}

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/sahilm/fuzzy"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

// StatsService derives day and week statistics from the session history.
type StatsService struct {
	repo   ports.Repository
	loc    *time.Location
	now    func() time.Time
	logger hclog.Logger
}

// NewStatsService creates a stats service bucketing days in the system zone.
func NewStatsService(repo ports.Repository) *StatsService {
	return &StatsService{
		repo:   repo,
		loc:    time.Local,
		now:    time.Now,
		logger: hclog.NewNullLogger(),
	}
}

// SetLocation sets the zone calendar days are computed in.
func (s *StatsService) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.loc = loc
}

// Location returns the zone calendar days are computed in.
func (s *StatsService) Location() *time.Location {
	return s.loc
}

// SetClock replaces the time source.
func (s *StatsService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLogger sets the logger.
func (s *StatsService) SetLogger(logger hclog.Logger) {
	s.logger = logger.Named("stats")
}

// ParseDate reads a YYYY-MM-DD date as local midnight.
func (s *StatsService) ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", fmt.Sprintf("%q is not a YYYY-MM-DD date", date))
	}
	return t, nil
}

// DayStats aggregates the sessions started on date and caches the result.
// When only the cache write fails, the computed stats are returned together
// with the error.
func (s *StatsService) DayStats(ctx context.Context, date string) (domain.DayStats, error) {
	if _, err := s.ParseDate(date); err != nil {
		return domain.DayStats{}, err
	}

	sessions, err := s.repo.AllSessions(ctx)
	if err != nil {
		return domain.DayStats{}, fmt.Errorf("failed to load sessions: %w", err)
	}

	stats := domain.BuildDayStats(sessions, date, s.loc)
	if err := s.repo.SaveDayStats(ctx, stats); err != nil {
		return stats, fmt.Errorf("failed to cache day stats: %w", err)
	}
	return stats, nil
}

// DayStatsAt is DayStats for the calendar day containing t.
func (s *StatsService) DayStatsAt(ctx context.Context, t time.Time) (domain.DayStats, error) {
	return s.DayStats(ctx, domain.DateKey(t, s.loc))
}

// Today is DayStats for the current day.
func (s *StatsService) Today(ctx context.Context) (domain.DayStats, error) {
	return s.DayStatsAt(ctx, s.now())
}

// WeekStats returns the seven days starting at startOfWeek.
func (s *StatsService) WeekStats(ctx context.Context, startOfWeek time.Time) ([]domain.DayStats, error) {
	start := startOfWeek.In(s.loc)
	days := make([]domain.DayStats, 0, 7)
	for i := 0; i < 7; i++ {
		day, err := s.DayStatsAt(ctx, start.AddDate(0, 0, i))
		if err != nil && day.Date == "" {
			return nil, err
		}
		if err != nil {
			s.logger.Warn("stats cache write failed", "date", day.Date, "error", err)
		}
		days = append(days, day)
	}
	return days, nil
}

// WeekSummary folds WeekStats into totals and a daily average.
func (s *StatsService) WeekSummary(ctx context.Context, startOfWeek time.Time) (domain.WeekStats, error) {
	days, err := s.WeekStats(ctx, startOfWeek)
	if err != nil {
		return domain.WeekStats{}, err
	}
	return domain.SummarizeWeek(days), nil
}

// CompareWeeks compares the week starting at currentWeekStart with the one
// before it.
func (s *StatsService) CompareWeeks(ctx context.Context, currentWeekStart time.Time) (domain.WeekComparison, error) {
	current, err := s.WeekSummary(ctx, currentWeekStart)
	if err != nil {
		return domain.WeekComparison{}, err
	}
	last, err := s.WeekSummary(ctx, currentWeekStart.In(s.loc).AddDate(0, 0, -7))
	if err != nil {
		return domain.WeekComparison{}, err
	}
	return domain.CompareWeekHours(current.TotalHours, last.TotalHours), nil
}

// StartOfWeek returns local Sunday midnight on or before t.
func (s *StatsService) StartOfWeek(t time.Time) time.Time {
	return domain.StartOfWeek(t, s.loc)
}

// History returns every session, newest first.
func (s *StatsService) History(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.repo.AllSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// historySource adapts sessions to fuzzy.Source, matching on the name and
// note contents.
type historySource []domain.Session

func (h historySource) String(i int) string {
	var b strings.Builder
	b.WriteString(h[i].Name)
	for _, n := range h[i].Notes {
		b.WriteByte(' ')
		b.WriteString(n.Content)
	}
	return b.String()
}

func (h historySource) Len() int { return len(h) }

// SearchHistory fuzzy-matches query against session names and notes, best
// match first. An empty query returns the whole history.
func (s *StatsService) SearchHistory(ctx context.Context, query string) ([]domain.Session, error) {
	sessions, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return sessions, nil
	}

	matches := fuzzy.FindFrom(query, historySource(sessions))
	found := make([]domain.Session, 0, len(matches))
	for _, m := range matches {
		found = append(found, sessions[m.Index])
	}
	return found, nil
}

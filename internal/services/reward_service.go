package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

// RewardService owns the material collection and the daily reward summary.
type RewardService struct {
	repo   ports.Repository
	loc    *time.Location
	now    func() time.Time
	logger hclog.Logger

	// mu serializes collection updates; awards may run concurrently.
	mu sync.Mutex
}

// NewRewardService creates a new reward service.
func NewRewardService(repo ports.Repository) *RewardService {
	return &RewardService{
		repo:   repo,
		loc:    time.Local,
		now:    time.Now,
		logger: hclog.NewNullLogger(),
	}
}

// SetLocation sets the zone "today" is computed in.
func (s *RewardService) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.loc = loc
}

// SetClock replaces the time source.
func (s *RewardService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLogger sets the logger.
func (s *RewardService) SetLogger(logger hclog.Logger) {
	s.logger = logger.Named("rewards")
}

// AwardMaterial adds the material earned by a session of sessionHours to the
// collection.
func (s *RewardService) AwardMaterial(ctx context.Context, sessionHours float64) (domain.MaterialKey, error) {
	tier := domain.MaterialFor(sessionHours)

	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.repo.MaterialCollection(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load materials: %w", err)
	}
	if err := s.repo.SaveMaterialCollection(ctx, collection.Add(tier.Key)); err != nil {
		return "", fmt.Errorf("failed to save materials: %w", err)
	}
	s.logger.Debug("material added", "material", tier.Key, "hours", sessionHours)
	return tier.Key, nil
}

// MaterialCollection returns the collected materials.
func (s *RewardService) MaterialCollection(ctx context.Context) (domain.MaterialCollection, error) {
	collection, err := s.repo.MaterialCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}
	return collection, nil
}

// DailyRewardData summarizes today's level, the streak and the collection.
// Only completed sessions count toward the level and the streak.
func (s *RewardService) DailyRewardData(ctx context.Context) (domain.DailyRewardData, error) {
	sessions, err := s.repo.AllSessions(ctx)
	if err != nil {
		return domain.DailyRewardData{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	collection, err := s.MaterialCollection(ctx)
	if err != nil {
		return domain.DailyRewardData{}, err
	}

	now := s.now()
	today := domain.DateKey(now, s.loc)
	hours := 0.0
	completed := 0
	for _, session := range sessions {
		if session.Status != domain.SessionStatusCompleted || domain.DateKey(session.StartTime, s.loc) != today {
			continue
		}
		hours += session.StudyHours()
		completed++
	}
	hours = math.Round(hours*100) / 100

	streak := domain.CalculateStreak(sessions, now, s.loc)
	return domain.DailyRewardData{
		TodayLevel:             domain.DailyLevelFor(hours),
		TodayHoursStudied:      hours,
		TodaySessionsCompleted: completed,
		MaterialCollection:     collection,
		CurrentStreak:          streak.Current,
		LongestStreak:          streak.Longest,
	}, nil
}

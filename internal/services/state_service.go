package services

import (
	"context"

	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

// StateService implements the StudyProvider interface on top of the session,
// stats and reward services.
type StateService struct {
	sessions *SessionService
	stats    *StatsService
	rewards  *RewardService
}

// Ensure StateService implements ports.StudyProvider.
var _ ports.StudyProvider = (*StateService)(nil)

// NewStateService creates a new state service.
func NewStateService(sessions *SessionService, stats *StatsService, rewards *RewardService) *StateService {
	return &StateService{sessions: sessions, stats: stats, rewards: rewards}
}

// ActiveSession implements ports.StudyProvider.
func (s *StateService) ActiveSession(ctx context.Context) (*domain.Session, error) {
	return s.sessions.ActiveSession(ctx)
}

// StartSession implements ports.StudyProvider.
func (s *StateService) StartSession(ctx context.Context, name string, targetHours float64) (*domain.Session, error) {
	return s.sessions.StartSession(ctx, StartSessionRequest{Name: name, TargetHours: targetHours})
}

// AddNote implements ports.StudyProvider.
func (s *StateService) AddNote(ctx context.Context, content string) (*domain.Session, error) {
	return s.sessions.AddNote(ctx, content)
}

// CompletePomodoro implements ports.StudyProvider.
func (s *StateService) CompletePomodoro(ctx context.Context) (*domain.Session, error) {
	return s.sessions.CompletePomodoro(ctx)
}

// MaterialAward implements ports.StudyProvider.
func (s *StateService) MaterialAward(ctx context.Context, sessionID string) (domain.MaterialKey, error) {
	result, err := s.sessions.AwardFor(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return result.Material, result.Err
}

// AbandonSession implements ports.StudyProvider.
func (s *StateService) AbandonSession(ctx context.Context) (*domain.Session, error) {
	return s.sessions.AbandonSession(ctx)
}

// DayStats implements ports.StudyProvider. An empty date means today.
func (s *StateService) DayStats(ctx context.Context, date string) (domain.DayStats, error) {
	if date == "" {
		return s.stats.Today(ctx)
	}
	return s.stats.DayStats(ctx, date)
}

// CompareWeeks implements ports.StudyProvider. An empty date means this week.
func (s *StateService) CompareWeeks(ctx context.Context, date string) (domain.WeekComparison, error) {
	day := s.stats.now()
	if date != "" {
		parsed, err := s.stats.ParseDate(date)
		if err != nil {
			return domain.WeekComparison{}, err
		}
		day = parsed
	}
	return s.stats.CompareWeeks(ctx, s.stats.StartOfWeek(day))
}

// DailyRewardData implements ports.StudyProvider.
func (s *StateService) DailyRewardData(ctx context.Context) (domain.DailyRewardData, error) {
	return s.rewards.DailyRewardData(ctx)
}

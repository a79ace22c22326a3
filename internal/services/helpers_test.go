package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xvierd/studyflow/internal/adapters/storage"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

func setupTestStorage(t *testing.T) (*storage.Records, func()) {
	t.Helper()
	store, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	return storage.NewRecords(store), func() { _ = store.Close() }
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

type fakeNotifier struct {
	mu             sync.Mutex
	keepAwake      bool
	phaseCues      int
	sessionCues    int
	lastReward     string
	keepAwakeCalls int
}

func (n *fakeNotifier) EnableKeepAwake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keepAwake = true
	n.keepAwakeCalls++
}

func (n *fakeNotifier) DisableKeepAwake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keepAwake = false
}

func (n *fakeNotifier) PlayPhaseCompleteCue() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phaseCues++
}

func (n *fakeNotifier) PlaySessionCompleteCue(reward string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sessionCues++
	n.lastReward = reward
}

// faultyRepo fails selected writes with a store error.
type faultyRepo struct {
	ports.Repository
	saveSessionErr error
	saveActiveErr  error
	clearActiveErr error
	materialsErr   error
	statsErr       error
}

func (f *faultyRepo) SaveSession(ctx context.Context, s domain.Session) error {
	if f.saveSessionErr != nil {
		return &domain.PersistenceError{Op: "set", Key: ports.KeySessions, Err: f.saveSessionErr}
	}
	return f.Repository.SaveSession(ctx, s)
}

func (f *faultyRepo) SaveActive(ctx context.Context, s domain.Session) error {
	if f.saveActiveErr != nil {
		return &domain.PersistenceError{Op: "set", Key: ports.KeyActiveSession, Err: f.saveActiveErr}
	}
	return f.Repository.SaveActive(ctx, s)
}

func (f *faultyRepo) ClearActive(ctx context.Context) error {
	if f.clearActiveErr != nil {
		return &domain.PersistenceError{Op: "remove", Key: ports.KeyActiveSession, Err: f.clearActiveErr}
	}
	return f.Repository.ClearActive(ctx)
}

func (f *faultyRepo) SaveMaterialCollection(ctx context.Context, c domain.MaterialCollection) error {
	if f.materialsErr != nil {
		return &domain.PersistenceError{Op: "set", Key: ports.KeyMaterials, Err: f.materialsErr}
	}
	return f.Repository.SaveMaterialCollection(ctx, c)
}

func (f *faultyRepo) SaveDayStats(ctx context.Context, s domain.DayStats) error {
	if f.statsErr != nil {
		return &domain.PersistenceError{Op: "set", Key: ports.KeyStats, Err: f.statsErr}
	}
	return f.Repository.SaveDayStats(ctx, s)
}

type testEnv struct {
	repo     ports.Repository
	sessions *SessionService
	stats    *StatsService
	rewards  *RewardService
	state    *StateService
	clock    *fakeClock
	notifier *fakeNotifier
}

var testStart = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestEnv(repo ports.Repository) *testEnv {
	clock := newFakeClock(testStart)
	notifier := &fakeNotifier{}

	stats := NewStatsService(repo)
	stats.SetLocation(time.UTC)
	stats.SetClock(clock.Now)

	rewards := NewRewardService(repo)
	rewards.SetLocation(time.UTC)
	rewards.SetClock(clock.Now)

	sessions := NewSessionService(repo, notifier, stats, rewards)
	sessions.SetClock(clock.Now)
	sessions.SetRandom(fixedRand(5))

	return &testEnv{
		repo:     repo,
		sessions: sessions,
		stats:    stats,
		rewards:  rewards,
		state:    NewStateService(sessions, stats, rewards),
		clock:    clock,
		notifier: notifier,
	}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, cleanup := setupTestStorage(t)
	t.Cleanup(cleanup)
	return newTestEnv(repo)
}

// completedSession stores a finished session of pomodoros started at start.
func completedSession(t *testing.T, repo ports.Repository, start time.Time, pomodoros int) domain.Session {
	t.Helper()
	s := domain.NewSession("past", float64(pomodoros)/2, start)
	for i := 0; i < pomodoros; i++ {
		s = s.CompletePomodoro(start.Add(time.Duration(i+1)*30*time.Minute), fixedRand(0))
	}
	if err := repo.SaveSession(context.Background(), s); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	return s
}

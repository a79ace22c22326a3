package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/studyflow/internal/domain"
)

func TestSessionService_StartSession_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     StartSessionRequest
		wantErr bool
	}{
		{"minimum target", StartSessionRequest{Name: "Calc", TargetHours: 0.42}, false},
		{"maximum target", StartSessionRequest{Name: "Calc", TargetHours: 24}, false},
		{"blank name uses default", StartSessionRequest{Name: "   ", TargetHours: 1}, false},
		{"name of 50 runes", StartSessionRequest{Name: strings.Repeat("é", 50), TargetHours: 1}, false},
		{"target too small", StartSessionRequest{Name: "Calc", TargetHours: 0.41}, true},
		{"target too large", StartSessionRequest{Name: "Calc", TargetHours: 24.5}, true},
		{"name too long", StartSessionRequest{Name: strings.Repeat("a", 51), TargetHours: 1}, true},
		{"forbidden characters", StartSessionRequest{Name: "notes/ch1", TargetHours: 1}, true},
		{"question mark", StartSessionRequest{Name: "why?", TargetHours: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := env.sessions.StartSession(ctx, tt.req)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("StartSession() error = %v, want ErrValidation", err)
				}
				active, _ := env.repo.ActiveSession(ctx)
				if active != nil {
					t.Error("rejected request must not touch storage")
				}
				return
			}
			if err != nil {
				t.Fatalf("StartSession() error = %v", err)
			}
			if _, err := env.sessions.AbandonSession(ctx); err != nil {
				t.Fatalf("AbandonSession() error = %v", err)
			}
			if tt.req.Name == "   " && session.Name != domain.DefaultSessionName {
				t.Errorf("Name = %q, want %q", session.Name, domain.DefaultSessionName)
			}
		})
	}
}

func TestSessionService_StartSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	session, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Organic chemistry", TargetHours: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, session.TotalPomodoros)
	assert.Equal(t, domain.PhaseFocus, session.CurrentPhase)
	assert.True(t, env.notifier.keepAwake)

	active, err := env.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)

	history, err := env.repo.AllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, session.ID, history[0].ID)

	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Second", TargetHours: 1})
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
}

func TestSessionService_CompletePomodoro_NoActive(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.sessions.CompletePomodoro(context.Background())
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Errorf("CompletePomodoro() error = %v, want ErrNoActiveSession", err)
	}
}

func TestSessionService_CompletePomodoro_NonFinal(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Physics", TargetHours: 2})
	require.NoError(t, err)

	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, session.PomodorosCompleted)
	assert.Equal(t, domain.SessionStatusActive, session.Status)
	assert.Equal(t, 1, env.notifier.phaseCues)
	assert.Equal(t, 0, env.notifier.sessionCues)

	active, err := env.repo.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1, active.PomodorosCompleted)

	progress, err := env.sessions.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25.0, progress)
}

func TestSessionService_CompleteHalfHourSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	var results []AwardResult
	var mu sync.Mutex
	env.sessions.OnMaterialAwarded(func(r AwardResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	})

	started, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Quick review", TargetHours: 0.5})
	require.NoError(t, err)
	require.Equal(t, 1, started.TotalPomodoros)

	env.clock.Advance(25 * time.Minute)
	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	require.NoError(t, env.sessions.WaitForAwards())

	assert.Equal(t, domain.SessionStatusCompleted, session.Status)
	require.NotNil(t, session.EndTime)
	assert.True(t, session.EndTime.Equal(testStart.Add(25*time.Minute)))
	assert.Equal(t, domain.RewardMessages[5], session.Reward)
	assert.Equal(t, domain.PhaseIdle, session.CurrentPhase)

	active, err := env.repo.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active, "completing the session clears the slot")

	history, err := env.repo.AllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SessionStatusCompleted, history[0].Status)

	assert.False(t, env.notifier.keepAwake)
	assert.Equal(t, 1, env.notifier.sessionCues)
	assert.Equal(t, session.Reward, env.notifier.lastReward)

	cached, err := env.repo.AllDayStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cached["2026-10-14"].SessionsCompleted)
	assert.Equal(t, 25, cached["2026-10-14"].TotalMinutes)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, domain.MaterialCopper, results[0].Material)
	assert.Equal(t, session.ID, results[0].SessionID)

	collection, err := env.rewards.MaterialCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, collection[domain.MaterialCopper])
}

func TestSessionService_CompleteSession_AwardsByStudyHours(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Long haul", TargetHours: 3})
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		_, err := env.sessions.CompletePomodoro(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, env.sessions.WaitForAwards())

	// Six pomodoros credit 2.5 hours of focus.
	collection, err := env.rewards.MaterialCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, collection[domain.MaterialSilver])
	assert.Equal(t, 1, collection.Total())
}

func TestSessionService_AwardFailureKeepsCompletion(t *testing.T) {
	repo, cleanup := setupTestStorage(t)
	defer cleanup()
	faulty := &faultyRepo{Repository: repo, materialsErr: errors.New("quota exceeded")}
	env := newTestEnv(faulty)
	ctx := context.Background()

	done := make(chan AwardResult, 1)
	env.sessions.OnMaterialAwarded(func(r AwardResult) { done <- r })

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Unlucky", TargetHours: 0.5})
	require.NoError(t, err)
	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	require.NoError(t, env.sessions.WaitForAwards())

	result := <-done
	assert.ErrorIs(t, result.Err, domain.ErrPersistence)
	assert.Equal(t, domain.SessionStatusCompleted, session.Status)

	history, err := repo.AllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, history[0].Status)
}

func TestSessionService_AwardFor(t *testing.T) {
	ctx := context.Background()

	t.Run("reports the awarded material once", func(t *testing.T) {
		env := setupTestEnv(t)
		_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Geometry", TargetHours: 0.5})
		require.NoError(t, err)
		session, err := env.sessions.CompletePomodoro(ctx)
		require.NoError(t, err)

		result, err := env.sessions.AwardFor(ctx, session.ID)
		require.NoError(t, err)
		assert.NoError(t, result.Err)
		assert.Equal(t, domain.MaterialCopper, result.Material)

		_, err = env.sessions.AwardFor(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("reports a failed award", func(t *testing.T) {
		repo, cleanup := setupTestStorage(t)
		defer cleanup()
		env := newTestEnv(&faultyRepo{Repository: repo, materialsErr: errors.New("quota exceeded")})
		_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Geometry", TargetHours: 0.5})
		require.NoError(t, err)
		session, err := env.sessions.CompletePomodoro(ctx)
		require.NoError(t, err)

		result, err := env.state.MaterialAward(ctx, session.ID)
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.Empty(t, result)
	})

	t.Run("unknown session", func(t *testing.T) {
		env := setupTestEnv(t)
		_, err := env.sessions.AwardFor(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestSessionService_TerminalSlotIsNoOp(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	finished := domain.NewSession("Stale", 0.5, testStart).CompletePomodoro(testStart, fixedRand(0))
	require.NoError(t, env.repo.SaveActive(ctx, finished))

	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	assert.Equal(t, finished.PomodorosCompleted, session.PomodorosCompleted)
	assert.Equal(t, domain.SessionStatusCompleted, session.Status)

	session, err = env.sessions.AddNote(ctx, "too late now")
	require.NoError(t, err)
	assert.Empty(t, session.Notes)

	session, err = env.sessions.UpdatePhase(ctx, domain.PhaseBreak)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, session.CurrentPhase)

	// A stale terminal slot doesn't block a new session.
	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Fresh", TargetHours: 1})
	assert.NoError(t, err)
}

func TestSessionService_AddNote(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.AddNote(ctx, "no session yet")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Biology", TargetHours: 2})
	require.NoError(t, err)
	_, err = env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)

	t.Run("invalid note is rejected before persistence", func(t *testing.T) {
		_, err := env.sessions.AddNote(ctx, " x ")
		require.ErrorIs(t, err, domain.ErrValidation)

		active, err := env.repo.ActiveSession(ctx)
		require.NoError(t, err)
		assert.Empty(t, active.Notes)
	})

	t.Run("valid note is stored in both copies", func(t *testing.T) {
		session, err := env.sessions.AddNote(ctx, "  krebs cycle  ")
		require.NoError(t, err)
		require.Len(t, session.Notes, 1)
		assert.Equal(t, 2, session.Notes[0].PomodoroNumber)
		assert.Equal(t, "krebs cycle", session.Notes[0].Content)

		active, err := env.repo.ActiveSession(ctx)
		require.NoError(t, err)
		require.Len(t, active.Notes, 1)

		history, err := env.repo.AllSessions(ctx)
		require.NoError(t, err)
		require.Len(t, history[0].Notes, 1)
	})
}

func TestSessionService_AbandonSession(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.AbandonSession(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Literature", TargetHours: 2})
	require.NoError(t, err)
	_, err = env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)

	env.clock.Advance(40 * time.Minute)
	session, err := env.sessions.AbandonSession(ctx)
	require.NoError(t, err)
	require.NoError(t, env.sessions.WaitForAwards())

	assert.Equal(t, domain.SessionStatusAbandoned, session.Status)
	assert.Empty(t, session.Reward)
	assert.False(t, env.notifier.keepAwake)

	active, err := env.repo.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	history, err := env.repo.AllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SessionStatusAbandoned, history[0].Status)
	assert.Equal(t, 1, history[0].PomodorosCompleted)

	collection, err := env.rewards.MaterialCollection(ctx)
	require.NoError(t, err)
	assert.Zero(t, collection.Total(), "abandoned sessions earn nothing")

	day, err := env.stats.DayStats(ctx, "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, 1, day.SessionsAbandoned)
	assert.Zero(t, day.TotalMinutes, "abandoned focus time doesn't count")
}

func TestSessionService_AbandonSession_HistoryWriteFails(t *testing.T) {
	repo, cleanup := setupTestStorage(t)
	defer cleanup()
	faulty := &faultyRepo{Repository: repo}
	env := newTestEnv(faulty)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Flaky", TargetHours: 1})
	require.NoError(t, err)

	faulty.saveSessionErr = errors.New("disk full")
	session, err := env.sessions.AbandonSession(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	require.NotNil(t, session)
	assert.Equal(t, domain.SessionStatusAbandoned, session.Status)

	active, err := repo.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active, "slot is cleared even when history fails")
}

func TestSessionService_CompletionSurvivesFailedSlotClear(t *testing.T) {
	repo, cleanup := setupTestStorage(t)
	defer cleanup()
	faulty := &faultyRepo{Repository: repo}
	env := newTestEnv(faulty)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Sprint", TargetHours: 0.5})
	require.NoError(t, err)

	faulty.clearActiveErr = errors.New("disk full")
	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err, "the history write commits the completion")
	assert.Equal(t, domain.SessionStatusCompleted, session.Status)
	require.NoError(t, env.sessions.WaitForAwards())

	collection, err := env.rewards.MaterialCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, collection[domain.MaterialCopper])

	// The slot still holds the stale active copy; abandoning must not
	// overwrite the completed history entry.
	abandoned, err := env.sessions.AbandonSession(ctx)
	require.Error(t, err)
	require.NotNil(t, abandoned)
	assert.Equal(t, domain.SessionStatusCompleted, abandoned.Status)

	again, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.PomodorosCompleted)

	faulty.clearActiveErr = nil
	active, err := env.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	slot, err := repo.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, slot, "reading settles the stale slot")

	history, err := repo.AllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SessionStatusCompleted, history[0].Status)
	assert.NotEmpty(t, history[0].Reward)
}

func TestSessionService_FailedSlotWriteKeepsHistoryProgress(t *testing.T) {
	repo, cleanup := setupTestStorage(t)
	defer cleanup()
	faulty := &faultyRepo{Repository: repo}
	env := newTestEnv(faulty)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Calculus", TargetHours: 2})
	require.NoError(t, err)

	faulty.saveActiveErr = errors.New("disk full")
	_, err = env.sessions.CompletePomodoro(ctx)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	faulty.saveActiveErr = nil
	active, err := env.sessions.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1, active.PomodorosCompleted, "history holds the committed pomodoro")

	session, err := env.sessions.CompletePomodoro(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, session.PomodorosCompleted)
}

func TestSessionService_StartSession_SlotWriteFails(t *testing.T) {
	repo, cleanup := setupTestStorage(t)
	defer cleanup()
	faulty := &faultyRepo{Repository: repo, saveActiveErr: errors.New("disk full")}
	env := newTestEnv(faulty)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Orphan", TargetHours: 1})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	history, err := repo.AllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, history, "no unreachable active session is left in history")

	faulty.saveActiveErr = nil
	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Retry", TargetHours: 1})
	assert.NoError(t, err)
}

func TestSessionService_PhaseDurations(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	d, err := env.sessions.NextPhaseDuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, d, "focus when nothing is active")

	_, err = env.sessions.StartSession(ctx, StartSessionRequest{Name: "Marathon", TargetHours: 8})
	require.NoError(t, err)

	for n := 1; n <= 8; n++ {
		_, err := env.sessions.CompletePomodoro(ctx)
		require.NoError(t, err)

		d, err := env.sessions.NextPhaseDuration(ctx)
		require.NoError(t, err)
		want := 5 * time.Minute
		if n%4 == 0 {
			want = 15 * time.Minute
		}
		assert.Equal(t, want, d, "break after pomodoro %d", n)

		session, err := env.sessions.UpdatePhase(ctx, domain.PhaseBreak)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseBreak, session.CurrentPhase)

		current, err := env.sessions.CurrentPhaseDuration(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, current)

		d, err = env.sessions.NextPhaseDuration(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25*time.Minute, d)

		env.clock.Advance(want)
		session, err = env.sessions.UpdatePhase(ctx, domain.PhaseFocus)
		require.NoError(t, err)
		require.NotNil(t, session.CurrentPomodoroStartTime)
		assert.True(t, session.CurrentPomodoroStartTime.Equal(env.clock.Now()))
	}

	_, err = env.sessions.UpdatePhase(ctx, domain.Phase("nap"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSessionService_SerializesConcurrentCompletes(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Race", TargetHours: 8})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.sessions.CompletePomodoro(ctx)
		}()
	}
	wg.Wait()

	active, err := env.repo.ActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 10, active.PomodorosCompleted)

	history, err := env.repo.AllSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, history[0].PomodorosCompleted)
}

func TestSessionService_DeleteAndClear(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	past := completedSession(t, env.repo, testStart.AddDate(0, 0, -1), 2)
	require.NoError(t, env.repo.SaveMaterialCollection(ctx, domain.MaterialCollection{domain.MaterialGold: 2}))
	active, err := env.sessions.StartSession(ctx, StartSessionRequest{Name: "Current", TargetHours: 1})
	require.NoError(t, err)

	require.NoError(t, env.sessions.DeleteSession(ctx, active.ID))
	slot, err := env.repo.ActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, slot, "deleting the active session clears the slot")

	err = env.sessions.DeleteSession(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	history, err := env.repo.AllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, past.ID, history[0].ID)

	require.NoError(t, env.sessions.ClearAll(ctx))
	history, err = env.repo.AllSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	collection, err := env.rewards.MaterialCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, collection[domain.MaterialGold], "materials survive a reset")
}

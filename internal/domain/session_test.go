package domain

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"
)

type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func TestTotalPomodorosFor(t *testing.T) {
	tests := []struct {
		hours float64
		want  int
	}{
		{0.42, 1},
		{0.5, 1},
		{1, 2},
		{1.2, 3},
		{6, 12},
		{8, 16},
		{0, 1},
	}

	for _, tt := range tests {
		if got := TotalPomodorosFor(tt.hours); got != tt.want {
			t.Errorf("TotalPomodorosFor(%v) = %d, want %d", tt.hours, got, tt.want)
		}
	}
}

func TestNewSession(t *testing.T) {
	session := NewSession("  Algebra  ", 4, testNow)

	if session.ID == "" {
		t.Error("NewSession() ID is empty")
	}
	if session.Name != "Algebra" {
		t.Errorf("Name = %q, want %q", session.Name, "Algebra")
	}
	if session.TotalPomodoros != 8 {
		t.Errorf("TotalPomodoros = %d, want 8", session.TotalPomodoros)
	}
	if session.Status != SessionStatusActive {
		t.Errorf("Status = %v, want %v", session.Status, SessionStatusActive)
	}
	if session.CurrentPhase != PhaseFocus {
		t.Errorf("CurrentPhase = %v, want %v", session.CurrentPhase, PhaseFocus)
	}
	if !session.StartTime.Equal(testNow) {
		t.Errorf("StartTime = %v, want %v", session.StartTime, testNow)
	}
	if session.EndTime != nil {
		t.Error("EndTime should be nil for a new session")
	}
}

func TestNewSession_BlankNameUsesDefault(t *testing.T) {
	session := NewSession("   ", 1, testNow)
	if session.Name != DefaultSessionName {
		t.Errorf("Name = %q, want %q", session.Name, DefaultSessionName)
	}
}

func TestSession_CompletePomodoro(t *testing.T) {
	session := NewSession("Physics", 2, testNow)

	next := session.CompletePomodoro(testNow.Add(25*time.Minute), fixedRand(0))
	if next.PomodorosCompleted != 1 {
		t.Errorf("PomodorosCompleted = %d, want 1", next.PomodorosCompleted)
	}
	if next.Status != SessionStatusActive {
		t.Errorf("Status = %v, want active", next.Status)
	}
	if session.PomodorosCompleted != 0 {
		t.Error("CompletePomodoro() must not modify its receiver")
	}
}

func TestSession_CompletePomodoro_ReachesTarget(t *testing.T) {
	session := NewSession("Chemistry", 3, testNow)
	end := testNow.Add(3 * time.Hour)

	for i := 0; i < session.TotalPomodoros; i++ {
		if session.Status != SessionStatusActive {
			t.Fatalf("session completed early after %d pomodoros", i)
		}
		prev := session.PomodorosCompleted
		session = session.CompletePomodoro(end, fixedRand(3))
		if session.PomodorosCompleted < prev {
			t.Fatalf("PomodorosCompleted decreased from %d to %d", prev, session.PomodorosCompleted)
		}
	}

	if session.Status != SessionStatusCompleted {
		t.Errorf("Status = %v, want completed", session.Status)
	}
	if session.EndTime == nil || !session.EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", session.EndTime, end)
	}
	if session.Reward != RewardMessages[3] {
		t.Errorf("Reward = %q, want %q", session.Reward, RewardMessages[3])
	}
	if session.CurrentPhase != PhaseIdle {
		t.Errorf("CurrentPhase = %v, want idle", session.CurrentPhase)
	}

	again := session.CompletePomodoro(end.Add(time.Hour), fixedRand(0))
	if again.PomodorosCompleted != session.TotalPomodoros {
		t.Errorf("PomodorosCompleted = %d, must not exceed %d", again.PomodorosCompleted, session.TotalPomodoros)
	}
	if !again.EndTime.Equal(end) {
		t.Error("EndTime must be set exactly once")
	}
}

func TestSession_CompletePomodoro_HalfHourTarget(t *testing.T) {
	session := NewSession("Quick review", 0.5, testNow)
	if session.TotalPomodoros != 1 {
		t.Fatalf("TotalPomodoros = %d, want 1", session.TotalPomodoros)
	}

	session = session.CompletePomodoro(testNow, rand.New(rand.NewSource(1)))
	if session.Status != SessionStatusCompleted {
		t.Errorf("Status = %v, want completed", session.Status)
	}
	if session.EndTime == nil {
		t.Error("EndTime should be set")
	}
	if session.Reward == "" {
		t.Error("Reward should not be empty")
	}
}

func TestSession_AddNote(t *testing.T) {
	session := NewSession("Biology", 2, testNow)
	session = session.CompletePomodoro(testNow, fixedRand(0))

	next, err := session.AddNote("  cells divide by mitosis  ", testNow)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if len(next.Notes) != 1 {
		t.Fatalf("len(Notes) = %d, want 1", len(next.Notes))
	}
	note := next.Notes[0]
	if note.PomodoroNumber != 2 {
		t.Errorf("PomodoroNumber = %d, want 2", note.PomodoroNumber)
	}
	if note.Content != "cells divide by mitosis" {
		t.Errorf("Content = %q, want trimmed content", note.Content)
	}
	if len(session.Notes) != 0 {
		t.Error("AddNote() must not modify its receiver")
	}
}

func TestSession_AddNote_Validation(t *testing.T) {
	session := NewSession("History", 1, testNow)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace", "     ", true},
		{"too short", " ab ", true},
		{"minimum", "abc", false},
		{"maximum", strings.Repeat("x", MaxNoteLength), false},
		{"too long", strings.Repeat("x", MaxNoteLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := session.AddNote(tt.content, testNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddNote() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("AddNote() error = %v, want ErrValidation", err)
				}
				if len(next.Notes) != 0 {
					t.Error("rejected note must leave the session unchanged")
				}
			}
		})
	}
}

func TestSession_Abandon(t *testing.T) {
	session := NewSession("Literature", 4, testNow)
	session = session.CompletePomodoro(testNow, fixedRand(0))
	session = session.CompletePomodoro(testNow, fixedRand(0))

	end := testNow.Add(time.Hour)
	abandoned := session.Abandon(end)

	if abandoned.Status != SessionStatusAbandoned {
		t.Errorf("Status = %v, want abandoned", abandoned.Status)
	}
	if abandoned.EndTime == nil || !abandoned.EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", abandoned.EndTime, end)
	}
	if abandoned.CurrentPhase != PhaseIdle {
		t.Errorf("CurrentPhase = %v, want idle", abandoned.CurrentPhase)
	}
	if abandoned.Reward != "" {
		t.Error("abandoned sessions get no reward")
	}
	if abandoned.PomodorosCompleted != 2 {
		t.Errorf("PomodorosCompleted = %d, want 2", abandoned.PomodorosCompleted)
	}
}

func TestSession_TerminalIsNoOp(t *testing.T) {
	end := testNow.Add(time.Hour)
	abandoned := NewSession("Art", 2, testNow).Abandon(end)

	if got := abandoned.CompletePomodoro(end.Add(time.Minute), fixedRand(0)); got.PomodorosCompleted != 0 || got.Status != SessionStatusAbandoned {
		t.Errorf("CompletePomodoro() on abandoned session changed it: %+v", got)
	}
	if got := abandoned.Abandon(end.Add(time.Minute)); !got.EndTime.Equal(end) {
		t.Error("Abandon() twice must not move EndTime")
	}
	if got := abandoned.WithPhase(PhaseBreak, end); got.CurrentPhase != PhaseIdle {
		t.Errorf("WithPhase() on abandoned session = %v, want idle", got.CurrentPhase)
	}
	got, err := abandoned.AddNote("late note", end)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if len(got.Notes) != 0 {
		t.Error("AddNote() on abandoned session must be ignored")
	}
}

func TestSession_WithPhase(t *testing.T) {
	session := NewSession("Music", 2, testNow)

	onBreak := session.WithPhase(PhaseBreak, testNow.Add(25*time.Minute))
	if onBreak.CurrentPhase != PhaseBreak {
		t.Errorf("CurrentPhase = %v, want break", onBreak.CurrentPhase)
	}

	focusAt := testNow.Add(30 * time.Minute)
	focus := onBreak.WithPhase(PhaseFocus, focusAt)
	if focus.CurrentPomodoroStartTime == nil || !focus.CurrentPomodoroStartTime.Equal(focusAt) {
		t.Errorf("CurrentPomodoroStartTime = %v, want %v", focus.CurrentPomodoroStartTime, focusAt)
	}

	if idle := session.WithPhase(PhaseIdle, testNow); idle.CurrentPhase != PhaseFocus {
		t.Error("WithPhase(idle) must be ignored on an active session")
	}
}

func TestSession_Progress(t *testing.T) {
	session := NewSession("Math", 2, testNow)
	if session.Progress() != 0 {
		t.Errorf("Progress() = %v, want 0", session.Progress())
	}
	session = session.CompletePomodoro(testNow, fixedRand(0))
	if session.Progress() != 25 {
		t.Errorf("Progress() = %v, want 25", session.Progress())
	}
}

func TestSession_StudyHours(t *testing.T) {
	session := NewSession("Math", 4, testNow)
	for i := 0; i < 6; i++ {
		session = session.CompletePomodoro(testNow, fixedRand(0))
	}
	if session.FocusMinutes() != 150 {
		t.Errorf("FocusMinutes() = %d, want 150", session.FocusMinutes())
	}
	if session.StudyHours() != 2.5 {
		t.Errorf("StudyHours() = %v, want 2.5", session.StudyHours())
	}
}

func TestSession_JSONRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2026, 5, 1, 22, 15, 42, 0, loc)
	session := NewSession("Round trip", 1, start)
	session, _ = session.AddNote("first idea", start.Add(10*time.Minute))
	session = session.CompletePomodoro(start.Add(25*time.Minute), fixedRand(1))
	session = session.CompletePomodoro(start.Add(55*time.Minute), fixedRand(1))

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.ID != session.ID || decoded.Name != session.Name || decoded.Status != session.Status {
		t.Errorf("decoded = %+v, want %+v", decoded, session)
	}
	if !decoded.StartTime.Equal(session.StartTime) {
		t.Errorf("StartTime = %v, want %v", decoded.StartTime, session.StartTime)
	}
	if decoded.EndTime == nil || !decoded.EndTime.Equal(*session.EndTime) {
		t.Errorf("EndTime = %v, want %v", decoded.EndTime, session.EndTime)
	}
	if len(decoded.Notes) != 1 || !decoded.Notes[0].Timestamp.Equal(session.Notes[0].Timestamp) {
		t.Errorf("Notes = %+v, want %+v", decoded.Notes, session.Notes)
	}
	if decoded.Reward != session.Reward || decoded.PomodorosCompleted != 2 || decoded.TotalPomodoros != 2 {
		t.Errorf("decoded counters/reward = %+v", decoded)
	}
}

func TestPomodoroConfig_NextPhaseDuration(t *testing.T) {
	cfg := DefaultPomodoroConfig()

	for n := 0; n <= 12; n++ {
		if got := cfg.NextPhaseDuration(n, PhaseFocus); got != 25*time.Minute {
			t.Errorf("NextPhaseDuration(%d, focus) = %v, want 25m", n, got)
		}
		want := cfg.ShortBreakDuration
		if n > 0 && n%4 == 0 {
			want = cfg.LongBreakDuration
		}
		if got := cfg.NextPhaseDuration(n, PhaseBreak); got != want {
			t.Errorf("NextPhaseDuration(%d, break) = %v, want %v", n, got, want)
		}
	}
}

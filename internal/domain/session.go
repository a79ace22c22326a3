package domain

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// SessionStatus represents the lifecycle state of a study session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Phase is the activity a session is currently in.
type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
	PhaseIdle  Phase = "idle"
)

const (
	// DefaultSessionName is used when a session is created with a blank name.
	DefaultSessionName = "Study Session"

	// MinTargetHours is one pomodoro's worth of focus time.
	MinTargetHours = 0.42
	// MaxTargetHours matches the top of the material table.
	MaxTargetHours = 24.0

	MaxSessionNameLength = 50
	MinNoteLength        = 3
	MaxNoteLength        = 500

	// PomodoroMinutes is the focus time credited per completed pomodoro.
	PomodoroMinutes = 25
)

// RewardMessages is the pool a completion message is drawn from.
var RewardMessages = []string{
	"🎉 Amazing! You completed your session!",
	"🔥 Incredible focus! Session completed!",
	"⭐ Outstanding work! You did it!",
	"🏆 Session complete! You're unstoppable!",
	"💪 Fantastic! Another session conquered!",
	"🎯 Perfect! Goal achieved!",
	"✨ Brilliant! You stayed focused!",
	"🌟 Excellent work! Session done!",
}

// BreakMessages are suggestions shown while a break is running.
var BreakMessages = []string{
	"Take a short walk and stretch your body",
	"Rest your eyes and look at something far away",
	"Hydrate yourself with water",
	"Do some light stretching exercises",
	"Take deep breaths and relax",
	"Step outside for fresh air",
	"Chat with someone, but avoid screens",
	"Close your eyes and meditate for a moment",
	"Grab a healthy snack",
	"Stand up and move around",
}

// RandomSource picks reward and break messages. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Note is a piece of text recorded against one pomodoro.
type Note struct {
	ID             string    `json:"id"`
	PomodoroNumber int       `json:"pomodoroNumber"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// Session is one study attempt made of several pomodoros.
type Session struct {
	ID                       string        `json:"id"`
	Name                     string        `json:"name"`
	TargetHours              float64       `json:"targetHours"`
	StartTime                time.Time     `json:"startTime"`
	EndTime                  *time.Time    `json:"endTime,omitempty"`
	PomodorosCompleted       int           `json:"pomodorosCompleted"`
	TotalPomodoros           int           `json:"totalPomodoros"`
	Notes                    []Note        `json:"notes"`
	Status                   SessionStatus `json:"status"`
	Reward                   string        `json:"reward,omitempty"`
	CurrentPhase             Phase         `json:"currentPhase"`
	CurrentPomodoroStartTime *time.Time    `json:"currentPomodoroStartTime,omitempty"`
}

// TotalPomodorosFor returns how many pomodoros fit in the target: one
// pomodoro plus its break is roughly half an hour. A session always has at
// least one pomodoro.
func TotalPomodorosFor(targetHours float64) int {
	n := int(math.Ceil(targetHours * 2))
	if n < 1 {
		return 1
	}
	return n
}

// NewSession creates an active session in the focus phase. Input validation
// is the caller's job; this only derives the pomodoro target.
func NewSession(name string, targetHours float64, now time.Time) Session {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionName
	}
	return Session{
		ID:                       generateID(),
		Name:                     name,
		TargetHours:              targetHours,
		StartTime:                now,
		TotalPomodoros:           TotalPomodorosFor(targetHours),
		Notes:                    []Note{},
		Status:                   SessionStatusActive,
		CurrentPhase:             PhaseFocus,
		CurrentPomodoroStartTime: &now,
	}
}

// IsActive returns true while the session can still change.
func (s Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// IsTerminal returns true once the session is completed or abandoned.
func (s Session) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusAbandoned
}

// clone returns a copy that shares no mutable state with s.
func (s Session) clone() Session {
	c := s
	c.Notes = slices.Clone(s.Notes)
	if c.Notes == nil {
		c.Notes = []Note{}
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	if s.CurrentPomodoroStartTime != nil {
		t := *s.CurrentPomodoroStartTime
		c.CurrentPomodoroStartTime = &t
	}
	return c
}

// CompletePomodoro counts one finished pomodoro. Reaching the target completes
// the session in the same step. Terminal sessions are returned unchanged.
func (s Session) CompletePomodoro(now time.Time, rnd RandomSource) Session {
	next := s.clone()
	if !s.IsActive() || s.PomodorosCompleted >= s.TotalPomodoros {
		return next
	}
	next.PomodorosCompleted++
	if next.PomodorosCompleted >= next.TotalPomodoros {
		return next.complete(now, rnd)
	}
	return next
}

func (s Session) complete(now time.Time, rnd RandomSource) Session {
	s.Status = SessionStatusCompleted
	s.EndTime = &now
	s.Reward = RewardMessages[rnd.Intn(len(RewardMessages))]
	s.CurrentPhase = PhaseIdle
	return s
}

// ValidateNote checks trimmed note content against the length bounds.
func ValidateNote(content string) error {
	trimmed := strings.TrimSpace(content)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return NewValidationError("note", "note cannot be empty")
	case n < MinNoteLength:
		return NewValidationError("note", "note too short (min 3 characters)")
	case n > MaxNoteLength:
		return NewValidationError("note", "note too long (max 500 characters)")
	}
	return nil
}

// AddNote appends a note for the pomodoro currently in progress.
func (s Session) AddNote(content string, now time.Time) (Session, error) {
	if err := ValidateNote(content); err != nil {
		return s.clone(), err
	}
	next := s.clone()
	if !s.IsActive() {
		return next, nil
	}
	next.Notes = append(next.Notes, Note{
		ID:             generateID(),
		PomodoroNumber: s.PomodorosCompleted + 1,
		Content:        strings.TrimSpace(content),
		Timestamp:      now,
	})
	return next, nil
}

// Abandon ends the session without a reward.
func (s Session) Abandon(now time.Time) Session {
	next := s.clone()
	if !s.IsActive() {
		return next
	}
	next.Status = SessionStatusAbandoned
	next.EndTime = &now
	next.CurrentPhase = PhaseIdle
	return next
}

// WithPhase moves an active session between focus and break. Entering focus
// stamps the start of the new pomodoro. Idle is reserved for terminal states.
func (s Session) WithPhase(phase Phase, now time.Time) Session {
	next := s.clone()
	if !s.IsActive() || phase == PhaseIdle {
		return next
	}
	next.CurrentPhase = phase
	if phase == PhaseFocus {
		next.CurrentPomodoroStartTime = &now
	}
	return next
}

// Progress returns completion as a percentage of the pomodoro target.
func (s Session) Progress() float64 {
	if s.TotalPomodoros == 0 {
		return 0
	}
	return float64(s.PomodorosCompleted) / float64(s.TotalPomodoros) * 100
}

// FocusMinutes is the study time credited to the session. Breaks don't count.
func (s Session) FocusMinutes() int {
	return s.PomodorosCompleted * PomodoroMinutes
}

// StudyHours is FocusMinutes expressed in hours.
func (s Session) StudyHours() float64 {
	return float64(s.FocusMinutes()) / 60
}

// UpcomingPhase returns the phase that follows the current one.
func (s Session) UpcomingPhase() Phase {
	if s.CurrentPhase == PhaseFocus {
		return PhaseBreak
	}
	return PhaseFocus
}

// BreakMessage picks a suggestion for the next break.
func BreakMessage(rnd RandomSource) string {
	return BreakMessages[rnd.Intn(len(BreakMessages))]
}

package domain

import "time"

// PomodoroConfig holds the phase durations and the long-break cadence.
type PomodoroConfig struct {
	FocusDuration      time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration
	SessionsBeforeLong int
}

// DefaultPomodoroConfig returns the classic 25/5/15 configuration with a long
// break after every fourth pomodoro.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		FocusDuration:      25 * time.Minute,
		ShortBreakDuration: 5 * time.Minute,
		LongBreakDuration:  15 * time.Minute,
		SessionsBeforeLong: 4,
	}
}

// IsLongBreak reports whether the break after completedSoFar pomodoros is a
// long one.
func (c PomodoroConfig) IsLongBreak(completedSoFar int) bool {
	every := c.SessionsBeforeLong
	if every <= 0 {
		every = 4
	}
	return completedSoFar > 0 && completedSoFar%every == 0
}

// NextPhaseDuration returns how long the upcoming phase lasts. Focus is
// always the fixed focus duration.
func (c PomodoroConfig) NextPhaseDuration(completedSoFar int, upcoming Phase) time.Duration {
	if upcoming != PhaseBreak {
		return c.FocusDuration
	}
	if c.IsLongBreak(completedSoFar) {
		return c.LongBreakDuration
	}
	return c.ShortBreakDuration
}

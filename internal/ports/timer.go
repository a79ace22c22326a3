package ports

// Countdown is a phase timer driven by an external one-second tick.
// This is a driven port (implemented by adapters).
type Countdown interface {
	// Start begins counting down from the current duration.
	Start()

	// Pause stops counting without losing the remaining time.
	Pause()

	// Resume continues a paused countdown.
	Resume()

	// Reset stops the countdown and sets a new duration in seconds.
	Reset(seconds int)

	// Skip ends the countdown immediately and fires the completion callback.
	Skip()

	// Tick advances a running countdown by one second.
	Tick()

	// Remaining returns the seconds left.
	Remaining() int

	// Running returns true while the countdown is started and not finished.
	Running() bool

	// Paused returns true while a started countdown is paused.
	Paused() bool

	// Progress returns the elapsed share of the duration in [0, 1].
	Progress() float64

	// OnComplete sets the callback fired once when the countdown reaches zero.
	OnComplete(fn func())
}

// TimerCommand represents a user action during timer operation.
type TimerCommand string

const (
	// CmdPause pauses or resumes the countdown.
	CmdPause TimerCommand = "pause"

	// CmdSkip ends the current phase early.
	CmdSkip TimerCommand = "skip"

	// CmdNote opens the note editor.
	CmdNote TimerCommand = "note"

	// CmdAbandon abandons the session after confirmation.
	CmdAbandon TimerCommand = "abandon"

	// CmdQuit exits the timer, leaving the session active.
	CmdQuit TimerCommand = "quit"
)

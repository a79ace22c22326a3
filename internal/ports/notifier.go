package ports

// Notifier plays cues and holds the keep-awake flag. Implementations swallow
// their own failures.
// This is a driven port (implemented by adapters).
type Notifier interface {
	EnableKeepAwake()
	DisableKeepAwake()

	// PlayPhaseCompleteCue signals the end of a focus or break phase.
	PlayPhaseCompleteCue()

	// PlaySessionCompleteCue celebrates a completed session.
	PlaySessionCompleteCue(reward string)
}

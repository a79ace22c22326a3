// Package notification provides desktop cues for phase and session ends.
package notification

import (
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/hashicorp/go-hclog"
	"github.com/xvierd/studyflow/internal/config"
	"github.com/xvierd/studyflow/internal/ports"
)

// Notifier implements ports.Notifier with beeep.
type Notifier struct {
	cfg    *config.NotificationConfig
	logger hclog.Logger

	// notify and beep are swapped out in tests.
	notify func(title, message, icon string) error
	beep   func(freq float64, duration int) error

	mu        sync.Mutex
	keepAwake bool
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig, logger hclog.Logger) *Notifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Notifier{
		cfg:    cfg,
		logger: logger.Named("notify"),
		notify: func(title, message, icon string) error { return beeep.Notify(title, message, icon) },
		beep:   beeep.Beep,
	}
}

// EnableKeepAwake marks the screen as needing to stay on for a session.
func (n *Notifier) EnableKeepAwake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.keepAwake {
		n.logger.Debug("keep-awake enabled")
	}
	n.keepAwake = true
}

// DisableKeepAwake clears the keep-awake flag. Calling it twice is harmless.
func (n *Notifier) DisableKeepAwake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.keepAwake {
		n.logger.Debug("keep-awake disabled")
	}
	n.keepAwake = false
}

// KeepAwake reports whether a session currently holds the keep-awake flag.
func (n *Notifier) KeepAwake() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.keepAwake
}

// PlayPhaseCompleteCue signals that a focus or break phase ended.
func (n *Notifier) PlayPhaseCompleteCue() {
	n.sound()
	n.show("⏰ Phase Complete", "Time to switch: check studyflow for what's next.")
}

// PlaySessionCompleteCue celebrates a completed session.
func (n *Notifier) PlaySessionCompleteCue(reward string) {
	n.sound()
	n.show("🎉 Session Complete!", reward)
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

func (n *Notifier) show(title, message string) {
	if !n.IsEnabled() {
		return
	}
	if err := n.notify(title, message, ""); err != nil {
		n.logger.Warn("desktop notification failed", "error", err)
	}
}

func (n *Notifier) sound() {
	if n.cfg == nil || !n.cfg.Sound {
		return
	}
	if err := n.beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		n.logger.Warn("audio cue failed", "error", err)
	}
}

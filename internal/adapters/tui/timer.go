package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/xvierd/studyflow/internal/domain"
)

// Timer runs the interactive study timer as a full-screen Bubbletea program.
type Timer struct {
	ctrl    Controller
	opts    Options
	logger  hclog.Logger
	mu      sync.RWMutex
	program *tea.Program
}

// NewTimer creates a TUI timer over the given session controller.
func NewTimer(ctrl Controller, opts Options) *Timer {
	return &Timer{
		ctrl:   ctrl,
		opts:   opts,
		logger: hclog.NewNullLogger(),
	}
}

// SetLogger sets the logger.
func (t *Timer) SetLogger(logger hclog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// Run takes over the terminal for the active session and blocks until the
// user quits or ctx is done. It returns the session as the timer last saw it.
// Quitting leaves an unfinished session active so it can be resumed.
func (t *Timer) Run(ctx context.Context) (domain.Session, error) {
	session, err := t.ctrl.ActiveSession(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if session == nil || !session.IsActive() {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	length, err := t.ctrl.CurrentPhaseDuration(ctx)
	if err != nil {
		return *session, err
	}

	model := NewModel(ctx, t.ctrl, *session, length, t.opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	t.mu.Lock()
	t.program = program
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.program = nil
		t.mu.Unlock()
	}()

	t.logger.Debug("timer started", "id", session.ID, "phase", session.CurrentPhase, "length", length)
	final, err := program.Run()
	last := *session
	if m, ok := final.(Model); ok {
		last = m.Session()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return last, fmt.Errorf("failed to run TUI: %w", err)
	}
	t.logger.Debug("timer stopped", "id", last.ID, "status", last.Status, "pomodoros", last.PomodorosCompleted)
	return last, nil
}

// NotifyAward shows the material granted for the finished session. It is
// safe to call from any goroutine, before or after Run.
func (t *Timer) NotifyAward(material domain.MaterialKey, err error) {
	t.mu.RLock()
	program := t.program
	t.mu.RUnlock()
	if program == nil {
		return
	}
	// Send blocks until the event loop reads it; never stall the caller.
	go program.Send(awardMsg{material: material, err: err})
}

// Stop gracefully stops the timer interface.
func (t *Timer) Stop() {
	t.mu.RLock()
	program := t.program
	t.mu.RUnlock()
	if program != nil {
		program.Quit()
	}
}

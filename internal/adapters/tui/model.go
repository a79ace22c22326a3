// Package tui provides the interactive study timer using the Bubbletea
// framework.
package tui

import (
	"context"
	"math/rand"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/xvierd/studyflow/internal/config"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
	"github.com/xvierd/studyflow/internal/timer"
)

// Controller is the part of the session service the timer drives.
// *services.SessionService satisfies it.
type Controller interface {
	ActiveSession(ctx context.Context) (*domain.Session, error)
	CompletePomodoro(ctx context.Context) (*domain.Session, error)
	AddNote(ctx context.Context, content string) (*domain.Session, error)
	UpdatePhase(ctx context.Context, phase domain.Phase) (*domain.Session, error)
	AbandonSession(ctx context.Context) (*domain.Session, error)
	CurrentPhaseDuration(ctx context.Context) (time.Duration, error)
}

// Options tune the interactive timer.
type Options struct {
	Theme *config.ThemeConfig

	// AutoStartBreak starts the break countdown as soon as a pomodoro is
	// counted. Otherwise the break waits for space.
	AutoStartBreak bool

	// Random picks break suggestions. Defaults to a time-seeded source.
	Random domain.RandomSource

	// TickInterval is how often the countdown advances by one second.
	// Zero means one second; tests shorten it.
	TickInterval time.Duration
}

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every timer tick.
type tickMsg time.Time

// pomodoroMsg carries the result of counting a finished pomodoro. noted is
// set when the note was saved even though counting failed.
type pomodoroMsg struct {
	session *domain.Session
	noted   *domain.Session
	err     error
}

// phaseMsg carries the session after a phase change and the new phase length.
type phaseMsg struct {
	session *domain.Session
	length  time.Duration
	err     error
}

type noteMsg struct {
	session *domain.Session
	err     error
}

type abandonMsg struct {
	session *domain.Session
	err     error
}

// awardMsg reports the material granted for the finished session.
type awardMsg struct {
	material domain.MaterialKey
	err      error
}

// screen is what the timer is showing.
type screen int

const (
	screenTimer screen = iota
	// screenNote asks for a note before the finished pomodoro is counted.
	screenNote
	screenCompleted
	screenAbandoned
)

// Model represents the TUI state.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	session   domain.Session
	countdown ports.Countdown
	phaseDone chan struct{}
	phaseLen  time.Duration
	interval  time.Duration
	autoBreak bool
	rnd       domain.RandomSource
	theme     config.ThemeConfig

	progress  progress.Model
	noteInput textinput.Model
	width     int
	height    int

	screen         screen
	editingNote    bool
	confirmSkip    bool
	confirmAbandon bool
	// busy is set while a service call is in flight.
	busy     bool
	breakTip string
	status   string
	err      error

	award    *domain.MaterialKey
	awardErr error
}

// NewModel creates a timer for an active session whose current phase lasts
// phaseLength. The countdown starts right away.
func NewModel(ctx context.Context, ctrl Controller, session domain.Session, phaseLength time.Duration, opts Options) Model {
	rnd := opts.Random
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	input := textinput.New()
	input.CharLimit = domain.MaxNoteLength
	input.Width = 48

	done := make(chan struct{}, 1)
	countdown := timer.New(int(phaseLength.Seconds()))
	countdown.OnComplete(func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	countdown.Start()

	m := Model{
		ctx:       ctx,
		ctrl:      ctrl,
		session:   session,
		countdown: countdown,
		phaseDone: done,
		phaseLen:  phaseLength,
		interval:  interval,
		autoBreak: opts.AutoStartBreak,
		rnd:       rnd,
		theme:     resolveTheme(opts.Theme),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		noteInput: input,
	}
	if session.CurrentPhase == domain.PhaseBreak {
		m.breakTip = domain.BreakMessage(rnd)
	}
	return m
}

// Session returns the session as the timer last saw it.
func (m Model) Session() domain.Session {
	return m.session
}

// Completed reports whether the session reached its target in this run.
func (m Model) Completed() bool {
	return m.screen == screenCompleted
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = barWidth(msg.Width)
		return m, nil

	case tickMsg:
		if m.finished() {
			return m, nil
		}
		m.countdown.Tick()
		if m.phaseEnded() {
			next, cmd := m.endPhase()
			return next, tea.Batch(cmd, m.tickCmd())
		}
		return m, m.tickCmd()

	case pomodoroMsg:
		return m.onPomodoro(msg)

	case phaseMsg:
		return m.onPhase(msg)

	case noteMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session = *msg.session
		m.editingNote = false
		m.noteInput.Blur()
		m.status = "Note saved"
		return m, nil

	case abandonMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session = *msg.session
		m.countdown.Reset(0)
		m.screen = screenAbandoned
		return m, nil

	case awardMsg:
		if msg.err != nil {
			m.awardErr = msg.err
			return m, nil
		}
		key := msg.material
		m.award = &key
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	if m.screen == screenNote || m.editingNote {
		var cmd tea.Cmd
		m.noteInput, cmd = m.noteInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) finished() bool {
	return m.screen == screenCompleted || m.screen == screenAbandoned
}

// phaseEnded drains the countdown's completion signal.
func (m Model) phaseEnded() bool {
	select {
	case <-m.phaseDone:
		return true
	default:
		return false
	}
}

// endPhase moves on from a phase that hit zero or was skipped. A finished
// break goes straight to focus; a finished pomodoro asks for a note first.
func (m Model) endPhase() (Model, tea.Cmd) {
	m.confirmSkip = false
	m.confirmAbandon = false
	m.editingNote = false
	m.status = ""
	if m.session.CurrentPhase == domain.PhaseBreak {
		m.busy = true
		return m, m.phaseCmd(domain.PhaseFocus)
	}
	m.screen = screenNote
	m.noteInput.Reset()
	m.noteInput.Placeholder = "What did you study? (enter to skip)"
	blink := m.noteInput.Focus()
	return m, blink
}

func (m Model) onPomodoro(msg pomodoroMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.err = msg.err
		if msg.noted != nil {
			// Retrying must only count the pomodoro.
			m.session = *msg.noted
			m.noteInput.Reset()
			m.noteInput.Placeholder = "Note saved. Enter to count the pomodoro"
		}
		return m, nil
	}
	m.err = nil
	m.session = *msg.session
	m.noteInput.Blur()

	switch m.session.Status {
	case domain.SessionStatusCompleted:
		m.screen = screenCompleted
		return m, nil
	case domain.SessionStatusAbandoned:
		m.screen = screenAbandoned
		return m, nil
	}
	m.screen = screenTimer
	m.busy = true
	return m, m.phaseCmd(domain.PhaseBreak)
}

func (m Model) onPhase(msg phaseMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.err = nil
	m.session = *msg.session
	if m.session.IsTerminal() {
		m.screen = screenAbandoned
		if m.session.Status == domain.SessionStatusCompleted {
			m.screen = screenCompleted
		}
		return m, nil
	}

	m.phaseLen = msg.length
	m.countdown.Reset(int(msg.length.Seconds()))
	if m.session.CurrentPhase == domain.PhaseBreak {
		m.breakTip = domain.BreakMessage(m.rnd)
		if !m.autoBreak {
			m.status = "Break ready, press space to start"
			return m, nil
		}
	} else {
		m.breakTip = ""
	}
	m.countdown.Start()
	return m, nil
}

// keyCommands maps timer keys to commands.
var keyCommands = map[string]ports.TimerCommand{
	" ": ports.CmdPause,
	"p": ports.CmdPause,
	"s": ports.CmdSkip,
	"n": ports.CmdNote,
	"a": ports.CmdAbandon,
	"q": ports.CmdQuit,
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch {
	case m.finished():
		switch msg.String() {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil
	case m.screen == screenNote:
		return m.onNoteKey(msg, true)
	case m.editingNote:
		return m.onNoteKey(msg, false)
	}

	command, ok := keyCommands[msg.String()]
	if command == ports.CmdQuit {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if !ok {
		m.confirmSkip = false
		m.confirmAbandon = false
		return m, nil
	}

	switch command {
	case ports.CmdPause:
		m.togglePause()
		m.confirmSkip = false
		m.confirmAbandon = false
	case ports.CmdSkip:
		if !m.confirmSkip {
			m.confirmSkip = true
			m.confirmAbandon = false
			return m, nil
		}
		m.countdown.Skip()
		if m.phaseEnded() {
			return m.endPhase()
		}
		m.confirmSkip = false
	case ports.CmdNote:
		m.editingNote = true
		m.confirmSkip = false
		m.confirmAbandon = false
		m.noteInput.Reset()
		m.noteInput.Placeholder = "Add a note"
		blink := m.noteInput.Focus()
		return m, blink
	case ports.CmdAbandon:
		if !m.confirmAbandon {
			m.confirmAbandon = true
			m.confirmSkip = false
			return m, nil
		}
		m.confirmAbandon = false
		m.countdown.Pause()
		m.busy = true
		return m, m.abandonCmd()
	}
	return m, nil
}

// onNoteKey edits a note. At the end of a pomodoro, enter counts the pomodoro
// with the note attached and esc counts it without one.
func (m Model) onNoteKey(msg tea.KeyMsg, pomodoroEnd bool) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		content := strings.TrimSpace(m.noteInput.Value())
		if content != "" {
			if err := domain.ValidateNote(content); err != nil {
				m.err = err
				return m, nil
			}
		}
		m.err = nil
		if pomodoroEnd {
			m.busy = true
			return m, m.completeCmd(content)
		}
		if content == "" {
			m.editingNote = false
			m.noteInput.Blur()
			return m, nil
		}
		m.busy = true
		return m, m.noteCmd(content)
	case tea.KeyEsc:
		m.err = nil
		if pomodoroEnd {
			m.busy = true
			return m, m.completeCmd("")
		}
		m.editingNote = false
		m.noteInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

// togglePause starts a waiting break, or pauses and resumes a running phase.
func (m *Model) togglePause() {
	m.status = ""
	switch {
	case !m.countdown.Running():
		m.countdown.Start()
	case m.countdown.Paused():
		m.countdown.Resume()
	default:
		m.countdown.Pause()
	}
}

func (m Model) completeCmd(note string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		var noted *domain.Session
		if note != "" {
			session, err := ctrl.AddNote(ctx, note)
			if err != nil {
				return pomodoroMsg{err: err}
			}
			noted = session
		}
		session, err := ctrl.CompletePomodoro(ctx)
		if err != nil {
			return pomodoroMsg{noted: noted, err: err}
		}
		return pomodoroMsg{session: session}
	}
}

func (m Model) phaseCmd(phase domain.Phase) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		session, err := ctrl.UpdatePhase(ctx, phase)
		if err != nil {
			return phaseMsg{err: err}
		}
		length, err := ctrl.CurrentPhaseDuration(ctx)
		return phaseMsg{session: session, length: length, err: err}
	}
}

func (m Model) noteCmd(content string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		session, err := ctrl.AddNote(ctx, content)
		return noteMsg{session: session, err: err}
	}
}

func (m Model) abandonCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		session, err := ctrl.AbandonSession(ctx)
		return abandonMsg{session: session, err: err}
	}
}

// tickCmd creates a command that sends a tick message.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func barWidth(termWidth int) int {
	w := termWidth - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}

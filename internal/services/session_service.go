package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-hclog"
	"github.com/sourcegraph/conc"
	"github.com/xvierd/studyflow/internal/domain"
	"github.com/xvierd/studyflow/internal/ports"
)

// forbiddenNameChars may not appear in a session name.
const forbiddenNameChars = `<>:"/\|?*`

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sessionname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), forbiddenNameChars)
	})
	return v
}

// StartSessionRequest contains data to start a study session.
type StartSessionRequest struct {
	Name        string  `validate:"max=50,sessionname"`
	TargetHours float64 `validate:"gte=0.42,lte=24"`
}

// validateRequest turns the first validator failure into a domain error.
func validateRequest(req StartSessionRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "max" {
			return domain.NewValidationError("name", fmt.Sprintf("name too long (max %d characters)", domain.MaxSessionNameLength))
		}
		return domain.NewValidationError("name", "name contains invalid characters")
	default:
		return domain.NewValidationError("targetHours",
			fmt.Sprintf("target hours must be between %v and %v", domain.MinTargetHours, domain.MaxTargetHours))
	}
}

// AwardResult reports the outcome of the asynchronous material award that
// follows a completed session.
type AwardResult struct {
	SessionID string
	Material  domain.MaterialKey
	Err       error
}

// errAwardAborted is the outcome of an award that panicked.
var errAwardAborted = errors.New("material award did not finish")

// awardTicket tracks one dispatched award. result is final once done closes.
type awardTicket struct {
	done   chan struct{}
	result AwardResult
}

// SessionService handles the study-session lifecycle. Every read-modify-write
// of the active session happens under mu against a fresh read of the slot.
type SessionService struct {
	repo     ports.Repository
	notifier ports.Notifier
	stats    *StatsService
	rewards  *RewardService
	config   domain.PomodoroConfig
	logger   hclog.Logger
	now      func() time.Time
	rnd      domain.RandomSource

	mu sync.Mutex

	awards  conc.WaitGroup
	awardMu sync.Mutex
	onAward func(AwardResult)
	tickets map[string]*awardTicket
}

// NewSessionService creates a new session service. stats and rewards may be
// nil, in which case completion skips the stats refresh and the award.
func NewSessionService(repo ports.Repository, notifier ports.Notifier, stats *StatsService, rewards *RewardService) *SessionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SessionService{
		repo:     repo,
		notifier: notifier,
		stats:    stats,
		rewards:  rewards,
		config:   domain.DefaultPomodoroConfig(),
		logger:   hclog.NewNullLogger(),
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		tickets:  make(map[string]*awardTicket),
	}
}

// SetConfig updates the pomodoro configuration.
func (s *SessionService) SetConfig(config domain.PomodoroConfig) {
	s.config = config
}

// SetLogger sets the logger.
func (s *SessionService) SetLogger(logger hclog.Logger) {
	s.logger = logger.Named("session")
}

// SetClock replaces the time source.
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

// SetRandom replaces the source used to pick reward messages.
func (s *SessionService) SetRandom(rnd domain.RandomSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd = rnd
}

// OnMaterialAwarded registers a callback for award results. It runs on the
// award goroutine.
func (s *SessionService) OnMaterialAwarded(fn func(AwardResult)) {
	s.awardMu.Lock()
	defer s.awardMu.Unlock()
	s.onAward = fn
}

// WaitForAwards blocks until every dispatched award has finished. A panic in
// an award is returned as an error.
func (s *SessionService) WaitForAwards() error {
	if r := s.awards.WaitAndRecover(); r != nil {
		return r.AsError()
	}
	return nil
}

// AwardFor waits for the material award of a session this service completed
// and returns its outcome. The outcome is handed out once.
func (s *SessionService) AwardFor(ctx context.Context, sessionID string) (AwardResult, error) {
	s.awardMu.Lock()
	ticket, ok := s.tickets[sessionID]
	s.awardMu.Unlock()
	if !ok {
		return AwardResult{}, fmt.Errorf("no material award for session %s: %w", sessionID, domain.ErrSessionNotFound)
	}

	select {
	case <-ticket.done:
	case <-ctx.Done():
		return AwardResult{}, ctx.Err()
	}

	s.awardMu.Lock()
	delete(s.tickets, sessionID)
	s.awardMu.Unlock()
	return ticket.result, nil
}

// StartSession begins a new study session.
func (s *SessionService) StartSession(ctx context.Context, req StartSessionRequest) (*domain.Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.readSlot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if active != nil && active.IsActive() {
		return nil, domain.ErrSessionAlreadyActive
	}

	session := domain.NewSession(req.Name, req.TargetHours, s.now())
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.repo.SaveActive(ctx, session); err != nil {
		// No slot points at the new history entry, so nothing could ever end it.
		if delErr := s.repo.DeleteSession(ctx, session.ID); delErr != nil {
			s.logger.Error("failed to remove unstarted session", "id", session.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save active session: %w", err)
	}

	s.notifier.EnableKeepAwake()
	s.logger.Info("session started", "id", session.ID, "name", session.Name,
		"target_hours", session.TargetHours, "pomodoros", session.TotalPomodoros)
	return &session, nil
}

// ActiveSession returns the session in progress, or nil when there is none.
func (s *SessionService) ActiveSession(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.readSlot(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsTerminal() {
		return nil, nil
	}
	return session, nil
}

// readSlot returns the slot's session, preferring its history copy. History
// is always written before the slot, so when a slot write fails the history
// copy is the newer one. A slot whose history copy already ended is cleared.
// Callers hold mu.
func (s *SessionService) readSlot(ctx context.Context) (*domain.Session, error) {
	slot, err := s.repo.ActiveSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	if slot == nil || !slot.IsActive() {
		return slot, nil
	}

	history, err := s.repo.AllSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	for i := range history {
		if history[i].ID != slot.ID {
			continue
		}
		latest := history[i]
		if latest.IsTerminal() {
			s.logger.Warn("clearing ended session from slot", "id", latest.ID, "status", latest.Status)
			if err := s.repo.ClearActive(ctx); err != nil {
				s.logger.Warn("failed to clear active session", "id", latest.ID, "error", err)
			}
		}
		return &latest, nil
	}
	return slot, nil
}

// loadActive reads the slot for an update. Callers hold mu.
func (s *SessionService) loadActive(ctx context.Context) (domain.Session, error) {
	session, err := s.readSlot(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if session == nil {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	return *session, nil
}

// persist writes an updated active session to history and to the slot.
func (s *SessionService) persist(ctx context.Context, session domain.Session) error {
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.repo.SaveActive(ctx, session); err != nil {
		return fmt.Errorf("failed to save active session: %w", err)
	}
	return nil
}

// CompletePomodoro counts one finished pomodoro on the active session.
// Reaching the target completes the session, clears the slot and dispatches
// the material award. The history write commits the completion: a failure to
// clear the slot afterwards is only logged, and the next read settles it.
func (s *SessionService) CompletePomodoro(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	session, err := s.loadActive(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.IsTerminal() {
		s.mu.Unlock()
		return &session, nil
	}

	now := s.now()
	next := session.CompletePomodoro(now, s.rnd)
	if err := s.repo.SaveSession(ctx, next); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if next.Status == domain.SessionStatusCompleted {
		if err := s.repo.ClearActive(ctx); err != nil {
			s.logger.Warn("failed to clear completed session from slot", "id", next.ID, "error", err)
		}
	} else {
		err = s.repo.SaveActive(ctx, next)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update active session: %w", err)
	}

	if next.Status != domain.SessionStatusCompleted {
		s.logger.Debug("pomodoro completed", "id", next.ID,
			"done", next.PomodorosCompleted, "total", next.TotalPomodoros)
		s.notifier.PlayPhaseCompleteCue()
		return &next, nil
	}

	s.logger.Info("session completed", "id", next.ID, "hours", next.StudyHours())
	s.notifier.DisableKeepAwake()
	s.notifier.PlaySessionCompleteCue(next.Reward)
	s.refreshDay(ctx, now)
	s.dispatchAward(next)
	return &next, nil
}

// refreshDay recomputes today's cached stats. Failures only get logged: the
// cache is derived data.
func (s *SessionService) refreshDay(ctx context.Context, at time.Time) {
	if s.stats == nil {
		return
	}
	if _, err := s.stats.DayStatsAt(ctx, at); err != nil {
		s.logger.Warn("failed to refresh day stats", "error", err)
	}
}

func (s *SessionService) dispatchAward(session domain.Session) {
	if s.rewards == nil {
		return
	}
	hours := session.StudyHours()
	ticket := &awardTicket{
		done:   make(chan struct{}),
		result: AwardResult{SessionID: session.ID, Err: errAwardAborted},
	}
	s.awardMu.Lock()
	s.tickets[session.ID] = ticket
	s.awardMu.Unlock()

	s.awards.Go(func() {
		defer close(ticket.done)

		key, err := s.rewards.AwardMaterial(context.Background(), hours)
		if err != nil {
			s.logger.Error("material award failed", "session", session.ID, "error", err)
		} else {
			s.logger.Info("material awarded", "session", session.ID, "material", key)
		}
		result := AwardResult{SessionID: session.ID, Material: key, Err: err}

		s.awardMu.Lock()
		ticket.result = result
		fn := s.onAward
		s.awardMu.Unlock()
		if fn != nil {
			fn(result)
		}
	})
}

// AddNote records a note against the pomodoro in progress.
func (s *SessionService) AddNote(ctx context.Context, content string) (*domain.Session, error) {
	if err := domain.ValidateNote(content); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadActive(ctx)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return &session, nil
	}

	next, err := session.AddNote(content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// UpdatePhase switches the active session between focus and break.
func (s *SessionService) UpdatePhase(ctx context.Context, phase domain.Phase) (*domain.Session, error) {
	switch phase {
	case domain.PhaseFocus, domain.PhaseBreak, domain.PhaseIdle:
	default:
		return nil, domain.NewValidationError("phase", fmt.Sprintf("unknown phase %q", phase))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadActive(ctx)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() || phase == domain.PhaseIdle {
		return &session, nil
	}

	next := session.WithPhase(phase, s.now())
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// AbandonSession ends the active session without a reward. The slot is
// cleared before history is written, so a failed history write never leaves
// a session stuck in the slot.
func (s *SessionService) AbandonSession(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	session, err := s.loadActive(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	now := s.now()
	abandoned := session.Abandon(now)
	clearErr := s.repo.ClearActive(ctx)
	var saveErr error
	if session.IsActive() {
		saveErr = s.repo.SaveSession(ctx, abandoned)
	}
	s.mu.Unlock()

	s.notifier.DisableKeepAwake()
	if clearErr != nil {
		return &abandoned, fmt.Errorf("failed to clear active session: %w", clearErr)
	}
	if saveErr != nil {
		return &abandoned, fmt.Errorf("failed to record abandoned session: %w", saveErr)
	}

	if session.IsActive() {
		s.logger.Info("session abandoned", "id", abandoned.ID, "pomodoros", abandoned.PomodorosCompleted)
		s.refreshDay(ctx, now)
	}
	return &abandoned, nil
}

// NextPhaseDuration returns how long the active session's upcoming phase
// lasts, or the focus duration when nothing is active.
func (s *SessionService) NextPhaseDuration(ctx context.Context) (time.Duration, error) {
	session, err := s.ActiveSession(ctx)
	if err != nil {
		return 0, err
	}
	if session == nil || !session.IsActive() {
		return s.config.FocusDuration, nil
	}
	return s.config.NextPhaseDuration(session.PomodorosCompleted, session.UpcomingPhase()), nil
}

// CurrentPhaseDuration returns the length of the phase the active session is
// in now.
func (s *SessionService) CurrentPhaseDuration(ctx context.Context) (time.Duration, error) {
	session, err := s.ActiveSession(ctx)
	if err != nil {
		return 0, err
	}
	if session == nil || session.CurrentPhase != domain.PhaseBreak {
		return s.config.FocusDuration, nil
	}
	return s.config.NextPhaseDuration(session.PomodorosCompleted, domain.PhaseBreak), nil
}

// Progress returns the active session's completion percentage, 0 when none.
func (s *SessionService) Progress(ctx context.Context) (float64, error) {
	session, err := s.ActiveSession(ctx)
	if err != nil || session == nil {
		return 0, err
	}
	return session.Progress(), nil
}

// DeleteSession removes a session from history, and from the slot when it
// is the active one.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.repo.ActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active session: %w", err)
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	if active != nil && active.ID == id {
		if err := s.repo.ClearActive(ctx); err != nil {
			return fmt.Errorf("failed to clear active session: %w", err)
		}
		s.notifier.DisableKeepAwake()
	}
	s.logger.Info("session deleted", "id", id)
	return nil
}

// ClearAll wipes history, the active slot and the stats cache. Collected
// materials are kept.
func (s *SessionService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	s.notifier.DisableKeepAwake()
	s.logger.Info("all session data cleared")
	return nil
}

type nopNotifier struct{}

func (nopNotifier) EnableKeepAwake()              {}
func (nopNotifier) DisableKeepAwake()             {}
func (nopNotifier) PlayPhaseCompleteCue()         {}
func (nopNotifier) PlaySessionCompleteCue(string) {}

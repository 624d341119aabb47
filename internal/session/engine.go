package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/scoring"
)

// Session states.
const (
	StateAwaitingConfirmation = "awaiting_confirmation"
	StateInProgress           = "in_progress"
	StateCompleting           = "completing"
	StateDone                 = "done"
	StateAbandoned            = "abandoned"
)

var (
	// ErrSessionNotFound is returned when no session exists for the player.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when a player already has a session.
	ErrSessionExists = errors.New("session already started")
	// ErrSessionNotActive is returned by submits outside InProgress.
	ErrSessionNotActive = errors.New("session is not in progress")
	// ErrWrongQuestionIndex is returned when a submit targets any index other
	// than the current question.
	ErrWrongQuestionIndex = errors.New("submit does not match current question")
)

// persistTimeout bounds timer-driven writes, which carry no request context.
const persistTimeout = 10 * time.Second

// AnswerStore persists answers and the completion flag.
type AnswerStore interface {
	SaveAnswer(ctx context.Context, passcode, address, nickname string, index int, answer string) error
	MarkCompleted(ctx context.Context, passcode, address, nickname string) error
}

// Scorer grades the finished session.
type Scorer interface {
	ScoreParticipant(ctx context.Context, passcode, address, nickname string) (scoring.Result, error)
}

// CompletionNotifier announces a finished session to the host feed.
// Implementations must not block.
type CompletionNotifier interface {
	PlayerCompleted(passcode, address, nickname string, points int)
}

// Config fixes a session's identity and timing at start.
type Config struct {
	Passcode      string
	Address       string
	Nickname      string
	QuestionCount int
	Duration      time.Duration
}

// PerQuestion is the uniform deadline for each question: the game duration
// split evenly across the question count.
func (c Config) PerQuestion() time.Duration {
	if c.QuestionCount <= 0 {
		return 0
	}
	return c.Duration / time.Duration(c.QuestionCount)
}

// Status is a point-in-time view of a session.
type Status struct {
	State        string          `json:"state"`
	CurrentIndex int             `json:"current_index,omitempty"`
	Result       *scoring.Result `json:"result,omitempty"`
}

// Engine runs one participant's quiz. Questions advance strictly in order;
// for every index exactly one of player submit or deadline timeout records
// the answer, whichever lands first. A timeout records an empty string.
type Engine struct {
	cfg      Config
	answers  AnswerStore
	scorer   Scorer
	notifier CompletionNotifier
	logger   zerolog.Logger

	mu     sync.Mutex
	state  string
	index  int // current question, 1-based
	seq    uint64
	timer  *time.Timer
	result *scoring.Result
}

// NewEngine creates a session in AwaitingConfirmation.
func NewEngine(cfg Config, answers AnswerStore, scorer Scorer, notifier CompletionNotifier, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		answers:  answers,
		scorer:   scorer,
		notifier: notifier,
		state:    StateAwaitingConfirmation,
		logger: logger.With().
			Str("component", "session").
			Str("passcode", cfg.Passcode).
			Str("nickname", cfg.Nickname).
			Logger(),
	}
}

// Start confirms the session and arms the first question's deadline.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateAwaitingConfirmation {
		return ErrSessionExists
	}
	e.state = StateInProgress
	e.index = 1
	e.armTimer()

	e.logger.Info().
		Dur("per_question", e.cfg.PerQuestion()).
		Int("questions", e.cfg.QuestionCount).
		Msg("session started")
	return nil
}

// Submit records the player's answer for the current question and advances.
// A submit for any other index is rejected without touching the session.
func (e *Engine) Submit(index int, answer string) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return e.statusLocked(), ErrSessionNotActive
	}
	if index != e.index {
		return e.statusLocked(), ErrWrongQuestionIndex
	}
	e.finalizeLocked(answer)
	return e.statusLocked(), nil
}

// timeout fires when the current question's deadline passes. A stale timer,
// one whose question was already finalized by a submit, is ignored.
func (e *Engine) timeout(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress || seq != e.seq {
		return
	}
	e.logger.Debug().Int("index", e.index).Msg("question deadline passed")
	e.finalizeLocked("")
}

// finalizeLocked records the answer for the current question and either
// advances to the next one or completes the session. Callers hold e.mu.
func (e *Engine) finalizeLocked(answer string) {
	e.seq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	index := e.index
	e.persistAnswer(index, answer)

	if index < e.cfg.QuestionCount {
		e.index++
		e.armTimer()
		return
	}

	e.state = StateCompleting
	e.completeLocked()
}

// completeLocked marks the participant done, grades their answers and moves
// the session to Done. Persistence failures degrade to a zero result rather
// than wedging the session.
func (e *Engine) completeLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := e.answers.MarkCompleted(ctx, e.cfg.Passcode, e.cfg.Address, e.cfg.Nickname); err != nil {
		e.logger.Error().Err(err).Msg("failed to mark session completed")
	}

	res, err := e.scorer.ScoreParticipant(ctx, e.cfg.Passcode, e.cfg.Address, e.cfg.Nickname)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to score session")
		res = scoring.Result{}
	}

	e.state = StateDone
	e.result = &res

	if e.notifier != nil {
		e.notifier.PlayerCompleted(e.cfg.Passcode, e.cfg.Address, e.cfg.Nickname, res.TotalPoints)
	}

	e.logger.Info().
		Int("total_points", res.TotalPoints).
		Int("max_points", res.MaxPoints).
		Msg("session completed")
}

// Abandon stops the session. Safe to call in any state, any number of times.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateDone || e.state == StateAbandoned {
		return
	}
	e.seq++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.state = StateAbandoned
	e.logger.Info().Msg("session abandoned")
}

// Status reports the session's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	st := Status{State: e.state}
	if e.state == StateInProgress {
		st.CurrentIndex = e.index
	}
	if e.state == StateDone {
		st.Result = e.result
	}
	return st
}

func (e *Engine) armTimer() {
	seq := e.seq
	e.timer = time.AfterFunc(e.cfg.PerQuestion(), func() { e.timeout(seq) })
}

// persistAnswer is best effort. A failed write loses one answer, never the
// session.
func (e *Engine) persistAnswer(index int, answer string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := e.answers.SaveAnswer(ctx, e.cfg.Passcode, e.cfg.Address, e.cfg.Nickname, index, answer); err != nil {
		e.logger.Error().Err(err).Int("index", index).Msg("failed to persist answer")
	}
}

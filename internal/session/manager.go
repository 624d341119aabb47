package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
)

// GameStore is the slice of game persistence the manager needs.
type GameStore interface {
	GetByPasscode(ctx context.Context, passcode string) (game.Game, error)
}

// Manager owns the live sessions of all games, one engine per player.
type Manager struct {
	games    GameStore
	answers  AnswerStore
	scorer   Scorer
	notifier CompletionNotifier
	logger   zerolog.Logger

	mu      sync.Mutex
	engines map[string]*Engine // passcode|address|nickname
}

// NewManager creates a session manager.
func NewManager(games GameStore, answers AnswerStore, scorer Scorer, notifier CompletionNotifier, logger zerolog.Logger) *Manager {
	return &Manager{
		games:    games,
		answers:  answers,
		scorer:   scorer,
		notifier: notifier,
		logger:   logger.With().Str("component", "session_manager").Logger(),
		engines:  make(map[string]*Engine),
	}
}

func sessionKey(passcode, address, nickname string) string {
	return passcode + "|" + address + "|" + nickname
}

// Start begins a player's quiz run. The game must be active, and a player
// gets one session per activation.
func (m *Manager) Start(ctx context.Context, passcode, address, nickname string) (Status, error) {
	g, err := m.games.GetByPasscode(ctx, passcode)
	if err != nil {
		return Status{}, err
	}
	if g.State != game.StateActive {
		return Status{}, game.ErrGameNotActive
	}

	cfg := Config{
		Passcode:      passcode,
		Address:       address,
		Nickname:      nickname,
		QuestionCount: g.QuestionCount,
		Duration:      time.Duration(g.DurationMinutes) * time.Minute,
	}

	key := sessionKey(passcode, address, nickname)

	m.mu.Lock()
	if _, exists := m.engines[key]; exists {
		m.mu.Unlock()
		return Status{}, ErrSessionExists
	}
	engine := NewEngine(cfg, m.answers, m.scorer, m.notifier, m.logger)
	m.engines[key] = engine
	m.mu.Unlock()

	if err := engine.Start(); err != nil {
		return Status{}, err
	}
	return engine.Status(), nil
}

// Submit forwards an answer to the player's engine.
func (m *Manager) Submit(passcode, address, nickname string, index int, answer string) (Status, error) {
	engine, ok := m.lookup(passcode, address, nickname)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	return engine.Submit(index, answer)
}

// Status reports a player's session state.
func (m *Manager) Status(passcode, address, nickname string) (Status, error) {
	engine, ok := m.lookup(passcode, address, nickname)
	if !ok {
		return Status{}, ErrSessionNotFound
	}
	return engine.Status(), nil
}

// PurgePlayer abandons a player's session and forgets it, freeing them to
// start over. Purging without a session is a no-op.
func (m *Manager) PurgePlayer(passcode, address, nickname string) {
	key := sessionKey(passcode, address, nickname)

	m.mu.Lock()
	engine, ok := m.engines[key]
	delete(m.engines, key)
	m.mu.Unlock()

	if ok {
		engine.Abandon()
	}
}

// PurgeGame abandons every session of a game. Called when a game ends or is
// re-activated so stale engines cannot outlive their run.
func (m *Manager) PurgeGame(passcode string) {
	prefix := passcode + "|"

	m.mu.Lock()
	var purged []*Engine
	for key, engine := range m.engines {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			purged = append(purged, engine)
			delete(m.engines, key)
		}
	}
	m.mu.Unlock()

	for _, engine := range purged {
		engine.Abandon()
	}
	if len(purged) > 0 {
		m.logger.Info().Str("passcode", passcode).Int("sessions", len(purged)).Msg("sessions purged")
	}
}

func (m *Manager) lookup(passcode, address, nickname string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	engine, ok := m.engines[sessionKey(passcode, address, nickname)]
	return engine, ok
}

package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/payment"
)

// Store is the persistence surface the game service needs.
type Store interface {
	Create(ctx context.Context, g Game) (Game, error)
	GetByID(ctx context.Context, id uuid.UUID) (Game, error)
	GetByPasscode(ctx context.Context, passcode string) (Game, error)
	ListByOwner(ctx context.Context, owner string) ([]Game, error)
	Update(ctx context.Context, id uuid.UUID, upd Update) (Game, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PasscodeInUse(ctx context.Context, passcode string) (bool, error)
	SetState(ctx context.Context, passcode, state string) error
	SetPaymentReceipt(ctx context.Context, passcode, receipt string) error
	ResetForActivation(ctx context.Context, passcode string) error
	JoinIfCapacity(ctx context.Context, passcode string) (Game, bool, error)
	DecrementParticipants(ctx context.Context, passcode string) error
}

// ParticipantStore manages participant rows.
type ParticipantStore interface {
	Insert(ctx context.Context, passcode, address, nickname string, answerSlots int) error
	Remove(ctx context.Context, passcode, address, nickname string) (bool, error)
	ListByGame(ctx context.Context, passcode string) ([]Participant, error)
}

// Notifier pushes participant events to attached host dashboards.
// Implementations must not block.
type Notifier interface {
	PlayerJoined(passcode, address, nickname string, participants int)
	PlayerLeft(passcode, address, nickname string, participants int)
}

// SessionPurger drops live quiz sessions, game-wide or for one player.
// Wired after construction because the session layer sits above this service.
type SessionPurger interface {
	PurgeGame(passcode string)
	PurgePlayer(passcode, address, nickname string)
}

// ServiceOptions configures the game service.
type ServiceOptions struct {
	MaxParticipants     int
	PasscodeMaxAttempts int
}

// Service orchestrates the game lifecycle: creation, activation with fund
// locking, join/leave, and teardown.
type Service struct {
	store        Store
	participants ParticipantStore
	gateway      payment.Gateway
	notifier     Notifier
	purger       SessionPurger
	opts         ServiceOptions
	logger       zerolog.Logger
}

// NewService creates a game service.
func NewService(store Store, participants ParticipantStore, gateway payment.Gateway, notifier Notifier, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = 5
	}
	if opts.PasscodeMaxAttempts <= 0 {
		opts.PasscodeMaxAttempts = 25
	}
	return &Service{
		store:        store,
		participants: participants,
		gateway:      gateway,
		notifier:     notifier,
		opts:         opts,
		logger:       logger.With().Str("component", "game").Logger(),
	}
}

// SetSessionPurger attaches the session layer so activation and end can
// clear live sessions.
func (s *Service) SetSessionPurger(p SessionPurger) {
	s.purger = p
}

// Create registers a draft game with a unique 4-digit passcode.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Game, error) {
	if req.Owner == "" || req.Title == "" {
		return Game{}, fmt.Errorf("owner and title are required")
	}
	if !allowedQuestionCount(req.QuestionCount) {
		return Game{}, fmt.Errorf("question count must be one of %v", AllowedQuestionCounts)
	}
	if req.DurationMinutes <= 0 {
		return Game{}, fmt.Errorf("duration must be positive")
	}
	if req.RewardAmount <= 0 {
		return Game{}, fmt.Errorf("reward amount must be positive")
	}

	passcode, err := s.generatePasscode(ctx)
	if err != nil {
		return Game{}, err
	}

	g := Game{
		ID:              uuid.New(),
		Owner:           req.Owner,
		Title:           req.Title,
		Passcode:        passcode,
		RewardAmount:    req.RewardAmount,
		QuestionCount:   req.QuestionCount,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: s.opts.MaxParticipants,
		State:           StateDraft,
	}

	created, err := s.store.Create(ctx, g)
	if err != nil {
		return Game{}, fmt.Errorf("create game: %w", err)
	}

	s.logger.Info().
		Str("game_id", created.ID.String()).
		Str("passcode", created.Passcode).
		Str("owner", created.Owner).
		Msg("game created")

	return created, nil
}

// GetByPasscode fetches a game by its 4-digit passcode.
func (s *Service) GetByPasscode(ctx context.Context, passcode string) (Game, error) {
	return s.store.GetByPasscode(ctx, passcode)
}

// ListByOwner returns every game created by an owner address.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]Game, error) {
	return s.store.ListByOwner(ctx, owner)
}

// Update applies a partial edit. Editing is rejected while the game is active;
// questions and parameters are immutable during play.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (Game, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Game{}, err
	}
	if current.State == StateActive {
		return Game{}, ErrGameAlreadyActive
	}
	if upd.QuestionCount != nil && !allowedQuestionCount(*upd.QuestionCount) {
		return Game{}, fmt.Errorf("question count must be one of %v", AllowedQuestionCounts)
	}
	return s.store.Update(ctx, id, upd)
}

// Delete removes a game and, through the store, its questions, answer keys
// and participants.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("game_id", id.String()).Msg("game deleted")
	return nil
}

// Activate locks the reward in escrow, wipes any previous run's participants
// and payout flags, and flips the game to active. The reset always happens
// before the game accepts joins again.
func (s *Service) Activate(ctx context.Context, passcode string) (Game, error) {
	g, err := s.store.GetByPasscode(ctx, passcode)
	if err != nil {
		return Game{}, err
	}
	if g.State == StateActive {
		return Game{}, ErrGameAlreadyActive
	}

	receipt, err := s.gateway.LockFunds(ctx, g.RewardAmount)
	if err != nil {
		return Game{}, fmt.Errorf("lock reward funds: %w", err)
	}

	if s.purger != nil {
		s.purger.PurgeGame(passcode)
	}
	if err := s.store.ResetForActivation(ctx, passcode); err != nil {
		return Game{}, fmt.Errorf("reset game before activation: %w", err)
	}
	if err := s.store.SetPaymentReceipt(ctx, passcode, receipt); err != nil {
		return Game{}, fmt.Errorf("persist payment receipt: %w", err)
	}
	if err := s.store.SetState(ctx, passcode, StateActive); err != nil {
		return Game{}, fmt.Errorf("activate game: %w", err)
	}

	s.logger.Info().
		Str("passcode", passcode).
		Str("receipt", receipt).
		Int64("reward", g.RewardAmount).
		Msg("game activated with locked reward")

	return s.store.GetByPasscode(ctx, passcode)
}

// End closes an active game. Payout happens later, during leaderboard reveal.
func (s *Service) End(ctx context.Context, passcode string) error {
	g, err := s.store.GetByPasscode(ctx, passcode)
	if err != nil {
		return err
	}
	if g.State != StateActive {
		return ErrGameNotActive
	}
	if err := s.store.SetState(ctx, passcode, StateEnded); err != nil {
		return fmt.Errorf("end game: %w", err)
	}
	if s.purger != nil {
		s.purger.PurgeGame(passcode)
	}
	s.logger.Info().Str("passcode", passcode).Msg("game ended")
	return nil
}

// Join admits a participant. Capacity and active-state checks ride on a
// single conditional increment at the store so simultaneous joiners cannot
// race past the limit.
func (s *Service) Join(ctx context.Context, passcode string, req JoinRequest) (Game, error) {
	if req.Address == "" || req.Nickname == "" {
		return Game{}, fmt.Errorf("address and nickname are required")
	}

	g, applied, err := s.store.JoinIfCapacity(ctx, passcode)
	if err != nil {
		return Game{}, fmt.Errorf("join game: %w", err)
	}
	if !applied {
		current, err := s.store.GetByPasscode(ctx, passcode)
		if err != nil {
			return Game{}, err
		}
		if current.State != StateActive {
			return Game{}, ErrGameNotActive
		}
		return Game{}, ErrGameFull
	}

	if err := s.participants.Insert(ctx, passcode, req.Address, req.Nickname, g.QuestionCount); err != nil {
		// Roll the counter back; the seat was never taken.
		if decErr := s.store.DecrementParticipants(ctx, passcode); decErr != nil {
			s.logger.Error().Err(decErr).Str("passcode", passcode).Msg("failed to roll back participant count")
		}
		if errors.Is(err, ErrAlreadyJoined) {
			return Game{}, ErrAlreadyJoined
		}
		return Game{}, fmt.Errorf("insert participant: %w", err)
	}

	if s.notifier != nil {
		s.notifier.PlayerJoined(passcode, req.Address, req.Nickname, g.CurrentParticipants)
	}

	s.logger.Info().
		Str("passcode", passcode).
		Str("nickname", req.Nickname).
		Int("participants", g.CurrentParticipants).
		Msg("participant joined")

	return g, nil
}

// Leave removes a participant and frees their seat. Any live session is
// abandoned first so its timers stop before the row goes away. Leaving twice
// is a no-op beyond the first call.
func (s *Service) Leave(ctx context.Context, passcode string, req JoinRequest) error {
	if s.purger != nil {
		s.purger.PurgePlayer(passcode, req.Address, req.Nickname)
	}

	removed, err := s.participants.Remove(ctx, passcode, req.Address, req.Nickname)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if !removed {
		return nil
	}
	if err := s.store.DecrementParticipants(ctx, passcode); err != nil {
		return fmt.Errorf("decrement participants: %w", err)
	}

	g, err := s.store.GetByPasscode(ctx, passcode)
	if err == nil && s.notifier != nil {
		s.notifier.PlayerLeft(passcode, req.Address, req.Nickname, g.CurrentParticipants)
	}

	s.logger.Info().
		Str("passcode", passcode).
		Str("nickname", req.Nickname).
		Msg("participant left")

	return nil
}

// Participants lists the current players of a game for the host dashboard.
func (s *Service) Participants(ctx context.Context, passcode string) ([]Participant, error) {
	if _, err := s.store.GetByPasscode(ctx, passcode); err != nil {
		return nil, err
	}
	return s.participants.ListByGame(ctx, passcode)
}

// generatePasscode draws random 4-digit codes until one is free, bounded by
// the configured attempt budget.
func (s *Service) generatePasscode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.opts.PasscodeMaxAttempts; attempt++ {
		code := fmt.Sprintf("%04d", 1000+rand.Intn(9000))
		inUse, err := s.store.PasscodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check passcode: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrPasscodeExhausted
}

func allowedQuestionCount(n int) bool {
	for _, allowed := range AllowedQuestionCounts {
		if n == allowed {
			return true
		}
	}
	return false
}

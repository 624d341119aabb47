package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
	"github.com/triviastake/platform/internal/payment"
	"github.com/triviastake/platform/pkg/http/ws"
)

var (
	// ErrRevealInProgress is returned when a reveal is already running for
	// the game.
	ErrRevealInProgress = errors.New("reveal already in progress")
	// ErrNoParticipants is returned when a reveal is requested for a game
	// nobody played.
	ErrNoParticipants = errors.New("no participants to reveal")
)

// Row is one revealed leaderboard position. Rank 1 is the winner.
type Row struct {
	Rank      int    `json:"rank"`
	Nickname  string `json:"nickname"`
	Address   string `json:"address"`
	Points    int    `json:"points"`
	Completed bool   `json:"completed"`
}

// StandingsStore loads ranked participants.
type StandingsStore interface {
	Standings(ctx context.Context, passcode string) ([]game.Participant, error)
}

// GameStore is the slice of game persistence the leaderboard needs,
// including the payout bookkeeping columns.
type GameStore interface {
	GetByPasscode(ctx context.Context, passcode string) (game.Game, error)
	ClaimRewardPayout(ctx context.Context, passcode string) (bool, error)
	ReleaseRewardClaim(ctx context.Context, passcode string) error
	SaveRewardTx(ctx context.Context, passcode, tx string) error
}

// Options configures reveal pacing.
type Options struct {
	RevealInterval time.Duration
	PayoutDelay    time.Duration
}

// Service serves standings and runs at most one reveal per game at a time.
type Service struct {
	games     GameStore
	standings StandingsStore
	gateway   payment.Gateway
	hub       *ws.Hub
	opts      Options
	logger    zerolog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc // passcode -> cancel
}

// NewService creates the leaderboard service.
func NewService(games GameStore, standings StandingsStore, gateway payment.Gateway, hub *ws.Hub, opts Options, logger zerolog.Logger) *Service {
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = 4 * time.Second
	}
	if opts.PayoutDelay <= 0 {
		opts.PayoutDelay = 2 * time.Second
	}
	return &Service{
		games:     games,
		standings: standings,
		gateway:   gateway,
		hub:       hub,
		opts:      opts,
		logger:    logger.With().Str("component", "leaderboard").Logger(),
		running:   make(map[string]context.CancelFunc),
	}
}

// Standings returns the ranked board. Points decide rank; earlier joiners
// win ties.
func (s *Service) Standings(ctx context.Context, passcode string) ([]Row, error) {
	if _, err := s.games.GetByPasscode(ctx, passcode); err != nil {
		return nil, err
	}
	participants, err := s.standings.Standings(ctx, passcode)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}

	rows := make([]Row, 0, len(participants))
	for i, p := range participants {
		rows = append(rows, Row{
			Rank:      i + 1,
			Nickname:  p.Nickname,
			Address:   p.Address,
			Points:    p.Points,
			Completed: p.Completed,
		})
	}
	return rows, nil
}

// StartReveal kicks off the dramatic reveal for an ended game: ranks appear
// last place first, then the winner is paid. The reveal runs detached from
// the request and streams to the game's host feed.
func (s *Service) StartReveal(ctx context.Context, passcode string) error {
	g, err := s.games.GetByPasscode(ctx, passcode)
	if err != nil {
		return err
	}
	if g.State != game.StateEnded {
		return game.ErrGameNotEnded
	}

	rows, err := s.Standings(ctx, passcode)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoParticipants
	}

	s.mu.Lock()
	if _, busy := s.running[passcode]; busy {
		s.mu.Unlock()
		return ErrRevealInProgress
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.running[passcode] = cancel
	s.mu.Unlock()

	seq := NewSequencer(passcode, rows, s.games, s.gateway, s.opts, s.events(passcode), s.logger)
	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.running, passcode)
			s.mu.Unlock()
		}()
		seq.Run(runCtx)
	}()

	s.logger.Info().Str("passcode", passcode).Int("rows", len(rows)).Msg("leaderboard reveal started")
	return nil
}

// events wires sequencer callbacks to the host feed.
func (s *Service) events(passcode string) Events {
	return Events{
		OnReveal: func(row Row) {
			s.broadcast(passcode, ws.TypeReveal, ws.RevealPayload{
				Passcode: passcode,
				Rank:     row.Rank,
				Nickname: row.Nickname,
				Address:  row.Address,
				Points:   row.Points,
			})
		},
		OnRewardPaid: func(winner Row, tx string, alreadyPaid bool) {
			s.broadcast(passcode, ws.TypeRewardPaid, ws.RewardPaidPayload{
				Passcode:    passcode,
				Winner:      winner.Address,
				Tx:          tx,
				AlreadyPaid: alreadyPaid,
			})
		},
		OnPaymentError: func(err error) {
			s.broadcast(passcode, ws.TypeError, ws.ErrorPayload{
				Code:    "payment_failed",
				Message: err.Error(),
			})
		},
		OnComplete: func() {
			s.broadcast(passcode, ws.TypeRevealComplete, ws.RevealCompletePayload{Passcode: passcode})
		},
	}
}

func (s *Service) broadcast(passcode, msgType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", msgType).Msg("failed to build reveal message")
		return
	}
	s.hub.BroadcastToRoom(passcode, msg)
}

package leaderboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/payment"
)

// Events are the sequencer's callbacks. Nil callbacks are skipped.
type Events struct {
	OnReveal       func(row Row)
	OnRewardPaid   func(winner Row, tx string, alreadyPaid bool)
	OnPaymentError func(err error)
	OnComplete     func()
}

// Sequencer walks the leaderboard from last place to first at a fixed
// cadence, then pays the winner after a short dramatic pause. The payout is
// claimed atomically in the store, so one activation pays at most once no
// matter how many reveals run.
type Sequencer struct {
	passcode string
	rows     []Row
	games    GameStore
	gateway  payment.Gateway
	opts     Options
	events   Events
	logger   zerolog.Logger
}

// NewSequencer creates a sequencer over a ranked snapshot of the board.
func NewSequencer(passcode string, rows []Row, games GameStore, gateway payment.Gateway, opts Options, events Events, logger zerolog.Logger) *Sequencer {
	return &Sequencer{
		passcode: passcode,
		rows:     rows,
		games:    games,
		gateway:  gateway,
		opts:     opts,
		events:   events,
		logger:   logger.With().Str("component", "reveal").Str("passcode", passcode).Logger(),
	}
}

// Run executes the reveal. It returns when every row has been revealed and
// the payout attempt finished, or when ctx is cancelled.
func (s *Sequencer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.RevealInterval)
	defer ticker.Stop()

	for i := len(s.rows) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			s.logger.Warn().Msg("reveal cancelled")
			return
		case <-ticker.C:
		}

		row := s.rows[i]
		s.logger.Info().Int("rank", row.Rank).Str("nickname", row.Nickname).Int("points", row.Points).Msg("rank revealed")
		if s.events.OnReveal != nil {
			s.events.OnReveal(row)
		}
	}

	select {
	case <-ctx.Done():
		s.logger.Warn().Msg("reveal cancelled before payout")
		return
	case <-time.After(s.opts.PayoutDelay):
	}

	s.payWinner(ctx)

	if s.events.OnComplete != nil {
		s.events.OnComplete()
	}
}

// payWinner releases the escrowed reward to the top scorer. The reward_paid
// flag is flipped before the gateway call; if the call fails the claim is
// released so a later reveal can retry. A failed payout never blocks the
// reveal from completing.
func (s *Sequencer) payWinner(ctx context.Context) {
	winner := s.rows[0]

	g, err := s.games.GetByPasscode(ctx, s.passcode)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load game for payout")
		s.emitPaymentError(err)
		return
	}
	if g.RewardPaid {
		s.logger.Info().Str("tx", g.RewardTx).Msg("reward already paid")
		if s.events.OnRewardPaid != nil {
			s.events.OnRewardPaid(winner, g.RewardTx, true)
		}
		return
	}

	claimed, err := s.games.ClaimRewardPayout(ctx, s.passcode)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to claim payout")
		s.emitPaymentError(err)
		return
	}
	if !claimed {
		// A concurrent reveal won the claim.
		if s.events.OnRewardPaid != nil {
			s.events.OnRewardPaid(winner, "", true)
		}
		return
	}

	tx, err := s.gateway.PayWinner(ctx, g.PaymentReceipt, g.RewardAmount, winner.Address)
	if err != nil {
		s.logger.Error().Err(err).Str("winner", winner.Address).Msg("winner payout failed")
		if relErr := s.games.ReleaseRewardClaim(ctx, s.passcode); relErr != nil {
			s.logger.Error().Err(relErr).Msg("failed to release payout claim")
		}
		s.emitPaymentError(err)
		return
	}

	if err := s.games.SaveRewardTx(ctx, s.passcode, tx); err != nil {
		s.logger.Error().Err(err).Str("tx", tx).Msg("failed to persist reward tx")
	}

	s.logger.Info().
		Str("winner", winner.Address).
		Str("nickname", winner.Nickname).
		Int64("amount", g.RewardAmount).
		Str("tx", tx).
		Msg("winner paid")

	if s.events.OnRewardPaid != nil {
		s.events.OnRewardPaid(winner, tx, false)
	}
}

func (s *Sequencer) emitPaymentError(err error) {
	if s.events.OnPaymentError != nil {
		s.events.OnPaymentError(err)
	}
}

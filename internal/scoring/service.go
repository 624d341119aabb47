package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrAnswerKeyNotFound is returned when a game has no scored questions.
var ErrAnswerKeyNotFound = errors.New("answer key not found")

// KeyStore loads a game's answer key.
type KeyStore interface {
	AnswerKey(ctx context.Context, passcode string) (map[int]KeyEntry, error)
}

// AnswerStore reads a participant's answers and persists their score.
type AnswerStore interface {
	Answers(ctx context.Context, passcode, address, nickname string) ([]string, error)
	SetPoints(ctx context.Context, passcode, address, nickname string, points int) error
}

// Service grades completed sessions and records the result.
type Service struct {
	keys    KeyStore
	answers AnswerStore
	logger  zerolog.Logger
}

// NewService creates a scoring service.
func NewService(keys KeyStore, answers AnswerStore, logger zerolog.Logger) *Service {
	return &Service{
		keys:    keys,
		answers: answers,
		logger:  logger.With().Str("component", "scoring").Logger(),
	}
}

// ScoreParticipant grades one participant's stored answers and persists the
// total. Re-scoring overwrites the previous total with the same value.
func (s *Service) ScoreParticipant(ctx context.Context, passcode, address, nickname string) (Result, error) {
	key, err := s.keys.AnswerKey(ctx, passcode)
	if err != nil {
		return Result{}, fmt.Errorf("load answer key: %w", err)
	}
	if len(key) == 0 {
		return Result{}, ErrAnswerKeyNotFound
	}

	answers, err := s.answers.Answers(ctx, passcode, address, nickname)
	if err != nil {
		return Result{}, fmt.Errorf("load answers: %w", err)
	}

	res := Score(answers, key)

	if err := s.answers.SetPoints(ctx, passcode, address, nickname, res.TotalPoints); err != nil {
		return Result{}, fmt.Errorf("persist score: %w", err)
	}

	s.logger.Info().
		Str("passcode", passcode).
		Str("nickname", nickname).
		Int("total_points", res.TotalPoints).
		Int("max_points", res.MaxPoints).
		Msg("participant scored")

	return res, nil
}

package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
)

var (
	// ErrQuestionSetNotFound is returned when a game has no authored questions.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrInvalidQuestion is wrapped by every authoring validation failure.
	ErrInvalidQuestion = errors.New("invalid question")
)

// Store persists authored questions and their answer key entries.
type Store interface {
	Upsert(ctx context.Context, passcode string, q Authored) error
	Get(ctx context.Context, passcode string, index int) (Authored, bool, error)
	ListByGame(ctx context.Context, passcode string) ([]Authored, error)
}

// GameStore is the slice of game persistence the question service needs.
type GameStore interface {
	GetByPasscode(ctx context.Context, passcode string) (game.Game, error)
}

// ServiceOptions configures the question service.
type ServiceOptions struct {
	// DefaultPoints is assigned to questions saved without a point value.
	DefaultPoints int
}

// Service handles question authoring and serving.
type Service struct {
	store         Store
	games         GameStore
	cache         *Cache
	defaultPoints int
	logger        zerolog.Logger
}

// NewService creates a question service. A nil cache disables caching.
func NewService(store Store, games GameStore, cache *Cache, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.DefaultPoints <= 0 {
		opts.DefaultPoints = DefaultPoints
	}
	return &Service{
		store:         store,
		games:         games,
		cache:         cache,
		defaultPoints: opts.DefaultPoints,
		logger:        logger.With().Str("component", "question").Logger(),
	}
}

// Save validates and upserts one authored question. Questions are immutable
// while the game is active.
func (s *Service) Save(ctx context.Context, passcode string, q Authored) error {
	g, err := s.games.GetByPasscode(ctx, passcode)
	if err != nil {
		return err
	}
	if g.State == game.StateActive {
		return game.ErrGameAlreadyActive
	}

	normalized, err := normalize(q, g.QuestionCount, s.defaultPoints)
	if err != nil {
		return err
	}

	if err := s.store.Upsert(ctx, passcode, normalized); err != nil {
		return fmt.Errorf("save question: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, passcode); err != nil {
			s.logger.Warn().Err(err).Str("passcode", passcode).Msg("question cache invalidation failed")
		}
	}

	s.logger.Info().
		Str("passcode", passcode).
		Int("index", normalized.Index).
		Int("points", normalized.Points).
		Msg("question saved")

	return nil
}

// Get returns the host view of one question. Unauthored slots come back with
// empty text and default points so the editor can render them.
func (s *Service) Get(ctx context.Context, passcode string, index int) (Authored, error) {
	g, err := s.games.GetByPasscode(ctx, passcode)
	if err != nil {
		return Authored{}, err
	}
	if index < 1 || index > g.QuestionCount {
		return Authored{}, fmt.Errorf("%w: index %d out of range 1..%d", ErrInvalidQuestion, index, g.QuestionCount)
	}

	q, found, err := s.store.Get(ctx, passcode, index)
	if err != nil {
		return Authored{}, fmt.Errorf("load question: %w", err)
	}
	if !found {
		return Authored{
			Question: Question{Index: index, Options: make([]string, OptionCount)},
			Points:   s.defaultPoints,
		}, nil
	}
	return q, nil
}

// LoadSet assembles the participant-facing question set, cache first. Every
// slot up to the game's question count is present; unauthored ones stay
// empty. A game with no authored questions at all has no set.
func (s *Service) LoadSet(ctx context.Context, passcode string) (Set, error) {
	if s.cache != nil {
		if set, ok, err := s.cache.Get(ctx, passcode); err != nil {
			s.logger.Warn().Err(err).Str("passcode", passcode).Msg("question cache read failed")
		} else if ok {
			return set, nil
		}
	}

	g, err := s.games.GetByPasscode(ctx, passcode)
	if err != nil {
		return Set{}, err
	}

	authored, err := s.store.ListByGame(ctx, passcode)
	if err != nil {
		return Set{}, fmt.Errorf("load questions: %w", err)
	}
	if len(authored) == 0 {
		return Set{}, ErrQuestionSetNotFound
	}

	set := Set{
		Count:     g.QuestionCount,
		Questions: make([]string, g.QuestionCount),
		Options:   make([][]string, g.QuestionCount),
	}
	for i := range set.Options {
		set.Options[i] = make([]string, OptionCount)
	}
	for _, q := range authored {
		if q.Index < 1 || q.Index > g.QuestionCount {
			continue
		}
		set.Questions[q.Index-1] = q.Text
		copy(set.Options[q.Index-1], q.Options)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, passcode, set); err != nil {
			s.logger.Warn().Err(err).Str("passcode", passcode).Msg("question cache write failed")
		}
	}
	return set, nil
}

// TotalPoints sums the point values of every scored question.
func (s *Service) TotalPoints(ctx context.Context, passcode string) (int, error) {
	authored, err := s.store.ListByGame(ctx, passcode)
	if err != nil {
		return 0, fmt.Errorf("load questions: %w", err)
	}
	total := 0
	for _, q := range authored {
		if strings.TrimSpace(q.Correct) != "" {
			total += q.Points
		}
	}
	return total, nil
}

func normalize(q Authored, questionCount, defaultPoints int) (Authored, error) {
	if q.Index < 1 || q.Index > questionCount {
		return Authored{}, fmt.Errorf("%w: index %d out of range 1..%d", ErrInvalidQuestion, q.Index, questionCount)
	}
	if strings.TrimSpace(q.Text) == "" {
		return Authored{}, fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return Authored{}, fmt.Errorf("%w: exactly %d options are required", ErrInvalidQuestion, OptionCount)
	}

	q.Correct = strings.ToUpper(strings.TrimSpace(q.Correct))
	switch q.Correct {
	case "", "A", "B", "C", "D":
	default:
		return Authored{}, fmt.Errorf("%w: correct answer must be A, B, C or D", ErrInvalidQuestion)
	}

	if q.Points == 0 {
		q.Points = defaultPoints
	}
	valid := false
	for _, p := range AllowedPoints {
		if q.Points == p {
			valid = true
			break
		}
	}
	if !valid {
		return Authored{}, fmt.Errorf("%w: points must be one of %v", ErrInvalidQuestion, AllowedPoints)
	}
	return q, nil
}

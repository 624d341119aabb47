package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triviastake/platform/internal/game"
	"github.com/triviastake/platform/internal/scoring"
)

type recordingStore struct {
	mu        sync.Mutex
	answers   map[int]string
	completed int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{answers: make(map[int]string)}
}

func (s *recordingStore) SaveAnswer(_ context.Context, _, _, _ string, index int, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.answers[index]; dup {
		panic("answer recorded twice for the same index")
	}
	s.answers[index] = answer
	return nil
}

func (s *recordingStore) MarkCompleted(context.Context, string, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	return nil
}

func (s *recordingStore) answer(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[index]
	return a, ok
}

func (s *recordingStore) completedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

type fixedScorer struct {
	mu     sync.Mutex
	calls  int
	result scoring.Result
}

func (f *fixedScorer) ScoreParticipant(context.Context, string, string, string) (scoring.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, nil
}

func testConfig(questions int, perQuestion time.Duration) Config {
	return Config{
		Passcode:      "1234",
		Address:       "0xa",
		Nickname:      "alice",
		QuestionCount: questions,
		Duration:      perQuestion * time.Duration(questions),
	}
}

func TestPerQuestionSplitsDurationEvenly(t *testing.T) {
	cfg := Config{QuestionCount: 10, Duration: 2 * time.Minute}
	assert.Equal(t, 12*time.Second, cfg.PerQuestion())

	cfg = Config{QuestionCount: 20, Duration: 3 * time.Minute}
	assert.Equal(t, 9*time.Second, cfg.PerQuestion())
}

func TestSubmitAdvancesInOrder(t *testing.T) {
	store := newRecordingStore()
	scorer := &fixedScorer{result: scoring.Result{TotalPoints: 250, MaxPoints: 300}}
	engine := NewEngine(testConfig(3, time.Hour), store, scorer, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	st, err := engine.Submit(1, "A")
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, st.State)
	assert.Equal(t, 2, st.CurrentIndex)

	st, err = engine.Submit(2, "B")
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentIndex)

	st, err = engine.Submit(3, "C")
	require.NoError(t, err)
	assert.Equal(t, StateDone, st.State)
	require.NotNil(t, st.Result)
	assert.Equal(t, 250, st.Result.TotalPoints)

	for i, want := range []string{"A", "B", "C"} {
		got, ok := store.answer(i + 1)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 1, store.completedCount())
	assert.Equal(t, 1, scorer.calls)
}

func TestSubmitWrongIndexRejected(t *testing.T) {
	engine := NewEngine(testConfig(3, time.Hour), newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	_, err := engine.Submit(2, "A")
	assert.ErrorIs(t, err, ErrWrongQuestionIndex)

	_, err = engine.Submit(1, "A")
	require.NoError(t, err)

	// The already-answered question cannot be answered again.
	_, err = engine.Submit(1, "B")
	assert.ErrorIs(t, err, ErrWrongQuestionIndex)
}

func TestTimeoutRecordsEmptyAnswer(t *testing.T) {
	store := newRecordingStore()
	engine := NewEngine(testConfig(2, 30*time.Millisecond), store, &fixedScorer{}, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	require.Eventually(t, func() bool {
		return engine.Status().State == StateDone
	}, 2*time.Second, 5*time.Millisecond)

	for i := 1; i <= 2; i++ {
		got, ok := store.answer(i)
		require.True(t, ok, "timed-out question %d must still record an answer", i)
		assert.Empty(t, got)
	}
	assert.Equal(t, 1, store.completedCount())
}

func TestSubmitBeatsDeadline(t *testing.T) {
	store := newRecordingStore()
	engine := NewEngine(testConfig(2, 80*time.Millisecond), store, &fixedScorer{}, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	_, err := engine.Submit(1, "D")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return engine.Status().State == StateDone
	}, 2*time.Second, 5*time.Millisecond)

	got, ok := store.answer(1)
	require.True(t, ok)
	assert.Equal(t, "D", got, "a submit that beats the deadline must win the slot")
}

func TestSubmitAfterDoneRejected(t *testing.T) {
	engine := NewEngine(testConfig(1, time.Hour), newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	_, err := engine.Submit(1, "A")
	require.NoError(t, err)

	_, err = engine.Submit(1, "A")
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestAbandonStopsSession(t *testing.T) {
	store := newRecordingStore()
	engine := NewEngine(testConfig(2, 30*time.Millisecond), store, &fixedScorer{}, nil, zerolog.Nop())
	require.NoError(t, engine.Start())

	engine.Abandon()
	engine.Abandon()

	assert.Equal(t, StateAbandoned, engine.Status().State)

	// No deadline may fire after abandonment.
	time.Sleep(100 * time.Millisecond)
	_, ok := store.answer(1)
	assert.False(t, ok)
	assert.Zero(t, store.completedCount())
}

type stubGames struct {
	game game.Game
	err  error
}

func (s *stubGames) GetByPasscode(context.Context, string) (game.Game, error) {
	return s.game, s.err
}

func activeGames() *stubGames {
	return &stubGames{game: game.Game{
		Passcode:        "1234",
		State:           game.StateActive,
		QuestionCount:   10,
		DurationMinutes: 60,
	}}
}

func TestManagerOneSessionPerPlayer(t *testing.T) {
	mgr := NewManager(activeGames(), newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())
	ctx := context.Background()

	st, err := mgr.Start(ctx, "1234", "0xa", "alice")
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, st.State)
	assert.Equal(t, 1, st.CurrentIndex)

	_, err = mgr.Start(ctx, "1234", "0xa", "alice")
	assert.ErrorIs(t, err, ErrSessionExists)

	_, err = mgr.Start(ctx, "1234", "0xb", "bob")
	require.NoError(t, err)
}

func TestManagerRejectsInactiveGame(t *testing.T) {
	games := &stubGames{game: game.Game{Passcode: "1234", State: game.StateDraft, QuestionCount: 10, DurationMinutes: 60}}
	mgr := NewManager(games, newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())

	_, err := mgr.Start(context.Background(), "1234", "0xa", "alice")
	assert.ErrorIs(t, err, game.ErrGameNotActive)
}

func TestManagerPurgePlayerForgetsSession(t *testing.T) {
	mgr := NewManager(activeGames(), newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := mgr.Start(ctx, "1234", "0xa", "alice")
	require.NoError(t, err)

	mgr.PurgePlayer("1234", "0xa", "alice")
	_, err = mgr.Status("1234", "0xa", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// The slot is free, so the player can start over.
	_, err = mgr.Start(ctx, "1234", "0xa", "alice")
	require.NoError(t, err)

	// Purging without a session is harmless.
	mgr.PurgePlayer("1234", "0xz", "nobody")
}

func TestManagerPurgeGame(t *testing.T) {
	mgr := NewManager(activeGames(), newRecordingStore(), &fixedScorer{}, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := mgr.Start(ctx, "1234", "0xa", "alice")
	require.NoError(t, err)
	_, err = mgr.Start(ctx, "1234", "0xb", "bob")
	require.NoError(t, err)

	mgr.PurgeGame("1234")

	_, err = mgr.Status("1234", "0xa", "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = mgr.Status("1234", "0xb", "bob")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

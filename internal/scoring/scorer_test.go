package scoring

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreMatchesTrimmedCaseInsensitive(t *testing.T) {
	key := map[int]KeyEntry{
		1: {Correct: "B", Points: 100},
		2: {Correct: "d", Points: 150},
		3: {Correct: " C ", Points: 200},
	}
	answers := []string{"b", " D ", "a"}

	res := Score(answers, key)

	assert.Equal(t, 250, res.TotalPoints)
	assert.Equal(t, 450, res.MaxPoints)
}

func TestScoreSkipsUnscoredQuestions(t *testing.T) {
	key := map[int]KeyEntry{
		1: {Correct: "A", Points: 100},
		2: {Correct: "", Points: 150},
		3: {Correct: "   ", Points: 200},
	}
	answers := []string{"A", "", "   "}

	res := Score(answers, key)

	assert.Equal(t, 100, res.TotalPoints)
	assert.Equal(t, 100, res.MaxPoints, "blank correct answers must not count toward the maximum")
}

func TestScoreTimedOutSlotsNeverMatch(t *testing.T) {
	key := map[int]KeyEntry{
		1: {Correct: "A", Points: 100},
		2: {Correct: "B", Points: 150},
	}
	answers := []string{"", ""}

	res := Score(answers, key)

	assert.Zero(t, res.TotalPoints)
	assert.Equal(t, 250, res.MaxPoints)
}

func TestScorePartialSession(t *testing.T) {
	// Two of ten questions answered correctly at 100 and 200 points.
	key := make(map[int]KeyEntry)
	for i := 1; i <= 10; i++ {
		key[i] = KeyEntry{Correct: "A", Points: 100}
	}
	key[5] = KeyEntry{Correct: "C", Points: 200}

	answers := make([]string, 10)
	answers[0] = "A"
	answers[4] = "c"

	res := Score(answers, key)

	assert.Equal(t, 300, res.TotalPoints)
	assert.Equal(t, 1100, res.MaxPoints)
}

func TestScoreIsPure(t *testing.T) {
	key := map[int]KeyEntry{1: {Correct: "A", Points: 100}}
	answers := []string{"A"}

	first := Score(answers, key)
	second := Score(answers, key)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A"}, answers)
	assert.Equal(t, KeyEntry{Correct: "A", Points: 100}, key[1])
}

func TestScoreIgnoresAnswersBeyondKey(t *testing.T) {
	key := map[int]KeyEntry{1: {Correct: "A", Points: 100}}
	answers := []string{"A", "B", "C", "D"}

	res := Score(answers, key)

	assert.Equal(t, 100, res.TotalPoints)
	assert.Equal(t, 100, res.MaxPoints)
}

type stubKeyStore struct {
	key map[int]KeyEntry
	err error
}

func (s *stubKeyStore) AnswerKey(context.Context, string) (map[int]KeyEntry, error) {
	return s.key, s.err
}

type stubAnswerStore struct {
	answers     []string
	savedPoints []int
}

func (s *stubAnswerStore) Answers(context.Context, string, string, string) ([]string, error) {
	return s.answers, nil
}

func (s *stubAnswerStore) SetPoints(_ context.Context, _, _, _ string, points int) error {
	s.savedPoints = append(s.savedPoints, points)
	return nil
}

func TestScoreParticipantPersistsTotal(t *testing.T) {
	keys := &stubKeyStore{key: map[int]KeyEntry{
		1: {Correct: "A", Points: 100},
		2: {Correct: "B", Points: 200},
	}}
	answers := &stubAnswerStore{answers: []string{"a", "x"}}
	svc := NewService(keys, answers, zerolog.Nop())

	res, err := svc.ScoreParticipant(context.Background(), "1234", "0xa", "alice")
	require.NoError(t, err)

	assert.Equal(t, 100, res.TotalPoints)
	assert.Equal(t, 300, res.MaxPoints)
	assert.Equal(t, []int{100}, answers.savedPoints)
}

func TestScoreParticipantIdempotent(t *testing.T) {
	keys := &stubKeyStore{key: map[int]KeyEntry{1: {Correct: "A", Points: 100}}}
	answers := &stubAnswerStore{answers: []string{"A"}}
	svc := NewService(keys, answers, zerolog.Nop())

	first, err := svc.ScoreParticipant(context.Background(), "1234", "0xa", "alice")
	require.NoError(t, err)
	second, err := svc.ScoreParticipant(context.Background(), "1234", "0xa", "alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []int{100, 100}, answers.savedPoints)
}

func TestScoreParticipantMissingKey(t *testing.T) {
	svc := NewService(&stubKeyStore{key: map[int]KeyEntry{}}, &stubAnswerStore{}, zerolog.Nop())

	_, err := svc.ScoreParticipant(context.Background(), "1234", "0xa", "alice")
	assert.ErrorIs(t, err, ErrAnswerKeyNotFound)
}

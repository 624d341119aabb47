package leaderboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triviastake/platform/internal/game"
)

type fakeGameStore struct {
	mu   sync.Mutex
	game game.Game
}

func newFakeGameStore(g game.Game) *fakeGameStore {
	return &fakeGameStore{game: g}
}

func (f *fakeGameStore) GetByPasscode(context.Context, string) (game.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.game, nil
}

func (f *fakeGameStore) ClaimRewardPayout(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.game.RewardPaid {
		return false, nil
	}
	f.game.RewardPaid = true
	return true, nil
}

func (f *fakeGameStore) ReleaseRewardClaim(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.game.RewardPaid = false
	return nil
}

func (f *fakeGameStore) SaveRewardTx(_ context.Context, _, tx string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.game.RewardTx = tx
	return nil
}

type countingGateway struct {
	mu       sync.Mutex
	payCalls int
	payErr   error
}

func (g *countingGateway) LockFunds(context.Context, int64) (string, error) {
	return "lock-tx", nil
}

func (g *countingGateway) PayWinner(_ context.Context, _ string, _ int64, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payCalls++
	if g.payErr != nil {
		return "", g.payErr
	}
	return "pay-tx", nil
}

func (g *countingGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payCalls
}

func endedGame() game.Game {
	return game.Game{
		Passcode:       "1234",
		State:          game.StateEnded,
		RewardAmount:   1000,
		PaymentReceipt: "lock-tx",
	}
}

func testRows() []Row {
	return []Row{
		{Rank: 1, Nickname: "alice", Address: "0xa", Points: 300},
		{Rank: 2, Nickname: "bob", Address: "0xb", Points: 200},
		{Rank: 3, Nickname: "carol", Address: "0xc", Points: 100},
	}
}

func fastOpts() Options {
	return Options{RevealInterval: 5 * time.Millisecond, PayoutDelay: 5 * time.Millisecond}
}

func TestSequencerRevealsLastPlaceFirst(t *testing.T) {
	store := newFakeGameStore(endedGame())
	gateway := &countingGateway{}

	var mu sync.Mutex
	var revealed []int
	done := make(chan struct{})

	events := Events{
		OnReveal: func(row Row) {
			mu.Lock()
			revealed = append(revealed, row.Rank)
			mu.Unlock()
		},
		OnComplete: func() { close(done) },
	}

	seq := NewSequencer("1234", testRows(), store, gateway, fastOpts(), events, zerolog.Nop())
	go seq.Run(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reveal did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 2, 1}, revealed)
}

func TestSequencerPaysWinnerExactlyOnce(t *testing.T) {
	store := newFakeGameStore(endedGame())
	gateway := &countingGateway{}

	runReveal := func() {
		done := make(chan struct{})
		var paid *bool
		events := Events{
			OnRewardPaid: func(_ Row, _ string, alreadyPaid bool) {
				paid = &alreadyPaid
			},
			OnComplete: func() { close(done) },
		}
		seq := NewSequencer("1234", testRows(), store, gateway, fastOpts(), events, zerolog.Nop())
		go seq.Run(context.Background())
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reveal did not complete")
		}
		require.NotNil(t, paid)
	}

	runReveal()
	runReveal()

	assert.Equal(t, 1, gateway.calls(), "a second reveal must not pay again")
	assert.Equal(t, "pay-tx", store.game.RewardTx)
	assert.True(t, store.game.RewardPaid)
}

func TestSequencerReleasesClaimOnPaymentFailure(t *testing.T) {
	store := newFakeGameStore(endedGame())
	gateway := &countingGateway{payErr: errors.New("escrow down")}

	done := make(chan struct{})
	var paymentErr error
	events := Events{
		OnPaymentError: func(err error) { paymentErr = err },
		OnComplete:     func() { close(done) },
	}

	seq := NewSequencer("1234", testRows(), store, gateway, fastOpts(), events, zerolog.Nop())
	go seq.Run(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reveal did not complete despite the payment failure")
	}

	assert.Error(t, paymentErr)
	assert.False(t, store.game.RewardPaid, "a failed payout must release the claim for retry")
	assert.Empty(t, store.game.RewardTx)

	// The retry succeeds.
	gateway.payErr = nil
	done2 := make(chan struct{})
	seq2 := NewSequencer("1234", testRows(), store, gateway, fastOpts(), Events{OnComplete: func() { close(done2) }}, zerolog.Nop())
	go seq2.Run(context.Background())
	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("retry reveal did not complete")
	}
	assert.True(t, store.game.RewardPaid)
	assert.Equal(t, "pay-tx", store.game.RewardTx)
}

func TestSequencerCancellation(t *testing.T) {
	store := newFakeGameStore(endedGame())
	gateway := &countingGateway{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := NewSequencer("1234", testRows(), store, gateway, Options{RevealInterval: time.Hour, PayoutDelay: time.Hour}, Events{}, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		seq.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("cancelled sequencer did not stop")
	}
	assert.Zero(t, gateway.calls())
}

type stubStandings struct {
	participants []game.Participant
}

func (s *stubStandings) Standings(context.Context, string) ([]game.Participant, error) {
	return s.participants, nil
}

func TestStandingsRanksParticipants(t *testing.T) {
	store := newFakeGameStore(endedGame())
	standings := &stubStandings{participants: []game.Participant{
		{Nickname: "alice", Address: "0xa", Points: 300, Completed: true},
		{Nickname: "bob", Address: "0xb", Points: 200, Completed: true},
		{Nickname: "carol", Address: "0xc", Points: 0, Completed: false},
	}}
	svc := NewService(store, standings, &countingGateway{}, nil, fastOpts(), zerolog.Nop())

	rows, err := svc.Standings(context.Background(), "1234")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "alice", rows[0].Nickname)
	assert.Equal(t, 3, rows[2].Rank)
	assert.False(t, rows[2].Completed)
}

func TestStartRevealRequiresEndedGame(t *testing.T) {
	for _, state := range []string{game.StateDraft, game.StateActive} {
		g := endedGame()
		g.State = state
		svc := NewService(newFakeGameStore(g), &stubStandings{}, &countingGateway{}, nil, fastOpts(), zerolog.Nop())

		err := svc.StartReveal(context.Background(), "1234")
		assert.ErrorIs(t, err, game.ErrGameNotEnded, "state %s", state)
	}
}

func TestStartRevealRejectsConcurrentRun(t *testing.T) {
	store := newFakeGameStore(endedGame())
	standings := &stubStandings{participants: []game.Participant{
		{Nickname: "alice", Address: "0xa", Points: 100},
	}}
	svc := NewService(store, standings, &countingGateway{}, nil,
		Options{RevealInterval: time.Hour, PayoutDelay: time.Hour}, zerolog.Nop())

	require.NoError(t, svc.StartReveal(context.Background(), "1234"))
	assert.ErrorIs(t, svc.StartReveal(context.Background(), "1234"), ErrRevealInProgress)
}

func TestStartRevealRejectsEmptyBoard(t *testing.T) {
	svc := NewService(newFakeGameStore(endedGame()), &stubStandings{}, &countingGateway{}, nil, fastOpts(), zerolog.Nop())

	err := svc.StartReveal(context.Background(), "1234")
	assert.ErrorIs(t, err, ErrNoParticipants)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/triviastake/platform/internal/game"
)

// GameRepository persists games in PostgreSQL.
type GameRepository struct {
	db DBTX
}

// NewGameRepository creates a game repository over a pool or transaction.
func NewGameRepository(db DBTX) *GameRepository {
	return &GameRepository{db: db}
}

var _ game.Store = (*GameRepository)(nil)

const gameColumns = `
	id, owner, title, passcode, reward_amount, question_count,
	duration_minutes, max_participants, current_participants, state,
	payment_receipt, reward_paid, reward_tx, created_at, updated_at`

func scanGame(row pgx.Row) (game.Game, error) {
	var g game.Game
	err := row.Scan(
		&g.ID, &g.Owner, &g.Title, &g.Passcode, &g.RewardAmount, &g.QuestionCount,
		&g.DurationMinutes, &g.MaxParticipants, &g.CurrentParticipants, &g.State,
		&g.PaymentReceipt, &g.RewardPaid, &g.RewardTx, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Game{}, game.ErrGameNotFound
	}
	if err != nil {
		return game.Game{}, fmt.Errorf("scan game: %w", err)
	}
	return g, nil
}

// Create inserts a new draft game.
func (r *GameRepository) Create(ctx context.Context, g game.Game) (game.Game, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO games (
			id, owner, title, passcode, reward_amount, question_count,
			duration_minutes, max_participants, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+gameColumns,
		g.ID, g.Owner, g.Title, g.Passcode, g.RewardAmount, g.QuestionCount,
		g.DurationMinutes, g.MaxParticipants, g.State,
	)
	return scanGame(row)
}

// GetByID fetches a game by primary key.
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (game.Game, error) {
	row := r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	return scanGame(row)
}

// GetByPasscode fetches a game by its 4-digit passcode.
func (r *GameRepository) GetByPasscode(ctx context.Context, passcode string) (game.Game, error) {
	row := r.db.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE passcode = $1`, passcode)
	return scanGame(row)
}

// ListByOwner returns an owner's games, newest first.
func (r *GameRepository) ListByOwner(ctx context.Context, owner string) ([]game.Game, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+gameColumns+`
		FROM games
		WHERE owner = $1
		ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []game.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Update applies a partial edit; nil fields keep their current value.
func (r *GameRepository) Update(ctx context.Context, id uuid.UUID, upd game.Update) (game.Game, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE games
		SET title            = COALESCE($2, title),
		    reward_amount    = COALESCE($3, reward_amount),
		    question_count   = COALESCE($4, question_count),
		    duration_minutes = COALESCE($5, duration_minutes),
		    updated_at       = now()
		WHERE id = $1
		RETURNING `+gameColumns,
		id, upd.Title, upd.RewardAmount, upd.QuestionCount, upd.DurationMinutes,
	)
	return scanGame(row)
}

// Delete removes a game; dependent rows go with it via FK cascade.
func (r *GameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// PasscodeInUse reports whether any game already holds the passcode.
func (r *GameRepository) PasscodeInUse(ctx context.Context, passcode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE passcode = $1)`, passcode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check passcode: %w", err)
	}
	return exists, nil
}

// SetState moves a game between draft, active and ended.
func (r *GameRepository) SetState(ctx context.Context, passcode, state string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE games SET state = $2, updated_at = now() WHERE passcode = $1`, passcode, state)
	if err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// SetPaymentReceipt records the escrow lock reference on the game.
func (r *GameRepository) SetPaymentReceipt(ctx context.Context, passcode, receipt string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE games SET payment_receipt = $2, updated_at = now() WHERE passcode = $1`, passcode, receipt)
	if err != nil {
		return fmt.Errorf("set payment receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// ResetForActivation clears the previous run: participant rows are dropped
// and the counter and payout flags are zeroed.
func (r *GameRepository) ResetForActivation(ctx context.Context, passcode string) error {
	if _, err := r.db.Exec(ctx, `
		DELETE FROM game_participants
		WHERE game_id = (SELECT id FROM games WHERE passcode = $1)`, passcode); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE games
		SET current_participants = 0,
		    reward_paid          = false,
		    reward_tx            = '',
		    updated_at           = now()
		WHERE passcode = $1`, passcode)
	if err != nil {
		return fmt.Errorf("reset game counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// JoinIfCapacity takes one seat with a single conditional increment. The
// returned bool is false when the game is missing, inactive, or full; the
// caller decides which of those it was.
func (r *GameRepository) JoinIfCapacity(ctx context.Context, passcode string) (game.Game, bool, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE games
		SET current_participants = current_participants + 1,
		    updated_at           = now()
		WHERE passcode = $1
		  AND state = $2
		  AND current_participants < max_participants
		RETURNING `+gameColumns,
		passcode, game.StateActive,
	)
	g, err := scanGame(row)
	if errors.Is(err, game.ErrGameNotFound) {
		return game.Game{}, false, nil
	}
	if err != nil {
		return game.Game{}, false, err
	}
	return g, true, nil
}

// DecrementParticipants frees one seat, never dropping below zero.
func (r *GameRepository) DecrementParticipants(ctx context.Context, passcode string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE games
		SET current_participants = GREATEST(current_participants - 1, 0),
		    updated_at           = now()
		WHERE passcode = $1`, passcode)
	if err != nil {
		return fmt.Errorf("decrement participants: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

// ClaimRewardPayout flips reward_paid from false to true and reports whether
// this call won the flip. At most one caller per activation sees true.
func (r *GameRepository) ClaimRewardPayout(ctx context.Context, passcode string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE games
		SET reward_paid = true, updated_at = now()
		WHERE passcode = $1 AND reward_paid = false`, passcode)
	if err != nil {
		return false, fmt.Errorf("claim reward payout: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseRewardClaim undoes a payout claim after a failed gateway call so a
// later reveal can retry.
func (r *GameRepository) ReleaseRewardClaim(ctx context.Context, passcode string) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE games SET reward_paid = false, updated_at = now() WHERE passcode = $1`, passcode); err != nil {
		return fmt.Errorf("release reward claim: %w", err)
	}
	return nil
}

// SaveRewardTx stores the payout transaction reference.
func (r *GameRepository) SaveRewardTx(ctx context.Context, passcode, tx string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE games SET reward_tx = $2, updated_at = now() WHERE passcode = $1`, passcode, tx)
	if err != nil {
		return fmt.Errorf("save reward tx: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

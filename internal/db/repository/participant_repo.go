package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/triviastake/platform/internal/game"
)

// ParticipantRepository persists participant rows, their answer slots and
// final scores.
type ParticipantRepository struct {
	db DBTX
}

// NewParticipantRepository creates a participant repository.
func NewParticipantRepository(db DBTX) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

var _ game.ParticipantStore = (*ParticipantRepository)(nil)

// Insert creates a participant row with an empty answer slot per question.
func (r *ParticipantRepository) Insert(ctx context.Context, passcode, address, nickname string, answerSlots int) error {
	answers := make([]string, answerSlots)

	_, err := r.db.Exec(ctx, `
		INSERT INTO game_participants (id, game_id, address, nickname, answers)
		VALUES ($1, (SELECT id FROM games WHERE passcode = $2), $3, $4, $5)`,
		uuid.New(), passcode, address, nickname, answers,
	)
	if err != nil {
		switch pgErrCode(err) {
		case uniqueViolation:
			return game.ErrAlreadyJoined
		case notNullViolation:
			return game.ErrGameNotFound
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// Remove deletes a participant row. The bool reports whether a row existed.
func (r *ParticipantRepository) Remove(ctx context.Context, passcode, address, nickname string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM game_participants
		WHERE game_id = (SELECT id FROM games WHERE passcode = $1)
		  AND address = $2 AND nickname = $3`,
		passcode, address, nickname,
	)
	if err != nil {
		return false, fmt.Errorf("remove participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByGame returns all participants of a game in join order.
func (r *ParticipantRepository) ListByGame(ctx context.Context, passcode string) ([]game.Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.game_id, p.address, p.nickname, p.answers, p.completed, p.points, p.created_at
		FROM game_participants p
		JOIN games g ON g.id = p.game_id
		WHERE g.passcode = $1
		ORDER BY p.created_at ASC`, passcode)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []game.Participant
	for rows.Next() {
		var p game.Participant
		if err := rows.Scan(&p.ID, &p.GameID, &p.Address, &p.Nickname, &p.Answers, &p.Completed, &p.Points, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SaveAnswer writes one answer into its 1-based slot.
func (r *ParticipantRepository) SaveAnswer(ctx context.Context, passcode, address, nickname string, index int, answer string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE game_participants
		SET answers[$4] = $5
		WHERE game_id = (SELECT id FROM games WHERE passcode = $1)
		  AND address = $2 AND nickname = $3`,
		passcode, address, nickname, index, answer,
	)
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrParticipantNotFound
	}
	return nil
}

// Answers returns a participant's answer slots.
func (r *ParticipantRepository) Answers(ctx context.Context, passcode, address, nickname string) ([]string, error) {
	var answers []string
	err := r.db.QueryRow(ctx, `
		SELECT p.answers
		FROM game_participants p
		JOIN games g ON g.id = p.game_id
		WHERE g.passcode = $1 AND p.address = $2 AND p.nickname = $3`,
		passcode, address, nickname,
	).Scan(&answers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return answers, nil
}

// MarkCompleted flags a participant as having finished their session.
func (r *ParticipantRepository) MarkCompleted(ctx context.Context, passcode, address, nickname string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE game_participants
		SET completed = true
		WHERE game_id = (SELECT id FROM games WHERE passcode = $1)
		  AND address = $2 AND nickname = $3`,
		passcode, address, nickname,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrParticipantNotFound
	}
	return nil
}

// SetPoints stores a participant's final score.
func (r *ParticipantRepository) SetPoints(ctx context.Context, passcode, address, nickname string, points int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE game_participants
		SET points = $4
		WHERE game_id = (SELECT id FROM games WHERE passcode = $1)
		  AND address = $2 AND nickname = $3`,
		passcode, address, nickname, points,
	)
	if err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrParticipantNotFound
	}
	return nil
}

// Standings returns participants ordered for the leaderboard. Points decide
// rank; earlier joiners win ties.
func (r *ParticipantRepository) Standings(ctx context.Context, passcode string) ([]game.Participant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.game_id, p.address, p.nickname, p.answers, p.completed, p.points, p.created_at
		FROM game_participants p
		JOIN games g ON g.id = p.game_id
		WHERE g.passcode = $1
		ORDER BY p.points DESC, p.created_at ASC`, passcode)
	if err != nil {
		return nil, fmt.Errorf("load standings: %w", err)
	}
	defer rows.Close()

	var participants []game.Participant
	for rows.Next() {
		var p game.Participant
		if err := rows.Scan(&p.ID, &p.GameID, &p.Address, &p.Nickname, &p.Answers, &p.Completed, &p.Points, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

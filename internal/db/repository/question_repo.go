package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/triviastake/platform/internal/game"
	"github.com/triviastake/platform/internal/question"
	"github.com/triviastake/platform/internal/scoring"
)

// QuestionRepository persists authored questions and their answer key rows.
// Question text and options live apart from the correct answer and points so
// the participant-facing queries never touch the key table.
type QuestionRepository struct {
	db DBTX
}

// NewQuestionRepository creates a question repository.
func NewQuestionRepository(db DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

var (
	_ question.Store   = (*QuestionRepository)(nil)
	_ scoring.KeyStore = (*QuestionRepository)(nil)
)

// Upsert writes one authored question and its key entry.
func (r *QuestionRepository) Upsert(ctx context.Context, passcode string, q question.Authored) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_questions (game_id, idx, text, options)
		VALUES ((SELECT id FROM games WHERE passcode = $1), $2, $3, $4)
		ON CONFLICT (game_id, idx)
		DO UPDATE SET text = EXCLUDED.text, options = EXCLUDED.options`,
		passcode, q.Index, q.Text, q.Options,
	)
	if err != nil {
		if pgErrCode(err) == notNullViolation {
			return game.ErrGameNotFound
		}
		return fmt.Errorf("upsert question: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO game_answer_keys (game_id, idx, correct, points)
		VALUES ((SELECT id FROM games WHERE passcode = $1), $2, $3, $4)
		ON CONFLICT (game_id, idx)
		DO UPDATE SET correct = EXCLUDED.correct, points = EXCLUDED.points`,
		passcode, q.Index, q.Correct, q.Points,
	)
	if err != nil {
		return fmt.Errorf("upsert answer key: %w", err)
	}
	return nil
}

// Get loads one authored question with its key entry. The bool reports
// whether the slot has been authored.
func (r *QuestionRepository) Get(ctx context.Context, passcode string, index int) (question.Authored, bool, error) {
	var q question.Authored
	err := r.db.QueryRow(ctx, `
		SELECT q.idx, q.text, q.options, COALESCE(k.correct, ''), COALESCE(k.points, $3)
		FROM game_questions q
		JOIN games g ON g.id = q.game_id
		LEFT JOIN game_answer_keys k ON k.game_id = q.game_id AND k.idx = q.idx
		WHERE g.passcode = $1 AND q.idx = $2`,
		passcode, index, question.DefaultPoints,
	).Scan(&q.Index, &q.Text, &q.Options, &q.Correct, &q.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return question.Authored{}, false, nil
	}
	if err != nil {
		return question.Authored{}, false, fmt.Errorf("get question: %w", err)
	}
	return q, true, nil
}

// ListByGame returns every authored question of a game in index order.
func (r *QuestionRepository) ListByGame(ctx context.Context, passcode string) ([]question.Authored, error) {
	rows, err := r.db.Query(ctx, `
		SELECT q.idx, q.text, q.options, COALESCE(k.correct, ''), COALESCE(k.points, $2)
		FROM game_questions q
		JOIN games g ON g.id = q.game_id
		LEFT JOIN game_answer_keys k ON k.game_id = q.game_id AND k.idx = q.idx
		WHERE g.passcode = $1
		ORDER BY q.idx ASC`,
		passcode, question.DefaultPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []question.Authored
	for rows.Next() {
		var q question.Authored
		if err := rows.Scan(&q.Index, &q.Text, &q.Options, &q.Correct, &q.Points); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AnswerKey loads a game's answer key indexed by question number.
func (r *QuestionRepository) AnswerKey(ctx context.Context, passcode string) (map[int]scoring.KeyEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT k.idx, k.correct, k.points
		FROM game_answer_keys k
		JOIN games g ON g.id = k.game_id
		WHERE g.passcode = $1`, passcode)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	defer rows.Close()

	key := make(map[int]scoring.KeyEntry)
	for rows.Next() {
		var idx int
		var entry scoring.KeyEntry
		if err := rows.Scan(&idx, &entry.Correct, &entry.Points); err != nil {
			return nil, fmt.Errorf("scan answer key: %w", err)
		}
		key[idx] = entry
	}
	return key, rows.Err()
}

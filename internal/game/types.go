package game

import (
	"time"

	"github.com/google/uuid"
)

// Game lifecycle states.
const (
	StateDraft  = "draft"
	StateActive = "active"
	StateEnded  = "ended"
)

// Supported question counts for a game.
var AllowedQuestionCounts = []int{10, 15, 20}

// Game represents one hosted trivia game and its escrowed reward.
type Game struct {
	ID                  uuid.UUID `json:"id"`
	Owner               string    `json:"owner"`
	Title               string    `json:"title"`
	Passcode            string    `json:"passcode"`
	RewardAmount        int64     `json:"reward_amount"`
	QuestionCount       int       `json:"question_count"`
	DurationMinutes     int       `json:"duration_minutes"`
	MaxParticipants     int       `json:"max_participants"`
	CurrentParticipants int       `json:"current_participants"`
	State               string    `json:"state"`
	PaymentReceipt      string    `json:"payment_receipt,omitempty"`
	RewardPaid          bool      `json:"reward_paid"`
	RewardTx            string    `json:"reward_tx,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PerQuestionSeconds is the uniform per-question budget for a session.
func (g Game) PerQuestionSeconds() float64 {
	if g.QuestionCount == 0 {
		return 0
	}
	return float64(g.DurationMinutes) * 60 / float64(g.QuestionCount)
}

// Participant is one player's row within a game.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	GameID    uuid.UUID `json:"game_id"`
	Address   string    `json:"address"`
	Nickname  string    `json:"nickname"`
	Answers   []string  `json:"answers"`
	Completed bool      `json:"completed"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest carries the host's new-game parameters.
type CreateRequest struct {
	Owner           string `json:"owner"`
	Title           string `json:"title"`
	RewardAmount    int64  `json:"reward_amount"`
	QuestionCount   int    `json:"question_count"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Update holds optional fields for a partial game update. Nil means keep.
type Update struct {
	Title           *string `json:"title"`
	RewardAmount    *int64  `json:"reward_amount"`
	QuestionCount   *int    `json:"question_count"`
	DurationMinutes *int    `json:"duration_minutes"`
}

// JoinRequest identifies a participant joining or leaving a game.
type JoinRequest struct {
	Address  string `json:"address"`
	Nickname string `json:"nickname"`
}

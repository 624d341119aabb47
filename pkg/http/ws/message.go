package ws

import "encoding/json"

// Message types pushed to host dashboard connections.
const (
	TypePlayerJoined    = "player_joined"
	TypePlayerLeft      = "player_left"
	TypePlayerCompleted = "player_completed"
	TypeReveal          = "leaderboard_reveal"
	TypeRewardPaid      = "reward_paid"
	TypeRevealComplete  = "reveal_complete"
	TypeError           = "error"
)

// Message is the envelope for every frame on the host feed.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals a payload into a typed message envelope.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// PlayerEventPayload describes a participant joining, leaving, or finishing.
type PlayerEventPayload struct {
	Passcode     string `json:"passcode"`
	Address      string `json:"address"`
	Nickname     string `json:"nickname"`
	Participants int    `json:"participants"`
	Points       int    `json:"points,omitempty"`
}

// RevealPayload announces one leaderboard row being revealed.
type RevealPayload struct {
	Passcode string `json:"passcode"`
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Address  string `json:"address"`
	Points   int    `json:"points"`
}

// RewardPaidPayload carries the payout confirmation for the winner.
type RewardPaidPayload struct {
	Passcode    string `json:"passcode"`
	Winner      string `json:"winner"`
	Tx          string `json:"tx"`
	AlreadyPaid bool   `json:"already_paid"`
}

// RevealCompletePayload signals that every row has been revealed.
type RevealCompletePayload struct {
	Passcode string `json:"passcode"`
}

// ErrorPayload is sent when a feed-level failure occurs.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

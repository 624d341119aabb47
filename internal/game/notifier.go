package game

import (
	"github.com/rs/zerolog"

	"github.com/triviastake/platform/pkg/http/ws"
)

// HubNotifier fans participant events out to host dashboards through the
// WebSocket hub. All methods are fire-and-forget.
type HubNotifier struct {
	hub    *ws.Hub
	logger zerolog.Logger
}

// NewHubNotifier wraps a hub as a game Notifier.
func NewHubNotifier(hub *ws.Hub, logger zerolog.Logger) *HubNotifier {
	return &HubNotifier{
		hub:    hub,
		logger: logger.With().Str("component", "game_notifier").Logger(),
	}
}

var _ Notifier = (*HubNotifier)(nil)

// PlayerJoined announces a new participant to the game's host feed.
func (n *HubNotifier) PlayerJoined(passcode, address, nickname string, participants int) {
	n.broadcast(passcode, ws.TypePlayerJoined, ws.PlayerEventPayload{
		Passcode:     passcode,
		Address:      address,
		Nickname:     nickname,
		Participants: participants,
	})
}

// PlayerLeft announces a departed participant to the game's host feed.
func (n *HubNotifier) PlayerLeft(passcode, address, nickname string, participants int) {
	n.broadcast(passcode, ws.TypePlayerLeft, ws.PlayerEventPayload{
		Passcode:     passcode,
		Address:      address,
		Nickname:     nickname,
		Participants: participants,
	})
}

// PlayerCompleted announces a participant finishing their session with their
// final score.
func (n *HubNotifier) PlayerCompleted(passcode, address, nickname string, points int) {
	n.broadcast(passcode, ws.TypePlayerCompleted, ws.PlayerEventPayload{
		Passcode: passcode,
		Address:  address,
		Nickname: nickname,
		Points:   points,
	})
}

func (n *HubNotifier) broadcast(passcode, msgType string, payload interface{}) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		n.logger.Error().Err(err).Str("type", msgType).Msg("failed to build broadcast message")
		return
	}
	n.hub.BroadcastToRoom(passcode, msg)
}

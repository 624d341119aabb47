package game

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/triviastake/platform/pkg/http/errors"
	"github.com/triviastake/platform/pkg/http/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard origin checks are delegated to the fronting proxy.
		return true
	},
}

// WSHandler attaches host dashboards to the live feed of a game.
type WSHandler struct {
	hub    *ws.Hub
	svc    *Service
	logger zerolog.Logger
}

// NewWSHandler creates the host feed WebSocket handler.
func NewWSHandler(hub *ws.Hub, svc *Service, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		svc:    svc,
		logger: logger.With().Str("component", "game_ws").Logger(),
	}
}

// HostFeed handles GET /ws/games/{passcode}/host. The connection receives
// player join/leave/complete events and leaderboard reveal frames.
func (h *WSHandler) HostFeed(w http.ResponseWriter, r *http.Request) {
	passcode := r.PathValue("passcode")
	if _, err := h.svc.GetByPasscode(r.Context(), passcode); err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("passcode", passcode).Msg("websocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	connID := h.hub.Register(wsConn)
	h.hub.JoinRoom(passcode, connID)

	h.logger.Info().
		Str("conn_id", connID.String()).
		Str("passcode", passcode).
		Msg("host dashboard connected")

	go wsConn.WritePump()
	go wsConn.ReadPump(func() {
		h.hub.Unregister(connID)
		h.logger.Info().Str("conn_id", connID.String()).Str("passcode", passcode).Msg("host dashboard disconnected")
	})
}

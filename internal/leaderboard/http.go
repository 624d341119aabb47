package leaderboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
	httperrors "github.com/triviastake/platform/pkg/http/errors"
)

// HTTPHandlers exposes the leaderboard and its reveal.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers constructs leaderboard HTTP handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// Get handles GET /v1/games/{passcode}/leaderboard.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Standings(r.Context(), r.PathValue("passcode"))
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
			return
		}
		h.logger.Error().Err(err).Msg("leaderboard fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeLeaderboardFetchFailed, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": rows})
}

// Reveal handles POST /v1/games/{passcode}/reveal.
func (h *HTTPHandlers) Reveal(w http.ResponseWriter, r *http.Request) {
	err := h.svc.StartReveal(r.Context(), r.PathValue("passcode"))
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, game.ErrGameNotEnded):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameNotEnded, "reveal requires an ended game")
		case errors.Is(err, ErrRevealInProgress):
			httperrors.RespondConflict(w, httperrors.ErrCodeRevealInProgress, "reveal already in progress")
		case errors.Is(err, ErrNoParticipants):
			httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "no participants to reveal")
		default:
			h.logger.Error().Err(err).Msg("reveal start failed")
			httperrors.RespondInternalError(w, "failed to start reveal")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

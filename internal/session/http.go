package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
	httperrors "github.com/triviastake/platform/pkg/http/errors"
)

// HTTPHandlers exposes the quiz session over REST.
type HTTPHandlers struct {
	mgr    *Manager
	games  *game.Service
	logger zerolog.Logger
}

// NewHTTPHandlers constructs session HTTP handlers.
func NewHTTPHandlers(mgr *Manager, games *game.Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		mgr:    mgr,
		games:  games,
		logger: logger.With().Str("component", "session_http").Logger(),
	}
}

type identityRequest struct {
	Address  string `json:"address"`
	Nickname string `json:"nickname"`
}

type submitRequest struct {
	identityRequest
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// Start handles POST /v1/games/{passcode}/sessions.
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Address == "" || req.Nickname == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "address and nickname are required", "address")
		return
	}

	status, err := h.mgr.Start(r.Context(), r.PathValue("passcode"), req.Address, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, game.ErrGameNotActive):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameNotActive, "game is not active")
		case errors.Is(err, ErrSessionExists):
			httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "session already started")
		default:
			h.logger.Error().Err(err).Msg("session start failed")
			httperrors.RespondInternalError(w, "failed to start session")
		}
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

// Submit handles POST /v1/games/{passcode}/sessions/submit.
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	status, err := h.mgr.Submit(r.PathValue("passcode"), req.Address, req.Nickname, req.Index, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "session not found")
		case errors.Is(err, ErrSessionNotActive):
			httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "session is not in progress")
		case errors.Is(err, ErrWrongQuestionIndex):
			httperrors.RespondConflict(w, httperrors.ErrCodeConflict, "submit does not match the current question")
		default:
			h.logger.Error().Err(err).Msg("submit failed")
			httperrors.RespondInternalError(w, "failed to submit answer")
		}
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Status handles GET /v1/games/{passcode}/sessions/status.
func (h *HTTPHandlers) Status(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	nickname := r.URL.Query().Get("nickname")
	if address == "" || nickname == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "address and nickname query parameters are required", "address")
		return
	}

	status, err := h.mgr.Status(r.PathValue("passcode"), address, nickname)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Leave handles POST /v1/games/{passcode}/sessions/leave. The game service
// abandons the session through its purger hook and frees the seat; both
// halves are idempotent.
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	passcode := r.PathValue("passcode")
	if err := h.games.Leave(r.Context(), passcode, game.JoinRequest{Address: req.Address, Nickname: req.Nickname}); err != nil {
		h.logger.Error().Err(err).Str("passcode", passcode).Msg("seat release failed")
		httperrors.RespondInternalError(w, "failed to leave game")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

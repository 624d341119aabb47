package game

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/triviastake/platform/pkg/http/errors"
)

// HTTPHandlers exposes the game lifecycle over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers constructs game HTTP handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "game_http").Logger(),
	}
}

// Create handles POST /v1/games.
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}

	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrPasscodeExhausted) {
			httperrors.RespondError(w, http.StatusServiceUnavailable, httperrors.ErrCodeGameCreationFailed, err.Error())
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameCreationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/games?owner=addr.
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "owner query parameter is required", "owner")
		return
	}
	games, err := h.svc.ListByOwner(r.Context(), owner)
	if err != nil {
		h.logger.Error().Err(err).Str("owner", owner).Msg("list games failed")
		httperrors.RespondInternalError(w, "failed to list games")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Get handles GET /v1/games/{passcode}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetByPasscode(r.Context(), r.PathValue("passcode"))
	if err != nil {
		h.respondGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Update handles PATCH /v1/games/id/{id}.
func (h *HTTPHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid game id")
		return
	}
	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	updated, err := h.svc.Update(r.Context(), id, upd)
	if err != nil {
		if errors.Is(err, ErrGameAlreadyActive) {
			httperrors.RespondConflict(w, httperrors.ErrCodeGameAlreadyActive, "game cannot be edited while active")
			return
		}
		if errors.Is(err, ErrGameNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
			return
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameUpdateFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/games/id/{id}.
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid game id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrGameNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
			return
		}
		h.logger.Error().Err(err).Str("game_id", id.String()).Msg("delete game failed")
		httperrors.RespondInternalError(w, "failed to delete game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate handles POST /v1/games/{passcode}/activate.
func (h *HTTPHandlers) Activate(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Activate(r.Context(), r.PathValue("passcode"))
	if err != nil {
		switch {
		case errors.Is(err, ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, ErrGameAlreadyActive):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameAlreadyActive, "game is already active")
		default:
			h.logger.Error().Err(err).Msg("activation failed")
			httperrors.RespondBadGateway(w, httperrors.ErrCodeActivationFailed, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// End handles POST /v1/games/{passcode}/end.
func (h *HTTPHandlers) End(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.End(r.Context(), r.PathValue("passcode")); err != nil {
		h.respondGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": StateEnded})
}

// Join handles POST /v1/games/{passcode}/join.
func (h *HTTPHandlers) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	g, err := h.svc.Join(r.Context(), r.PathValue("passcode"), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, ErrGameNotActive):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameNotActive, "game is not accepting participants")
		case errors.Is(err, ErrGameFull):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameFull, "game has reached maximum participants")
		case errors.Is(err, ErrAlreadyJoined):
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyJoined, "participant already joined this game")
		default:
			h.logger.Error().Err(err).Msg("join failed")
			httperrors.RespondInternalError(w, "failed to join game")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"participants": g.CurrentParticipants,
	})
}

// Leave handles POST /v1/games/{passcode}/leave.
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := h.svc.Leave(r.Context(), r.PathValue("passcode"), req); err != nil {
		h.logger.Error().Err(err).Msg("leave failed")
		httperrors.RespondInternalError(w, "failed to leave game")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Participants handles GET /v1/games/{passcode}/participants.
func (h *HTTPHandlers) Participants(w http.ResponseWriter, r *http.Request) {
	players, err := h.svc.Participants(r.Context(), r.PathValue("passcode"))
	if err != nil {
		h.respondGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"participants": players})
}

func (h *HTTPHandlers) respondGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGameNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
	case errors.Is(err, ErrGameNotActive):
		httperrors.RespondConflict(w, httperrors.ErrCodeGameNotActive, "game is not active")
	default:
		h.logger.Error().Err(err).Msg("game request failed")
		httperrors.RespondInternalError(w, "request failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

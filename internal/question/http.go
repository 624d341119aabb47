package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/triviastake/platform/internal/game"
	httperrors "github.com/triviastake/platform/pkg/http/errors"
)

// HTTPHandlers exposes question authoring and the participant question set.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers constructs question HTTP handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "question_http").Logger(),
	}
}

// Save handles PUT /v1/games/{passcode}/questions/{index}.
func (h *HTTPHandlers) Save(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuestion, "question index must be a number")
		return
	}

	var q Authored
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	q.Index = index

	if err := h.svc.Save(r.Context(), r.PathValue("passcode"), q); err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, game.ErrGameAlreadyActive):
			httperrors.RespondConflict(w, httperrors.ErrCodeGameAlreadyActive, "questions cannot change while the game is active")
		case errors.Is(err, ErrInvalidQuestion):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuestion, err.Error())
		default:
			h.logger.Error().Err(err).Msg("question save failed")
			httperrors.RespondInternalError(w, "failed to save question")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Get handles GET /v1/games/{passcode}/questions/{index}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuestion, "question index must be a number")
		return
	}

	q, err := h.svc.Get(r.Context(), r.PathValue("passcode"), index)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, ErrInvalidQuestion):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidQuestion, err.Error())
		default:
			h.logger.Error().Err(err).Msg("question fetch failed")
			httperrors.RespondInternalError(w, "failed to load question")
		}
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Set handles GET /v1/games/{passcode}/questionset.
func (h *HTTPHandlers) Set(w http.ResponseWriter, r *http.Request) {
	set, err := h.svc.LoadSet(r.Context(), r.PathValue("passcode"))
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "game not found")
		case errors.Is(err, ErrQuestionSetNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionSetNotFound, "no questions authored for this game")
		default:
			h.logger.Error().Err(err).Msg("question set fetch failed")
			httperrors.RespondInternalError(w, "failed to load question set")
		}
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

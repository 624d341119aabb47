package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triviastake/platform/internal/logging"
)

func TestRequestLoggerInjectsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Info().Msg("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/games/1234/join", nil)
	rec := httptest.NewRecorder()
	requestLogger(logger, inner).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), `"method":"POST"`)
	assert.Contains(t, buf.String(), `"path":"/v1/games/1234/join"`)
	assert.Contains(t, buf.String(), `"message":"handled"`)
}

func TestRequestLoggerFallsBackToNop(t *testing.T) {
	// A handler reached without the middleware logs to a no-op logger
	// instead of panicking.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	nopLogger := logging.FromContext(req.Context())
	nopLogger.Info().Msg("dropped")
}

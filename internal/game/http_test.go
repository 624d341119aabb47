package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := newStubStore()
	svc := newTestService(store, newStubParticipants(), &stubGateway{})
	handlers := NewHTTPHandlers(svc, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/games", handlers.Create)
	mux.HandleFunc("GET /v1/games", handlers.List)
	mux.HandleFunc("GET /v1/games/{passcode}", handlers.Get)
	mux.HandleFunc("POST /v1/games/{passcode}/activate", handlers.Activate)
	mux.HandleFunc("POST /v1/games/{passcode}/end", handlers.End)
	mux.HandleFunc("POST /v1/games/{passcode}/join", handlers.Join)
	mux.HandleFunc("POST /v1/games/{passcode}/leave", handlers.Leave)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateGameEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/games", CreateRequest{
		Owner:           "0xhost",
		Title:           "Friday Trivia",
		RewardAmount:    1000,
		QuestionCount:   10,
		DurationMinutes: 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[Game](t, resp)
	assert.Len(t, created.Passcode, 4)
	assert.Equal(t, StateDraft, created.State)
}

func TestCreateGameEndpointRejectsBadCount(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/games", CreateRequest{
		Owner:           "0xhost",
		Title:           "bad",
		RewardAmount:    1000,
		QuestionCount:   7,
		DurationMinutes: 2,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/games", CreateRequest{
		Owner: "0xhost", Title: "t", RewardAmount: 1000, QuestionCount: 10, DurationMinutes: 2,
	})
	created := decode[Game](t, resp)
	base := fmt.Sprintf("%s/v1/games/%s", srv.URL, created.Passcode)

	// Joining before activation is rejected.
	resp = postJSON(t, base+"/join", JoinRequest{Address: "0xa", Nickname: "alice"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, base+"/activate", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, base+"/join", JoinRequest{Address: "0xa", Nickname: "alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decode[map[string]interface{}](t, resp)
	assert.Equal(t, float64(1), joined["participants"])

	// The test service caps the game at two seats.
	resp = postJSON(t, base+"/join", JoinRequest{Address: "0xb", Nickname: "bob"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, base+"/join", JoinRequest{Address: "0xc", Nickname: "carol"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[map[string]string](t, resp)
	assert.Equal(t, "game_full", errBody["error"])
}

func TestGetUnknownPasscode(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/games/0000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndGameEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/games", CreateRequest{
		Owner: "0xhost", Title: "t", RewardAmount: 1000, QuestionCount: 10, DurationMinutes: 2,
	})
	created := decode[Game](t, resp)
	base := fmt.Sprintf("%s/v1/games/%s", srv.URL, created.Passcode)

	// Ending a draft game is rejected.
	resp = postJSON(t, base+"/end", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, base+"/activate", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, base+"/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ended := decode[map[string]string](t, resp)
	assert.Equal(t, StateEnded, ended["state"])
}

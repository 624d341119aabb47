package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockFunds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/escrow/lock", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Amount int64 `json:"amount"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1000), req.Amount)

		json.NewEncoder(w).Encode(map[string]string{"tx": "lock-abc"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "test-key", srv.Client())

	tx, err := gw.LockFunds(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "lock-abc", tx)
}

func TestPayWinner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/escrow/release", r.URL.Path)

		var req struct {
			Receipt   string `json:"receipt"`
			Amount    int64  `json:"amount"`
			Recipient string `json:"recipient"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "lock-abc", req.Receipt)
		assert.Equal(t, int64(1000), req.Amount)
		assert.Equal(t, "0xwinner", req.Recipient)

		json.NewEncoder(w).Encode(map[string]string{"tx": "pay-xyz"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "", srv.Client())

	tx, err := gw.PayWinner(context.Background(), "lock-abc", 1000, "0xwinner")
	require.NoError(t, err)
	assert.Equal(t, "pay-xyz", tx)
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "escrow unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "", srv.Client())

	_, err := gw.LockFunds(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrPaymentFailed)
}

func TestGatewayEmptyTxRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tx": ""})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "", srv.Client())

	_, err := gw.PayWinner(context.Background(), "r", 1, "0xw")
	assert.ErrorIs(t, err, ErrPaymentFailed)
}

func TestGatewayUnreachable(t *testing.T) {
	gw := NewHTTPGateway("http://127.0.0.1:0", "", nil)

	_, err := gw.LockFunds(context.Background(), 1000)
	assert.ErrorIs(t, err, ErrPaymentFailed)
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrPaymentFailed wraps any gateway-side failure to lock or release funds.
var ErrPaymentFailed = errors.New("payment gateway call failed")

// Gateway abstracts the escrow service holding the prize pool. LockFunds is
// called on game activation; PayWinner releases the locked funds to the top
// scorer when the leaderboard reveal finishes.
type Gateway interface {
	LockFunds(ctx context.Context, amount int64) (string, error)
	PayWinner(ctx context.Context, receipt string, amount int64, recipient string) (string, error)
}

// HTTPGateway talks to the escrow service over its REST API.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway constructs a gateway client. A nil httpClient gets a
// default with a 30s timeout; escrow submissions can be slow to confirm.
func NewHTTPGateway(baseURL, apiKey string, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

var _ Gateway = (*HTTPGateway)(nil)

type lockRequest struct {
	Amount int64 `json:"amount"`
}

type releaseRequest struct {
	Receipt   string `json:"receipt"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

type txResponse struct {
	Tx string `json:"tx"`
}

// LockFunds escrows the reward amount and returns the lock transaction reference.
func (g *HTTPGateway) LockFunds(ctx context.Context, amount int64) (string, error) {
	return g.post(ctx, "/v1/escrow/lock", lockRequest{Amount: amount})
}

// PayWinner releases previously locked funds to the winner's address and
// returns the payout transaction reference.
func (g *HTTPGateway) PayWinner(ctx context.Context, receipt string, amount int64, recipient string) (string, error) {
	return g.post(ctx, "/v1/escrow/release", releaseRequest{
		Receipt:   receipt,
		Amount:    amount,
		Recipient: recipient,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrPaymentFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrPaymentFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gateway status %d", ErrPaymentFailed, resp.StatusCode)
	}

	var out txResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrPaymentFailed, err)
	}
	if out.Tx == "" {
		return "", fmt.Errorf("%w: empty transaction reference", ErrPaymentFailed)
	}
	return out.Tx, nil
}

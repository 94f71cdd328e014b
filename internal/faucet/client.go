// Package faucet requests native test-network tokens for accounts. A
// prioritized cascade of strategies sits behind an orchestrator that
// guarantees minimum balances idempotently; the strategies talk to the
// network faucet service and, as a last resort, submit a fee-bearing
// faucet manifest through the ledger gateway.
package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/metrics"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

const (
	// StokenetFaucetURL is the default faucet service endpoint for the
	// public test network. Mainnet has no faucet.
	StokenetFaucetURL = "https://stokenet-faucet.scrip.dev"

	defaultClientTimeout   = 30 * time.Second
	maxFaucetResponseBytes = 1 << 20
)

// ClientOptions configures a faucet service client.
type ClientOptions struct {
	// BaseURL overrides the faucet service endpoint.
	BaseURL string

	// Network selects the target network. Defaults to stokenet.
	Network ledger.Network

	// Timeout for individual faucet requests.
	Timeout time.Duration

	// RateLimiter overrides the default per-operation limiter.
	RateLimiter *ledger.RateLimiter

	// HTTPClient overrides the underlying HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the network faucet service. Every request is a single
// shot: the orchestrator's strategy cascade is the fallback mechanism,
// so the client never retries on its own.
type Client struct {
	baseURL    string
	network    ledger.Network
	httpClient *http.Client
	limiter    *ledger.RateLimiter
}

// NewClient creates a faucet service client. A nil opts selects the
// stokenet faucet with default timeouts.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL: StokenetFaucetURL,
		network: ledger.Stokenet,
		httpClient: &http.Client{
			Timeout: defaultClientTimeout,
		},
		limiter: ledger.DefaultRateLimiter(),
	}
	c.applyOptions(opts)
	return c
}

func (c *Client) applyOptions(opts *ClientOptions) {
	if opts == nil {
		return
	}
	if opts.Network != "" {
		c.network = opts.Network
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		c.httpClient.Timeout = opts.Timeout
	}
	if opts.RateLimiter != nil {
		c.limiter = opts.RateLimiter
	}
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	}
}

// Network returns the network this client funds on.
func (c *Client) Network() ledger.Network {
	return c.network
}

// BaseURL returns the configured faucet endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type fundRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type freeRequest struct {
	Address string `json:"address"`
}

type faucetResponse struct {
	Status     string `json:"status"`
	IntentHash string `json:"intent_hash,omitempty"`
}

type faucetErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Fund requests a grant of the given amount for the address. Returns
// StatusSubmitted on a fresh grant and StatusDuplicate when the faucet
// reports the request as already in flight.
func (c *Client) Fund(ctx context.Context, address string, amount decimal.Decimal) (Status, error) {
	if err := c.checkTarget(address); err != nil {
		return "", err
	}
	if !amount.IsPositive() {
		return "", scriperr.WithDetails(scriperr.ErrInvalidAmount, map[string]string{
			"amount": amount.String(),
		})
	}

	return c.request(ctx, "faucet_fund", "/v1/fund", fundRequest{
		Address: address,
		Amount:  ledger.FormatAmount(amount),
	})
}

// Free requests the faucet's default grant for the address. This is the
// simplified call: no amount, the faucet decides the grant size.
func (c *Client) Free(ctx context.Context, address string) (Status, error) {
	if err := c.checkTarget(address); err != nil {
		return "", err
	}

	return c.request(ctx, "faucet_free", "/v1/free", freeRequest{
		Address: address,
	})
}

// checkTarget rejects requests that could never succeed before they
// reach the network.
func (c *Client) checkTarget(address string) error {
	if !c.network.HasFaucet() {
		return scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrFaucetUnavailable, map[string]string{
				"network": string(c.network),
			}),
			"faucet funding is only available on test networks",
		)
	}
	return ledger.ValidateAddress(c.network, address)
}

func (c *Client) request(ctx context.Context, operation, path string, body any) (Status, error) {
	if err := c.limiter.Wait(ctx, operation); err != nil {
		return "", err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", scriperr.Wrap(err, "encoding faucet request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", scriperr.Wrap(err, "building faucet request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordGatewayCall(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", scriperr.ErrNetworkError, operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFaucetResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading faucet response: %w", scriperr.ErrNetworkError, err)
	}

	if err := c.mapStatus(resp, raw, operation); err != nil {
		return "", err
	}

	var out faucetResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", scriperr.Wrap(err, "decoding faucet response for %s", operation)
	}

	switch out.Status {
	case string(StatusSubmitted):
		return StatusSubmitted, nil
	case string(StatusDuplicate):
		return StatusDuplicate, nil
	default:
		return "", scriperr.WithDetails(scriperr.ErrNetworkError, map[string]string{
			"operation": operation,
			"status":    out.Status,
		})
	}
}

func (c *Client) mapStatus(resp *http.Response, raw []byte, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	details := map[string]string{
		"operation":   operation,
		"http_status": fmt.Sprintf("%d", resp.StatusCode),
	}
	if msg := faucetErrorMessage(raw); msg != "" {
		details["message"] = msg
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			details["retry_after"] = ra
		}
		return scriperr.WithDetails(scriperr.ErrRateLimited, details)
	}

	return scriperr.WithDetails(scriperr.ErrFaucetUnavailable, details)
}

// faucetErrorMessage extracts a human-readable message from an error
// response body, falling back to a raw snippet.
func faucetErrorMessage(raw []byte) string {
	var envelope faucetErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	if len(raw) == 0 {
		return ""
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(bytes.TrimSpace(raw))
}

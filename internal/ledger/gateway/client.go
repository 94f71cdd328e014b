// Package gateway implements the HTTP client for the ledger gateway:
// address derivation, balance queries, epoch status, and transaction
// submission.
package gateway

import (
	"bytes"
	"context"
	"encoding/hex"
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
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Default gateway endpoints per network.
const (
	MainnetBaseURL  = "https://gateway.scrip.dev"
	StokenetBaseURL = "https://stokenet-gateway.scrip.dev"
)

// Operation names used for rate limiting and logging.
const (
	opDerive  = "derive"
	opBalance = "balance"
	opEpoch   = "epoch"
	opSubmit  = "submit"
)

// ClientOptions contains optional configuration for the gateway client.
type ClientOptions struct {
	// BaseURL overrides the default gateway URL for the network.
	BaseURL string

	// Network selects which network's gateway to talk to.
	Network ledger.Network

	// Timeout overrides the default HTTP timeout.
	Timeout time.Duration

	// RateLimiter overrides the default per-operation limiter.
	RateLimiter *ledger.RateLimiter

	// RetryConfig overrides the default retry policy for idempotent reads.
	RetryConfig *ledger.RetryConfig

	// HTTPClient overrides the underlying HTTP client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to one gateway node. It satisfies ledger.Gateway.
// Idempotent reads (derive, balance, epoch) retry on transient failures;
// transaction submission is attempted exactly once because the ledger's
// duplicate detection, not this client, is the idempotence mechanism.
type Client struct {
	baseURL    string
	network    ledger.Network
	httpClient *http.Client
	limiter    *ledger.RateLimiter
	retryCfg   ledger.RetryConfig
}

// NewClient creates a gateway client for stokenet unless configured
// otherwise.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL:  StokenetBaseURL,
		network:  ledger.Stokenet,
		limiter:  ledger.DefaultRateLimiter(),
		retryCfg: ledger.DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	if opts != nil {
		c.applyOptions(opts)
	}

	return c
}

func (c *Client) applyOptions(opts *ClientOptions) {
	if opts.Network != "" {
		c.network = opts.Network
		if c.network == ledger.Mainnet {
			c.baseURL = MainnetBaseURL
		}
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
	if opts.RetryConfig != nil {
		c.retryCfg = *opts.RetryConfig
	}
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	}
}

// Network returns the network this client is configured for.
func (c *Client) Network() ledger.Network {
	return c.network
}

// BaseURL returns the gateway endpoint in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DeriveAddress asks the gateway to derive the account address for a
// public key. Retries transient failures.
func (c *Client) DeriveAddress(ctx context.Context, publicKey []byte, network ledger.Network) (string, error) {
	if len(publicKey) == 0 {
		return "", scriperr.ErrInvalidInput
	}

	reqBody := deriveAddressRequest{
		PublicKeyHex: hex.EncodeToString(publicKey),
		Network:      network.String(),
	}

	return ledger.RetryWithConfig(ctx, c.retryCfg, func() (string, error) {
		var out deriveAddressResponse
		if err := c.call(ctx, http.MethodPost, "/v1/accounts/derive", opDerive, reqBody, &out); err != nil {
			return "", err
		}
		if out.Address == "" {
			return "", scriperr.ErrResolutionFailed
		}
		return out.Address, nil
	})
}

// GetBalance returns the native token balance of an address as a decimal
// amount in whole tokens. Placeholder and malformed addresses are
// rejected locally before any network traffic.
func (c *Client) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := ledger.ValidateAddress(c.network, address); err != nil {
		return decimal.Zero, err
	}

	return ledger.RetryWithConfig(ctx, c.retryCfg, func() (decimal.Decimal, error) {
		var out balanceResponse
		if err := c.call(ctx, http.MethodPost, "/v1/accounts/balance", opBalance, balanceRequest{Address: address}, &out); err != nil {
			return decimal.Zero, err
		}

		balance, err := decimal.NewFromString(out.Balance)
		if err != nil {
			return decimal.Zero, scriperr.Wrap(scriperr.ErrNetworkError,
				"gateway returned unparseable balance %q", out.Balance)
		}
		return balance, nil
	})
}

// CurrentEpoch returns the ledger's current epoch.
func (c *Client) CurrentEpoch(ctx context.Context) (uint64, error) {
	return ledger.RetryWithConfig(ctx, c.retryCfg, func() (uint64, error) {
		var out epochResponse
		if err := c.call(ctx, http.MethodGet, "/v1/status/epoch", opEpoch, nil, &out); err != nil {
			return 0, err
		}
		return out.Epoch, nil
	})
}

// SubmitTransaction pushes a notarized transaction payload. A duplicate
// response is returned to the caller, not treated as an error: the
// original submission already stands. Submission is never auto-retried.
func (c *Client) SubmitTransaction(ctx context.Context, payloadHex string) (*ledger.SubmitResult, error) {
	if payloadHex == "" {
		return nil, scriperr.ErrInvalidInput
	}
	if _, err := hex.DecodeString(payloadHex); err != nil {
		return nil, scriperr.Wrap(scriperr.ErrInvalidInput, "payload is not hex")
	}

	var out submitResponse
	err := c.call(ctx, http.MethodPost, "/v1/transactions/submit", opSubmit, submitRequest{NotarizedTransactionHex: payloadHex}, &out)
	if err != nil {
		return nil, err
	}

	return &ledger.SubmitResult{
		Duplicate:  out.Duplicate,
		IntentHash: out.IntentHash,
	}, nil
}

// call performs one HTTP round trip: rate limit, request with tracing
// header, status mapping, JSON decode. Every call is recorded in metrics.
func (c *Client) call(ctx context.Context, method, path, operation string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx, operation); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return scriperr.Wrap(err, "encoding %s request", operation)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return scriperr.Wrap(err, "creating %s request", operation)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.Global.RecordGatewayCall(time.Since(start), err)
	if err != nil {
		// Transport-level failures are worth retrying on idempotent reads.
		return ledger.WrapRetryable(fmt.Errorf("%w: %w", scriperr.ErrNetworkError, err))
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ledger.WrapRetryable(fmt.Errorf("%w: reading response: %w", scriperr.ErrNetworkError, err))
	}

	if err := c.mapStatus(resp, payload, operation); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return scriperr.Wrap(scriperr.ErrNetworkError, "decoding %s response", operation)
		}
	}
	return nil
}

// mapStatus converts non-2xx responses into typed errors.
func (c *Client) mapStatus(resp *http.Response, payload []byte, operation string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		delay := ledger.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return scriperr.WithDetails(scriperr.ErrRateLimited, map[string]string{
			"operation":   operation,
			"retry_after": delay.String(),
		})

	case resp.StatusCode >= 500:
		return ledger.WrapRetryable(scriperr.WithDetails(scriperr.ErrNetworkError, map[string]string{
			"operation": operation,
			"status":    fmt.Sprintf("%d", resp.StatusCode),
		}))

	default:
		detail := gatewayErrorMessage(payload)
		base := scriperr.ErrNetworkError
		if operation == opSubmit {
			base = scriperr.ErrTxRejected
		}
		return scriperr.WithDetails(base, map[string]string{
			"operation": operation,
			"status":    fmt.Sprintf("%d", resp.StatusCode),
			"message":   detail,
		})
	}
}

// gatewayErrorMessage pulls the message out of the gateway's error
// envelope, falling back to the raw body.
func gatewayErrorMessage(payload []byte) string {
	var envelope errorResponse
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	const maxDetail = 200
	if len(payload) > maxDetail {
		payload = payload[:maxDetail]
	}
	return string(payload)
}

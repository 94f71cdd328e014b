package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/ledger/gateway"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func testAddress(t *testing.T, network ledger.Network) string {
	t.Helper()

	payload := make([]byte, 30)
	for i := range payload {
		payload[i] = byte(0x40 + i)
	}
	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.EncodeM(network.AccountHRP(), converted)
	require.NoError(t, err)
	return addr
}

func fastRetry() *ledger.RetryConfig {
	return &ledger.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*gateway.Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := gateway.NewClient(&gateway.ClientOptions{
		BaseURL:     srv.URL,
		Network:     ledger.Stokenet,
		RetryConfig: fastRetry(),
		RateLimiter: ledger.NewRateLimiter(1000, 1000),
	})
	return client, srv
}

func TestDeriveAddress(t *testing.T) {
	t.Parallel()

	want := testAddress(t, ledger.Stokenet)
	var gotRequestID atomic.Value

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/accounts/derive", r.URL.Path)
		gotRequestID.Store(r.Header.Get("X-Request-ID"))

		var req struct {
			PublicKeyHex string `json:"public_key_hex"`
			Network      string `json:"network"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0102ff", req.PublicKeyHex)
		assert.Equal(t, "stokenet", req.Network)

		_ = json.NewEncoder(w).Encode(map[string]string{"address": want})
	}))

	got, err := client.DeriveAddress(context.Background(), []byte{0x01, 0x02, 0xff}, ledger.Stokenet)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NotEmpty(t, gotRequestID.Load())
}

func TestDeriveAddress_EmptyKey(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.DeriveAddress(context.Background(), nil, ledger.Stokenet)
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrInvalidInput)
}

func TestGetBalance(t *testing.T) {
	t.Parallel()

	addr := testAddress(t, ledger.Stokenet)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts/balance", r.URL.Path)

		var req struct {
			Address string `json:"address"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, addr, req.Address)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"address": req.Address,
			"balance": "1234.5",
		})
	}))

	balance, err := client.GetBalance(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1234.5")))
}

func TestGetBalance_RejectsPlaceholderLocally(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.GetBalance(context.Background(), "pending:account:0")
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrInvalidAddress)
	assert.Zero(t, hits.Load(), "placeholder must never reach the network")
}

func TestGetBalance_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	addr := testAddress(t, ledger.Stokenet)
	var hits atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"address": addr, "balance": "7"})
	}))

	balance, err := client.GetBalance(context.Background(), addr)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetBalance_UnparseableBalance(t *testing.T) {
	t.Parallel()

	addr := testAddress(t, ledger.Stokenet)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"address": addr, "balance": "lots"})
	}))

	_, err := client.GetBalance(context.Background(), addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrNetworkError)
}

func TestCurrentEpoch(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/status/epoch", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]uint64{"epoch": 31337})
	}))

	epoch, err := client.CurrentEpoch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), epoch)
}

func TestSubmitTransaction_Duplicate(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions/submit", r.URL.Path)

		var req struct {
			NotarizedTransactionHex string `json:"notarized_transaction_hex"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deadbeef", req.NotarizedTransactionHex)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"duplicate":   true,
			"intent_hash": "txid_abc",
		})
	}))

	result, err := client.SubmitTransaction(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Equal(t, "txid_abc", result.IntentHash)
}

func TestSubmitTransaction_Rejected(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "InvalidTransaction",
			"message": "intent already expired",
		})
	}))

	_, err := client.SubmitTransaction(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrTxRejected)
	assert.Contains(t, err.Error(), "intent already expired")
}

func TestSubmitTransaction_NoRetryOnServerError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.SubmitTransaction(context.Background(), "deadbeef")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "submission must not be auto-retried")
}

func TestSubmitTransaction_RejectsNonHexLocally(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.SubmitTransaction(context.Background(), "not hex!")
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrInvalidInput)
	assert.Zero(t, hits.Load())
}

func TestRateLimitedResponse(t *testing.T) {
	t.Parallel()

	addr := testAddress(t, ledger.Stokenet)
	var hits atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.GetBalance(context.Background(), addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, scriperr.ErrRateLimited)
	// Rate limited responses are retryable, so the full budget is used.
	assert.Equal(t, int32(3), hits.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client := gateway.NewClient(nil)
	assert.Equal(t, ledger.Stokenet, client.Network())
	assert.Equal(t, gateway.StokenetBaseURL, client.BaseURL())

	mainnet := gateway.NewClient(&gateway.ClientOptions{Network: ledger.Mainnet})
	assert.Equal(t, gateway.MainnetBaseURL, mainnet.BaseURL())
}

package faucet_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/faucet"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
)

// testAddress builds a syntactically valid account address for the
// network without touching any derivation code.
func testAddress(t *testing.T, network ledger.Network) string {
	t.Helper()

	payload := make([]byte, 30)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	require.NoError(t, err)
	addr, err := bech32.EncodeM(network.AccountHRP(), converted)
	require.NoError(t, err)
	return addr
}

// stubWallet satisfies faucet.Wallet with a fixed address state and a
// throwaway ed25519 key.
type stubWallet struct {
	state   wallet.AddressState
	network ledger.Network
	priv    ed25519.PrivateKey
}

func newResolvedWallet(t *testing.T, network ledger.Network) *stubWallet {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &stubWallet{
		state:   wallet.ResolvedAddress(testAddress(t, network)),
		network: network,
		priv:    priv,
	}
}

func newPendingWallet(t *testing.T, network ledger.Network) *stubWallet {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &stubWallet{
		state:   wallet.PendingAddress(0),
		network: network,
		priv:    priv,
	}
}

func (s *stubWallet) AddressState() wallet.AddressState { return s.state }

func (s *stubWallet) Network() ledger.Network { return s.network }

func (s *stubWallet) PublicKeyHex() string {
	pub, _ := s.priv.Public().(ed25519.PublicKey)
	return hex.EncodeToString(pub)
}

func (s *stubWallet) Sign(data []byte) (string, error) {
	return hex.EncodeToString(ed25519.Sign(s.priv, data)), nil
}

func (s *stubWallet) publicKey() ed25519.PublicKey {
	pub, _ := s.priv.Public().(ed25519.PublicKey)
	return pub
}

// stubBalances serves a fixed sequence of balance readings; the final
// value repeats once the sequence is exhausted.
type stubBalances struct {
	mu       sync.Mutex
	readings []decimal.Decimal
	err      error
	calls    int
}

func (s *stubBalances) GetBalance(_ context.Context, _ string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	if len(s.readings) == 0 {
		return decimal.Decimal{}, nil
	}
	reading := s.readings[0]
	if len(s.readings) > 1 {
		s.readings = s.readings[1:]
	}
	return reading, nil
}

func (s *stubBalances) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubStrategy returns a fixed outcome and counts executions.
type stubStrategy struct {
	name   string
	status faucet.Status
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fund(ctx context.Context, _ faucet.Wallet, _ decimal.Decimal) (faucet.Status, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.status, nil
}

// stubEpochs is a fixed epoch source.
type stubEpochs struct {
	epoch uint64
	err   error
}

func (s *stubEpochs) CurrentEpoch(_ context.Context) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.epoch, nil
}

// stubSubmitter records submitted payloads.
type stubSubmitter struct {
	mu        sync.Mutex
	payloads  []string
	duplicate bool
	err       error
}

func (s *stubSubmitter) SubmitTransaction(_ context.Context, payloadHex string) (*ledger.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, payloadHex)
	return &ledger.SubmitResult{Duplicate: s.duplicate, IntentHash: "txid_test"}, nil
}

func (s *stubSubmitter) submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.payloads))
	copy(out, s.payloads)
	return out
}

package faucet

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Status is the outcome of a single funding strategy execution.
type Status string

const (
	// StatusSubmitted means the strategy handed a fresh funding request
	// to the network.
	StatusSubmitted Status = "submitted"

	// StatusDuplicate means the network already holds an equivalent
	// request. Treated as success: the funds are on their way.
	StatusDuplicate Status = "duplicate"
)

// Wallet is the account surface a funding strategy needs. Only public
// material crosses this boundary; *wallet.Wallet satisfies it.
type Wallet interface {
	AddressState() wallet.AddressState
	Network() ledger.Network
	PublicKeyHex() string
	Sign(data []byte) (string, error)
}

// Strategy is one concrete way of requesting faucet funds. Strategies
// are tried strictly in priority order, never concurrently.
type Strategy interface {
	// Name identifies the strategy in logs and verdicts.
	Name() string

	// Fund requests roughly the given amount for the wallet's current
	// account. Implementations are single shot; the orchestrator owns
	// fallback and settlement.
	Fund(ctx context.Context, w Wallet, amount decimal.Decimal) (Status, error)
}

// DefaultStrategies returns the standard cascade in priority order: the
// canonical faucet call, the simplified faucet call, then the
// fee-bearing manifest submission through the gateway.
func DefaultStrategies(client *Client, gw ledger.Gateway) []Strategy {
	return []Strategy{
		NewFundStrategy(client),
		NewFreeStrategy(client),
		NewManifestStrategy(gw, gw),
	}
}

type fundStrategy struct {
	client *Client
}

// NewFundStrategy returns the canonical faucet call: an explicit grant
// amount posted to the faucet service.
func NewFundStrategy(client *Client) Strategy {
	return &fundStrategy{client: client}
}

func (s *fundStrategy) Name() string { return "faucet_fund" }

func (s *fundStrategy) Fund(ctx context.Context, w Wallet, amount decimal.Decimal) (Status, error) {
	return s.client.Fund(ctx, w.AddressState().String(), amount)
}

type freeStrategy struct {
	client *Client
}

// NewFreeStrategy returns the simplified faucet call: the faucet picks
// the grant size.
func NewFreeStrategy(client *Client) Strategy {
	return &freeStrategy{client: client}
}

func (s *freeStrategy) Name() string { return "faucet_free" }

func (s *freeStrategy) Fund(ctx context.Context, w Wallet, _ decimal.Decimal) (Status, error) {
	return s.client.Free(ctx, w.AddressState().String())
}

type manifestStrategy struct {
	epochs      ledger.EpochSource
	submitter   ledger.Submitter
	epochWindow uint64
}

// NewManifestStrategy returns the fee-bearing fallback: it builds a
// faucet manifest, signs it with the wallet and submits it through the
// ledger gateway. A duplicate submission is success.
func NewManifestStrategy(epochs ledger.EpochSource, submitter ledger.Submitter) Strategy {
	return &manifestStrategy{
		epochs:      epochs,
		submitter:   submitter,
		epochWindow: DefaultEpochWindow,
	}
}

func (s *manifestStrategy) Name() string { return "manifest" }

func (s *manifestStrategy) Fund(ctx context.Context, w Wallet, _ decimal.Decimal) (Status, error) {
	network := w.Network()
	address := w.AddressState().String()

	manifest, err := BuildFaucetManifest(network, address)
	if err != nil {
		return "", err
	}

	epoch, err := s.epochs.CurrentEpoch(ctx)
	if err != nil {
		return "", scriperr.Wrap(err, "reading current epoch")
	}

	payload, err := BuildSignedEnvelope(w, manifest, epoch, epoch+s.epochWindow)
	if err != nil {
		return "", err
	}

	result, err := s.submitter.SubmitTransaction(ctx, payload)
	if err != nil {
		return "", err
	}
	if result.Duplicate {
		return StatusDuplicate, nil
	}
	return StatusSubmitted, nil
}

// Package ledger provides network definitions, gateway interface
// contracts, and common utilities shared by everything that talks to the
// Radix-style ledger.
package ledger

import (
	"context"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/shopspring/decimal"

	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Network identifies a ledger network.
type Network string

// Supported networks.
const (
	Mainnet  Network = "mainnet"
	Stokenet Network = "stokenet"
)

// Native token properties. XRD amounts are expressed as decimal strings
// by the gateway; the subunit scale only matters when building manifests.
const (
	NativeSymbol   = "XRD"
	NativeDecimals = 18
)

// ID returns the numeric network identifier used in transaction headers.
func (n Network) ID() uint8 {
	switch n {
	case Mainnet:
		return 1
	case Stokenet:
		return 2
	default:
		return 0
	}
}

// AccountHRP returns the bech32m human-readable prefix for account
// addresses on this network.
func (n Network) AccountHRP() string {
	switch n {
	case Mainnet:
		return "account_rdx"
	case Stokenet:
		return "account_tdx_2_"
	default:
		return ""
	}
}

// HasFaucet reports whether this network operates a public faucet.
// Only test networks hand out free tokens.
func (n Network) HasFaucet() bool {
	return n != Mainnet
}

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// IsValid returns true if the network is known.
func (n Network) IsValid() bool {
	switch n {
	case Mainnet, Stokenet:
		return true
	default:
		return false
	}
}

// ParseNetwork parses a string into a Network.
func ParseNetwork(s string) (Network, bool) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	return n, n.IsValid()
}

// ValidateAddress checks that an address is a well-formed bech32m account
// address for the given network. It rejects anything that fails to decode,
// carries the wrong prefix, or uses the wrong checksum variant, which also
// rules out every placeholder form.
func ValidateAddress(network Network, address string) error {
	if address == "" {
		return scriperr.ErrInvalidAddress
	}
	if address != strings.ToLower(address) {
		return scriperr.WithDetails(scriperr.ErrInvalidAddress,
			map[string]string{"reason": "mixed case"})
	}

	hrp, data, version, err := bech32.DecodeGeneric(address)
	if err != nil {
		return scriperr.Wrap(scriperr.ErrInvalidAddress, "decoding %q", address)
	}
	if hrp != network.AccountHRP() {
		return scriperr.WithDetails(scriperr.ErrInvalidAddress, map[string]string{
			"prefix":  hrp,
			"network": network.String(),
		})
	}
	if version != bech32.VersionM {
		return scriperr.WithDetails(scriperr.ErrInvalidAddress,
			map[string]string{"reason": "wrong checksum variant"})
	}
	if len(data) == 0 {
		return scriperr.WithDetails(scriperr.ErrInvalidAddress,
			map[string]string{"reason": "empty payload"})
	}
	return nil
}

// AddressDeriver converts a public key into a ledger-native account
// address. Implemented by the gateway's derivation endpoint; assumed to be
// slow and occasionally unavailable.
type AddressDeriver interface {
	DeriveAddress(ctx context.Context, publicKey []byte, network Network) (string, error)
}

// BalanceReader reports the native-token balance of an address.
type BalanceReader interface {
	// GetBalance returns the XRD balance as a decimal amount in whole
	// tokens, the way the gateway reports it.
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// EpochSource reports the ledger's current epoch, used to bound
// transaction validity windows.
type EpochSource interface {
	CurrentEpoch(ctx context.Context) (uint64, error)
}

// SubmitResult is the gateway's answer to a transaction submission.
type SubmitResult struct {
	// Duplicate is true when the same payload was already submitted.
	// Duplicates are not failures; the original submission stands.
	Duplicate bool `json:"duplicate"`

	// IntentHash identifies the submitted transaction, when known.
	IntentHash string `json:"intent_hash,omitempty"`
}

// Submitter pushes a signed transaction payload to the network.
type Submitter interface {
	SubmitTransaction(ctx context.Context, payloadHex string) (*SubmitResult, error)
}

// Gateway combines every ledger operation this client consumes.
type Gateway interface {
	AddressDeriver
	BalanceReader
	EpochSource
	Submitter
}

// Zero is the zero XRD amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

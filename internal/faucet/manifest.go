package faucet

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/scriplabs/scrip/internal/ledger"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

const (
	// DefaultEpochWindow is how many epochs past the current one a
	// faucet transaction stays valid. Keeps abandoned submissions from
	// lingering while leaving room for slow propagation.
	DefaultEpochWindow = 10

	// faucetLockFee is the fee locked against the faucet component
	// itself, so a zero-balance account can still pay for its first
	// funding transaction.
	faucetLockFee = "10"

	// faucetComponentStokenet is the well-known faucet component on the
	// public test network.
	faucetComponentStokenet = "component_tdx_2_1cptxxxxxxxxxfaucetxxxxxxxxx000527798379xxxxxxxxxyulkzl"
)

// FaucetComponent returns the faucet component address for a network.
// Mainnet has no faucet component.
func FaucetComponent(network ledger.Network) (string, error) {
	switch network {
	case ledger.Stokenet:
		return faucetComponentStokenet, nil
	default:
		return "", scriperr.WithDetails(scriperr.ErrFaucetUnavailable, map[string]string{
			"network": string(network),
		})
	}
}

// BuildFaucetManifest renders the transaction manifest that locks a fee
// against the faucet, draws the free grant and deposits the entire
// worktop into the account.
func BuildFaucetManifest(network ledger.Network, accountAddress string) (string, error) {
	if err := ledger.ValidateAddress(network, accountAddress); err != nil {
		return "", err
	}

	component, err := FaucetComponent(network)
	if err != nil {
		return "", err
	}

	manifest := fmt.Sprintf(`CALL_METHOD
    Address(%q)
    "lock_fee"
    Decimal(%q)
;
CALL_METHOD
    Address(%q)
    "free"
;
CALL_METHOD
    Address(%q)
    "try_deposit_batch_or_abort"
    Expression("ENTIRE_WORKTOP")
    Enum<0u8>()
;
`, component, faucetLockFee, component, accountAddress)

	return manifest, nil
}

// TransactionIntent is the signable portion of a submission envelope.
// Field order is fixed; the signature covers the marshaled bytes.
type TransactionIntent struct {
	NetworkID    uint8  `json:"network_id"`
	StartEpoch   uint64 `json:"start_epoch"`
	EndEpoch     uint64 `json:"end_epoch"`
	Nonce        string `json:"nonce"`
	PublicKeyHex string `json:"public_key_hex"`
	Manifest     string `json:"manifest"`
}

type submissionEnvelope struct {
	Intent       TransactionIntent `json:"intent"`
	SignatureHex string            `json:"signature_hex"`
}

// BuildSignedEnvelope signs a manifest for the epoch window and returns
// the hex-encoded submission payload for the gateway.
func BuildSignedEnvelope(w Wallet, manifest string, startEpoch, endEpoch uint64) (string, error) {
	if manifest == "" {
		return "", scriperr.WithDetails(scriperr.ErrInvalidInput, map[string]string{
			"field": "manifest",
		})
	}
	if endEpoch <= startEpoch {
		return "", scriperr.WithDetails(scriperr.ErrInvalidInput, map[string]string{
			"start_epoch": fmt.Sprintf("%d", startEpoch),
			"end_epoch":   fmt.Sprintf("%d", endEpoch),
		})
	}

	intent := TransactionIntent{
		NetworkID:    w.Network().ID(),
		StartEpoch:   startEpoch,
		EndEpoch:     endEpoch,
		Nonce:        uuid.NewString(),
		PublicKeyHex: w.PublicKeyHex(),
		Manifest:     manifest,
	}

	intentBytes, err := json.Marshal(intent)
	if err != nil {
		return "", scriperr.Wrap(err, "encoding transaction intent")
	}

	signature, err := w.Sign(intentBytes)
	if err != nil {
		return "", err
	}

	envelope, err := json.Marshal(submissionEnvelope{
		Intent:       intent,
		SignatureHex: signature,
	})
	if err != nil {
		return "", scriperr.Wrap(err, "encoding submission envelope")
	}

	return hex.EncodeToString(envelope), nil
}

// DecodeEnvelope parses a hex submission payload back into its intent
// and signature. Used to verify envelopes in diagnostics.
func DecodeEnvelope(payloadHex string) (TransactionIntent, string, error) {
	raw, err := hex.DecodeString(payloadHex)
	if err != nil {
		return TransactionIntent{}, "", scriperr.Wrap(err, "decoding submission payload")
	}

	var envelope submissionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return TransactionIntent{}, "", scriperr.Wrap(err, "parsing submission envelope")
	}
	return envelope.Intent, envelope.SignatureHex, nil
}

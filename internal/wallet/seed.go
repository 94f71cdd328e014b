package wallet

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/scriplabs/scrip/internal/secure"
)

// SeedMaterial holds the mnemonic-derived entropy for one wallet. It is
// created once, owned exclusively by its Wallet, and never serialized.
// The underlying bytes live in locked memory and are zeroed on Destroy.
type SeedMaterial struct {
	buf *secure.Buffer
}

// NewSeedMaterial derives seed material from a 24-word mnemonic and an
// optional passphrase. The mnemonic is validated (word count, word list,
// checksum) before any derivation happens.
func NewSeedMaterial(mnemonic, passphrase string) (*SeedMaterial, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}

	normalized := NormalizeMnemonicInput(mnemonic)
	seed := bip39.NewSeed(normalized, passphrase)

	// FromBytes zeroes the source slice after copying it into locked memory.
	return &SeedMaterial{buf: secure.FromBytes(seed)}, nil
}

// bytes exposes the raw seed to the derivation engine. Callers must not
// retain or mutate the returned slice.
func (s *SeedMaterial) bytes() []byte {
	return s.buf.Bytes()
}

// Len returns the seed length in bytes.
func (s *SeedMaterial) Len() int {
	return s.buf.Len()
}

// Destroy zeroes and releases the seed. Safe to call more than once.
func (s *SeedMaterial) Destroy() {
	if s != nil && s.buf != nil {
		s.buf.Destroy()
	}
}

package wallet

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/blake2b"

	"github.com/scriplabs/scrip/internal/secure"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Scheme selects how account keys derive from the seed.
type Scheme string

const (
	// SchemeHash derives ed25519 keys by hashing seed, domain tag, and
	// index. Deterministic and self-contained, but not interoperable with
	// hierarchical-deterministic wallet software.
	SchemeHash Scheme = "hash"

	// SchemeBIP44 derives secp256k1 keys along the ledger's registered
	// BIP44 path. Interoperable with standard wallet software.
	SchemeBIP44 Scheme = "bip44"
)

// derivationTag domain-separates account key hashing from any other use of
// the seed bytes.
const derivationTag = "scrip/account-key/v1"

// coinTypeLedger is the ledger's registered SLIP-44 coin type.
const coinTypeLedger = 1022

// MaxAccountIndex bounds derivation to prevent resource exhaustion from a
// runaway index.
const MaxAccountIndex uint32 = 1 << 20

// ParseScheme parses a derivation scheme name. Empty input selects the
// default hash scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeHash:
		return SchemeHash, nil
	case SchemeBIP44:
		return SchemeBIP44, nil
	default:
		return "", scriperr.WithDetails(scriperr.ErrInvalidInput,
			map[string]string{"scheme": s})
	}
}

// KeyPair is the key material derived for one account index. The private
// half lives in locked memory and never leaves this package.
type KeyPair struct {
	// Scheme records which derivation produced this pair.
	Scheme Scheme

	// Path is the human-readable derivation path.
	Path string

	public  []byte
	private *secure.Buffer
}

// PublicKey returns a copy of the public key bytes: 32 bytes for ed25519,
// 33 bytes (compressed) for secp256k1.
func (k *KeyPair) PublicKey() []byte {
	out := make([]byte, len(k.public))
	copy(out, k.public)
	return out
}

// Sign signs data with the pair's private key. Ed25519 signs the raw
// bytes; secp256k1 signs a blake2b-256 digest and returns a DER encoded
// signature.
func (k *KeyPair) Sign(data []byte) ([]byte, error) {
	raw := k.private.Bytes()
	if len(raw) == 0 {
		return nil, scriperr.ErrSigningFailed
	}

	switch k.Scheme {
	case SchemeHash:
		priv := ed25519.NewKeyFromSeed(raw)
		sig := ed25519.Sign(priv, data)
		secure.Zero(priv)
		return sig, nil

	case SchemeBIP44:
		privKey, _ := btcec.PrivKeyFromBytes(raw)
		defer privKey.Zero()

		digest := blake2b.Sum256(data)
		sig := btcecdsa.Sign(privKey, digest[:])
		return sig.Serialize(), nil

	default:
		return nil, scriperr.WithDetails(scriperr.ErrSigningFailed,
			map[string]string{"scheme": string(k.Scheme)})
	}
}

// Destroy zeroes the private key material. Safe to call more than once.
func (k *KeyPair) Destroy() {
	if k != nil && k.private != nil {
		k.private.Destroy()
	}
}

// KeyDerivationEngine produces deterministic, index-addressed key material
// from one wallet's seed. Derivation is a pure function of seed, scheme,
// and index.
type KeyDerivationEngine struct {
	seed   *SeedMaterial
	scheme Scheme
}

// NewKeyDerivationEngine binds an engine to seed material and a scheme.
func NewKeyDerivationEngine(seed *SeedMaterial, scheme Scheme) (*KeyDerivationEngine, error) {
	if seed == nil || seed.Len() == 0 {
		return nil, scriperr.ErrInvalidMnemonic
	}
	parsed, err := ParseScheme(string(scheme))
	if err != nil {
		return nil, err
	}
	return &KeyDerivationEngine{seed: seed, scheme: parsed}, nil
}

// Scheme returns the engine's derivation scheme.
func (e *KeyDerivationEngine) Scheme() Scheme {
	return e.scheme
}

// Derive produces the key pair for an account index. Same seed, scheme,
// and index always yield identical output.
func (e *KeyDerivationEngine) Derive(index uint32) (*KeyPair, error) {
	if index > MaxAccountIndex {
		return nil, scriperr.WithDetails(scriperr.ErrInvalidIndex, map[string]string{
			"index": fmt.Sprintf("%d", index),
			"max":   fmt.Sprintf("%d", MaxAccountIndex),
		})
	}

	switch e.scheme {
	case SchemeBIP44:
		return e.deriveBIP44(index)
	default:
		return e.deriveHash(index)
	}
}

// deriveHash hashes seed, tag, and big-endian index into an ed25519 seed.
func (e *KeyDerivationEngine) deriveHash(index uint32) (*KeyPair, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, scriperr.Wrap(err, "initializing key hash")
	}

	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)

	h.Write(e.seed.bytes())
	h.Write([]byte(derivationTag))
	h.Write(idx[:])
	keySeed := h.Sum(nil)

	priv := ed25519.NewKeyFromSeed(keySeed)
	public := make([]byte, ed25519.PublicKeySize)
	copy(public, priv[ed25519.SeedSize:])
	secure.Zero(priv)

	return &KeyPair{
		Scheme:  SchemeHash,
		Path:    fmt.Sprintf("hash/%d", index),
		public:  public,
		private: secure.FromBytes(keySeed),
	}, nil
}

// deriveBIP44 walks m/44'/1022'/0'/0/index and extracts the secp256k1
// key pair at the leaf.
func (e *KeyDerivationEngine) deriveBIP44(index uint32) (*KeyPair, error) {
	master, err := bip32.NewMasterKey(e.seed.bytes())
	if err != nil {
		return nil, scriperr.Wrap(err, "creating master key")
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinTypeLedger,
		bip32.FirstHardenedChild, // account 0
		0,                        // external chain
		index,
	}

	key := master
	for _, child := range path {
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, scriperr.Wrap(err, "deriving child %d", child)
		}
	}

	privBytes := make([]byte, len(key.Key))
	copy(privBytes, key.Key)

	_, pubKey := btcec.PrivKeyFromBytes(privBytes)
	public := pubKey.SerializeCompressed()

	return &KeyPair{
		Scheme:  SchemeBIP44,
		Path:    fmt.Sprintf("m/44'/%d'/0'/0/%d", coinTypeLedger, index),
		public:  public,
		private: secure.FromBytes(privBytes),
	}, nil
}

// Package backup packages wallet records into portable encrypted
// archives and restores them. A backup pairs a plaintext manifest,
// inspectable without a password, with the age-encrypted record and
// mnemonic, integrity-checked by a SHA256 checksum.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/scriplabs/scrip/internal/keystore"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// BackupVersion is the current backup envelope version.
const BackupVersion = 1

// Backup is the on-disk backup envelope.
type Backup struct {
	// Version is the envelope format version.
	Version int `json:"version"`

	// Manifest describes the backup without exposing key material.
	Manifest Manifest `json:"manifest"`

	// EncryptedData holds the age-encrypted wallet payload.
	EncryptedData []byte `json:"encrypted_data"`

	// Checksum is the SHA256 hash of EncryptedData, hex encoded.
	Checksum string `json:"checksum"`
}

// Manifest is the plaintext metadata of a backup.
type Manifest struct {
	// WalletName is the name of the backed up wallet.
	WalletName string `json:"wallet_name"`

	// Network is the ledger network the wallet belongs to.
	Network string `json:"network"`

	// Scheme is the wallet's key derivation scheme.
	Scheme string `json:"scheme"`

	// Address is the wallet's resolved address, if it had one.
	Address string `json:"address,omitempty"`

	// CreatedAt is when the backup was taken.
	CreatedAt time.Time `json:"created_at"`

	// EncryptionMethod names the cipher protecting the payload.
	EncryptionMethod string `json:"encryption_method"`
}

// walletPayload is the encrypted interior of a backup.
type walletPayload struct {
	// Record is the full wallet record being preserved.
	Record *keystore.Record `json:"record"`

	// Mnemonic is the wallet's seed phrase.
	Mnemonic string `json:"mnemonic"`
}

// NewManifest builds the manifest for a record about to be backed up.
func NewManifest(rec *keystore.Record) Manifest {
	return Manifest{
		WalletName:       rec.Name,
		Network:          rec.Network.String(),
		Scheme:           string(rec.Scheme),
		Address:          rec.Address,
		CreatedAt:        time.Now().UTC(),
		EncryptionMethod: "age",
	}
}

// NewBackup wraps encrypted payload bytes in a checksummed envelope.
func NewBackup(manifest Manifest, encryptedData []byte) *Backup {
	return &Backup{
		Version:       BackupVersion,
		Manifest:      manifest,
		EncryptedData: encryptedData,
		Checksum:      Checksum(encryptedData),
	}
}

// Checksum computes the hex-encoded SHA256 hash of data.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum compares data against an expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	actual := Checksum(data)
	if actual != expected {
		return scriperr.WithDetails(scriperr.ErrBackupCorrupted, map[string]string{
			"expected": expected,
			"actual":   actual,
		})
	}
	return nil
}

// Validate checks the envelope for structural consistency and an
// intact checksum.
func (b *Backup) Validate() error {
	if b.Version != BackupVersion {
		return scriperr.WithDetails(scriperr.ErrBackupInvalid, map[string]string{
			"version": fmt.Sprintf("%d", b.Version),
		})
	}
	if b.Manifest.WalletName == "" {
		return scriperr.WithSuggestion(scriperr.ErrBackupInvalid,
			"the manifest has no wallet name")
	}
	if len(b.EncryptedData) == 0 {
		return scriperr.WithSuggestion(scriperr.ErrBackupInvalid,
			"the backup holds no encrypted data")
	}

	return VerifyChecksum(b.EncryptedData, b.Checksum)
}

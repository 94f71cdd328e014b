// Package keystore persists wallet records on disk with the mnemonic
// encrypted at rest. Each record is a JSON file pairing plaintext
// metadata with an age-encrypted mnemonic, so listing and inspecting
// wallets never needs a password while recovering one always does.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	sanitize "github.com/mrz1836/go-sanitize"

	"github.com/scriplabs/scrip/internal/fileutil"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/secure"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

const (
	// recordFileExtension is the extension for stored wallet records.
	recordFileExtension = ".scrip"

	// recordFilePermissions is the permission mode for record files.
	recordFilePermissions = 0o600

	// recordDirPermissions is the permission mode for the keystore directory.
	recordDirPermissions = 0o750
)

//nolint:gochecknoglobals // package sentinels and compiled pattern
var (
	// ErrInvalidName indicates a wallet name failed validation.
	ErrInvalidName = scriperr.WithSuggestion(scriperr.ErrInvalidInput,
		"wallet name must be 1-64 alphanumeric characters, underscores, or hyphens")

	// recordNameRegex validates wallet names: alphanumeric + underscore + hyphen, 1-64 chars.
	recordNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// Record is the plaintext metadata stored alongside the encrypted
// mnemonic. It never contains key material.
type Record struct {
	// Name is the unique wallet identifier within the keystore.
	Name string `json:"name"`

	// Network is the ledger network the wallet was created for.
	Network ledger.Network `json:"network"`

	// Scheme is the key derivation scheme the wallet uses.
	Scheme wallet.Scheme `json:"scheme"`

	// Address is the last known resolved address for account 0, kept
	// for display without a password. Empty until resolution succeeds.
	Address string `json:"address,omitempty"`

	// CreatedAt is the record creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Version is the record format version.
	Version int `json:"version"`
}

// NewRecord creates record metadata for a wallet about to be saved.
func NewRecord(name string, network ledger.Network, scheme wallet.Scheme) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if !network.IsValid() {
		return nil, scriperr.WithDetails(scriperr.ErrInvalidInput,
			map[string]string{"network": network.String()})
	}

	return &Record{
		Name:      name,
		Network:   network,
		Scheme:    scheme,
		CreatedAt: time.Now().UTC(),
		Version:   1,
	}, nil
}

// recordFile is the on-disk record structure.
type recordFile struct {
	// Record contains the wallet metadata (not the mnemonic).
	Record *Record `json:"record"`

	// EncryptedMnemonic is the age-encrypted mnemonic bytes.
	EncryptedMnemonic []byte `json:"encrypted_mnemonic"`
}

// ValidateName checks if a wallet name is valid.
func ValidateName(name string) error {
	if !recordNameRegex.MatchString(name) {
		return scriperr.WithDetails(ErrInvalidName, map[string]string{"name": name})
	}
	return nil
}

// SuggestName provides a sanitized version of an invalid wallet name.
// It uses sanitize.PathName to clean the input, keeping only ASCII
// alphanumeric characters, hyphens, and underscores, truncated to 64
// characters. Returns empty string if nothing usable remains.
func SuggestName(name string) string {
	suggested := sanitize.PathName(name)
	if suggested == "" {
		return ""
	}
	if len(suggested) > 64 {
		suggested = suggested[:64]
	}
	return suggested
}

// Store reads and writes wallet records under a single directory.
type Store struct {
	basePath string
}

// NewStore creates a file-backed keystore rooted at basePath.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// Save encrypts the mnemonic and writes a new record. It refuses to
// overwrite an existing record. The password should be zeroed by the
// caller after this call returns.
func (s *Store) Save(rec *Record, mnemonic string, password []byte) error {
	if err := ValidateName(rec.Name); err != nil {
		return err
	}

	exists, err := s.Exists(rec.Name)
	if err != nil {
		return fmt.Errorf("checking record existence: %w", err)
	}
	if exists {
		return scriperr.WithDetails(scriperr.ErrKeystoreExists,
			map[string]string{"name": rec.Name})
	}

	if err = os.MkdirAll(s.basePath, recordDirPermissions); err != nil {
		return fmt.Errorf("creating keystore directory: %w", err)
	}

	encrypted, err := secure.Encrypt([]byte(mnemonic), string(password))
	if err != nil {
		return fmt.Errorf("encrypting mnemonic: %w", err)
	}

	rf := recordFile{
		Record:            rec,
		EncryptedMnemonic: encrypted,
	}

	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	if err := fileutil.WriteAtomic(s.recordPath(rec.Name), data, recordFilePermissions); err != nil {
		return fmt.Errorf("writing record file: %w", err)
	}

	return nil
}

// Load reads a record and decrypts its mnemonic. The password should be
// zeroed by the caller after this call returns.
func (s *Store) Load(name string, password []byte) (*Record, string, error) {
	rf, err := s.readRecordFile(name)
	if err != nil {
		return nil, "", err
	}

	mnemonic, err := secure.Decrypt(rf.EncryptedMnemonic, string(password))
	if err != nil {
		return nil, "", scriperr.WithDetails(scriperr.ErrDecryptionFailed,
			map[string]string{"name": name})
	}

	return rf.Record, string(mnemonic), nil
}

// LoadMetadata reads record metadata without decrypting the mnemonic.
// Useful for displaying wallet info without requiring the password.
func (s *Store) LoadMetadata(name string) (*Record, error) {
	rf, err := s.readRecordFile(name)
	if err != nil {
		return nil, err
	}
	return rf.Record, nil
}

// UpdateAddress rewrites a record's stored address once resolution has
// produced one. The encrypted mnemonic is untouched.
func (s *Store) UpdateAddress(name, address string) error {
	rf, err := s.readRecordFile(name)
	if err != nil {
		return err
	}

	rf.Record.Address = address

	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	if err := fileutil.WriteAtomic(s.recordPath(name), data, recordFilePermissions); err != nil {
		return fmt.Errorf("writing record file: %w", err)
	}

	return nil
}

// Exists checks if a record with the given name is stored.
func (s *Store) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}

	_, err := os.Stat(s.recordPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all stored wallet names in sorted order.
func (s *Store) List() ([]string, error) {
	if err := os.MkdirAll(s.basePath, recordDirPermissions); err != nil {
		return nil, fmt.Errorf("creating keystore directory: %w", err)
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading keystore directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, recordFileExtension) {
			names = append(names, strings.TrimSuffix(name, recordFileExtension))
		}
	}

	sort.Strings(names)
	return names, nil
}

// Delete removes a stored record.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	path := s.recordPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return scriperr.WithDetails(scriperr.ErrKeystoreNotFound,
			map[string]string{"name": name})
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing record file: %w", err)
	}

	return nil
}

// readRecordFile validates the name, reads the file, and parses it.
func (s *Store) readRecordFile(name string) (*recordFile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	path := s.recordPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, scriperr.WithDetails(scriperr.ErrKeystoreNotFound,
			map[string]string{"name": name})
	}

	// Path is restricted to [a-zA-Z0-9_-]{1,64} by ValidateName, joined
	// with a fixed extension, and traversal-checked by recordPath.
	//nolint:gosec // G304: path validated by ValidateName + recordPath
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record file: %w", err)
	}

	var rf recordFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing record file: %w", err)
	}
	if rf.Record == nil {
		return nil, fmt.Errorf("parsing record file: %w", scriperr.ErrInvalidInput)
	}

	return &rf, nil
}

// recordPath returns the full path for a record file. The name has
// already been validated to match [a-zA-Z0-9_-]{1,64}, which prevents
// path traversal.
func (s *Store) recordPath(name string) string {
	path := filepath.Join(s.basePath, name+recordFileExtension)

	cleanPath := filepath.Clean(path)
	expectedSuffix := string(filepath.Separator) + name + recordFileExtension

	if !strings.HasSuffix(cleanPath, expectedSuffix) {
		// Caller will fail with file-not-found; ValidateName should
		// prevent reaching this.
		return ""
	}

	return cleanPath
}

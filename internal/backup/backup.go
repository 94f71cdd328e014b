package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scriplabs/scrip/internal/fileutil"
	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/secure"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

const (
	// BackupExtension is the file extension for backup archives.
	BackupExtension = ".scripbak"

	// backupDirPermissions is the permission mode for the backup directory.
	backupDirPermissions = 0o750

	// backupFilePermissions is the permission mode for backup files.
	backupFilePermissions = 0o600
)

// Keystore is the slice of the record store that backups read and write.
type Keystore interface {
	Load(name string, password []byte) (*keystore.Record, string, error)
	Save(rec *keystore.Record, mnemonic string, password []byte) error
}

// Service creates, inspects, and restores wallet backups under a
// single directory.
type Service struct {
	dir   string
	store Keystore
}

// NewService creates a backup service writing to dir.
func NewService(dir string, store Keystore) *Service {
	return &Service{dir: dir, store: store}
}

// Create backs up a stored wallet. The same password that unlocks the
// wallet encrypts the backup. The password should be zeroed by the
// caller after this call returns.
func (s *Service) Create(walletName string, password []byte) (*Backup, string, error) {
	rec, mnemonic, err := s.store.Load(walletName, password)
	if err != nil {
		return nil, "", fmt.Errorf("loading wallet: %w", err)
	}

	payload, err := json.Marshal(walletPayload{Record: rec, Mnemonic: mnemonic})
	if err != nil {
		return nil, "", fmt.Errorf("serializing payload: %w", err)
	}
	defer secure.Zero(payload)

	encrypted, err := secure.Encrypt(payload, string(password))
	if err != nil {
		return nil, "", fmt.Errorf("encrypting backup: %w", err)
	}

	b := NewBackup(NewManifest(rec), encrypted)

	path, err := s.writeBackup(b)
	if err != nil {
		return nil, "", fmt.Errorf("writing backup: %w", err)
	}

	return b, path, nil
}

// Verify checks a backup's structure and checksum without decrypting.
func (s *Service) Verify(backupPath string) (*Manifest, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b.Manifest, nil
}

// VerifyWithDecryption checks a backup and proves the password opens
// it. The password should be zeroed by the caller after this call
// returns.
func (s *Service) VerifyWithDecryption(backupPath string, password []byte) (*Manifest, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	decrypted, err := secure.Decrypt(b.EncryptedData, string(password))
	if err != nil {
		return nil, scriperr.ErrDecryptionFailed
	}
	secure.Zero(decrypted)

	return &b.Manifest, nil
}

// Restore saves the wallet inside a backup back into the keystore,
// optionally under a new name. Restoring over an existing wallet is
// refused by the store. The password should be zeroed by the caller
// after this call returns.
func (s *Service) Restore(backupPath string, password []byte, newName string) (*keystore.Record, error) {
	b, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	decrypted, err := secure.Decrypt(b.EncryptedData, string(password))
	if err != nil {
		return nil, scriperr.ErrDecryptionFailed
	}
	defer secure.Zero(decrypted)

	var payload walletPayload
	if err := json.Unmarshal(decrypted, &payload); err != nil {
		return nil, scriperr.WithSuggestion(scriperr.ErrBackupInvalid,
			"the decrypted payload does not parse; the backup may predate this version")
	}
	if payload.Record == nil || payload.Mnemonic == "" {
		return nil, scriperr.WithSuggestion(scriperr.ErrBackupInvalid,
			"the decrypted payload is missing the record or mnemonic")
	}

	if newName != "" {
		payload.Record.Name = newName
	}

	if err := s.store.Save(payload.Record, payload.Mnemonic, password); err != nil {
		return nil, fmt.Errorf("saving restored wallet: %w", err)
	}

	return payload.Record, nil
}

// List returns the backup filenames in the backup directory, sorted by
// name. The timestamped naming makes that oldest-first per wallet.
func (s *Service) List() ([]string, error) {
	if err := os.MkdirAll(s.dir, backupDirPermissions); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == BackupExtension {
			backups = append(backups, entry.Name())
		}
	}

	return backups, nil
}

// BackupPath returns the full path for a backup filename.
func (s *Service) BackupPath(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *Service) writeBackup(b *Backup) (string, error) {
	if err := os.MkdirAll(s.dir, backupDirPermissions); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	filename := fmt.Sprintf("%s-%s%s", b.Manifest.WalletName, timestamp, BackupExtension)
	path := filepath.Join(s.dir, filename)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing backup: %w", err)
	}

	if err := fileutil.WriteAtomic(path, data, backupFilePermissions); err != nil {
		return "", fmt.Errorf("writing backup file: %w", err)
	}

	return path, nil
}

func (s *Service) readBackup(path string) (*Backup, error) {
	// #nosec G304 -- path is from user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scriperr.WithDetails(scriperr.ErrBackupNotFound,
				map[string]string{"path": path})
		}
		return nil, fmt.Errorf("reading backup file: %w", err)
	}

	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, scriperr.WithDetails(scriperr.ErrBackupInvalid,
			map[string]string{"path": path})
	}

	return &b, nil
}

package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/scriplabs/scrip/internal/fileutil"
	"github.com/scriplabs/scrip/internal/secure"
)

const (
	// sessionFileExtension is the extension for session files.
	sessionFileExtension = ".session"

	// sessionFilePermissions is the permission mode for session files.
	sessionFilePermissions = 0o600

	// sessionDirPermissions is the permission mode for the sessions
	// directory.
	sessionDirPermissions = 0o700

	// sessionKeyLength is the random session key size in bytes.
	sessionKeyLength = 32

	// probeTimeout bounds the keychain probe so a hung keychain
	// daemon cannot stall startup.
	probeTimeout = 3 * time.Second
)

//nolint:gochecknoglobals // compiled pattern and package sentinel
var (
	// walletNameRegex mirrors keystore name validation at the session
	// boundary without importing the keystore package.
	walletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

	errInvalidWalletName = fmt.Errorf("invalid wallet name")
)

// sessionFile is the on-disk session structure.
type sessionFile struct {
	// Session contains the session metadata.
	Session *Session `json:"session"`

	// EncryptedMnemonic is the session-key-encrypted mnemonic bytes.
	EncryptedMnemonic []byte `json:"encrypted_mnemonic"`
}

// Manager stores sessions as files under one directory with their keys
// in the OS keychain.
type Manager struct {
	dir       string
	keyring   Keyring
	available bool
	mu        sync.RWMutex
}

// NewManager creates a session manager rooted at dir. A nil keyring
// selects the platform keychain. The keychain is probed once here; an
// unusable keychain disables session caching for the process.
func NewManager(dir string, kr Keyring) *Manager {
	if kr == nil {
		kr = NewOSKeyring()
	}

	m := &Manager{
		dir:     dir,
		keyring: kr,
	}
	m.available = m.probeKeyring()

	return m
}

// Available reports whether session caching can be used.
func (m *Manager) Available() bool {
	return m.available
}

// Unlock opens a session holding the wallet's mnemonic for ttl. The
// mnemonic is sealed with a fresh random key; the key goes to the
// keychain, the ciphertext to the session file. A ttl of zero means
// DefaultTTL and anything outside [MinTTL, MaxTTL] is clamped.
func (m *Manager) Unlock(wallet, mnemonic string, ttl time.Duration) error {
	if !walletNameRegex.MatchString(wallet) {
		return errInvalidWalletName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return ErrKeyringUnavailable
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	key := make([]byte, sessionKeyLength)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generating session key: %w", err)
	}
	defer secure.Zero(key)

	encrypted, err := secure.Encrypt([]byte(mnemonic), hex.EncodeToString(key))
	if err != nil {
		return fmt.Errorf("encrypting mnemonic: %w", err)
	}

	user := keyringUser(wallet)
	if err := m.keyring.Set(ServiceName, user, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("storing session key: %w", err)
	}

	now := time.Now()
	sf := sessionFile{
		Session: &Session{
			Wallet:    wallet,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		},
		EncryptedMnemonic: encrypted,
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.MkdirAll(m.dir, sessionDirPermissions); err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return fmt.Errorf("creating sessions directory: %w", err)
	}

	if err := fileutil.WriteAtomic(m.sessionPath(wallet), data, sessionFilePermissions); err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return fmt.Errorf("writing session file: %w", err)
	}

	return nil
}

// Mnemonic returns the cached mnemonic for an active session. Expired,
// corrupt, and key-less sessions are cleaned up on the way out.
func (m *Manager) Mnemonic(wallet string) (string, *Session, error) {
	if !walletNameRegex.MatchString(wallet) {
		return "", nil, errInvalidWalletName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return "", nil, ErrKeyringUnavailable
	}

	//nolint:gosec // G304: path restricted by walletNameRegex
	data, err := os.ReadFile(m.sessionPath(wallet))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, fmt.Errorf("reading session file: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil || sf.Session == nil {
		_ = m.remove(wallet)
		return "", nil, ErrCorrupted
	}

	if !sf.Session.Active() {
		_ = m.remove(wallet)
		return "", nil, ErrExpired
	}

	user := keyringUser(wallet)
	encodedKey, err := m.keyring.Get(ServiceName, user)
	if err != nil {
		// Key gone while the file survived: stale session.
		_ = m.remove(wallet)
		return "", nil, ErrNotFound
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		_ = m.remove(wallet)
		return "", nil, ErrCorrupted
	}
	defer secure.Zero(key)

	mnemonic, err := secure.Decrypt(sf.EncryptedMnemonic, hex.EncodeToString(key))
	if err != nil {
		_ = m.remove(wallet)
		return "", nil, ErrCorrupted
	}

	return string(mnemonic), sf.Session, nil
}

// Active reports whether the wallet has a live session.
func (m *Manager) Active(wallet string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return false
	}

	//nolint:gosec // G304: path confined by sessionPath
	data, err := os.ReadFile(m.sessionPath(wallet))
	if err != nil {
		return false
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil || sf.Session == nil {
		return false
	}

	return sf.Session.Active()
}

// Lock ends the wallet's session, removing both the session file and
// the keychain entry. Locking a wallet without a session is not an
// error.
func (m *Manager) Lock(wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.remove(wallet)
}

// LockAll ends every active session and returns how many were ended.
func (m *Manager) LockAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.list()
	if err != nil {
		return 0
	}

	ended := 0
	for _, s := range sessions {
		if m.remove(s.Wallet) == nil {
			ended++
		}
	}

	return ended
}

// Sessions returns all active sessions, ordered by wallet name.
func (m *Manager) Sessions() ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.list()
}

// probeKeyring checks that the keychain round-trips a value, bounded
// by probeTimeout.
func (m *Manager) probeKeyring() bool {
	ch := make(chan bool, 1)
	go func() {
		ch <- m.probeOnce()
	}()

	select {
	case ok := <-ch:
		return ok
	case <-time.After(probeTimeout):
		return false
	}
}

func (m *Manager) probeOnce() bool {
	const (
		service = "scrip-probe"
		user    = "probe"
		value   = "ok"
	)

	if err := m.keyring.Set(service, user, value); err != nil {
		return false
	}

	got, err := m.keyring.Get(service, user)
	if err != nil || got != value {
		_ = m.keyring.Delete(service, user)
		return false
	}

	return m.keyring.Delete(service, user) == nil
}

// list returns the active sessions. ReadDir yields entries sorted by
// filename, so the result is ordered by wallet name. Callers hold the
// lock.
func (m *Manager) list() ([]*Session, error) {
	if !m.available {
		return nil, ErrKeyringUnavailable
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionFileExtension) {
			continue
		}

		wallet := strings.TrimSuffix(entry.Name(), sessionFileExtension)

		//nolint:gosec // G304: path confined to the session directory
		data, readErr := os.ReadFile(m.sessionPath(wallet))
		if readErr != nil {
			continue
		}

		var sf sessionFile
		if unmarshalErr := json.Unmarshal(data, &sf); unmarshalErr != nil || sf.Session == nil {
			continue
		}

		if sf.Session.Active() {
			sessions = append(sessions, sf.Session)
		}
	}

	return sessions, nil
}

// remove deletes the session file and keychain entry. Callers hold the
// lock.
func (m *Manager) remove(wallet string) error {
	_ = m.keyring.Delete(ServiceName, keyringUser(wallet))

	if err := os.Remove(m.sessionPath(wallet)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}

	return nil
}

// keyringUser returns the keychain account name for a wallet.
func keyringUser(wallet string) string {
	return "wallet:" + wallet
}

// sessionPath returns the session file path for a wallet. Names are
// matched against walletNameRegex before use, which prevents
// traversal.
func (m *Manager) sessionPath(wallet string) string {
	path := filepath.Clean(filepath.Join(m.dir, wallet+sessionFileExtension))

	if !strings.HasSuffix(path, string(filepath.Separator)+wallet+sessionFileExtension) {
		return ""
	}

	return path
}

// Package session caches an unlocked wallet between commands. The
// mnemonic is encrypted with a random key held in the OS keychain
// while the ciphertext sits in a session file, so neither alone is
// enough to recover it. Sessions lapse after a bounded TTL.
package session

import (
	"errors"
	"time"
)

const (
	// DefaultTTL is the session duration when none is configured.
	DefaultTTL = 15 * time.Minute

	// MinTTL is the shortest allowed session duration.
	MinTTL = 1 * time.Minute

	// MaxTTL is the longest allowed session duration.
	MaxTTL = 60 * time.Minute

	// ServiceName is the keychain service under which session keys
	// are stored.
	ServiceName = "scrip-session"
)

//nolint:gochecknoglobals // package sentinels
var (
	// ErrNotFound indicates no session exists for the wallet.
	ErrNotFound = errors.New("session not found")

	// ErrExpired indicates the session has lapsed.
	ErrExpired = errors.New("session expired")

	// ErrKeyringUnavailable indicates the OS keychain cannot be used.
	ErrKeyringUnavailable = errors.New("keyring unavailable")

	// ErrCorrupted indicates the session file cannot be trusted.
	ErrCorrupted = errors.New("session corrupted")
)

// Session is the metadata for one unlocked wallet.
type Session struct {
	Wallet    string    `json:"wallet"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the session is still inside its TTL.
func (s *Session) Active() bool {
	return time.Now().Before(s.ExpiresAt)
}

// Remaining returns the time left before expiry, 0 once lapsed.
func (s *Session) Remaining() time.Duration {
	left := time.Until(s.ExpiresAt)
	if left < 0 {
		return 0
	}
	return left
}

// Keyring is the secret store holding session keys. The indirection
// lets tests swap the OS keychain out.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

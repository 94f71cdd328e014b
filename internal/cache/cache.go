// Package cache persists resolved account addresses between runs.
//
// Derivation is deterministic: one public key on one network maps to
// exactly one address, forever. Caching the mapping lets repeat
// commands skip the derivation service entirely.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/scriplabs/scrip/internal/ledger"
)

// DefaultMaxAge bounds how long an unused entry is kept. Entries never
// become wrong, so pruning only caps file growth.
const DefaultMaxAge = 30 * 24 * time.Hour

// Entry is one resolved derivation.
type Entry struct {
	Network   ledger.Network `json:"network"`
	PublicKey string         `json:"public_key"`
	Address   string         `json:"address"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AddressCache maps derivation inputs to resolved addresses.
type AddressCache struct {
	mu      sync.RWMutex
	Entries map[string]Entry `json:"entries"`
}

// NewAddressCache creates an empty address cache.
func NewAddressCache() *AddressCache {
	return &AddressCache{
		Entries: make(map[string]Entry),
	}
}

// Key builds the cache key for a public key on a network.
func Key(network ledger.Network, publicKey []byte) string {
	return string(network) + ":" + hex.EncodeToString(publicKey)
}

// Get returns the cached entry for a public key on a network.
func (c *AddressCache) Get(network ledger.Network, publicKey []byte) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[Key(network, publicKey)]
	return entry, ok
}

// Set stores a resolved address, stamping the entry with the current
// time.
func (c *AddressCache) Set(network ledger.Network, publicKey []byte, address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(network, publicKey)
	c.Entries[key] = Entry{
		Network:   network,
		PublicKey: hex.EncodeToString(publicKey),
		Address:   address,
		UpdatedAt: time.Now().UTC(),
	}
}

// Delete removes the entry for a public key on a network.
func (c *AddressCache) Delete(network ledger.Network, publicKey []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.Entries, Key(network, publicKey))
}

// Clear removes all entries.
func (c *AddressCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries = make(map[string]Entry)
}

// Size returns the number of entries.
func (c *AddressCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.Entries)
}

// Prune removes entries older than maxAge and returns how many were
// dropped.
func (c *AddressCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, entry := range c.Entries {
		if entry.UpdatedAt.Before(cutoff) {
			delete(c.Entries, key)
			removed++
		}
	}
	return removed
}

// MarshalJSON holds the read lock so saves are safe alongside
// concurrent Sets.
func (c *AddressCache) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return json.Marshal(struct {
		Entries map[string]Entry `json:"entries"`
	}{Entries: c.Entries})
}

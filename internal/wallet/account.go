package wallet

import (
	"sync"
)

// DerivedAccount is one index-addressed identity inside a wallet: key
// material plus the resolution state of its ledger address. Accounts are
// created by the registry and live for the wallet's lifetime. External
// readers only ever observe copies; all mutation goes through the
// resolver and registry.
type DerivedAccount struct {
	index uint32
	keys  *KeyPair

	mu      sync.RWMutex
	address AddressState
}

func newDerivedAccount(index uint32, keys *KeyPair) *DerivedAccount {
	return &DerivedAccount{
		index:   index,
		keys:    keys,
		address: PendingAddress(index),
	}
}

// Index returns the account's derivation index.
func (a *DerivedAccount) Index() uint32 {
	return a.index
}

// Path returns the human-readable derivation path.
func (a *DerivedAccount) Path() string {
	return a.keys.Path
}

// Scheme returns the derivation scheme that produced this account.
func (a *DerivedAccount) Scheme() Scheme {
	return a.keys.Scheme
}

// PublicKey returns a copy of the account's public key bytes.
func (a *DerivedAccount) PublicKey() []byte {
	return a.keys.PublicKey()
}

// Address returns the current address state. The result is a snapshot;
// the account may resolve concurrently.
func (a *DerivedAccount) Address() AddressState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.address
}

// AddressString returns the placeholder or resolved address as a string.
func (a *DerivedAccount) AddressString() string {
	return a.Address().String()
}

// Sign signs data with the account's private key.
func (a *DerivedAccount) Sign(data []byte) ([]byte, error) {
	return a.keys.Sign(data)
}

// markResolved transitions the address from Pending to Resolved. The
// first resolution wins; later calls are no-ops so a resolved address can
// never regress. Returns true when this call performed the transition.
func (a *DerivedAccount) markResolved(address string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.address.Resolved() {
		return false
	}
	a.address = ResolvedAddress(address)
	return true
}

// destroy zeroes the account's private key material.
func (a *DerivedAccount) destroy() {
	a.keys.Destroy()
}

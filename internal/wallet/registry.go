package wallet

import (
	"sort"
	"sync"
)

// AccountRegistry caches derived accounts by index and tracks which one is
// current. Each wallet owns exactly one registry; there is no process-wide
// account state. The mutex guarantees at most one derivation per index
// even under concurrent access.
type AccountRegistry struct {
	mu       sync.Mutex
	engine   *KeyDerivationEngine
	accounts map[uint32]*DerivedAccount
	current  uint32
}

// NewAccountRegistry builds an empty registry over a derivation engine.
func NewAccountRegistry(engine *KeyDerivationEngine) *AccountRegistry {
	return &AccountRegistry{
		engine:   engine,
		accounts: make(map[uint32]*DerivedAccount),
	}
}

// GetOrDerive returns the cached account for an index, deriving and
// inserting it on first request. The returned bool is true when this call
// created the account. Concurrent callers for the same uncached index
// serialize on the registry lock and observe the same account.
func (r *AccountRegistry) GetOrDerive(index uint32) (*DerivedAccount, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.accounts[index]; ok {
		return account, false, nil
	}

	keys, err := r.engine.Derive(index)
	if err != nil {
		return nil, false, err
	}

	account := newDerivedAccount(index, keys)
	r.accounts[index] = account
	return account, true, nil
}

// Get returns the cached account for an index, if present.
func (r *AccountRegistry) Get(index uint32) (*DerivedAccount, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[index]
	return account, ok
}

// SwitchCurrent moves the current-account pointer, deriving the target
// account first if it does not exist yet. Other accounts are untouched.
func (r *AccountRegistry) SwitchCurrent(index uint32) (*DerivedAccount, bool, error) {
	account, created, err := r.GetOrDerive(index)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	r.current = index
	r.mu.Unlock()
	return account, created, nil
}

// Current returns the current account, or nil if nothing was derived yet.
func (r *AccountRegistry) Current() *DerivedAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[r.current]
}

// CurrentIndex returns the index the current pointer is on.
func (r *AccountRegistry) CurrentIndex() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// All returns every derived account ordered by index.
func (r *AccountRegistry) All() []*DerivedAccount {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*DerivedAccount, 0, len(r.accounts))
	for _, account := range r.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Index() < out[j].Index()
	})
	return out
}

// Len returns the number of derived accounts.
func (r *AccountRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// destroyAll zeroes key material for every account.
func (r *AccountRegistry) destroyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		account.destroy()
	}
}

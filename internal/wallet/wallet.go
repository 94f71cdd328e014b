package wallet

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"

	"github.com/scriplabs/scrip/internal/ledger"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// DefaultResolveTimeout bounds a single background resolution attempt.
const DefaultResolveTimeout = 30 * time.Second

// Options configures wallet construction. The zero value selects the
// stokenet network, the hash derivation scheme, and wall-clock timing.
type Options struct {
	// Network selects which ledger network addresses resolve against.
	Network ledger.Network

	// Scheme selects the key derivation scheme. Empty means hash.
	Scheme Scheme

	// Passphrase is the optional BIP39 passphrase.
	Passphrase string

	// Clock drives resolution polling. Nil means wall clock.
	Clock clock.Clock

	// MaxPollAttempts and PollInterval bound WaitForProperAddress.
	// Zero values select the resolver defaults.
	MaxPollAttempts int
	PollInterval    time.Duration

	// ResolveTimeout bounds each background resolution attempt.
	ResolveTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.Network == "" {
		o.Network = ledger.Stokenet
	}
	if o.Scheme == "" {
		o.Scheme = SchemeHash
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = DefaultResolveTimeout
	}
}

// Wallet is the composition root for one ledger identity: seed material,
// the derivation engine, the address resolver, and the account registry.
// It exposes signing and identity operations; everything mutable behind it
// is owned exclusively by this instance.
type Wallet struct {
	seed     *SeedMaterial
	engine   *KeyDerivationEngine
	resolver *AddressResolver
	registry *AccountRegistry
	network  ledger.Network

	maxPollAttempts int
	pollInterval    time.Duration
	resolveTimeout  time.Duration

	resolveWG sync.WaitGroup
	closeOnce sync.Once
}

// NewPending constructs a wallet from a 24-word mnemonic and derives
// account 0 with a placeholder address. No network call is made: address
// resolution is a separate phase, started explicitly via StartResolution
// or performed synchronously via ResolveAddress.
func NewPending(mnemonic string, deriver ledger.AddressDeriver, opts Options) (*Wallet, error) {
	opts.withDefaults()

	seed, err := NewSeedMaterial(mnemonic, opts.Passphrase)
	if err != nil {
		return nil, err
	}

	engine, err := NewKeyDerivationEngine(seed, opts.Scheme)
	if err != nil {
		seed.Destroy()
		return nil, err
	}

	w := &Wallet{
		seed:            seed,
		engine:          engine,
		resolver:        NewAddressResolver(deriver, opts.Network, opts.Clock),
		registry:        NewAccountRegistry(engine),
		network:         opts.Network,
		maxPollAttempts: opts.MaxPollAttempts,
		pollInterval:    opts.PollInterval,
		resolveTimeout:  opts.ResolveTimeout,
	}

	if _, _, err := w.registry.GetOrDerive(0); err != nil {
		w.destroy()
		return nil, err
	}
	return w, nil
}

// New constructs a wallet and immediately starts background resolution of
// account 0. Callers that need the real address block on
// WaitForProperAddress.
func New(ctx context.Context, mnemonic string, deriver ledger.AddressDeriver, opts Options) (*Wallet, error) {
	w, err := NewPending(mnemonic, deriver, opts)
	if err != nil {
		return nil, err
	}
	w.StartResolution(ctx, w.CurrentAccount())
	return w, nil
}

// Generate creates a fresh 24-word mnemonic and a wallet from it, with
// background resolution already running. The mnemonic is returned exactly
// once for the caller to display or store; the wallet itself never
// retains it.
func Generate(ctx context.Context, deriver ledger.AddressDeriver, opts Options) (*Wallet, string, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, "", scriperr.Wrap(err, "generating mnemonic")
	}

	w, err := New(ctx, mnemonic, deriver, opts)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

// StartResolution kicks off one background resolution attempt for the
// account. The attempt is bounded by the wallet's resolve timeout and
// tracked so Close can wait for it. Failures leave the account pending;
// WaitForProperAddress retries directly as a last resort.
func (w *Wallet) StartResolution(ctx context.Context, account *DerivedAccount) {
	if account == nil {
		return
	}
	w.resolveWG.Add(1)
	go func() {
		defer w.resolveWG.Done()

		rctx, cancel := context.WithTimeout(ctx, w.resolveTimeout)
		defer cancel()

		if _, err := w.resolver.Resolve(rctx, account); err != nil {
			log.WithField("index", account.Index()).
				WithError(err).
				Debug("background address resolution did not complete")
		}
	}()
}

// ResolveAddress performs one synchronous resolution of the current
// account and returns the resolved address.
func (w *Wallet) ResolveAddress(ctx context.Context) (string, error) {
	return w.resolver.Resolve(ctx, w.CurrentAccount())
}

// Address returns the current account's address. Until resolution
// completes this is the placeholder form, which downstream code must not
// use for network operations.
func (w *Wallet) Address() string {
	return w.CurrentAccount().AddressString()
}

// AddressState returns the current account's tagged address state.
func (w *Wallet) AddressState() AddressState {
	return w.CurrentAccount().Address()
}

// WaitForProperAddress blocks until the current account's address is
// resolved, polling within the wallet's configured bounds and forcing one
// direct resolution call if polling alone does not get there.
func (w *Wallet) WaitForProperAddress(ctx context.Context) error {
	return w.resolver.AwaitResolution(ctx, w.CurrentAccount(), w.maxPollAttempts, w.pollInterval)
}

// Sign signs arbitrary bytes with the current account's private key and
// returns the signature hex encoded.
func (w *Wallet) Sign(data []byte) (string, error) {
	sig, err := w.CurrentAccount().Sign(data)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// PublicKey returns a copy of the current account's public key.
func (w *Wallet) PublicKey() []byte {
	return w.CurrentAccount().PublicKey()
}

// PublicKeyHex returns the current account's public key hex encoded.
func (w *Wallet) PublicKeyHex() string {
	return hex.EncodeToString(w.PublicKey())
}

// CurrentAccount returns the account the current pointer is on.
func (w *Wallet) CurrentAccount() *DerivedAccount {
	return w.registry.Current()
}

// Account returns the account at an index, deriving it on first use.
// Newly derived accounts start with a placeholder address.
func (w *Wallet) Account(index uint32) (*DerivedAccount, error) {
	account, _, err := w.registry.GetOrDerive(index)
	return account, err
}

// SwitchAccount moves the current pointer to an index, deriving the
// account if needed, and starts background resolution for it when it was
// just created.
func (w *Wallet) SwitchAccount(ctx context.Context, index uint32) (*DerivedAccount, error) {
	account, created, err := w.registry.SwitchCurrent(index)
	if err != nil {
		return nil, err
	}
	if created {
		w.StartResolution(ctx, account)
	}
	return account, nil
}

// Accounts returns every derived account ordered by index.
func (w *Wallet) Accounts() []*DerivedAccount {
	return w.registry.All()
}

// Network returns the wallet's ledger network.
func (w *Wallet) Network() ledger.Network {
	return w.network
}

// Resolver exposes the wallet's address resolver to collaborators that
// need bounded waits on specific accounts.
func (w *Wallet) Resolver() *AddressResolver {
	return w.resolver
}

// Close waits for in-flight background resolutions and zeroes all key
// material. The wallet must not be used afterwards. Safe to call more
// than once.
func (w *Wallet) Close() {
	w.closeOnce.Do(func() {
		w.resolveWG.Wait()
		w.destroy()
	})
}

func (w *Wallet) destroy() {
	w.registry.destroyAll()
	w.seed.Destroy()
}

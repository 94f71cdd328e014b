package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/cache"
	"github.com/scriplabs/scrip/internal/config"
	"github.com/scriplabs/scrip/internal/discovery"
	"github.com/scriplabs/scrip/internal/faucet"
	"github.com/scriplabs/scrip/internal/keystore"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/ledger/gateway"
	"github.com/scriplabs/scrip/internal/secure"
	"github.com/scriplabs/scrip/internal/session"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// resolvedNetwork parses the configured network name.
func resolvedNetwork() (ledger.Network, error) {
	network, ok := ledger.ParseNetwork(cfg.GetNetwork())
	if !ok {
		return "", scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrInvalidInput,
				map[string]string{"network": cfg.GetNetwork()}),
			"network must be mainnet or stokenet",
		)
	}
	return network, nil
}

// gatewayClient builds the gateway client for the configured network.
// An empty configured URL selects the network's built-in endpoint.
func gatewayClient(network ledger.Network) *gateway.Client {
	return gateway.NewClient(&gateway.ClientOptions{
		BaseURL: cfg.Gateway.URL,
		Network: network,
		Timeout: cfg.GatewayTimeout(),
	})
}

// faucetClient builds the faucet client for the configured network.
func faucetClient(network ledger.Network) *faucet.Client {
	return faucet.NewClient(&faucet.ClientOptions{
		BaseURL: cfg.Faucet.URL,
		Network: network,
		Timeout: cfg.GatewayTimeout(),
	})
}

// walletDeriver returns the address deriver wallets are built with.
// When the address cache is enabled the gateway is wrapped so
// previously resolved addresses skip the network.
func walletDeriver(network ledger.Network) ledger.AddressDeriver {
	client := gatewayClient(network)
	if !cfg.Wallet.AddressCache {
		return client
	}
	return cache.NewDeriver(client, cache.NewFileStorage(addressCachePath()))
}

// scanGateway returns the gateway view account discovery scans with.
// The deriver side goes through the address cache, so addresses resolved
// during a scan are already cached when the account is next used.
func scanGateway(network ledger.Network) discovery.Gateway {
	return struct {
		ledger.AddressDeriver
		ledger.BalanceReader
	}{walletDeriver(network), gatewayClient(network)}
}

// addressCachePath returns the resolved-address cache file under the
// scrip home.
func addressCachePath() string {
	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	return filepath.Join(home, "cache", "addresses.json")
}

// walletOptions translates configuration into wallet construction options.
func walletOptions(network ledger.Network, schemeOverride string) (wallet.Options, error) {
	schemeName := cfg.Wallet.Scheme
	if schemeOverride != "" {
		schemeName = schemeOverride
	}
	scheme, err := wallet.ParseScheme(schemeName)
	if err != nil {
		return wallet.Options{}, err
	}

	return wallet.Options{
		Network:         network,
		Scheme:          scheme,
		MaxPollAttempts: cfg.Wallet.MaxPollAttempts,
		PollInterval:    cfg.PollInterval(),
		ResolveTimeout:  cfg.ResolveTimeout(),
	}, nil
}

// keystorePath returns the wallet record directory under the scrip home.
func keystorePath() string {
	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	return filepath.Join(home, "wallets")
}

// openStore returns the keystore rooted in the scrip home.
func openStore() *keystore.Store {
	return keystore.NewStore(keystorePath())
}

// backupsPath returns the backup directory under the scrip home.
func backupsPath() string {
	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	return filepath.Join(home, "backups")
}

// sessionStore is the slice of the session manager the CLI uses.
type sessionStore interface {
	Available() bool
	Unlock(wallet, mnemonic string, ttl time.Duration) error
	Mnemonic(wallet string) (string, *session.Session, error)
	Lock(wallet string) error
	LockAll() int
	Sessions() ([]*session.Session, error)
}

// newSessionManagerFn builds the session store. Tests swap in a stub
// so they never touch the OS keychain.
//
//nolint:gochecknoglobals // swapped by tests
var newSessionManagerFn = defaultSessionManager

// defaultSessionManager returns the session store rooted in the scrip
// home, backed by the platform keychain.
func defaultSessionManager() sessionStore {
	home, err := config.ExpandPath(cfg.GetHome())
	if err != nil {
		home = cfg.GetHome()
	}
	return session.NewManager(filepath.Join(home, "sessions"), nil)
}

// openWallet loads a stored record and reconstructs the wallet with
// background resolution running. An active session supplies the
// mnemonic without a prompt; otherwise the password is asked for. The
// stored record's network and scheme win over the current
// configuration because the identity is bound to them.
func openWallet(ctx context.Context, cmd *cobra.Command, name string) (*wallet.Wallet, *keystore.Record, error) {
	store := openStore()

	rec, err := store.LoadMetadata(name)
	if err != nil {
		return nil, nil, err
	}

	mnemonic, err := storedMnemonic(cmd, store, name)
	if err != nil {
		return nil, nil, err
	}

	opts, err := walletOptions(rec.Network, string(rec.Scheme))
	if err != nil {
		return nil, nil, err
	}

	w, err := wallet.New(ctx, mnemonic, walletDeriver(rec.Network), opts)
	if err != nil {
		return nil, nil, err
	}
	return w, rec, nil
}

// storedMnemonic decrypts the wallet's mnemonic, preferring an active
// session over a password prompt. A successful password entry starts a
// fresh session when caching is enabled and the keychain works.
func storedMnemonic(cmd *cobra.Command, store *keystore.Store, name string) (string, error) {
	var mgr sessionStore
	if cfg.Security.SessionEnabled {
		mgr = newSessionManagerFn()
		if mgr.Available() {
			if mnemonic, sess, err := mgr.Mnemonic(name); err == nil {
				out(cmd.ErrOrStderr(), "[Using cached session, expires in %s]\n",
					formatDuration(sess.Remaining()))
				return mnemonic, nil
			}
		}
	}

	password, err := promptPasswordFn("Enter wallet password: ")
	if err != nil {
		return "", err
	}
	defer secure.Zero(password)

	_, mnemonic, err := store.Load(name, password)
	if err != nil {
		return "", err
	}

	if mgr != nil && mgr.Available() {
		ttl := sessionTTL()
		if unlockErr := mgr.Unlock(name, mnemonic, ttl); unlockErr == nil {
			out(cmd.ErrOrStderr(), "[Session started, expires in %s]\n", formatDuration(ttl))
		}
	}

	return mnemonic, nil
}

// sessionTTL returns the configured session duration clamped to the
// manager's bounds, so messages match what the manager grants.
func sessionTTL() time.Duration {
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if ttl < session.MinTTL {
		ttl = session.MinTTL
	}
	if ttl > session.MaxTTL {
		ttl = session.MaxTTL
	}
	return ttl
}

// fundingOptions translates the configured funding amounts into
// orchestrator options. Bad amount strings surface as typed errors
// instead of silently falling back.
func fundingOptions() (*faucet.Options, error) {
	minimum, err := ledger.ParseAmount(cfg.Funding.MinimumBalance)
	if err != nil {
		return nil, scriperr.Wrap(err, "parsing funding minimum_balance")
	}
	target, err := ledger.ParseAmount(cfg.Funding.TargetBalance)
	if err != nil {
		return nil, scriperr.Wrap(err, "parsing funding target_balance")
	}
	highWater, err := ledger.ParseAmount(cfg.Funding.HighWaterMark)
	if err != nil {
		return nil, scriperr.Wrap(err, "parsing funding high_water_mark")
	}

	return &faucet.Options{
		MinimumBalance:  minimum,
		TargetBalance:   target,
		HighWaterMark:   highWater,
		SettlementDelay: cfg.SettlementDelay(),
	}, nil
}

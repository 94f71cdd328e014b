package wallet

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/metrics"
	"github.com/scriplabs/scrip/pkg/circuitbreaker"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Polling bounds for AwaitResolution. Resolution normally completes on the
// first or second poll; the cap only matters when the derivation service
// is struggling.
const (
	DefaultMaxPollAttempts = 10
	DefaultPollInterval    = 500 * time.Millisecond
)

// AddressResolver turns an account's public key into a ledger-native
// address via the external derivation service, and manages the transition
// from placeholder to resolved value. A circuit breaker sits in front of
// the service so a dead endpoint fails fast instead of hammering it.
type AddressResolver struct {
	deriver ledger.AddressDeriver
	network ledger.Network
	breaker *gobreaker.CircuitBreaker
	clk     clock.Clock
}

// NewAddressResolver builds a resolver against a derivation service.
// A nil clk selects the wall clock; tests inject a fake.
func NewAddressResolver(deriver ledger.AddressDeriver, network ledger.Network, clk clock.Clock) *AddressResolver {
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	return &AddressResolver{
		deriver: deriver,
		network: network,
		breaker: circuitbreaker.New("derivation-service"),
		clk:     clk,
	}
}

// Network returns the network this resolver derives addresses for.
func (r *AddressResolver) Network() ledger.Network {
	return r.network
}

// ResolveSync returns the placeholder state for an index immediately,
// without touching the network.
func (r *AddressResolver) ResolveSync(index uint32) AddressState {
	return PendingAddress(index)
}

// Resolve calls the derivation service and, on success, applies the
// resolved address to the account. If the account resolved concurrently,
// the earlier value stands and this call's result is discarded. On
// failure the account keeps its prior state and the error is returned,
// never swallowed.
func (r *AddressResolver) Resolve(ctx context.Context, account *DerivedAccount) (string, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.deriver.DeriveAddress(ctx, account.PublicKey(), r.network)
	})
	metrics.Global.RecordResolution(err)
	if err != nil {
		log.WithFields(log.Fields{
			"index":   account.Index(),
			"network": r.network,
		}).WithError(err).Debug("address resolution failed")
		return "", scriperr.Wrap(scriperr.ErrResolutionFailed,
			"resolving address for account %d", account.Index())
	}

	address, ok := result.(string)
	if !ok || address == "" {
		return "", scriperr.ErrResolutionFailed
	}
	if err := ledger.ValidateAddress(r.network, address); err != nil {
		return "", scriperr.Wrap(err, "derivation service returned malformed address")
	}

	if account.markResolved(address) {
		log.WithFields(log.Fields{
			"index":   account.Index(),
			"address": address,
		}).Debug("account address resolved")
	}
	return account.AddressString(), nil
}

// AwaitResolution polls the account's address state until it resolves,
// for at most maxAttempts polls of pollInterval each. If the address is
// still pending after the polling window, one direct resolution call is
// made as a last resort. Always terminates.
func (r *AddressResolver) AwaitResolution(ctx context.Context, account *DerivedAccount, maxAttempts int, pollInterval time.Duration) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPollAttempts
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if account.Address().Resolved() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clk.TickAfter(pollInterval):
		}
	}

	if account.Address().Resolved() {
		return nil
	}

	// Background resolution never landed; force a direct call.
	log.WithField("index", account.Index()).
		Debug("address still pending after polling, forcing direct resolution")
	if _, err := r.Resolve(ctx, account); err != nil {
		return err
	}
	return nil
}

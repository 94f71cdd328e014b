package faucet

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/metrics"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Funding defaults. Amounts are in whole native tokens.
//
//nolint:gochecknoglobals // decimal constants cannot be const
var (
	// DefaultMinimumBalance is the floor the auto-funding path keeps
	// accounts above.
	DefaultMinimumBalance = decimal.NewFromInt(100)

	// DefaultTargetBalance is the grant size requested from the faucet
	// when an account falls below its minimum.
	DefaultTargetBalance = decimal.NewFromInt(1000)

	// DefaultHighWaterMark is the do-not-fund-further ceiling. Accounts
	// at or above it are never topped up by the auto-funding paths,
	// whatever minimum the caller asks for.
	DefaultHighWaterMark = decimal.NewFromInt(10000)
)

// DefaultSettlementDelay is how long the orchestrator waits after a
// strategy succeeds before re-checking the balance.
const DefaultSettlementDelay = 5 * time.Second

// MethodAllFailed is the verdict method when every strategy failed.
const MethodAllFailed = "all_failed"

// Options configures a funding orchestrator. The zero value selects
// the defaults above with a real clock.
type Options struct {
	// MinimumBalance and TargetBalance are the amounts AutoFund uses.
	MinimumBalance decimal.Decimal
	TargetBalance  decimal.Decimal

	// HighWaterMark caps auto-funding. Zero selects the default.
	HighWaterMark decimal.Decimal

	// SettlementDelay overrides the post-funding wait.
	SettlementDelay time.Duration

	// Clock drives the settlement delay. Injectable for tests.
	Clock clock.Clock
}

func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if !out.MinimumBalance.IsPositive() {
		out.MinimumBalance = DefaultMinimumBalance
	}
	if !out.TargetBalance.IsPositive() {
		out.TargetBalance = DefaultTargetBalance
	}
	if !out.HighWaterMark.IsPositive() {
		out.HighWaterMark = DefaultHighWaterMark
	}
	if out.SettlementDelay <= 0 {
		out.SettlementDelay = DefaultSettlementDelay
	}
	if out.Clock == nil {
		out.Clock = clock.NewDefaultClock()
	}
	return out
}

// Verdict is the outcome of an explicit funding request.
type Verdict struct {
	// Success is true when some strategy submitted or found a duplicate.
	Success bool

	// Method names the strategy that succeeded, or MethodAllFailed.
	Method string

	// Err carries the final failure when no strategy succeeded.
	Err error
}

// Orchestrator guarantees account balances on test networks through a
// prioritized strategy cascade. It is safe for concurrent use;
// overlapping funding runs against the same address share a single
// cascade execution.
type Orchestrator struct {
	balances   ledger.BalanceReader
	strategies []Strategy
	clk        clock.Clock
	group      singleflight.Group

	minimum         decimal.Decimal
	target          decimal.Decimal
	highWater       decimal.Decimal
	settlementDelay time.Duration
}

// New creates a funding orchestrator over the given balance source and
// strategy cascade. Strategies are tried in slice order.
func New(balances ledger.BalanceReader, strategies []Strategy, opts *Options) *Orchestrator {
	cfg := opts.withDefaults()
	return &Orchestrator{
		balances:        balances,
		strategies:      strategies,
		clk:             cfg.Clock,
		minimum:         cfg.MinimumBalance,
		target:          cfg.TargetBalance,
		highWater:       cfg.HighWaterMark,
		settlementDelay: cfg.SettlementDelay,
	}
}

// EnsureMinimumBalance guarantees the wallet's balance is at least
// minimum, requesting a grant of target when it is not. Returns true
// when the balance meets the minimum afterwards. "Could not fund" is a
// normal false outcome, not an error; the only errors are an unresolved
// placeholder address and structurally invalid amounts.
func (o *Orchestrator) EnsureMinimumBalance(ctx context.Context, w Wallet, minimum, target decimal.Decimal) (bool, error) {
	address, err := o.fundableAddress(w)
	if err != nil {
		return false, err
	}
	if err := validateAmounts(minimum, target); err != nil {
		return false, err
	}
	return o.ensureAt(ctx, w, address, minimum, target), nil
}

// AutoFund tops the wallet up using the configured default amounts.
func (o *Orchestrator) AutoFund(ctx context.Context, w Wallet) (bool, error) {
	return o.EnsureMinimumBalance(ctx, w, o.minimum, o.target)
}

// ForceFund runs the strategy cascade unconditionally, skipping the
// balance sufficiency check. Used when the caller wants fresh funds
// regardless of the current balance. The unresolved-placeholder rule
// still applies; every other failure lands in the verdict.
func (o *Orchestrator) ForceFund(ctx context.Context, w Wallet) (Verdict, error) {
	address, err := o.fundableAddress(w)
	if err != nil {
		return Verdict{}, err
	}

	outcome := o.runCascade(ctx, w, address, o.target)
	if outcome.err != nil {
		return Verdict{Success: false, Method: MethodAllFailed, Err: outcome.err}, nil
	}
	return Verdict{Success: true, Method: outcome.method}, nil
}

// fundableAddress rejects wallets whose address has not resolved yet.
// Attempting any network operation against a placeholder is misuse, not
// bad luck, so it is the one condition that fails hard.
func (o *Orchestrator) fundableAddress(w Wallet) (string, error) {
	state := w.AddressState()
	if !state.Resolved() {
		return "", scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrAddressPending, map[string]string{
				"address": state.String(),
			}),
			"wait for address resolution to finish before funding",
		)
	}
	if err := ledger.ValidateAddress(w.Network(), state.String()); err != nil {
		return "", err
	}
	return state.String(), nil
}

func validateAmounts(minimum, target decimal.Decimal) error {
	if !minimum.IsPositive() {
		return scriperr.WithDetails(scriperr.ErrInvalidAmount, map[string]string{
			"minimum": minimum.String(),
		})
	}
	if target.LessThan(minimum) {
		return scriperr.WithDetails(scriperr.ErrInvalidAmount, map[string]string{
			"minimum": minimum.String(),
			"target":  target.String(),
		})
	}
	return nil
}

func (o *Orchestrator) ensureAt(ctx context.Context, w Wallet, address string, minimum, target decimal.Decimal) bool {
	flog := log.WithFields(log.Fields{
		"address": address,
		"minimum": minimum.String(),
	})

	balance, err := o.balances.GetBalance(ctx, address)
	if err != nil {
		flog.WithError(err).Warn("balance check failed")
		return false
	}

	if balance.GreaterThanOrEqual(minimum) {
		flog.WithField("balance", balance.String()).Debug("balance sufficient")
		return true
	}
	if balance.GreaterThanOrEqual(o.highWater) {
		flog.WithFields(log.Fields{
			"balance":    balance.String(),
			"high_water": o.highWater.String(),
		}).Info("balance at high-water mark, refusing to fund further")
		return false
	}

	outcome := o.runCascade(ctx, w, address, target)
	if outcome.err != nil {
		flog.WithError(outcome.err).Warn("funding failed")
		return false
	}

	if !o.awaitSettlement(ctx) {
		flog.Warn("canceled while awaiting settlement")
		return false
	}

	funded, err := o.balances.GetBalance(ctx, address)
	if err != nil {
		flog.WithError(err).Warn("post-funding balance check failed")
		return false
	}

	ok := funded.GreaterThanOrEqual(minimum)
	flog.WithFields(log.Fields{
		"method":  outcome.method,
		"balance": funded.String(),
		"funded":  ok,
	}).Info("funding run finished")
	return ok
}

type cascadeOutcome struct {
	status Status
	method string
	err    error
}

// runCascade executes the strategy cascade once per address at a time.
// Overlapping calls for the same address join the in-flight run and
// share its outcome, so repeated funding requests count as one event.
func (o *Orchestrator) runCascade(ctx context.Context, w Wallet, address string, amount decimal.Decimal) cascadeOutcome {
	v, _, _ := o.group.Do(address, func() (any, error) {
		return o.attemptStrategies(ctx, w, address, amount), nil
	})
	outcome, ok := v.(cascadeOutcome)
	if !ok {
		return cascadeOutcome{err: scriperr.ErrGeneral}
	}
	return outcome
}

// attemptStrategies tries each strategy in priority order, sequentially,
// until one reports submitted or duplicate. Strategy errors are logged
// and absorbed; only the cascade as a whole fails.
func (o *Orchestrator) attemptStrategies(ctx context.Context, w Wallet, address string, amount decimal.Decimal) cascadeOutcome {
	if len(o.strategies) == 0 {
		return cascadeOutcome{
			err: fmt.Errorf("%w: no funding strategies configured", scriperr.ErrFaucetUnavailable),
		}
	}

	var lastErr error
	for _, strategy := range o.strategies {
		slog := log.WithFields(log.Fields{
			"strategy": strategy.Name(),
			"address":  address,
		})
		slog.Debug("attempting funding strategy")

		status, err := strategy.Fund(ctx, w, amount)
		if err != nil {
			metrics.Global.RecordFundingAttempt("failed")
			slog.WithError(err).Warn("funding strategy failed")
			lastErr = err
			continue
		}

		metrics.Global.RecordFundingAttempt(string(status))
		slog.WithField("status", string(status)).Info("funding strategy succeeded")
		return cascadeOutcome{status: status, method: strategy.Name()}
	}

	return cascadeOutcome{
		err: fmt.Errorf("%w: all %d funding strategies failed: %w",
			scriperr.ErrFaucetUnavailable, len(o.strategies), lastErr),
	}
}

// awaitSettlement waits for ledger propagation after a successful
// strategy. Returns false when the context is canceled first.
func (o *Orchestrator) awaitSettlement(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-o.clk.TickAfter(o.settlementDelay):
		return true
	}
}

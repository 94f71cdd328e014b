package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Default scanning parameters.
const (
	// DefaultGapLimit is how many consecutive empty accounts end a scan.
	DefaultGapLimit = 20

	// ExtendedGapLimit is used for the highest priority profile, which
	// is the most likely to hold accounts beyond the standard gap.
	ExtendedGapLimit = 50

	// DefaultMaxWorkers bounds concurrent profile scans.
	DefaultMaxWorkers = 2

	// DefaultTimeout bounds a full discovery run.
	DefaultTimeout = 5 * time.Minute
)

// ErrScanCanceled marks results cut short by context cancellation.
var ErrScanCanceled = errors.New("scan canceled")

// Progress reports scanning feedback to the caller.
type Progress struct {
	// Phase is "scanning", "found", or "error".
	Phase string

	// Profile names the profile being scanned.
	Profile string

	// AccountsScanned is the number of accounts checked so far.
	AccountsScanned int

	// AccountsFound is the number of funded accounts found so far.
	AccountsFound int

	// BalanceFound is the balance discovered so far, in whole tokens.
	BalanceFound decimal.Decimal

	// CurrentAddress is the address just checked, when known.
	CurrentAddress string

	// Message carries additional context.
	Message string
}

// ProgressFunc receives updates during scanning.
type ProgressFunc func(Progress)

// Options configures a discovery scan.
type Options struct {
	// GapLimit is the number of consecutive empty accounts before a
	// profile scan stops. Default: DefaultGapLimit.
	GapLimit int

	// ExtendedGapLimit is used for the highest priority profile.
	// Default: ExtendedGapLimit.
	ExtendedGapLimit int

	// Profiles are the derivation schemes to scan.
	// Default: DefaultProfiles().
	Profiles []Profile

	// Passphrases are the BIP39 passphrase candidates to try. When
	// empty only the empty passphrase is scanned.
	Passphrases []string

	// MaxWorkers bounds concurrent profile scans in ParallelScanner.
	// Default: DefaultMaxWorkers.
	MaxWorkers int

	// Progress receives updates during scanning. Optional.
	Progress ProgressFunc
}

// DefaultOptions returns options with the standard limits.
func DefaultOptions() *Options {
	return &Options{
		GapLimit:         DefaultGapLimit,
		ExtendedGapLimit: ExtendedGapLimit,
		Profiles:         DefaultProfiles(),
		MaxWorkers:       DefaultMaxWorkers,
	}
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	if o.GapLimit <= 0 {
		return scriperr.WithDetails(scriperr.ErrInvalidInput,
			map[string]string{"gap_limit": fmt.Sprintf("%d", o.GapLimit)})
	}
	if o.MaxWorkers <= 0 {
		return scriperr.WithDetails(scriperr.ErrInvalidInput,
			map[string]string{"max_workers": fmt.Sprintf("%d", o.MaxWorkers)})
	}
	if len(o.Profiles) == 0 {
		return scriperr.WithDetails(scriperr.ErrInvalidInput,
			map[string]string{"profiles": "none configured"})
	}
	return nil
}

// DiscoveredAccount is an account index found holding funds.
type DiscoveredAccount struct {
	// Index is the derivation index the account lives at.
	Index uint32 `json:"index"`

	// Scheme is the derivation scheme that produced the account.
	Scheme wallet.Scheme `json:"scheme"`

	// Profile names the profile that found the account.
	Profile string `json:"profile"`

	// Address is the resolved ledger address.
	Address string `json:"address"`

	// Balance is the account balance in whole tokens.
	Balance decimal.Decimal `json:"balance"`

	// PassphraseIndex is the position of the passphrase candidate that
	// produced the account. Zero for the first (usually empty) one.
	PassphraseIndex int `json:"passphrase_index,omitempty"`
}

// Result is the outcome of a discovery scan.
type Result struct {
	// Found maps profile names to discovered accounts.
	Found map[string][]DiscoveredAccount `json:"found_accounts"`

	// TotalBalance is the sum of all discovered balances.
	TotalBalance decimal.Decimal `json:"total_balance"`

	// ProfilesScanned lists the profiles that were scanned.
	ProfilesScanned []string `json:"profiles_scanned"`

	// AccountsScanned is the total number of accounts checked.
	AccountsScanned int `json:"accounts_scanned"`

	// Duration is how long the scan took.
	Duration time.Duration `json:"duration"`

	// PassphraseUsed is true when funds were found under a non-empty
	// passphrase. The passphrase itself is never recorded.
	PassphraseUsed bool `json:"passphrase_used,omitempty"`

	// Errors lists non-fatal problems hit while scanning.
	Errors []string `json:"errors,omitempty"`
}

func newResult() *Result {
	return &Result{
		Found:        make(map[string][]DiscoveredAccount),
		TotalBalance: ledger.Zero(),
	}
}

// HasFunds reports whether any funded account was discovered.
func (r *Result) HasFunds() bool {
	return r.TotalBalance.IsPositive()
}

// AllAccounts returns discovered accounts flattened in scan order.
func (r *Result) AllAccounts() []DiscoveredAccount {
	total := 0
	for _, accounts := range r.Found {
		total += len(accounts)
	}

	all := make([]DiscoveredAccount, 0, total)
	for _, name := range r.ProfilesScanned {
		all = append(all, r.Found[name]...)
	}
	return all
}

// AccountsByProfile returns the discovered accounts for one profile.
func (r *Result) AccountsByProfile(name string) []DiscoveredAccount {
	return r.Found[name]
}

// Gateway is the slice of the ledger client discovery needs: address
// derivation plus balance reads.
type Gateway interface {
	ledger.AddressDeriver
	ledger.BalanceReader
}

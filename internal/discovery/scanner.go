package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// Scanner walks derivation indexes per profile, resolving each account's
// address and checking its balance, until the gap limit is hit.
type Scanner struct {
	gw      Gateway
	network ledger.Network
	opts    *Options
}

// NewScanner creates a discovery scanner.
func NewScanner(gw Gateway, network ledger.Network, opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Scanner{
		gw:      gw,
		network: network,
		opts:    opts,
	}
}

// Scan checks every configured profile, trying each passphrase
// candidate in turn. Individual profile failures are recorded in the
// result and do not abort the scan.
func (s *Scanner) Scan(ctx context.Context, mnemonic string) (*Result, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := newResult()

	profiles := SortByPriority(s.opts.Profiles)
	passphrases := s.opts.Passphrases
	if len(passphrases) == 0 {
		passphrases = []string{""}
	}

	for passIndex, passphrase := range passphrases {
		for i, profile := range profiles {
			if ctx.Err() != nil {
				result.Errors = append(result.Errors, ErrScanCanceled.Error())
				break
			}

			gapLimit := s.opts.GapLimit
			if i == 0 {
				gapLimit = s.opts.ExtendedGapLimit
			}

			pr, err := s.scanProfile(ctx, mnemonic, passphrase, passIndex, profile, gapLimit)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", profile.Name, err))
			}
			if pr == nil {
				continue
			}

			if len(pr.accounts) > 0 {
				if passphrase != "" {
					result.PassphraseUsed = true
				}
				result.Found[profile.Name] = append(result.Found[profile.Name], pr.accounts...)
				result.TotalBalance = result.TotalBalance.Add(pr.balance)
			}

			if passIndex == 0 {
				result.ProfilesScanned = append(result.ProfilesScanned, profile.Name)
			}
			result.AccountsScanned += pr.scanned
		}
	}

	result.Duration = time.Since(startTime)

	return result, nil
}

// ScanProfile scans a single named profile. Useful when the user knows
// which scheme their wallet used.
func (s *Scanner) ScanProfile(ctx context.Context, mnemonic, profileName string) (*Result, error) {
	profile := ProfileByName(profileName)
	if profile == nil {
		return nil, scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrInvalidInput, map[string]string{"profile": profileName}),
			"known profiles: hash, bip44",
		)
	}

	startTime := time.Now()
	result := newResult()

	pr, err := s.scanProfile(ctx, mnemonic, "", 0, *profile, s.opts.ExtendedGapLimit)
	if err != nil {
		return nil, err
	}

	if len(pr.accounts) > 0 {
		result.Found[profile.Name] = pr.accounts
		result.TotalBalance = pr.balance
	}

	result.ProfilesScanned = []string{profile.Name}
	result.AccountsScanned = pr.scanned
	result.Duration = time.Since(startTime)

	return result, nil
}

// profileResult holds results from scanning a single profile.
type profileResult struct {
	accounts []DiscoveredAccount
	balance  decimal.Decimal
	scanned  int
}

// scanProfile walks one profile's indexes until gapLimit consecutive
// accounts come back empty. Gateway errors count as empty so a flaky
// endpoint cannot keep the scan running forever.
func (s *Scanner) scanProfile(
	ctx context.Context,
	mnemonic, passphrase string,
	passIndex int,
	profile Profile,
	gapLimit int,
) (*profileResult, error) {
	seed, err := wallet.NewSeedMaterial(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer seed.Destroy()

	engine, err := wallet.NewKeyDerivationEngine(seed, profile.Scheme)
	if err != nil {
		return nil, err
	}

	result := &profileResult{balance: ledger.Zero()}

	s.report(Progress{
		Phase:   "scanning",
		Profile: profile.Name,
		Message: fmt.Sprintf("Scanning %s accounts...", profile.Name),
	})

	consecutiveEmpty := 0
	for index := uint32(0); consecutiveEmpty < gapLimit; index++ {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		keys, err := engine.Derive(index)
		if err != nil {
			return result, fmt.Errorf("deriving account %d: %w", index, err)
		}
		publicKey := keys.PublicKey()
		keys.Destroy()

		result.scanned++
		s.report(Progress{
			Phase:           "scanning",
			Profile:         profile.Name,
			AccountsScanned: result.scanned,
			AccountsFound:   len(result.accounts),
			BalanceFound:    result.balance,
		})

		address, err := s.gw.DeriveAddress(ctx, publicKey, s.network)
		if err != nil {
			s.report(Progress{
				Phase:   "error",
				Profile: profile.Name,
				Message: fmt.Sprintf("resolving account %d: %v", index, err),
			})
			consecutiveEmpty++
			continue
		}

		balance, err := s.gw.GetBalance(ctx, address)
		if err != nil {
			s.report(Progress{
				Phase:          "error",
				Profile:        profile.Name,
				CurrentAddress: address,
				Message:        fmt.Sprintf("checking %s: %v", address, err),
			})
			consecutiveEmpty++
			continue
		}

		if !balance.IsPositive() {
			consecutiveEmpty++
			continue
		}

		consecutiveEmpty = 0
		result.accounts = append(result.accounts, DiscoveredAccount{
			Index:           index,
			Scheme:          profile.Scheme,
			Profile:         profile.Name,
			Address:         address,
			Balance:         balance,
			PassphraseIndex: passIndex,
		})
		result.balance = result.balance.Add(balance)

		s.report(Progress{
			Phase:           "found",
			Profile:         profile.Name,
			AccountsScanned: result.scanned,
			AccountsFound:   len(result.accounts),
			BalanceFound:    result.balance,
			CurrentAddress:  address,
			Message:         fmt.Sprintf("%s XRD at account %d", balance, index),
		})
	}

	return result, nil
}

// report calls the progress callback when one is configured.
func (s *Scanner) report(update Progress) {
	if s.opts.Progress != nil {
		s.opts.Progress(update)
	}
}

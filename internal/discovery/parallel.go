package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scriplabs/scrip/internal/ledger"
)

// ParallelScanner runs profile scans concurrently. Each (profile,
// passphrase) pair is an independent job with its own seed, so jobs
// never share key material.
type ParallelScanner struct {
	gw         Gateway
	network    ledger.Network
	opts       *Options
	maxWorkers int
}

// NewParallelScanner creates a concurrent discovery scanner.
func NewParallelScanner(gw Gateway, network ledger.Network, opts *Options, maxWorkers int) *ParallelScanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	return &ParallelScanner{
		gw:         gw,
		network:    network,
		opts:       opts,
		maxWorkers: maxWorkers,
	}
}

// scanJob is a single profile scan under one passphrase candidate.
type scanJob struct {
	profile    Profile
	passphrase string
	passIndex  int
	gapLimit   int
	index      int // Submission order, for deterministic merging.
}

// scanJobResult is the outcome of one job.
type scanJobResult struct {
	profileName string
	accounts    []DiscoveredAccount
	balance     decimal.Decimal
	scanned     int
	firstPass   bool
	passUsed    bool
	err         error
	index       int
}

// ScanParallel runs all configured profile scans through a bounded
// worker pool and merges the results in submission order.
func (p *ParallelScanner) ScanParallel(ctx context.Context, mnemonic string) (*Result, error) {
	if err := p.opts.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	scanner := NewScanner(p.gw, p.network, p.opts)

	profiles := SortByPriority(p.opts.Profiles)
	passphrases := p.opts.Passphrases
	if len(passphrases) == 0 {
		passphrases = []string{""}
	}

	jobs := make(chan scanJob, len(profiles)*len(passphrases))
	results := make(chan scanJobResult, len(profiles)*len(passphrases))

	var wg sync.WaitGroup
	for i := 0; i < p.maxWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, mnemonic, scanner, jobs, results, &wg)
	}

	next := 0
	for passIndex, passphrase := range passphrases {
		for i, profile := range profiles {
			gapLimit := p.opts.GapLimit
			if i == 0 {
				gapLimit = p.opts.ExtendedGapLimit
			}

			jobs <- scanJob{
				profile:    profile,
				passphrase: passphrase,
				passIndex:  passIndex,
				gapLimit:   gapLimit,
				index:      next,
			}
			next++
		}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := make([]scanJobResult, 0, next)
	for result := range results {
		allResults = append(allResults, result)
	}

	sortResultsByIndex(allResults)

	combined := newResult()
	combined.Duration = time.Since(startTime)

	for _, res := range allResults {
		if res.err != nil {
			combined.Errors = append(combined.Errors,
				fmt.Sprintf("%s: %v", res.profileName, res.err))
		}

		if len(res.accounts) > 0 {
			if res.passUsed {
				combined.PassphraseUsed = true
			}
			combined.Found[res.profileName] = append(combined.Found[res.profileName], res.accounts...)
			combined.TotalBalance = combined.TotalBalance.Add(res.balance)
		}

		if res.firstPass {
			combined.ProfilesScanned = append(combined.ProfilesScanned, res.profileName)
		}
		combined.AccountsScanned += res.scanned
	}

	return combined, nil
}

// worker drains the job queue, scanning one profile at a time.
func (p *ParallelScanner) worker(
	ctx context.Context,
	mnemonic string,
	scanner *Scanner,
	jobs <-chan scanJob,
	results chan<- scanJobResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			results <- scanJobResult{
				profileName: job.profile.Name,
				balance:     ledger.Zero(),
				firstPass:   job.passIndex == 0,
				err:         ErrScanCanceled,
				index:       job.index,
			}
			continue
		}

		pr, err := scanner.scanProfile(ctx, mnemonic, job.passphrase, job.passIndex, job.profile, job.gapLimit)

		jr := scanJobResult{
			profileName: job.profile.Name,
			balance:     ledger.Zero(),
			firstPass:   job.passIndex == 0,
			passUsed:    job.passphrase != "",
			err:         err,
			index:       job.index,
		}
		if pr != nil {
			jr.accounts = pr.accounts
			jr.balance = pr.balance
			jr.scanned = pr.scanned
		}

		results <- jr
	}
}

// sortResultsByIndex orders results by submission index.
func sortResultsByIndex(results []scanJobResult) {
	// Insertion sort: the list is small and already mostly ordered.
	for i := 1; i < len(results); i++ {
		key := results[i]
		j := i - 1
		for j >= 0 && results[j].index > key.index {
			results[j+1] = results[j]
			j--
		}
		results[j+1] = key
	}
}

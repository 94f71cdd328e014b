package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/faucet"
	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// fundWalletName names the stored wallet to fund.
	fundWalletName string
	// fundMin overrides the configured minimum balance.
	fundMin string
	// fundTarget overrides the configured target balance.
	fundTarget string
	// fundForce skips the balance check and funds unconditionally.
	fundForce bool
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Top up a test-network account",
	Long: `Bring a stored wallet's balance up to the configured target using the
network faucet.

The balance is checked first: accounts already at the minimum are left
alone, and accounts at the high-water mark are never topped up further.
Funding strategies run in order until one succeeds. With --force the
balance check is skipped and the faucet cascade always runs.

Only test networks have a faucet; funding a mainnet wallet fails.

Example:
  scrip fund --wallet main
  scrip fund --wallet main --min 100 --target 1000
  scrip fund --wallet main --force`,
	RunE: runFund,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(fundCmd)

	fundCmd.Flags().StringVar(&fundWalletName, "wallet", "", "stored wallet name (required)")
	fundCmd.Flags().StringVar(&fundMin, "min", "", "minimum balance that must be present")
	fundCmd.Flags().StringVar(&fundTarget, "target", "", "balance to aim for when topping up")
	fundCmd.Flags().BoolVar(&fundForce, "force", false, "fund without checking the balance first")

	_ = fundCmd.MarkFlagRequired("wallet")
}

// fundResponse is the JSON shape for a funding run.
type fundResponse struct {
	Wallet  string `json:"wallet"`
	Address string `json:"address"`
	Funded  bool   `json:"funded"`
	Method  string `json:"method,omitempty"`
	Balance string `json:"balance,omitempty"`
}

func runFund(cmd *cobra.Command, _ []string) error {
	ctx, cancel := contextWithTimeout(cmd, fundingTimeout())
	defer cancel()

	w, rec, err := openWallet(ctx, cmd, fundWalletName)
	if err != nil {
		return err
	}
	defer w.Close()

	// Funding needs a real address. Waiting is bounded; if resolution
	// still has not finished the orchestrator fails with a typed error.
	if waitErr := w.WaitForProperAddress(ctx); waitErr != nil {
		outln(cmd.ErrOrStderr(), "Warning: address resolution has not finished yet.")
	}

	orch, opts, err := buildOrchestrator(rec.Network)
	if err != nil {
		return err
	}

	if fundForce {
		return runForceFund(ctx, cmd, orch, w, rec.Name)
	}

	funded, err := orch.AutoFund(ctx, w)
	if err != nil {
		return err
	}
	if !funded {
		return scriperr.WithSuggestion(
			scriperr.WithDetails(scriperr.ErrInsufficientFunds, map[string]string{
				"wallet":  rec.Name,
				"minimum": ledger.FormatAmount(opts.MinimumBalance),
			}),
			"the faucet could not bring the balance up to the minimum; try again later or use --force",
		)
	}

	return reportFunded(cmd, w, rec.Name, "")
}

func runForceFund(ctx context.Context, cmd *cobra.Command, orch *faucet.Orchestrator, w *wallet.Wallet, name string) error {
	verdict, err := orch.ForceFund(ctx, w)
	if err != nil {
		return err
	}
	if !verdict.Success {
		return scriperr.Wrap(verdict.Err, "force funding wallet %s", name)
	}
	return reportFunded(cmd, w, name, verdict.Method)
}

// reportFunded prints the funding outcome with the freshest balance the
// gateway will give us. Balance display is best effort.
func reportFunded(cmd *cobra.Command, w *wallet.Wallet, name, method string) error {
	state := w.AddressState()

	balance := ""
	if state.Resolved() {
		ctx, cancel := contextWithTimeout(cmd, cfg.GatewayTimeout())
		defer cancel()
		if amount, err := gatewayClient(w.Network()).GetBalance(ctx, state.String()); err == nil {
			balance = ledger.FormatAmount(amount)
		}
	}

	if formatter.IsJSON() {
		return formatter.Print(fundResponse{
			Wallet:  name,
			Address: state.String(),
			Funded:  true,
			Method:  method,
			Balance: balance,
		})
	}

	stdout := cmd.OutOrStdout()
	if method != "" {
		out(stdout, "Funded via %s.\n", method)
	} else {
		outln(stdout, "Balance requirement satisfied.")
	}
	if balance != "" {
		out(stdout, "Balance: %s %s\n", balance, ledger.NativeSymbol)
	}
	return nil
}

// buildOrchestrator assembles the funding orchestrator for a network from
// configuration and flag overrides.
func buildOrchestrator(network ledger.Network) (*faucet.Orchestrator, *faucet.Options, error) {
	opts, err := fundingOptions()
	if err != nil {
		return nil, nil, err
	}

	if fundMin != "" {
		minimum, err := ledger.ParseAmount(fundMin)
		if err != nil {
			return nil, nil, scriperr.Wrap(err, "parsing --min")
		}
		opts.MinimumBalance = minimum
	}
	if fundTarget != "" {
		target, err := ledger.ParseAmount(fundTarget)
		if err != nil {
			return nil, nil, scriperr.Wrap(err, "parsing --target")
		}
		opts.TargetBalance = target
	}

	gc := gatewayClient(network)
	strategies := faucet.DefaultStrategies(faucetClient(network), gc)
	return faucet.New(gc, strategies, opts), opts, nil
}

// fundingTimeout budgets for resolution, the strategy cascade, the
// settlement wait, and the closing balance checks.
func fundingTimeout() time.Duration {
	return cfg.ResolveTimeout() + 4*cfg.GatewayTimeout() + cfg.SettlementDelay()
}

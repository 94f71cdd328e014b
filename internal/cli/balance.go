package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scriplabs/scrip/internal/ledger"
	"github.com/scriplabs/scrip/internal/output"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level flag variables
var (
	// balanceWallet names a stored wallet whose address is queried.
	balanceWallet string
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:   "balance [address...]",
	Short: "Show account balances",
	Long: `Show native token balances for one or more accounts.

Balances are public, so querying by address needs no password. With
--wallet the stored wallet's resolved address is used instead. Multiple
addresses are queried concurrently.

Example:
  scrip balance account_tdx_2_1...
  scrip balance account_tdx_2_1... account_tdx_2_2...
  scrip balance --wallet main`,
	Args: cobra.ArbitraryArgs,
	RunE: runBalance,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceWallet, "wallet", "", "stored wallet name")
}

// balanceResult is one account's balance.
type balanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Symbol  string `json:"symbol"`
}

func runBalance(cmd *cobra.Command, args []string) error {
	network, addresses, err := balanceTargets(args)
	if err != nil {
		return err
	}

	for _, addr := range addresses {
		if err := ledger.ValidateAddress(network, addr); err != nil {
			return scriperr.WithDetails(err, map[string]string{"address": addr})
		}
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.GatewayTimeout())
	defer cancel()

	gc := gatewayClient(network)
	results := make([]balanceResult, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addresses {
		g.Go(func() error {
			amount, err := gc.GetBalance(gctx, addr)
			if err != nil {
				return err
			}
			results[i] = balanceResult{
				Address: addr,
				Balance: ledger.FormatAmount(amount),
				Symbol:  ledger.NativeSymbol,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(results)
	}

	stdout := cmd.OutOrStdout()
	if len(results) == 1 {
		outln(stdout, results[0].Balance+" "+results[0].Symbol)
		return nil
	}

	table := output.NewTable("ADDRESS", "BALANCE")
	for _, r := range results {
		table.AddRow(r.Address, r.Balance+" "+r.Symbol)
	}
	return table.Render(stdout)
}

// balanceTargets works out which network and addresses to query.
func balanceTargets(args []string) (ledger.Network, []string, error) {
	if balanceWallet != "" && len(args) > 0 {
		return "", nil, scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			"pass either --wallet or addresses, not both")
	}

	if balanceWallet != "" {
		rec, err := openStore().LoadMetadata(balanceWallet)
		if err != nil {
			return "", nil, err
		}
		if rec.Address == "" {
			return "", nil, scriperr.WithSuggestion(
				scriperr.WithDetails(scriperr.ErrAddressPending,
					map[string]string{"wallet": rec.Name}),
				"resolve it first: scrip address --wallet "+rec.Name+" --wait",
			)
		}
		return rec.Network, []string{rec.Address}, nil
	}

	if len(args) == 0 {
		return "", nil, scriperr.WithSuggestion(scriperr.ErrInvalidInput,
			"pass at least one address or --wallet <name>")
	}

	network, err := resolvedNetwork()
	if err != nil {
		return "", nil, err
	}
	return network, args, nil
}

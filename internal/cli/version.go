package cli

import (
	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/version"
)

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionResponse is the JSON shape for the version command.
type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		return formatter.Print(versionResponse{
			Version: version.Version,
			Commit:  version.Commit,
			Date:    version.Date,
		})
	}

	outln(cmd.OutOrStdout(), version.Full())
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriplabs/scrip/internal/output"
	"github.com/scriplabs/scrip/internal/session"
)

// sessionCmd is the parent command for session operations.
//
//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage unlock sessions",
	Long: `Manage cached unlock sessions.

After a wallet password is entered once, the decrypted mnemonic is
cached for a short time (default 15 minutes) so follow-up commands
skip the prompt. The cache key lives in the operating system keychain:

- macOS: Keychain
- Linux: Secret Service (GNOME Keyring, KWallet)
- Windows: Credential Manager

Without a usable keychain, caching is disabled and every command asks
for the password. Set security.session_enabled: false in the
configuration to turn caching off entirely.`,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show active sessions and remaining time",
	Long:  `Show every wallet with a cached unlock session and when it lapses.`,
	RunE:  runSessionStatus,
}

//nolint:gochecknoglobals // cobra CLI pattern requires package-level command variables
var sessionLockCmd = &cobra.Command{
	Use:   "lock [wallet]",
	Short: "End unlock sessions",
	Long: `End cached unlock sessions, requiring the password again.

With a wallet name only that wallet's session ends; without one every
session ends. Use this when stepping away from the machine.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionLock,
}

//nolint:gochecknoinits // cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionLockCmd)
}

// sessionEntry is the JSON shape for one active session.
type sessionEntry struct {
	Wallet    string `json:"wallet"`
	ExpiresIn string `json:"expires_in"`
	CreatedAt string `json:"created_at"`
}

// sessionStatusResponse is the JSON shape for session status.
type sessionStatusResponse struct {
	Available bool           `json:"available"`
	Sessions  []sessionEntry `json:"sessions"`
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	mgr := newSessionManagerFn()

	if !cfg.Security.SessionEnabled || !mgr.Available() {
		if formatter.IsJSON() {
			return formatter.Print(sessionStatusResponse{Available: false, Sessions: []sessionEntry{}})
		}
		outln(cmd.OutOrStdout(), "Session caching is not available (keyring unavailable or disabled).")
		return nil
	}

	sessions, err := mgr.Sessions()
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if formatter.IsJSON() {
		entries := make([]sessionEntry, 0, len(sessions))
		for _, s := range sessions {
			entries = append(entries, sessionEntry{
				Wallet:    s.Wallet,
				ExpiresIn: formatDuration(s.Remaining()),
				CreatedAt: s.CreatedAt.Format(time.RFC3339),
			})
		}
		return formatter.Print(sessionStatusResponse{Available: true, Sessions: entries})
	}

	if len(sessions) == 0 {
		outln(cmd.OutOrStdout(), "No active sessions.")
		return nil
	}

	outln(cmd.OutOrStdout(), "Active sessions:")
	for _, s := range sessions {
		out(cmd.OutOrStdout(), "  %s: expires in %s\n", s.Wallet, formatDuration(s.Remaining()))
	}
	return nil
}

func runSessionLock(cmd *cobra.Command, args []string) error {
	mgr := newSessionManagerFn()

	if len(args) == 1 {
		if err := mgr.Lock(args[0]); err != nil {
			return err
		}
		return output.FormatSuccess(cmd.OutOrStdout(),
			fmt.Sprintf("Session for '%s' ended.", args[0]), formatter.Format())
	}

	ended := mgr.LockAll()
	return output.FormatSuccess(cmd.OutOrStdout(),
		fmt.Sprintf("Ended %d session(s).", ended), formatter.Format())
}

// formatDuration renders a duration as compact minutes and seconds.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

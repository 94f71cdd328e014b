package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/scriplabs/scrip/internal/secure"
	"github.com/scriplabs/scrip/internal/wallet"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

// out is a helper for CLI output that ignores write errors.
//
//nolint:errcheck // CLI writes to stdout/stderr are intentionally unchecked
func out(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI writes to stdout/stderr are intentionally unchecked
func outln(w io.Writer, args ...interface{}) {
	fmt.Fprintln(w, args...)
}

// Prompt indirection so tests can substitute canned input.
//
//nolint:gochecknoglobals // swapped in tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptMnemonicFn    = promptMnemonic
	promptConfirmFn     = promptConfirm
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		secure.Zero(password)
		return nil, scriperr.WithSuggestion(
			scriperr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		secure.Zero(password)
		return nil, err
	}
	defer secure.Zero(confirm)

	if string(password) != string(confirm) {
		secure.Zero(password)
		return nil, scriperr.WithSuggestion(
			scriperr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptMnemonic reads a mnemonic phrase with hidden input so the words
// never land in the terminal scrollback. Typos get suggestions before the
// error comes back.
func promptMnemonic() (string, error) {
	outln(os.Stderr, "Enter your mnemonic phrase (input is hidden):")
	out(os.Stderr, "> ")

	raw, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}
	defer secure.Zero(raw)

	mnemonic := wallet.NormalizeMnemonicInput(string(raw))
	if mnemonic == "" {
		return "", scriperr.WithSuggestion(scriperr.ErrInvalidMnemonic, "no input provided")
	}

	if err := wallet.ValidateMnemonic(mnemonic); err != nil {
		if typos := wallet.DetectTypos(mnemonic); len(typos) > 0 {
			outln(os.Stderr, wallet.FormatTypoSuggestions(typos))
		}
		return "", err
	}

	return mnemonic, nil
}

// promptConfirm asks a yes/no question on stderr, defaulting to no.
func promptConfirm(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// Package errors provides structured error handling for scrip.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or insufficient funds
)

// Error is the structured error type for scrip.
type Error struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *Error) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing error codes.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &Error{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &Error{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &Error{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Wallet identity errors.
	ErrInvalidMnemonic = &Error{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrInvalidIndex = &Error{
		Code:     "INVALID_ACCOUNT_INDEX",
		Message:  "account index out of range",
		ExitCode: ExitInput,
	}

	ErrAccountNotFound = &Error{
		Code:     "ACCOUNT_NOT_FOUND",
		Message:  "account not found",
		ExitCode: ExitNotFound,
	}

	// ErrAddressPending marks an operation attempted against a placeholder
	// address before resolution completed. Callers can tell "not ready yet"
	// apart from "network down" through this code.
	ErrAddressPending = &Error{
		Code:     "ADDRESS_PENDING",
		Message:  "account address has not been resolved yet",
		ExitCode: ExitGeneral,
	}

	ErrResolutionFailed = &Error{
		Code:     "RESOLUTION_FAILED",
		Message:  "address resolution failed",
		ExitCode: ExitGeneral,
	}

	ErrInvalidAddress = &Error{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrSigningFailed = &Error{
		Code:     "SIGNING_FAILED",
		Message:  "signing failed",
		ExitCode: ExitGeneral,
	}

	// Ledger gateway errors.
	ErrNetworkError = &Error{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	ErrTxRejected = &Error{
		Code:     "TX_REJECTED",
		Message:  "transaction rejected by network",
		ExitCode: ExitGeneral,
	}

	ErrFaucetUnavailable = &Error{
		Code:     "FAUCET_UNAVAILABLE",
		Message:  "faucet request failed",
		ExitCode: ExitGeneral,
	}

	ErrInsufficientFunds = &Error{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient balance",
		ExitCode: ExitPermission,
	}

	ErrInvalidAmount = &Error{
		Code:     "INVALID_AMOUNT",
		Message:  "invalid amount format",
		ExitCode: ExitInput,
	}

	// Keystore errors.
	ErrKeystoreNotFound = &Error{
		Code:     "KEYSTORE_NOT_FOUND",
		Message:  "keystore file not found",
		ExitCode: ExitNotFound,
	}

	ErrKeystoreExists = &Error{
		Code:     "KEYSTORE_EXISTS",
		Message:  "keystore file already exists",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &Error{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	// Backup errors.
	ErrBackupNotFound = &Error{
		Code:     "BACKUP_NOT_FOUND",
		Message:  "backup file not found",
		ExitCode: ExitNotFound,
	}

	ErrBackupInvalid = &Error{
		Code:     "BACKUP_INVALID",
		Message:  "backup format is invalid",
		ExitCode: ExitInput,
	}

	ErrBackupCorrupted = &Error{
		Code:     "BACKUP_CORRUPTED",
		Message:  "backup checksum mismatch",
		ExitCode: ExitGeneral,
	}

	// Config errors.
	ErrConfigNotFound = &Error{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &Error{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &Error{
		Code:     "CONFIG_UNKNOWN_KEY",
		Message:  "unknown configuration key",
		ExitCode: ExitInput,
	}

	// Transport retry classification.
	ErrRetryable = &Error{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: ExitGeneral,
	}

	ErrTimeout = &Error{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: ExitGeneral,
	}

	ErrRateLimited = &Error{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: ExitGeneral,
	}
)

// New creates a new Error with the given code and message.
func New(code, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var se *Error
	if errors.As(err, &se) {
		return &Error{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &Error{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return &Error{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &Error{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return &Error{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &Error{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var se *Error
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

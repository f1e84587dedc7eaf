// Package errors provides structured error handling for multisig.
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

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied
)

// MultisigError is the structured error type for multisig.
type MultisigError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *MultisigError) Error() string {
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

func (e *MultisigError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for MultisigError.
func (e *MultisigError) Is(target error) bool {
	var t *MultisigError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &MultisigError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &MultisigError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrAuthentication = &MultisigError{
		Code:     "AUTHENTICATION_FAILED",
		Message:  "authentication failed",
		ExitCode: ExitAuth,
	}

	ErrNotFound = &MultisigError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrPermission = &MultisigError{
		Code:     "PERMISSION_DENIED",
		Message:  "permission denied",
		ExitCode: ExitPermission,
	}

	// Key derivation errors.
	ErrInsufficientEntropy = &MultisigError{
		Code:     "INSUFFICIENT_ENTROPY",
		Message:  "seed must be between 16 and 64 bytes",
		ExitCode: ExitInput,
	}

	ErrPrivateKeyRequired = &MultisigError{
		Code:     "PRIVATE_KEY_REQUIRED",
		Message:  "hardened derivation requires a private key",
		ExitCode: ExitInput,
	}

	ErrMalformedExtendedKey = &MultisigError{
		Code:     "MALFORMED_EXTENDED_KEY",
		Message:  "malformed extended key",
		ExitCode: ExitInput,
	}

	ErrInvalidDerivationPath = &MultisigError{
		Code:     "INVALID_DERIVATION_PATH",
		Message:  "invalid derivation path",
		ExitCode: ExitInput,
	}

	ErrInvalidMnemonic = &MultisigError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	// Multisig policy errors.
	ErrInvalidThreshold = &MultisigError{
		Code:     "INVALID_THRESHOLD",
		Message:  "threshold must be between 1 and the number of participants",
		ExitCode: ExitInput,
	}

	ErrTooManyParticipants = &MultisigError{
		Code:     "TOO_MANY_PARTICIPANTS",
		Message:  "at most 15 participants are supported",
		ExitCode: ExitInput,
	}

	ErrDuplicateParticipant = &MultisigError{
		Code:     "DUPLICATE_PARTICIPANT",
		Message:  "participant key appears more than once",
		ExitCode: ExitInput,
	}

	ErrNetworkMismatch = &MultisigError{
		Code:     "NETWORK_MISMATCH",
		Message:  "key does not belong to the wallet network",
		ExitCode: ExitInput,
	}

	ErrInvalidNetwork = &MultisigError{
		Code:     "INVALID_NETWORK",
		Message:  "unknown bitcoin network",
		ExitCode: ExitInput,
	}

	ErrIndexExhausted = &MultisigError{
		Code:     "INDEX_EXHAUSTED",
		Message:  "no non-hardened address indexes remain",
		ExitCode: ExitGeneral,
	}

	// Wallet-specific errors.
	ErrWalletNotFound = &MultisigError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "wallet not found",
		ExitCode: ExitNotFound,
	}

	ErrWalletExists = &MultisigError{
		Code:     "WALLET_EXISTS",
		Message:  "wallet already exists",
		ExitCode: ExitInput,
	}

	ErrCorruptState = &MultisigError{
		Code:     "CORRUPT_STATE",
		Message:  "wallet state is inconsistent",
		ExitCode: ExitGeneral,
	}

	ErrPersistenceFailure = &MultisigError{
		Code:     "PERSISTENCE_FAILURE",
		Message:  "failed to persist state",
		ExitCode: ExitGeneral,
	}

	// Key store errors.
	ErrKeyNotFound = &MultisigError{
		Code:     "KEY_NOT_FOUND",
		Message:  "key not found",
		ExitCode: ExitNotFound,
	}

	ErrKeyExists = &MultisigError{
		Code:     "KEY_EXISTS",
		Message:  "key already exists",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &MultisigError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitAuth,
	}

	// Chain-specific errors.
	ErrInvalidAddress = &MultisigError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrNetworkError = &MultisigError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitGeneral,
	}

	// Config-specific errors.
	ErrConfigNotFound = &MultisigError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &MultisigError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &MultisigError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}
)

// New creates a new MultisigError with the given code and message.
func New(code, message string) *MultisigError {
	return &MultisigError{
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

	var se *MultisigError
	if errors.As(err, &se) {
		return &MultisigError{
			Code:       se.Code,
			Message:    fmt.Sprintf("%s: %s", msg, se.Message),
			Details:    se.Details,
			Suggestion: se.Suggestion,
			Cause:      err,
			ExitCode:   se.ExitCode,
		}
	}

	return &MultisigError{
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

	var se *MultisigError
	if errors.As(err, &se) {
		return &MultisigError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    details,
			Suggestion: se.Suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &MultisigError{
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

	var se *MultisigError
	if errors.As(err, &se) {
		return &MultisigError{
			Code:       se.Code,
			Message:    se.Message,
			Details:    se.Details,
			Suggestion: suggestion,
			Cause:      se.Cause,
			ExitCode:   se.ExitCode,
		}
	}

	return &MultisigError{
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

	var se *MultisigError
	if errors.As(err, &se) {
		return se.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var se *MultisigError
	if errors.As(err, &se) {
		return se.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}

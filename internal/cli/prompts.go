package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/keystore"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// minPasswordLength is the shortest encryption password accepted for new keys.
const minPasswordLength = 8

// Prompt functions are variables so tests can replace them.
//
//nolint:gochecknoglobals // swapped out in tests
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptPassphraseFn  = promptPassphrase
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // Add newline after hidden input

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

	if len(password) < minPasswordLength {
		msigcrypto.Zero(password)
		return nil, msigerr.WithSuggestion(
			msigerr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		msigcrypto.Zero(password)
		return nil, err
	}
	defer msigcrypto.Zero(confirm)

	if string(password) != string(confirm) {
		msigcrypto.Zero(password)
		return nil, msigerr.WithSuggestion(
			msigerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptPassphrase prompts for an optional BIP39 passphrase.
func promptPassphrase() (string, error) {
	outln(os.Stderr, "\nBIP39 Passphrase (optional extra security layer):")
	outln(os.Stderr, "WARNING: If you lose this passphrase, you cannot recover this key!")

	passphrase, err := promptPassword("Enter passphrase: ")
	if err != nil {
		return "", err
	}
	if len(passphrase) == 0 {
		return "", nil
	}

	confirm, err := promptPassword("Confirm passphrase: ")
	if err != nil {
		msigcrypto.Zero(passphrase)
		return "", err
	}
	defer msigcrypto.Zero(confirm)

	if string(passphrase) != string(confirm) {
		msigcrypto.Zero(passphrase)
		return "", msigerr.WithSuggestion(
			msigerr.ErrInvalidInput,
			"passphrases do not match",
		)
	}

	result := string(passphrase)
	msigcrypto.Zero(passphrase)
	return result, nil
}

// keyPassword returns the encryption password from MULTISIG_KEY_PASSWORD or,
// when unset, from an interactive prompt. confirm selects the new-password
// prompt with confirmation.
func keyPassword(confirm bool) ([]byte, error) {
	if v := os.Getenv(config.EnvKeyPassword); v != "" {
		if confirm && len(v) < minPasswordLength {
			return nil, msigerr.WithSuggestion(msigerr.ErrInvalidInput,
				"password must be at least 8 characters")
		}
		return []byte(v), nil
	}
	if confirm {
		return promptNewPasswordFn()
	}
	return promptPasswordFn("Enter key password: ")
}

// readMnemonic reads a phrase from r. Terminal users are prompted on stderr
// and give the phrase on one line; piped input is read up to the first blank
// line or EOF so words may span lines.
func readMnemonic(r io.Reader) (string, error) {
	interactive := false
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		interactive = true
		out(os.Stderr, "Enter mnemonic (all words on one line): ")
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
		if interactive {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}
	if len(lines) == 0 {
		return "", msigerr.WithSuggestion(msigerr.ErrInvalidInput, "no mnemonic provided on stdin")
	}
	// Lines stay separate so numbered lists are normalized per line.
	return keystore.NormalizeMnemonicInput(strings.Join(lines, "\n")), nil
}

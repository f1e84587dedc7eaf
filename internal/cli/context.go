package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/keystore"
	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/wallet"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg *config.Config
	Log *config.Logger
	Fmt *output.Formatter
}

type cmdContextKey struct{}

// SetCmdContext attaches cc to the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd, falling back to
// the package globals when none is set.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok && cc != nil {
			return cc
		}
	}
	return &CommandContext{Cfg: cfg, Log: logger, Fmt: formatter}
}

// Logger returns the command logger, never nil.
func (c *CommandContext) Logger() *config.Logger {
	if c.Log == nil {
		return config.NullLogger()
	}
	return c.Log
}

// Formatter returns the output formatter, writing to w when none is set.
func (c *CommandContext) Formatter(w io.Writer) *output.Formatter {
	if c.Fmt == nil {
		return output.NewFormatter(output.FormatAuto, w)
	}
	return c.Fmt
}

// Wallets returns the wallet storage under the configured home.
func (c *CommandContext) Wallets() *wallet.FileStorage {
	return wallet.NewFileStorage(c.Cfg.WalletsDir())
}

// Keys returns the key store under the configured home.
func (c *CommandContext) Keys() *keystore.Store {
	return keystore.NewStore(c.Cfg.KeysDir())
}

// contextWithTimeout returns a timeout context rooted in the command context.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, d)
}

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

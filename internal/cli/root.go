// Package cli implements the multisig command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/metrics"
	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/version"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	networkName  string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter

	// buildInfo is set by SetBuildInfo from main.
	buildInfo version.BuildInfo
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "multisig",
	Short: "Bitcoin M-of-N multisig wallet",
	Long: `multisig manages watch-only Bitcoin multisig wallets.

Participants generate keys locally (BIP39 + BIP84 account m/84'/coin'/0'),
share their xpubs, and any participant can then build the same P2WSH
wallet, hand out receive addresses and query balances.

Example:
  multisig generate-key --network testnet
  multisig create-wallet treasury --xpubs tpubA,tpubB,tpubC --threshold 2
  multisig get-address --wallet treasury
  multisig get-balance --wallet treasury`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(cmd); err != nil {
			return err
		}
		SetCmdContext(cmd, &CommandContext{Cfg: cfg, Log: logger, Fmt: formatter})
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command and prints any error in the active format.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		if logger != nil {
			logger.Error("command failed: %v", err)
			cleanup()
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return msigerr.ExitCode(err)
}

// SetBuildInfo records the version reported by the version command.
func SetBuildInfo(info version.BuildInfo) {
	buildInfo = info
	rootCmd.Version = info.String()
}

// initGlobals resolves configuration with the precedence
// defaults < config.yaml < MULTISIG_* environment < flags.
func initGlobals(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.LoadOrDefault(home)
	if err != nil {
		return err
	}

	config.ApplyEnvironment(cfg)

	flags := cmd.Flags()
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if flags.Changed("network") {
		cfg.Network = chain.Network(strings.ToLower(strings.TrimSpace(networkName)))
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		// Logging is best effort; never block a command on the log file.
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), cmd.OutOrStdout())

	logger.Debug("command=%s network=%s home=%s", cmd.Name(), cfg.Network, cfg.GetHome())
	return nil
}

// cleanup logs the command's counters and releases resources.
func cleanup() {
	if logger == nil {
		return
	}
	if snap := metrics.Global.Snapshot(); !snap.IsZero() {
		logger.DebugFields("metrics", config.Fields{
			"indexer_calls":   snap.IndexerCalls,
			"indexer_errors":  snap.IndexerErrors,
			"indexer_avg_ms":  metrics.Global.IndexerLatencyAvgMs(),
			"addresses":       snap.AddressesIssued,
			"cache_fallbacks": snap.CacheFallbacks,
		})
	}
	_ = logger.Close()
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "multisig data directory (default: ~/.bitcoin-multisig)")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "testnet", "bitcoin network: mainnet, testnet, signet, regtest")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

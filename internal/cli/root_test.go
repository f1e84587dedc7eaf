package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/output"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// globalsCmd returns a command carrying the global flags, as a subcommand
// sees them after parsing.
func globalsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVarP(&networkName, "network", "n", "testnet", "")
	cmd.SetOut(&bytes.Buffer{})
	return cmd
}

func withGlobals(t *testing.T) string {
	t.Helper()
	resetFlags(t)
	saved := struct {
		cfg *config.Config
		log *config.Logger
		fmt *output.Formatter
	}{cfg, logger, formatter}
	t.Cleanup(func() {
		cleanup()
		cfg, logger, formatter = saved.cfg, saved.log, saved.fmt
	})

	home := t.TempDir()
	homeDir = home
	outputFormat = "auto"
	verbose = false
	t.Setenv(config.EnvNetwork, "")
	t.Setenv(config.EnvLogLevel, "off")
	return home
}

func TestInitGlobals_Precedence(t *testing.T) {
	home := withGlobals(t)
	require.NoError(t, os.WriteFile(config.Path(home), []byte("network: mainnet\n"), 0o600))

	// config file beats the default
	require.NoError(t, initGlobals(globalsCmd()))
	assert.Equal(t, chain.Mainnet, cfg.Network)
	assert.Equal(t, home, cfg.Home)

	// environment beats the config file
	t.Setenv(config.EnvNetwork, "signet")
	require.NoError(t, initGlobals(globalsCmd()))
	assert.Equal(t, chain.Signet, cfg.Network)

	// an explicit flag beats the environment
	cmd := globalsCmd()
	require.NoError(t, cmd.Flags().Set("network", "regtest"))
	require.NoError(t, initGlobals(cmd))
	assert.Equal(t, chain.Regtest, cfg.Network)
}

func TestInitGlobals_Output(t *testing.T) {
	withGlobals(t)
	outputFormat = "json"

	require.NoError(t, initGlobals(globalsCmd()))
	assert.True(t, formatter.IsJSON())
	assert.NotNil(t, logger)
}

func TestInitGlobals_InvalidNetwork(t *testing.T) {
	withGlobals(t)
	cmd := globalsCmd()
	require.NoError(t, cmd.Flags().Set("network", "testnett"))

	err := initGlobals(cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, msigerr.ErrConfigInvalid)
}

func TestInitGlobals_InvalidConfigFile(t *testing.T) {
	home := withGlobals(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("network: [\n"), 0o600))

	err := initGlobals(globalsCmd())
	assert.ErrorIs(t, err, msigerr.ErrConfigInvalid)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"generate-key", "import-key", "list-keys", "show-key",
		"create-wallet", "show-wallet", "list-wallets",
		"get-address", "list-addresses", "get-balance", "version",
		"beacon-address", "pubkey-address",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, name := range []string{"show-wallet", "get-address", "list-addresses", "get-balance"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, cmd.Flags().Lookup("wallet"), name)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, msigerr.ExitInput, ExitCode(msigerr.ErrInvalidThreshold))
	assert.Equal(t, msigerr.ExitNotFound, ExitCode(msigerr.ErrWalletNotFound))
}

func TestGetCmdContext_FallsBackToGlobals(t *testing.T) {
	withGlobals(t)
	require.NoError(t, initGlobals(globalsCmd()))

	cc := GetCmdContext(&cobra.Command{})
	assert.Same(t, cfg, cc.Cfg)
	assert.Same(t, formatter, cc.Fmt)
}

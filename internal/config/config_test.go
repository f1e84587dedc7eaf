package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/config"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := config.Defaults()
	cfg.Network = chain.Signet
	cfg.Esplora.URL = "https://mempool.space/signet/api"
	cfg.Esplora.Timeout = 5 * time.Second
	cfg.Balance.Concurrency = 8
	cfg.Output.Verbose = true

	require.NoError(t, config.Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, chain.Signet, loaded.Network)
	assert.Equal(t, cfg.Esplora.URL, loaded.Esplora.URL)
	assert.Equal(t, 5*time.Second, loaded.Esplora.Timeout)
	assert.Equal(t, 8, loaded.Balance.Concurrency)
	assert.True(t, loaded.Output.Verbose)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.bitcoin-multisig", cfg.Home)
	assert.Equal(t, chain.Testnet, cfg.Network)
	assert.Empty(t, cfg.Esplora.URL)
	assert.Equal(t, config.DefaultEsploraTimeout, cfg.Esplora.Timeout)
	assert.Equal(t, config.DefaultBalanceConcurrency, cfg.Balance.Concurrency)
	assert.Equal(t, 24, cfg.Keys.WordCount)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "~/.bitcoin-multisig/multisig.log", cfg.Logging.File)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: main\nesplora:\n  timeout: 3s\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, chain.Mainnet, cfg.Network)
	assert.Equal(t, 3*time.Second, cfg.Esplora.Timeout)
	assert.Equal(t, config.DefaultEsploraRate, cfg.Esplora.RatePerSecond)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
}

func TestLoad_NotFound(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, msigerr.ErrConfigNotFound)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "network: [unclosed"},
		{"unknown network", "network: dogecoin"},
		{"bad output format", "output:\n  default_format: xml"},
		{"bad word count", "keys:\n  word_count: 15"},
		{"zero concurrency", "balance:\n  concurrency: 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			_, err := config.Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, msigerr.ErrConfigInvalid)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	t.Run("no file", func(t *testing.T) {
		t.Parallel()
		home := t.TempDir()
		cfg, err := config.LoadOrDefault(home)
		require.NoError(t, err)
		assert.Equal(t, home, cfg.Home)
		assert.Equal(t, chain.Testnet, cfg.Network)
	})

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()
		home := t.TempDir()
		cfg := config.Defaults()
		cfg.Home = home
		cfg.Network = chain.Regtest
		require.NoError(t, config.Save(cfg, config.Path(home)))

		loaded, err := config.LoadOrDefault(home)
		require.NoError(t, err)
		assert.Equal(t, chain.Regtest, loaded.Network)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/home/user/.bitcoin-multisig", "config.yaml"),
		config.Path("/home/user/.bitcoin-multisig"))
}

func TestConfig_Directories(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Home = "/data/msig"

	assert.Equal(t, "/data/msig", cfg.GetHome())
	assert.Equal(t, filepath.Join("/data/msig", "wallets"), cfg.WalletsDir())
	assert.Equal(t, filepath.Join("/data/msig", "keys"), cfg.KeysDir())
}

func TestConfig_Getters(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Logging.Level = "debug"
	cfg.Output.DefaultFormat = "json"

	assert.Equal(t, chain.Testnet, cfg.GetNetwork())
	assert.Equal(t, "debug", cfg.GetLoggingLevel())
	assert.Equal(t, "~/.bitcoin-multisig/multisig.log", cfg.GetLoggingFile())
	assert.Equal(t, "json", cfg.GetOutputFormat())
	assert.False(t, cfg.IsVerbose())
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y"), config.ExpandHome("~/x/y"))
	assert.Equal(t, "/abs/path", config.ExpandHome("/abs/path"))
	assert.Equal(t, "rel/~/path", config.ExpandHome("rel/~/path"))
}

func TestDefaultHome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ".bitcoin-multisig", filepath.Base(config.DefaultHome()))
}

// Package config provides configuration management for multisig.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/fileutil"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// homeDirName is the directory created under the user's home.
const homeDirName = ".bitcoin-multisig"

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Network chain.Network `yaml:"network"`
	Esplora EsploraConfig `yaml:"esplora"`
	Balance BalanceConfig `yaml:"balance"`
	Keys    KeysConfig    `yaml:"keys"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EsploraConfig defines the chain indexer settings.
type EsploraConfig struct {
	// URL overrides the public endpoint for the configured network.
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	RateBurst     int           `yaml:"rate_burst"`
}

// BalanceConfig bounds the balance lookup fan-out.
type BalanceConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// KeysConfig defines key generation settings.
type KeysConfig struct {
	WordCount int `yaml:"word_count"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file on top of Defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, msigerr.WithDetails(msigerr.ErrConfigNotFound, map[string]string{"path": path})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w",
			msigerr.WithDetails(msigerr.ErrConfigInvalid, map[string]string{"path": path}), err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w",
			msigerr.WithDetails(msigerr.ErrConfigInvalid, map[string]string{"path": path}), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads the config file in home, falling back to Defaults
// when none exists.
func LoadOrDefault(home string) (*Config, error) {
	cfg, err := Load(Path(ExpandHome(home)))
	if errors.Is(err, msigerr.ErrConfigNotFound) {
		cfg = Defaults()
		cfg.Home = home
		return cfg, nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	if err := fileutil.EnsureDir(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Validate checks the fields that have a closed set of values. Network
// aliases such as "main" are normalized in place.
func (c *Config) Validate() error {
	net, err := chain.ParseNetwork(string(c.Network))
	if err != nil {
		return fmt.Errorf("%w: %w", msigerr.ErrConfigInvalid, err)
	}
	c.Network = net
	switch c.Output.DefaultFormat {
	case "", "auto", "text", "json":
	default:
		return msigerr.WithDetails(msigerr.ErrConfigInvalid, map[string]string{
			"output.default_format": c.Output.DefaultFormat,
		})
	}
	if c.Keys.WordCount != 12 && c.Keys.WordCount != 24 {
		return msigerr.WithDetails(msigerr.ErrConfigInvalid, map[string]string{
			"keys.word_count": fmt.Sprint(c.Keys.WordCount),
		})
	}
	if c.Balance.Concurrency < 1 {
		return msigerr.WithDetails(msigerr.ErrConfigInvalid, map[string]string{
			"balance.concurrency": fmt.Sprint(c.Balance.Concurrency),
		})
	}
	return nil
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the home directory with "~/" expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// WalletsDir is where wallet state files live.
func (c *Config) WalletsDir() string {
	return filepath.Join(c.GetHome(), "wallets")
}

// KeysDir is where encrypted key files live.
func (c *Config) KeysDir() string {
	return filepath.Join(c.GetHome(), "keys")
}

// GetNetwork returns the configured network.
func (c *Config) GetNetwork() chain.Network {
	return c.Network
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default multisig home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return homeDirName
	}
	return filepath.Join(home, homeDirName)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

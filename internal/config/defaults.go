package config

import (
	"time"

	"github.com/mrz1836/multisig/internal/chain"
)

// Default tuning values.
const (
	DefaultEsploraTimeout     = 30 * time.Second
	DefaultEsploraRate        = 5.0
	DefaultEsploraBurst       = 10
	DefaultBalanceConcurrency = 4
	DefaultBalanceTimeout     = 60 * time.Second
	DefaultWordCount          = 24
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/" + homeDirName,
		Network: chain.Testnet,
		Esplora: EsploraConfig{
			URL:           "",
			Timeout:       DefaultEsploraTimeout,
			RatePerSecond: DefaultEsploraRate,
			RateBurst:     DefaultEsploraBurst,
		},
		Balance: BalanceConfig{
			Concurrency: DefaultBalanceConcurrency,
			Timeout:     DefaultBalanceTimeout,
		},
		Keys: KeysConfig{
			WordCount: DefaultWordCount,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/" + homeDirName + "/multisig.log",
		},
	}
}

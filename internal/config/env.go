package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/mrz1836/multisig/internal/chain"
)

// Environment variable names.
const (
	EnvHome         = "MULTISIG_HOME"
	EnvNetwork      = "MULTISIG_NETWORK"
	EnvEsploraURL   = "MULTISIG_ESPLORA_URL"
	EnvOutputFormat = "MULTISIG_OUTPUT_FORMAT"
	EnvVerbose      = "MULTISIG_VERBOSE"
	EnvLogLevel     = "MULTISIG_LOG_LEVEL"
	EnvNoColor      = "NO_COLOR"
	EnvKeyPassword  = "MULTISIG_KEY_PASSWORD" // #nosec G101 -- variable name, not a credential
)

// ApplyEnvironment applies environment variable overrides to the configuration.
// Unparseable values are ignored so a stray variable never blocks startup;
// an unknown network is left for Validate to report.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = chain.Network(strings.ToLower(strings.TrimSpace(v)))
	}

	if v := os.Getenv(EnvEsploraURL); v != "" {
		cfg.Esplora.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a user-provided indexer URL: surrounding whitespace,
// control characters and embedded spaces from copy-paste are dropped, as is
// a trailing slash. Strings that do not parse as an absolute http(s) URL
// come back empty.
func SanitizeURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)

	u, err := url.Parse(cleaned)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.TrimRight(u.String(), "/")
}

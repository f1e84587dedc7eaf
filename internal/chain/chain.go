// Package chain describes the Bitcoin networks the wallet can target and the
// shared plumbing for talking to chain indexers.
package chain

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/btcsuite/btcd/chaincfg"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// Network identifies a Bitcoin network.
type Network string

// Supported networks.
const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// BIP44 coin types. Every non-mainnet network shares the testnet coin type.
const (
	CoinTypeMainnet uint32 = 0
	CoinTypeTestnet uint32 = 1
)

// SLIP-0132 version bytes for multisig P2WSH extended public keys.
//
//nolint:gochecknoglobals // Constant byte arrays
var (
	ZpubVersion = [4]byte{0x02, 0xaa, 0x7e, 0xd3}
	VpubVersion = [4]byte{0x02, 0x57, 0x54, 0x83}
)

//nolint:gochecknoglobals // Alias table
var networkAliases = map[string]Network{
	"mainnet":  Mainnet,
	"main":     Mainnet,
	"bitcoin":  Mainnet,
	"btc":      Mainnet,
	"testnet":  Testnet,
	"test":     Testnet,
	"testnet3": Testnet,
	"signet":   Signet,
	"regtest":  Regtest,
}

// ParseNetwork resolves a user-supplied network name. Unknown names yield
// ErrInvalidNetwork with the closest known name as a suggestion.
func ParseNetwork(s string) (Network, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if n, ok := networkAliases[name]; ok {
		return n, nil
	}

	err := msigerr.WithDetails(msigerr.ErrInvalidNetwork, map[string]string{"network": s})
	if best := closestNetwork(name); best != "" {
		err = msigerr.WithSuggestion(err, "did you mean '"+best+"'?")
	}
	return "", err
}

func closestNetwork(name string) string {
	best, bestDist := "", 3
	for _, n := range AllNetworks() {
		if d := levenshtein.ComputeDistance(name, string(n)); d < bestDist {
			best, bestDist = string(n), d
		}
	}
	return best
}

// AllNetworks returns every supported network.
func AllNetworks() []Network {
	return []Network{Mainnet, Testnet, Signet, Regtest}
}

// IsValid reports whether n is a supported network.
func (n Network) IsValid() bool {
	switch n {
	case Mainnet, Testnet, Signet, Regtest:
		return true
	default:
		return false
	}
}

// String returns the canonical network name.
func (n Network) String() string {
	return string(n)
}

// Params returns the btcd chain parameters for n. Unknown networks map to
// nil.
func (n Network) Params() *chaincfg.Params {
	switch n {
	case Mainnet:
		return &chaincfg.MainNetParams
	case Testnet:
		return &chaincfg.TestNet3Params
	case Signet:
		return &chaincfg.SigNetParams
	case Regtest:
		return &chaincfg.RegressionNetParams
	default:
		return nil
	}
}

// CoinType returns the BIP44 coin type used in the account path.
func (n Network) CoinType() uint32 {
	if n == Mainnet {
		return CoinTypeMainnet
	}
	return CoinTypeTestnet
}

// IsTestFamily reports whether n shares the testnet HD version bytes
// (tpub/tprv). Testnet, signet and regtest keys are indistinguishable.
func (n Network) IsTestFamily() bool {
	return n == Testnet || n == Signet || n == Regtest
}

// HDPublicVersion returns the xpub/tpub version bytes for n.
func (n Network) HDPublicVersion() [4]byte {
	if n == Mainnet {
		return chaincfg.MainNetParams.HDPublicKeyID
	}
	return chaincfg.TestNet3Params.HDPublicKeyID
}

// HDPrivateVersion returns the xprv/tprv version bytes for n.
func (n Network) HDPrivateVersion() [4]byte {
	if n == Mainnet {
		return chaincfg.MainNetParams.HDPrivateKeyID
	}
	return chaincfg.TestNet3Params.HDPrivateKeyID
}

// MatchesVersion reports whether extended key version bytes belong to n's
// version family. SLIP-0132 multisig versions are accepted alongside the
// BIP32 ones.
func (n Network) MatchesVersion(v [4]byte) bool {
	if n == Mainnet {
		return v == chaincfg.MainNetParams.HDPublicKeyID ||
			v == chaincfg.MainNetParams.HDPrivateKeyID ||
			v == ZpubVersion
	}
	return v == chaincfg.TestNet3Params.HDPublicKeyID ||
		v == chaincfg.TestNet3Params.HDPrivateKeyID ||
		v == VpubVersion
}

// Balance is the amount held by one address, in satoshis. Unconfirmed may be
// negative when mempool transactions spend confirmed outputs.
type Balance struct {
	Address     string `json:"address"`
	Confirmed   int64  `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
}

// Total returns confirmed plus unconfirmed satoshis.
func (b Balance) Total() int64 {
	return b.Confirmed + b.Unconfirmed
}

// BalanceReader queries address balances from a chain indexer.
type BalanceReader interface {
	// GetBalance returns the balance of a single address.
	GetBalance(ctx context.Context, address string) (*Balance, error)
}

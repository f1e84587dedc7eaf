package balance

import (
	"github.com/mrz1836/multisig/internal/chain"
)

// AddressBalance is the balance of one issued receive address, in satoshis.
type AddressBalance struct {
	Index       uint32 `json:"index"`
	Address     string `json:"address"`
	Confirmed   int64  `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`

	// Stale is set when the indexer failed and the value came from cache.
	Stale bool `json:"stale,omitempty"`
}

// Total returns confirmed plus unconfirmed satoshis.
func (a AddressBalance) Total() int64 {
	return a.Confirmed + a.Unconfirmed
}

// WalletBalance sums the balances of every issued address of a wallet.
type WalletBalance struct {
	Wallet      string           `json:"wallet"`
	Network     chain.Network    `json:"network"`
	Confirmed   int64            `json:"confirmed"`
	Unconfirmed int64            `json:"unconfirmed"`
	Addresses   []AddressBalance `json:"addresses"`
	Stale       bool             `json:"stale,omitempty"`
}

// Total returns confirmed plus unconfirmed satoshis.
func (w WalletBalance) Total() int64 {
	return w.Confirmed + w.Unconfirmed
}

// ProgressUpdate reports how far a fan-out has come.
type ProgressUpdate struct {
	TotalAddresses     int
	CompletedAddresses int
	CurrentAddress     string
}

// ProgressCallback is called once per finished address. Calls are
// serialized.
type ProgressCallback func(ProgressUpdate)

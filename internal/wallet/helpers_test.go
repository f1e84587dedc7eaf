package wallet_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/hdkey"
	"github.com/mrz1836/multisig/internal/wallet"
)

// cosigners returns n distinct account-level participant keys for net.
func cosigners(t testing.TB, net chain.Network, n int) []descriptor.ParticipantKey {
	t.Helper()
	keys := make([]descriptor.ParticipantKey, 0, n)
	for i := range n {
		seed, err := hdkey.NewSeed(bytes.Repeat([]byte{byte(0xa0 + i)}, 32))
		require.NoError(t, err)

		master, err := hdkey.NewMaster(seed, net)
		require.NoError(t, err)
		path := hdkey.AccountPath(net, 0)
		account, err := master.Derive(path)
		require.NoError(t, err)
		keys = append(keys, descriptor.NewParticipantKey(master, account, path))
		seed.Destroy()
	}
	return keys
}

func newTestWallet(t testing.TB, name string) *wallet.Wallet {
	t.Helper()
	w, err := wallet.Create(name, cosigners(t, chain.Testnet, 3), 2, chain.Testnet)
	require.NoError(t, err)
	return w
}

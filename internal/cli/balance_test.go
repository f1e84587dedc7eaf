package cli

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/service/balance"
)

var errIndexerDown = errors.New("indexer down")

// fakeReader returns a fixed confirmed balance per address.
type fakeReader struct {
	mu       sync.Mutex
	balances map[string]int64
	fail     bool
	calls    int
}

func (f *fakeReader) GetBalance(_ context.Context, address string) (*chain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errIndexerDown
	}
	return &chain.Balance{Address: address, Confirmed: f.balances[address], Unconfirmed: 10}, nil
}

func useReader(r chain.BalanceReader) {
	newBalanceReader = func(*config.Config) chain.BalanceReader { return r }
}

// issueAddresses creates a 2-of-3 wallet and issues n addresses from it.
func issueAddresses(t *testing.T, env *testEnv, n int) []string {
	t.Helper()
	createTestWallet(t, env, "treasury")
	walletRef = "treasury"

	addrs := make([]string, 0, n)
	for range n {
		require.NoError(t, runGetAddress(env.cmd(), nil))
		var a issuedAddress
		env.decode(t, &a)
		addrs = append(addrs, a.Address.Address)
	}
	return addrs
}

func TestGetBalance(t *testing.T) {
	env := newTestEnv(t)
	addrs := issueAddresses(t, env, 3)

	reader := &fakeReader{balances: map[string]int64{
		addrs[0]: 100_000,
		addrs[1]: 0,
		addrs[2]: 50_000_000,
	}}
	useReader(reader)

	require.NoError(t, runGetBalance(env.cmd(), nil))
	var result balance.WalletBalance
	env.decode(t, &result)

	assert.Equal(t, "treasury", result.Wallet)
	assert.Equal(t, chain.Testnet, result.Network)
	assert.Equal(t, int64(50_100_000), result.Confirmed)
	assert.Equal(t, int64(30), result.Unconfirmed)
	assert.False(t, result.Stale)
	require.Len(t, result.Addresses, 3)
	for i, a := range result.Addresses {
		assert.Equal(t, addrs[i], a.Address)
	}
	assert.Equal(t, 3, reader.calls)
	assert.FileExists(t, filepath.Join(env.cfg.Home, balanceCacheFile))
}

func TestGetBalance_NoAddresses(t *testing.T) {
	env := newTestEnv(t)
	createTestWallet(t, env, "treasury")
	walletRef = "treasury"
	reader := &fakeReader{}
	useReader(reader)

	require.NoError(t, runGetBalance(env.cmd(), nil))
	var result balance.WalletBalance
	env.decode(t, &result)
	assert.Zero(t, result.Total())
	assert.Zero(t, reader.calls)
}

func TestGetBalance_FallsBackToCache(t *testing.T) {
	env := newTestEnv(t)
	addrs := issueAddresses(t, env, 2)

	useReader(&fakeReader{balances: map[string]int64{addrs[0]: 7_000, addrs[1]: 3_000}})
	require.NoError(t, runGetBalance(env.cmd(), nil))

	useReader(&fakeReader{fail: true})
	require.NoError(t, runGetBalance(env.cmd(), nil))
	var result balance.WalletBalance
	env.decode(t, &result)

	assert.True(t, result.Stale)
	assert.Equal(t, int64(10_000), result.Confirmed)
	for _, a := range result.Addresses {
		assert.True(t, a.Stale)
	}
}

func TestGetBalance_NoCache(t *testing.T) {
	env := newTestEnv(t)
	issueAddresses(t, env, 1)
	balanceNoCache = true

	useReader(&fakeReader{fail: true})
	err := runGetBalance(env.cmd(), nil)
	require.ErrorIs(t, err, errIndexerDown)
	assert.NoFileExists(t, filepath.Join(env.cfg.Home, balanceCacheFile))
}

func TestWriteBalance_Text(t *testing.T) {
	env := newTestEnv(t)
	balanceDetail = true

	err := writeBalance(env.stdout, &balance.WalletBalance{
		Wallet:    "treasury",
		Network:   chain.Testnet,
		Confirmed: 150_000_000,
		Addresses: []balance.AddressBalance{
			{Index: 0, Address: "tb1qexample", Confirmed: 150_000_000, Stale: true},
		},
		Stale: true,
	})
	require.NoError(t, err)

	text := env.stdout.String()
	assert.Contains(t, text, "1.50000000 BTC")
	assert.Contains(t, text, "tb1qexample")
	assert.Contains(t, text, "(cached)")
	assert.Contains(t, text, "from the cache")
}

package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/wallet"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// createTestWallet runs create-wallet for a 2-of-3 wallet.
func createTestWallet(t *testing.T, env *testEnv, name string) walletSummary {
	t.Helper()
	createXpubs = strings.Join(testXpubs(t, 3), ",")
	createThreshold = 2

	require.NoError(t, runCreateWallet(env.cmd(), []string{name}))
	var summary walletSummary
	env.decode(t, &summary)
	return summary
}

func TestCreateWallet(t *testing.T) {
	env := newTestEnv(t)
	summary := createTestWallet(t, env, "treasury")

	assert.Equal(t, "treasury", summary.Name)
	assert.Equal(t, "testnet", summary.Network)
	assert.Equal(t, 2, summary.Threshold)
	assert.Len(t, summary.Participants, 3)
	assert.True(t, strings.HasPrefix(summary.Descriptor, "wsh(multi(2,["), summary.Descriptor)
	assert.Contains(t, summary.Descriptor, "#")
	assert.Equal(t, uint32(0), summary.NextIndex)
	assert.FileExists(t, summary.Path)
}

func TestCreateWallet_OrderIndependent(t *testing.T) {
	env := newTestEnv(t)
	xpubs := testXpubs(t, 3)
	createThreshold = 2

	createXpubs = strings.Join(xpubs, ",")
	require.NoError(t, runCreateWallet(env.cmd(), []string{"first"}))
	var a walletSummary
	env.decode(t, &a)

	createXpubs = strings.Join([]string{xpubs[2], xpubs[0], xpubs[1]}, ",")
	require.NoError(t, runCreateWallet(env.cmd(), []string{"second"}))
	var b walletSummary
	env.decode(t, &b)

	assert.Equal(t, a.Descriptor, b.Descriptor)
	assert.Equal(t, a.Participants, b.Participants)
}

func TestCreateWallet_DefaultName(t *testing.T) {
	env := newTestEnv(t)
	createXpubs = strings.Join(testXpubs(t, 2), ",")
	createThreshold = 1

	require.NoError(t, runCreateWallet(env.cmd(), nil))
	var summary walletSummary
	env.decode(t, &summary)
	assert.Equal(t, defaultWalletName, summary.Name)
}

func TestCreateWallet_Exists(t *testing.T) {
	env := newTestEnv(t)
	createTestWallet(t, env, "treasury")

	err := runCreateWallet(env.cmd(), []string{"treasury"})
	require.Error(t, err)
	assert.ErrorIs(t, err, msigerr.ErrWalletExists)

	var se *msigerr.MultisigError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Suggestion, "--force")

	createForce = true
	require.NoError(t, runCreateWallet(env.cmd(), []string{"treasury"}))
}

func TestCreateWallet_Errors(t *testing.T) {
	xpubs := func(t *testing.T) string { return strings.Join(testXpubs(t, 3), ",") }
	none := func(*testing.T) string { return "" }

	tests := []struct {
		name      string
		args      []string
		xpubs     func(t *testing.T) string
		keys      string
		threshold int
		want      error
	}{
		{"no keys", []string{"w"}, none, "", 1, msigerr.ErrInvalidInput},
		{"threshold above n", []string{"w"}, xpubs, "", 4, msigerr.ErrInvalidThreshold},
		{"zero threshold", []string{"w"}, xpubs, "", 0, msigerr.ErrInvalidThreshold},
		{"invalid name", []string{"my wallet!"}, xpubs, "", 2, msigerr.ErrInvalidInput},
		{"malformed xpub", []string{"w"}, func(*testing.T) string { return "tpubnotakey" }, "", 1, msigerr.ErrMalformedExtendedKey},
		{"missing local key", []string{"w"}, none, "7", 1, msigerr.ErrKeyNotFound},
		{"bad local key index", []string{"w"}, none, "x", 1, msigerr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			createXpubs = tt.xpubs(t)
			createKeys = tt.keys
			createThreshold = tt.threshold

			err := runCreateWallet(env.cmd(), tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			exists, existsErr := wallet.NewFileStorage(env.cfg.WalletsDir()).Exists("w")
			require.NoError(t, existsErr)
			assert.False(t, exists)
		})
	}
}

func TestCreateWallet_SuggestsName(t *testing.T) {
	env := newTestEnv(t)
	createXpubs = strings.Join(testXpubs(t, 2), ",")
	createThreshold = 1

	err := runCreateWallet(env.cmd(), []string{"my wallet!"})
	var se *msigerr.MultisigError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "try: mywallet", se.Suggestion)
}

func TestCreateWallet_ReportsEveryBadKey(t *testing.T) {
	env := newTestEnv(t)
	good := testXpubs(t, 1)[0]
	createXpubs = "bogus," + good + ",[zz/84h]tpubalsobad"
	createThreshold = 1

	err := runCreateWallet(env.cmd(), []string{"w"})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, merr.Errors[0].Error(), "participant 1")
	assert.Contains(t, merr.Errors[1].Error(), "participant 3")
}

func TestShowWallet(t *testing.T) {
	env := newTestEnv(t)
	created := createTestWallet(t, env, "treasury")

	walletRef = "treasury"
	require.NoError(t, runShowWallet(env.cmd(), nil))
	var shown walletSummary
	env.decode(t, &shown)

	assert.Equal(t, created.Descriptor, shown.Descriptor)
	assert.Equal(t, created.Participants, shown.Participants)
	assert.Equal(t, "2-of-3", shown.Policy)
}

func TestShowWallet_ByPath(t *testing.T) {
	env := newTestEnv(t)
	created := createTestWallet(t, env, "treasury")

	walletRef = created.Path
	require.NoError(t, runShowWallet(env.cmd(), nil))
	var shown walletSummary
	env.decode(t, &shown)
	assert.Equal(t, created.Descriptor, shown.Descriptor)
	assert.Equal(t, created.Path, shown.Path)
}

func TestShowWallet_NotFound(t *testing.T) {
	env := newTestEnv(t)
	walletRef = "missing"

	err := runShowWallet(env.cmd(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, msigerr.ErrWalletNotFound)
	assert.Equal(t, msigerr.ExitNotFound, ExitCode(err))
}

func TestListWallets(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, runListWallets(env.cmd(), nil))
	var empty []walletListEntry
	env.decode(t, &empty)
	assert.Empty(t, empty)

	createTestWallet(t, env, "beta")
	createTestWallet(t, env, "alpha")

	require.NoError(t, runListWallets(env.cmd(), nil))
	var entries []walletListEntry
	env.decode(t, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "beta", entries[1].Name)
	assert.Equal(t, 2, entries[0].Threshold)
	assert.Equal(t, 3, entries[0].Participants)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , ,b,"))
}

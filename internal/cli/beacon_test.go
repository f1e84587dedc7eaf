package cli

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/output"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func testPubKeyHex(fill byte) string {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{fill}, 32))
	return hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func TestBeaconAddress(t *testing.T) {
	env := newTestEnv(t)
	a, b := testPubKeyHex(0x21), testPubKeyHex(0x22)

	pubkeyList = a + "," + b
	require.NoError(t, runBeaconAddress(env.cmd(), nil))
	var first scriptAddress
	env.decode(t, &first)

	assert.Equal(t, "testnet", first.Network)
	assert.True(t, strings.HasPrefix(first.Address, "tb1q"), first.Address)
	assert.Equal(t, 2, first.Threshold)
	require.Len(t, first.PubKeys, 2)
	assert.NotContains(t, first.PubKeys, a)
	assert.NotContains(t, first.PubKeys, b)
	assert.NotEmpty(t, first.WitnessScript)

	pubkeyList = b + ", " + a
	require.NoError(t, runBeaconAddress(env.cmd(), nil))
	var swapped scriptAddress
	env.decode(t, &swapped)
	assert.Equal(t, first, swapped)

	rawA, err := hex.DecodeString(a)
	require.NoError(t, err)
	rawB, err := hex.DecodeString(b)
	require.NoError(t, err)
	want, _, _, err := descriptor.BeaconAddress(rawA, rawB, chain.Testnet)
	require.NoError(t, err)
	assert.Equal(t, want, first.Address)
}

func TestBeaconAddress_Mainnet(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Network = chain.Mainnet

	pubkeyList = testPubKeyHex(0x23) + "," + testPubKeyHex(0x24)
	require.NoError(t, runBeaconAddress(env.cmd(), nil))
	var result scriptAddress
	env.decode(t, &result)
	assert.True(t, strings.HasPrefix(result.Address, "bc1q"), result.Address)
}

func TestBeaconAddress_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pubkeys string
		want    error
	}{
		{"one key", testPubKeyHex(0x25), msigerr.ErrInvalidInput},
		{"three keys", testPubKeyHex(0x25) + "," + testPubKeyHex(0x26) + "," + testPubKeyHex(0x27), msigerr.ErrInvalidInput},
		{"not hex", "zz," + testPubKeyHex(0x26), msigerr.ErrInvalidInput},
		{"not a point", "02" + strings.Repeat("ff", 32) + "," + testPubKeyHex(0x26), msigerr.ErrInvalidInput},
		{"same key twice", testPubKeyHex(0x25) + "," + testPubKeyHex(0x25), msigerr.ErrDuplicateParticipant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			pubkeyList = tt.pubkeys
			err := runBeaconAddress(env.cmd(), nil)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, env.stdout.String())
		})
	}
}

func TestPubkeyAddress(t *testing.T) {
	env := newTestEnv(t)
	keys := []string{testPubKeyHex(0x31), testPubKeyHex(0x32), testPubKeyHex(0x33)}

	pubkeyList = strings.Join(keys, ",")
	pubkeyThreshold = 2
	require.NoError(t, runPubkeyAddress(env.cmd(), nil))
	var result scriptAddress
	env.decode(t, &result)

	want, script, err := descriptor.AddressFromPubKeys(2, keys, chain.Testnet)
	require.NoError(t, err)
	assert.Equal(t, want, result.Address)
	assert.Equal(t, hex.EncodeToString(script), result.WitnessScript)
	assert.Equal(t, keys, result.PubKeys)

	pubkeyThreshold = 4
	err = runPubkeyAddress(env.cmd(), nil)
	require.ErrorIs(t, err, msigerr.ErrInvalidThreshold)
}

func TestPubkeyAddress_TextOutput(t *testing.T) {
	env := newTestEnv(t)
	cmd := env.cmd()
	cc := GetCmdContext(cmd)
	cc.Fmt = output.NewFormatter(output.FormatText, env.stdout)

	pubkeyList = testPubKeyHex(0x34) + "," + testPubKeyHex(0x35)
	pubkeyThreshold = 1
	require.NoError(t, runPubkeyAddress(cmd, nil))
	assert.Contains(t, env.stdout.String(), "1-of-2")
	assert.Contains(t, env.stdout.String(), "tb1q")
}

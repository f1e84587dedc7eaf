package descriptor

import (
	"bytes"
	"encoding/hex"
	"slices"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/mrz1836/multisig/internal/bitcoin"
	"github.com/mrz1836/multisig/internal/chain"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// MaxParticipants is the largest N accepted for standard P2WSH
// OP_CHECKMULTISIG policies.
const MaxParticipants = 15

// MultisigScript builds OP_T <pk1> ... <pkN> OP_N OP_CHECKMULTISIG over
// pubKeys sorted lexicographically. The input slice is not modified.
func MultisigScript(threshold int, pubKeys [][]byte) ([]byte, error) {
	sorted := make([][]byte, len(pubKeys))
	for i, pk := range pubKeys {
		if len(pk) != 33 {
			return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
				"pubkey": hex.EncodeToString(pk),
				"reason": "compressed public keys only",
			})
		}
		if _, err := btcec.ParsePubKey(pk); err != nil {
			return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
				"pubkey": hex.EncodeToString(pk),
				"reason": "public key not on curve",
			})
		}
		sorted[i] = pk
	}
	slices.SortFunc(sorted, bytes.Compare)

	if err := checkPolicy(threshold, len(sorted)); err != nil {
		return nil, err
	}
	for i := 1; i < len(sorted); i++ {
		if bytes.Equal(sorted[i-1], sorted[i]) {
			return nil, msigerr.WithDetails(msigerr.ErrDuplicateParticipant, map[string]string{
				"key": hex.EncodeToString(sorted[i]),
			})
		}
	}
	return assembleScript(threshold, sorted)
}

// assembleScript writes the multisig template with keys in the given order.
func assembleScript(threshold int, pubKeys [][]byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	bldr.AddInt64(int64(threshold))
	for _, pk := range pubKeys {
		bldr.AddData(pk)
	}
	bldr.AddInt64(int64(len(pubKeys)))
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// checkPolicy enforces 1 <= threshold <= n <= MaxParticipants.
func checkPolicy(threshold, n int) error {
	details := map[string]string{
		"threshold":    strconv.Itoa(threshold),
		"participants": strconv.Itoa(n),
	}
	if n > MaxParticipants {
		details["maximum"] = strconv.Itoa(MaxParticipants)
		return msigerr.WithDetails(msigerr.ErrTooManyParticipants, details)
	}
	if n == 0 || threshold < 1 || threshold > n {
		return msigerr.WithDetails(msigerr.ErrInvalidThreshold, details)
	}
	return nil
}

// WitnessAddress encodes the P2WSH address paying to script on net
// (bc1 mainnet, tb1 testnet and signet, bcrt1 regtest).
func WitnessAddress(script []byte, net chain.Network) (string, error) {
	if !net.IsValid() {
		return "", msigerr.WithDetails(msigerr.ErrInvalidNetwork, map[string]string{"network": net.String()})
	}
	program := bitcoin.WitnessProgram(script)
	addr, err := btcutil.NewAddressWitnessScriptHash(program[:], net.Params())
	if err != nil {
		return "", msigerr.Wrap(err, "encode witness address")
	}
	return addr.EncodeAddress(), nil
}

// AddressFromPubKeys builds a threshold-of-N P2WSH address directly from
// hex encoded compressed public keys, without any HD derivation. It returns
// the address and its witness script.
func AddressFromPubKeys(threshold int, hexKeys []string, net chain.Network) (string, []byte, error) {
	pubKeys := make([][]byte, 0, len(hexKeys))
	for _, h := range hexKeys {
		pk, err := hex.DecodeString(h)
		if err != nil {
			return "", nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
				"pubkey": h,
				"reason": "not hex",
			})
		}
		pubKeys = append(pubKeys, pk)
	}

	script, err := MultisigScript(threshold, pubKeys)
	if err != nil {
		return "", nil, err
	}
	addr, err := WitnessAddress(script, net)
	if err != nil {
		return "", nil, err
	}
	return addr, script, nil
}

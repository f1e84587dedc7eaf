package cli

import (
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/output"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// pubkeyList is the comma separated hex public keys.
	pubkeyList string
	// pubkeyThreshold is T for pubkey-address.
	pubkeyThreshold int
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var beaconAddressCmd = &cobra.Command{
	Use:   "beacon-address",
	Short: "Derive a 2-of-2 beacon address from two public keys",
	Long: `Tweak two public keys into beacon keys and print the 2-of-2 P2WSH address
over them. Both keys are moved by the same tweak, SHA256 of
"threshold-recovery" followed by the two keys in byte order, so the result
does not depend on the order the keys are given in.`,
	Example: `  multisig beacon-address --pubkeys 02ab...,03cd...
  multisig beacon-address --pubkeys 02ab...,03cd... --network mainnet -o json`,
	Args: cobra.NoArgs,
	RunE: runBeaconAddress,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pubkeyAddressCmd = &cobra.Command{
	Use:   "pubkey-address",
	Short: "Build a multisig address from raw public keys",
	Long: `Build a T-of-N P2WSH address directly from hex compressed public keys,
without HD derivation. Keys are sorted, so their order does not matter.`,
	Example: `  multisig pubkey-address --pubkeys 02ab...,03cd...,02ef... --threshold 2`,
	Args:    cobra.NoArgs,
	RunE:    runPubkeyAddress,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	beaconAddressCmd.Flags().StringVar(&pubkeyList, "pubkeys", "", "two hex public keys, comma separated")
	_ = beaconAddressCmd.MarkFlagRequired("pubkeys")

	pubkeyAddressCmd.Flags().StringVar(&pubkeyList, "pubkeys", "", "hex public keys, comma separated")
	pubkeyAddressCmd.Flags().IntVarP(&pubkeyThreshold, "threshold", "t", 0, "signatures required to spend")
	_ = pubkeyAddressCmd.MarkFlagRequired("pubkeys")
	_ = pubkeyAddressCmd.MarkFlagRequired("threshold")

	rootCmd.AddCommand(beaconAddressCmd, pubkeyAddressCmd)
}

// scriptAddress is the printable result of beacon-address and pubkey-address.
type scriptAddress struct {
	Network       string   `json:"network"`
	Address       string   `json:"address"`
	Threshold     int      `json:"threshold"`
	PubKeys       []string `json:"pubkeys"`
	WitnessScript string   `json:"witness_script"`
}

func runBeaconAddress(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	keys := splitList(pubkeyList)
	if len(keys) != 2 {
		return msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"pubkeys": strconv.Itoa(len(keys)),
			"reason":  "beacon-address takes exactly two public keys",
		})
	}
	a, err := decodePubKey(keys[0])
	if err != nil {
		return err
	}
	b, err := decodePubKey(keys[1])
	if err != nil {
		return err
	}

	addr, script, beaconKeys, err := descriptor.BeaconAddress(a, b, cc.Cfg.Network)
	if err != nil {
		return err
	}

	encoded := make([]string, len(beaconKeys))
	for i, k := range beaconKeys {
		encoded[i] = hex.EncodeToString(k)
	}
	cc.Logger().DebugFields("beacon address derived", config.Fields{"network": cc.Cfg.Network.String()})

	return emitScriptAddress(cmd, cc, scriptAddress{
		Network:       cc.Cfg.Network.String(),
		Address:       addr,
		Threshold:     2,
		PubKeys:       encoded,
		WitnessScript: hex.EncodeToString(script),
	}, "Beacon keys")
}

func runPubkeyAddress(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	keys := splitList(pubkeyList)
	addr, script, err := descriptor.AddressFromPubKeys(pubkeyThreshold, keys, cc.Cfg.Network)
	if err != nil {
		return err
	}

	normalized := make([]string, len(keys))
	for i, k := range keys {
		normalized[i] = strings.ToLower(k)
	}

	return emitScriptAddress(cmd, cc, scriptAddress{
		Network:       cc.Cfg.Network.String(),
		Address:       addr,
		Threshold:     pubkeyThreshold,
		PubKeys:       normalized,
		WitnessScript: hex.EncodeToString(script),
	}, "Public keys")
}

func decodePubKey(s string) ([]byte, error) {
	pk, err := hex.DecodeString(s)
	if err != nil {
		return nil, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"pubkey": s,
			"reason": "not hex",
		})
	}
	return pk, nil
}

func emitScriptAddress(cmd *cobra.Command, cc *CommandContext, result scriptAddress, keysLabel string) error {
	return cc.Formatter(cmd.OutOrStdout()).Emit(result, func(w io.Writer) error {
		return output.RenderKeyValues(w, []output.KeyValue{
			{Key: "Address", Value: result.Address},
			{Key: "Network", Value: result.Network},
			{Key: "Policy", Value: strconv.Itoa(result.Threshold) + "-of-" + strconv.Itoa(len(result.PubKeys))},
			{Key: keysLabel, Value: strings.Join(result.PubKeys, ", ")},
			{Key: "Witness script", Value: result.WitnessScript},
		})
	})
}

package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/metrics"
	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/wallet"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// addressQR renders the issued address as a terminal QR code.
	addressQR bool
	// addressScripts includes witness scripts in list-addresses text output.
	addressScripts bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var getAddressCmd = &cobra.Command{
	Use:   "get-address",
	Short: "Issue the next receive address",
	Long: `Derive the receive address at the wallet's next index and advance the
index. The advanced wallet state is written to disk before the address is
printed, so an address is never shown that a later call could hand out again.`,
	Example: `  multisig get-address --wallet treasury
  multisig get-address --wallet ./shared/treasury.json --qr`,
	Args: cobra.NoArgs,
	RunE: runGetAddress,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var listAddressesCmd = &cobra.Command{
	Use:   "list-addresses",
	Short: "List the receive addresses issued so far",
	Args:  cobra.NoArgs,
	RunE:  runListAddresses,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	getAddressCmd.Flags().BoolVar(&addressQR, "qr", false, "also render the address as a QR code (terminal only)")
	listAddressesCmd.Flags().BoolVar(&addressScripts, "scripts", false, "include witness scripts")

	rootCmd.AddCommand(getAddressCmd, listAddressesCmd)
}

// issuedAddress is the printable result of get-address.
type issuedAddress struct {
	Wallet string `json:"wallet"`
	wallet.Address
	NextIndex uint32 `json:"next_index"`
}

func runGetAddress(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	lw, err := resolveWallet(cc, walletRef)
	if err != nil {
		return err
	}

	addr, err := lw.wallet.NextAddressCommit(lw.commit)
	metrics.Global.RecordAddressIssued(err)
	if err != nil {
		cc.Logger().ErrorFields("address not issued", config.Fields{
			"wallet": lw.wallet.Name(),
			"error":  err.Error(),
		})
		return err
	}

	cc.Logger().DebugFields("address issued", config.Fields{
		"wallet": lw.wallet.Name(),
		"index":  addr.Index,
	})

	result := issuedAddress{Wallet: lw.wallet.Name(), Address: *addr, NextIndex: lw.wallet.NextIndex()}
	return cc.Formatter(cmd.OutOrStdout()).Emit(result, func(w io.Writer) error {
		if err := output.RenderKeyValues(w, []output.KeyValue{
			{Key: "Address", Value: result.Address.Address},
			{Key: "Index", Value: strconv.FormatUint(uint64(result.Index), 10)},
			{Key: "Path", Value: result.Path},
			{Key: "Wallet", Value: result.Wallet},
		}); err != nil {
			return err
		}
		if addressQR {
			outln(w)
			return output.RenderQR(w, result.Address.Address, output.DefaultQRConfig())
		}
		return nil
	})
}

func runListAddresses(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	lw, err := resolveWallet(cc, walletRef)
	if err != nil {
		return err
	}

	addrs, err := lw.wallet.IssuedAddresses()
	if err != nil {
		return err
	}

	return cc.Formatter(cmd.OutOrStdout()).Emit(addrs, func(w io.Writer) error {
		if len(addrs) == 0 {
			outln(w, "No addresses issued yet.")
			outln(w, "Issue one with: multisig get-address --wallet "+lw.wallet.Name())
			return nil
		}
		headers := []string{"INDEX", "PATH", "ADDRESS"}
		if addressScripts {
			headers = append(headers, "WITNESS SCRIPT")
		}
		table := output.NewTable(headers...)
		for _, a := range addrs {
			row := []string{strconv.FormatUint(uint64(a.Index), 10), a.Path, a.Address}
			if addressScripts {
				row = append(row, a.WitnessScript)
			}
			table.AddRow(row...)
		}
		return table.Render(w)
	})
}

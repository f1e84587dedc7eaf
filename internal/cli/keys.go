package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/keystore"
	"github.com/mrz1836/multisig/internal/msigcrypto"
	"github.com/mrz1836/multisig/internal/output"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// keyIndex is the participant index for generate-key and import-key.
	keyIndex int
	// keyWords is the mnemonic length for generate-key.
	keyWords int
	// keyPassphrase prompts for an optional BIP39 passphrase.
	keyPassphrase bool
	// keyVerify makes show-key decrypt the stored key.
	keyVerify bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generate a participant key",
	Long: `Generate a new BIP39 mnemonic and derive the BIP84 account key
m/84'/coin'/0' for this network.

The account xprv and the mnemonic are encrypted with the key password and
stored under <home>/keys. Only public data is printed: share the xpub (or the
key descriptor with its origin) with the other participants.

The password is read from MULTISIG_KEY_PASSWORD or prompted for.`,
	Example: `  multisig generate-key
  multisig generate-key --index 2 --network mainnet`,
	Args: cobra.NoArgs,
	RunE: runGenerateKey,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var importKeyCmd = &cobra.Command{
	Use:   "import-key",
	Short: "Import a participant key from a mnemonic",
	Long: `Import an existing BIP39 mnemonic read from stdin. The checksum is
validated and misspelled words get suggestions. The key is stored exactly
like one made by generate-key.`,
	Example: `  multisig import-key < phrase.txt
  multisig import-key --index 1`,
	Args: cobra.NoArgs,
	RunE: runImportKey,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var listKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List stored participant keys",
	Args:  cobra.NoArgs,
	RunE:  runListKeys,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var showKeyCmd = &cobra.Command{
	Use:   "show-key <index>",
	Short: "Show a stored participant key",
	Long: `Show the public data of a stored key. With --verify the encrypted
xprv is decrypted and checked against the stored xpub.`,
	Args: cobra.ExactArgs(1),
	RunE: runShowKey,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	generateKeyCmd.Flags().IntVar(&keyIndex, "index", 0, "participant index (default: next free index)")
	generateKeyCmd.Flags().IntVar(&keyWords, "words", keystore.DefaultWordCount, "mnemonic length: 12 or 24")
	generateKeyCmd.Flags().BoolVar(&keyPassphrase, "passphrase", false, "prompt for a BIP39 passphrase")

	importKeyCmd.Flags().IntVar(&keyIndex, "index", 0, "participant index (default: next free index)")
	importKeyCmd.Flags().BoolVar(&keyPassphrase, "passphrase", false, "prompt for a BIP39 passphrase")

	showKeyCmd.Flags().BoolVar(&keyVerify, "verify", false, "decrypt the key and check it matches the xpub")

	rootCmd.AddCommand(generateKeyCmd, importKeyCmd, listKeysCmd, showKeyCmd)
}

func runGenerateKey(cmd *cobra.Command, _ []string) error {
	words := keyWords
	if !cmd.Flags().Changed("words") {
		if cc := GetCmdContext(cmd); cc.Cfg != nil && cc.Cfg.Keys.WordCount != 0 {
			words = cc.Cfg.Keys.WordCount
		}
	}
	mnemonic, err := keystore.GenerateMnemonic(words)
	if err != nil {
		return err
	}
	return storeKey(cmd, mnemonic)
}

func runImportKey(cmd *cobra.Command, _ []string) error {
	mnemonic, err := readMnemonic(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if err := keystore.ValidateMnemonic(mnemonic); err != nil {
		return err
	}
	return storeKey(cmd, mnemonic)
}

// storeKey derives and seals the account key for mnemonic and prints the
// public record. The mnemonic itself is never written to the terminal.
func storeKey(cmd *cobra.Command, mnemonic string) error {
	cc := GetCmdContext(cmd)
	store := cc.Keys()
	net := cc.Cfg.GetNetwork()

	index := keyIndex
	if !cmd.Flags().Changed("index") {
		next, err := store.NextIndex()
		if err != nil {
			return err
		}
		index = next
	}
	if index < 0 {
		return msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"index":  strconv.Itoa(index),
			"reason": "key index must not be negative",
		})
	}

	passphrase := ""
	if keyPassphrase {
		p, err := promptPassphraseFn()
		if err != nil {
			return err
		}
		passphrase = p
	}

	password, err := keyPassword(true)
	if err != nil {
		return err
	}
	defer msigcrypto.Zero(password)

	rec, err := keystore.FromMnemonic(index, mnemonic, passphrase, net, string(password))
	if err != nil {
		return err
	}
	if err := store.Save(rec); err != nil {
		return err
	}

	cc.Logger().DebugFields("key stored", config.Fields{
		"index":       rec.Index,
		"network":     rec.Network.String(),
		"fingerprint": rec.Fingerprint,
	})

	pub := rec.Public()
	return cc.Formatter(cmd.OutOrStdout()).Emit(pub, func(w io.Writer) error {
		if err := writeKey(w, pub); err != nil {
			return err
		}
		outln(w)
		outln(w, "Share the key descriptor with the other participants.")
		outln(w, "Back up the key file and remember the password: the mnemonic is stored encrypted only.")
		return nil
	})
}

func runListKeys(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	net := cc.Cfg.GetNetwork()

	records, err := cc.Keys().List(net)
	if err != nil {
		return err
	}
	pubs := make([]keystore.Public, len(records))
	for i, rec := range records {
		pubs[i] = rec.Public()
	}

	return cc.Formatter(cmd.OutOrStdout()).Emit(pubs, func(w io.Writer) error {
		if len(pubs) == 0 {
			outln(w, "No keys found for "+net.String()+".")
			outln(w, "Create one with: multisig generate-key")
			return nil
		}
		table := output.NewTable("INDEX", "FINGERPRINT", "PATH", "XPUB")
		for _, p := range pubs {
			table.AddRow(strconv.Itoa(p.Index), p.Fingerprint, p.AccountPath, p.Xpub)
		}
		return table.Render(w)
	})
}

func runShowKey(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
			"index":  args[0],
			"reason": "key index must be a non-negative integer",
		})
	}

	store := cc.Keys()
	var rec *keystore.Record
	if keyVerify {
		password, pwErr := keyPassword(false)
		if pwErr != nil {
			return pwErr
		}
		rec, err = store.Verify(index, string(password))
		msigcrypto.Zero(password)
	} else {
		rec, err = store.Load(index)
	}
	if err != nil {
		return err
	}

	type showKeyResult struct {
		keystore.Public
		Verified bool `json:"verified,omitempty"`
	}
	result := showKeyResult{Public: rec.Public(), Verified: keyVerify}

	return cc.Formatter(cmd.OutOrStdout()).Emit(result, func(w io.Writer) error {
		if err := writeKey(w, result.Public); err != nil {
			return err
		}
		if result.Verified {
			outln(w)
			output.Success(w, "stored private key matches the xpub")
		}
		return nil
	})
}

func writeKey(w io.Writer, p keystore.Public) error {
	return output.RenderKeyValues(w, []output.KeyValue{
		{Key: "Index", Value: strconv.Itoa(p.Index)},
		{Key: "Network", Value: p.Network.String()},
		{Key: "Fingerprint", Value: p.Fingerprint},
		{Key: "Path", Value: p.AccountPath},
		{Key: "Xpub", Value: p.Xpub},
		{Key: "Key descriptor", Value: p.Descriptor},
	})
}

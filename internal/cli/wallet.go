package cli

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/descriptor"
	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/wallet"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// defaultWalletName is used when create-wallet is given no name.
const defaultWalletName = "default"

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// walletRef is the --wallet flag: a wallet name or a path to a wallet file.
	walletRef string
	// createXpubs is the comma separated co-signer key list.
	createXpubs string
	// createKeys is the comma separated list of local key indexes to include.
	createKeys string
	// createThreshold is the number of required signatures.
	createThreshold int
	// createForce overwrites an existing wallet of the same name.
	createForce bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var createWalletCmd = &cobra.Command{
	Use:   "create-wallet [name]",
	Short: "Create a watch-only multisig wallet",
	Long: `Create a P2WSH threshold-of-N wallet from the participants' account xpubs.

Keys are given as bare xpubs or as key descriptors carrying their origin,
"[fingerprint/84h/1h/0h]tpub...". Keys stored on this machine can be added
by index with --keys. Participants are sorted into canonical order, so every
participant who builds the wallet from the same keys gets the same
descriptor and the same addresses.`,
	Example: `  multisig create-wallet treasury --xpubs tpubA,tpubB,tpubC --threshold 2
  multisig create-wallet vault --keys 0 --xpubs "[d34db33f/84h/1h/0h]tpubB" --threshold 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreateWallet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var showWalletCmd = &cobra.Command{
	Use:   "show-wallet",
	Short: "Show a wallet's policy and descriptor",
	Args:  cobra.NoArgs,
	RunE:  runShowWallet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var listWalletsCmd = &cobra.Command{
	Use:   "list-wallets",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE:  runListWallets,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	createWalletCmd.Flags().StringVar(&createXpubs, "xpubs", "", "comma separated participant xpubs or key descriptors")
	createWalletCmd.Flags().StringVar(&createKeys, "keys", "", "comma separated indexes of local keys to include")
	createWalletCmd.Flags().IntVarP(&createThreshold, "threshold", "t", 0, "number of signatures required")
	createWalletCmd.Flags().BoolVar(&createForce, "force", false, "overwrite an existing wallet")
	_ = createWalletCmd.MarkFlagRequired("threshold")

	for _, c := range []*cobra.Command{showWalletCmd, getAddressCmd, listAddressesCmd, getBalanceCmd} {
		c.Flags().StringVarP(&walletRef, "wallet", "w", defaultWalletName, "wallet name or path to a wallet file")
	}

	rootCmd.AddCommand(createWalletCmd, showWalletCmd, listWalletsCmd)
}

// walletSummary is the printable form of a wallet.
type walletSummary struct {
	Name         string    `json:"name"`
	Network      string    `json:"network"`
	Threshold    int       `json:"threshold"`
	Participants []string  `json:"participants"`
	Policy       string    `json:"policy"`
	Descriptor   string    `json:"descriptor"`
	NextIndex    uint32    `json:"next_index"`
	CreatedAt    time.Time `json:"created_at"`
	Path         string    `json:"path,omitempty"`
}

func summarize(w *wallet.Wallet, path string) walletSummary {
	parts := w.Participants()
	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = p.String()
	}
	return walletSummary{
		Name:         w.Name(),
		Network:      w.Network().String(),
		Threshold:    w.Threshold(),
		Participants: encoded,
		Policy:       w.Descriptor().Policy(),
		Descriptor:   w.Descriptor().String(),
		NextIndex:    w.NextIndex(),
		CreatedAt:    w.CreatedAt(),
		Path:         path,
	}
}

func runCreateWallet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	net := cc.Cfg.GetNetwork()

	name := defaultWalletName
	if len(args) == 1 {
		name = args[0]
	}
	if err := wallet.ValidateWalletName(name); err != nil {
		if suggested := wallet.SuggestWalletName(name); suggested != "" {
			return msigerr.WithSuggestion(err, "try: "+suggested)
		}
		return err
	}

	keys, err := collectParticipants(cc, createXpubs, createKeys)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return msigerr.WithSuggestion(msigerr.ErrInvalidInput,
			"provide participant keys with --xpubs and/or --keys")
	}

	w, err := wallet.Create(name, keys, createThreshold, net)
	if err != nil {
		return err
	}

	storage := cc.Wallets()
	if createForce {
		err = storage.Save(w)
	} else {
		err = storage.Create(w)
	}
	if err != nil {
		if msigerr.Is(err, msigerr.ErrWalletExists) {
			return msigerr.WithSuggestion(err, "choose another name or pass --force to overwrite")
		}
		return err
	}

	cc.Logger().DebugFields("wallet created", config.Fields{
		"wallet":       name,
		"network":      net.String(),
		"threshold":    w.Threshold(),
		"participants": w.ParticipantCount(),
	})

	summary := summarize(w, storage.Path(name))
	return cc.Formatter(cmd.OutOrStdout()).Emit(summary, func(dst io.Writer) error {
		output.Successf(dst, "created %d-of-%d wallet %q", summary.Threshold, len(summary.Participants), name)
		outln(dst)
		return writeWallet(dst, summary)
	})
}

// collectParticipants parses the --xpubs list and loads the --keys indexes.
// Every bad entry is reported, not just the first.
func collectParticipants(cc *CommandContext, xpubs, localKeys string) ([]descriptor.ParticipantKey, error) {
	var (
		keys []descriptor.ParticipantKey
		errs *multierror.Error
	)

	for i, raw := range splitList(xpubs) {
		k, err := descriptor.ParseParticipantKey(raw)
		if err != nil {
			errs = multierror.Append(errs, msigerr.Wrap(err, "participant %d", i+1))
			continue
		}
		keys = append(keys, k)
	}

	store := cc.Keys()
	for _, raw := range splitList(localKeys) {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			errs = multierror.Append(errs, msigerr.WithDetails(msigerr.ErrInvalidInput, map[string]string{
				"key":    raw,
				"reason": "key index must be a non-negative integer",
			}))
			continue
		}
		rec, err := store.Load(index)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		k, err := rec.Participant()
		if err != nil {
			errs = multierror.Append(errs, msigerr.Wrap(err, "local key %d", index))
			continue
		}
		keys = append(keys, k)
	}

	if err := errs.ErrorOrNil(); err != nil {
		if len(errs.Errors) == 1 {
			return nil, errs.Errors[0]
		}
		return nil, err
	}
	return keys, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// loadedWallet is a wallet together with where it was read from.
type loadedWallet struct {
	wallet *wallet.Wallet
	path   string
	// commit persists an advanced state back to the same place.
	commit func(wallet.State) error
}

// resolveWallet loads the wallet named by ref. A ref containing a path
// separator or ending in .json is treated as a file path, anything else as
// a name under <home>/wallets.
func resolveWallet(cc *CommandContext, ref string) (*loadedWallet, error) {
	if ref == "" {
		ref = defaultWalletName
	}

	if strings.ContainsAny(ref, `/\`) || strings.HasSuffix(ref, ".json") {
		path := config.ExpandHome(ref)
		w, err := wallet.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return &loadedWallet{
			wallet: w,
			path:   path,
			commit: func(st wallet.State) error { return wallet.SaveStateFile(path, st) },
		}, nil
	}

	storage := cc.Wallets()
	w, err := storage.Load(ref)
	if err != nil {
		if msigerr.Is(err, msigerr.ErrWalletNotFound) {
			return nil, msigerr.WithSuggestion(err, "list wallets with: multisig list-wallets")
		}
		return nil, err
	}
	return &loadedWallet{wallet: w, path: storage.Path(ref), commit: storage.SaveState}, nil
}

func runShowWallet(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	lw, err := resolveWallet(cc, walletRef)
	if err != nil {
		return err
	}

	summary := summarize(lw.wallet, lw.path)
	return cc.Formatter(cmd.OutOrStdout()).Emit(summary, func(w io.Writer) error {
		return writeWallet(w, summary)
	})
}

func writeWallet(w io.Writer, s walletSummary) error {
	pairs := []output.KeyValue{
		{Key: "Wallet", Value: s.Name},
		{Key: "Network", Value: s.Network},
		{Key: "Policy", Value: strconv.Itoa(s.Threshold) + "-of-" + strconv.Itoa(len(s.Participants))},
		{Key: "Next index", Value: strconv.FormatUint(uint64(s.NextIndex), 10)},
		{Key: "Created", Value: s.CreatedAt.Format(time.RFC3339)},
	}
	for i, p := range s.Participants {
		pairs = append(pairs, output.KeyValue{Key: "Participant " + strconv.Itoa(i+1), Value: p})
	}
	pairs = append(pairs, output.KeyValue{Key: "Descriptor", Value: s.Descriptor})
	if s.Path != "" {
		pairs = append(pairs, output.KeyValue{Key: "File", Value: s.Path})
	}
	return output.RenderKeyValues(w, pairs)
}

// walletListEntry is one row of list-wallets.
type walletListEntry struct {
	Name         string `json:"name"`
	Network      string `json:"network,omitempty"`
	Threshold    int    `json:"threshold,omitempty"`
	Participants int    `json:"participants,omitempty"`
	NextIndex    uint32 `json:"next_index"`
	Error        string `json:"error,omitempty"`
}

func runListWallets(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	storage := cc.Wallets()

	names, err := storage.List()
	if err != nil {
		return err
	}

	entries := make([]walletListEntry, 0, len(names))
	for _, name := range names {
		w, loadErr := storage.Load(name)
		if loadErr != nil {
			cc.Logger().Error("loading wallet %s: %v", name, loadErr)
			entries = append(entries, walletListEntry{Name: name, Error: msigerr.Code(loadErr)})
			continue
		}
		entries = append(entries, walletListEntry{
			Name:         name,
			Network:      w.Network().String(),
			Threshold:    w.Threshold(),
			Participants: w.ParticipantCount(),
			NextIndex:    w.NextIndex(),
		})
	}

	return cc.Formatter(cmd.OutOrStdout()).Emit(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			outln(w, "No wallets found.")
			outln(w, "Create one with: multisig create-wallet <name> --xpubs ... --threshold T")
			return nil
		}
		table := output.NewTable("NAME", "NETWORK", "POLICY", "NEXT INDEX")
		for _, e := range entries {
			if e.Error != "" {
				table.AddRow(e.Name, "-", "unreadable ("+e.Error+")", "-")
				continue
			}
			table.AddRow(e.Name, e.Network,
				strconv.Itoa(e.Threshold)+"-of-"+strconv.Itoa(e.Participants),
				strconv.FormatUint(uint64(e.NextIndex), 10))
		}
		return table.Render(w)
	})
}

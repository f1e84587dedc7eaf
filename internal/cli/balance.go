package cli

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/cache"
	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/chain/esplora"
	"github.com/mrz1836/multisig/internal/config"
	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/service/balance"
)

// balanceCacheFile is the cache location relative to the home directory.
const balanceCacheFile = "cache/balances.json"

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// balanceNoCache skips the on-disk balance cache.
	balanceNoCache bool
	// balanceDetail prints one row per address.
	balanceDetail bool
)

// newBalanceReader builds the chain client for get-balance. Tests replace it.
//
//nolint:gochecknoglobals // swapped out in tests
var newBalanceReader = func(c *config.Config) chain.BalanceReader {
	limiter := chain.DefaultRateLimiter()
	if c.Esplora.RatePerSecond > 0 && c.Esplora.RateBurst > 0 {
		limiter = chain.NewRateLimiter(c.Esplora.RatePerSecond, c.Esplora.RateBurst)
	}
	return esplora.NewClient(&esplora.ClientOptions{
		BaseURL:     c.Esplora.URL,
		Network:     c.GetNetwork(),
		Timeout:     c.Esplora.Timeout,
		RateLimiter: limiter,
	})
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var getBalanceCmd = &cobra.Command{
	Use:   "get-balance",
	Short: "Show the balance of a wallet's issued addresses",
	Long: `Query an Esplora indexer for every address issued so far and sum the
confirmed and unconfirmed balances. Lookups run concurrently and are rate
limited. When the indexer is unreachable the last cached balance is shown
and marked stale.`,
	Example: `  multisig get-balance --wallet treasury
  multisig get-balance --wallet treasury --detail -o json`,
	Args: cobra.NoArgs,
	RunE: runGetBalance,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	getBalanceCmd.Flags().BoolVar(&balanceNoCache, "no-cache", false, "do not read or update the balance cache")
	getBalanceCmd.Flags().BoolVar(&balanceDetail, "detail", false, "show the balance of each address")

	rootCmd.AddCommand(getBalanceCmd)
}

func runGetBalance(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	log := cc.Logger()

	lw, err := resolveWallet(cc, walletRef)
	if err != nil {
		return err
	}

	var (
		balanceCache *cache.BalanceCache
		cacheStore   *cache.FileStorage
	)
	if !balanceNoCache {
		cacheStore = cache.NewFileStorage(filepath.Join(cc.Cfg.GetHome(), balanceCacheFile))
		balanceCache, err = cacheStore.Load()
		if err != nil {
			if !errors.Is(err, cache.ErrCorruptCache) {
				return err
			}
			output.Warnf(cmd.ErrOrStderr(), "balance cache was unreadable and has been reset: %v", err)
		}
	}

	timeout := cc.Cfg.Balance.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBalanceTimeout
	}

	svc := balance.NewService(&balance.Config{
		Reader:      newBalanceReader(cc.Cfg),
		Network:     cc.Cfg.GetNetwork(),
		Cache:       balanceCache,
		Concurrency: cc.Cfg.Balance.Concurrency,
		Timeout:     timeout,
		Logger:      log,
		Progress: func(p balance.ProgressUpdate) {
			log.Debug("balance %d/%d %s", p.CompletedAddresses, p.TotalAddresses, p.CurrentAddress)
		},
	})

	ctx, cancel := contextWithTimeout(cmd, timeout)
	defer cancel()

	result, err := svc.FetchWallet(ctx, lw.wallet)
	if err != nil {
		return err
	}

	if cacheStore != nil {
		if saveErr := cacheStore.Save(balanceCache); saveErr != nil {
			log.Error("saving balance cache: %v", saveErr)
		}
	}

	return cc.Formatter(cmd.OutOrStdout()).Emit(result, func(w io.Writer) error {
		return writeBalance(w, result)
	})
}

func writeBalance(w io.Writer, b *balance.WalletBalance) error {
	if err := output.RenderKeyValues(w, []output.KeyValue{
		{Key: "Wallet", Value: b.Wallet},
		{Key: "Network", Value: b.Network.String()},
		{Key: "Addresses", Value: strconv.Itoa(len(b.Addresses))},
		{Key: "Confirmed", Value: chain.FormatBTC(b.Confirmed) + " BTC"},
		{Key: "Unconfirmed", Value: chain.FormatBTC(b.Unconfirmed) + " BTC"},
		{Key: "Total", Value: chain.FormatBTC(b.Total()) + " BTC"},
	}); err != nil {
		return err
	}

	if balanceDetail && len(b.Addresses) > 0 {
		outln(w)
		table := output.NewTable("INDEX", "ADDRESS", "CONFIRMED", "UNCONFIRMED", "")
		for _, a := range b.Addresses {
			mark := ""
			if a.Stale {
				mark = "(cached)"
			}
			table.AddRow(strconv.FormatUint(uint64(a.Index), 10), a.Address,
				chain.FormatBTC(a.Confirmed), chain.FormatBTC(a.Unconfirmed), mark)
		}
		if err := table.Render(w); err != nil {
			return err
		}
	}

	if b.Stale {
		outln(w)
		output.Warn(w, "some balances could not be refreshed and are shown from the cache")
	}
	return nil
}

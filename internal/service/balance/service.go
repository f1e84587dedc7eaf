// Package balance totals a wallet's funds by querying every issued receive
// address from a chain indexer in parallel.
package balance

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/multisig/internal/cache"
	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/metrics"
	"github.com/mrz1836/multisig/internal/wallet"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

// DefaultConcurrency bounds in-flight indexer requests when Config leaves
// it unset.
const DefaultConcurrency = 4

// Logger is the subset of config.Logger the service writes to.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the configuration for the balance service.
type Config struct {
	Reader      chain.BalanceReader
	Network     chain.Network
	Cache       *cache.BalanceCache
	Concurrency int
	Timeout     time.Duration
	Logger      Logger
	Progress    ProgressCallback
}

// Service fans balance lookups out over a wallet's addresses. It only reads
// wallet state and never advances the receive index.
type Service struct {
	reader      chain.BalanceReader
	network     chain.Network
	cache       *cache.BalanceCache
	concurrency int
	timeout     time.Duration
	logger      Logger
	progress    ProgressCallback
}

// NewService creates a new balance service.
func NewService(cfg *Config) *Service {
	s := &Service{
		reader:      cfg.Reader,
		network:     cfg.Network,
		cache:       cfg.Cache,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		progress:    cfg.Progress,
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	return s
}

// FetchWallet queries every address in [0, NextIndex) of w.
func (s *Service) FetchWallet(ctx context.Context, w *wallet.Wallet) (*WalletBalance, error) {
	if w.Network() != s.network {
		return nil, msigerr.WithDetails(msigerr.ErrNetworkMismatch, map[string]string{
			"wallet":  string(w.Network()),
			"indexer": string(s.network),
		})
	}

	addrs, err := w.IssuedAddresses()
	if err != nil {
		return nil, err
	}

	result, err := s.FetchAddresses(ctx, addrs)
	if err != nil {
		return nil, err
	}
	result.Wallet = w.Name()
	return result, nil
}

// FetchAddresses queries addrs with at most Concurrency requests in flight.
// An address whose lookup fails falls back to its cached balance and is
// marked stale; without a cached value the whole fetch fails. Results keep
// the order of addrs.
func (s *Service) FetchAddresses(ctx context.Context, addrs []wallet.Address) (*WalletBalance, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results := make([]AddressBalance, len(addrs))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(address string) {
		if s.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		completed++
		s.progress(ProgressUpdate{
			TotalAddresses:     len(addrs),
			CompletedAddresses: completed,
			CurrentAddress:     address,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, addr := range addrs {
		g.Go(func() error {
			ab, err := s.fetchOne(gctx, addr)
			if err != nil {
				return err
			}
			results[i] = ab
			report(addr.Address)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &WalletBalance{
		Network:   s.network,
		Addresses: results,
	}
	for _, r := range results {
		total.Confirmed += r.Confirmed
		total.Unconfirmed += r.Unconfirmed
		total.Stale = total.Stale || r.Stale
	}
	return total, nil
}

func (s *Service) fetchOne(ctx context.Context, addr wallet.Address) (AddressBalance, error) {
	ab := AddressBalance{Index: addr.Index, Address: addr.Address}

	b, err := s.reader.GetBalance(ctx, addr.Address)
	if err == nil {
		ab.Confirmed, ab.Unconfirmed = b.Confirmed, b.Unconfirmed
		if s.cache != nil {
			s.cache.Put(s.network, *b)
		}
		s.logger.Debug("balance index=%d address=%s confirmed=%d unconfirmed=%d",
			addr.Index, addr.Address, b.Confirmed, b.Unconfirmed)
		return ab, nil
	}

	s.logger.Error("balance lookup failed index=%d address=%s: %v", addr.Index, addr.Address, err)
	if s.cache != nil {
		if entry, ok, _ := s.cache.Get(s.network, addr.Address); ok {
			ab.Confirmed, ab.Unconfirmed = entry.Confirmed, entry.Unconfirmed
			ab.Stale = true
			metrics.Global.RecordCacheFallback()
			return ab, nil
		}
	}
	metrics.Global.RecordCacheMiss()
	return ab, err
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

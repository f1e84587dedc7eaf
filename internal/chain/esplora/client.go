// Package esplora queries address balances from an Esplora REST indexer
// (blockstream.info, mempool.space, or a self-hosted electrs).
package esplora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sony/gobreaker"

	"github.com/mrz1836/multisig/internal/chain"
	"github.com/mrz1836/multisig/internal/metrics"
	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// DefaultBaseURL returns the public Esplora endpoint for net. Regtest points
// at a local electrs instance.
func DefaultBaseURL(net chain.Network) string {
	switch net {
	case chain.Mainnet:
		return "https://blockstream.info/api"
	case chain.Testnet:
		return "https://blockstream.info/testnet/api"
	case chain.Signet:
		return "https://mempool.space/signet/api"
	case chain.Regtest:
		return "http://localhost:3002"
	default:
		return ""
	}
}

// ClientOptions contains optional configuration for the Esplora client.
type ClientOptions struct {
	// BaseURL overrides DefaultBaseURL(Network).
	BaseURL string

	// Network selects the address encoding accepted by GetBalance.
	Network chain.Network

	// Timeout bounds each HTTP request. Zero uses 30s.
	Timeout time.Duration

	// RateLimiter is shared across clients hitting the same host.
	RateLimiter *chain.RateLimiter

	// Retry overrides chain.DefaultRetryConfig.
	Retry *chain.RetryConfig

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client provides read-only Esplora operations.
type Client struct {
	baseURL    string
	network    chain.Network
	httpClient *http.Client
	limiter    *chain.RateLimiter
	retry      chain.RetryConfig
	breaker    *gobreaker.CircuitBreaker
}

var _ chain.BalanceReader = (*Client)(nil)

// NewClient creates an Esplora client. A nil opts targets testnet.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		network:    chain.Testnet,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    chain.DefaultRateLimiter(),
		retry:      chain.DefaultRetryConfig(),
	}

	if opts != nil {
		c.applyOptions(opts)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL(c.network)
	}
	c.breaker = newCircuitBreaker("esplora-" + c.network.String())

	return c
}

func (c *Client) applyOptions(opts *ClientOptions) {
	if opts.Network != "" {
		c.network = opts.Network
	}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	} else if opts.Timeout > 0 {
		c.httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RateLimiter != nil {
		c.limiter = opts.RateLimiter
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
}

// BaseURL returns the indexer endpoint in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// txoStats mirrors the chain_stats and mempool_stats objects.
type txoStats struct {
	FundedTxoCount int64 `json:"funded_txo_count"`
	FundedTxoSum   int64 `json:"funded_txo_sum"`
	SpentTxoCount  int64 `json:"spent_txo_count"`
	SpentTxoSum    int64 `json:"spent_txo_sum"`
	TxCount        int64 `json:"tx_count"`
}

func (s txoStats) balance() int64 {
	return s.FundedTxoSum - s.SpentTxoSum
}

// AddressResponse is the body of GET /address/:address.
type AddressResponse struct {
	Address      string   `json:"address"`
	ChainStats   txoStats `json:"chain_stats"`
	MempoolStats txoStats `json:"mempool_stats"`
}

// ValidateAddress checks that address decodes for the client network.
func (c *Client) ValidateAddress(address string) error {
	params := c.network.Params()
	if params == nil {
		return msigerr.WithDetails(msigerr.ErrInvalidNetwork, map[string]string{"network": c.network.String()})
	}
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil || !addr.IsForNet(params) {
		return msigerr.WithDetails(msigerr.ErrInvalidAddress, map[string]string{
			"address": address,
			"network": c.network.String(),
		})
	}
	return nil
}

// GetBalance returns the confirmed and mempool balance of address.
// Transient failures are retried; repeated failures open the breaker and
// fail fast until it half-opens.
func (c *Client) GetBalance(ctx context.Context, address string) (*chain.Balance, error) {
	if err := c.ValidateAddress(address); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return chain.RetryWithConfig(ctx, c.retry, func() (*chain.Balance, error) {
			return c.fetchBalance(ctx, address)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s unavailable: %w", msigerr.ErrNetworkError, c.baseURL, err)
		}
		return nil, err
	}

	balance, ok := result.(*chain.Balance)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type %T", msigerr.ErrNetworkError, result)
	}
	return balance, nil
}

func (c *Client) fetchBalance(ctx context.Context, address string) (*chain.Balance, error) {
	url := fmt.Sprintf("%s/address/%s", c.baseURL, address)

	if err := c.limiter.Wait(ctx, url); err != nil {
		return nil, err
	}

	start := time.Now()
	balance, err := c.request(ctx, url, address)
	metrics.Global.RecordIndexerCall(time.Since(start), err)
	return balance, err
}

func (c *Client) request(ctx context.Context, url, address string) (*chain.Balance, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, chain.WrapRetryable(fmt.Errorf("%w: %w", msigerr.ErrNetworkError, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var body AddressResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", msigerr.ErrNetworkError, err)
	}

	return &chain.Balance{
		Address:     address,
		Confirmed:   body.ChainStats.balance(),
		Unconfirmed: body.MempoolStats.balance(),
	}, nil
}

// checkStatus classifies non-200 responses. 429 and 5xx are retryable.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(msg))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := chain.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return fmt.Errorf("%w: retry after %s", chain.ErrRateLimited, wait)
	case resp.StatusCode >= http.StatusInternalServerError:
		return chain.WrapRetryable(fmt.Errorf("%w: status %d: %s", msigerr.ErrNetworkError, resp.StatusCode, detail))
	default:
		return fmt.Errorf("%w: status %d: %s", msigerr.ErrNetworkError, resp.StatusCode, detail)
	}
}

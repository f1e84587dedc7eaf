// Package metrics keeps process-wide counters for indexer traffic, address
// issuance and balance cache use. The CLI logs a snapshot at debug level
// when a command finishes.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds counters safe for concurrent use.
type Metrics struct {
	// Indexer lookups
	indexerCalls        atomic.Int64
	indexerErrors       atomic.Int64
	indexerLatencyNanos atomic.Int64

	// Receive addresses
	addressesIssued atomic.Int64
	issueErrors     atomic.Int64

	// Balance cache
	cacheFallbacks atomic.Int64
	cacheMisses    atomic.Int64
}

// Global is the process-wide instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordIndexerCall records one balance lookup against the indexer.
func (m *Metrics) RecordIndexerCall(duration time.Duration, err error) {
	m.indexerCalls.Add(1)
	m.indexerLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.indexerErrors.Add(1)
	}
}

// RecordAddressIssued records a get-address attempt.
func (m *Metrics) RecordAddressIssued(err error) {
	if err != nil {
		m.issueErrors.Add(1)
		return
	}
	m.addressesIssued.Add(1)
}

// RecordCacheFallback records a failed lookup answered from the cache.
func (m *Metrics) RecordCacheFallback() {
	m.cacheFallbacks.Add(1)
}

// RecordCacheMiss records a failed lookup with nothing cached.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	IndexerCalls        int64 `json:"indexer_calls"`
	IndexerErrors       int64 `json:"indexer_errors"`
	IndexerLatencyNanos int64 `json:"indexer_latency_nanos"`
	AddressesIssued     int64 `json:"addresses_issued"`
	IssueErrors         int64 `json:"issue_errors"`
	CacheFallbacks      int64 `json:"cache_fallbacks"`
	CacheMisses         int64 `json:"cache_misses"`
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		IndexerCalls:        m.indexerCalls.Load(),
		IndexerErrors:       m.indexerErrors.Load(),
		IndexerLatencyNanos: m.indexerLatencyNanos.Load(),
		AddressesIssued:     m.addressesIssued.Load(),
		IssueErrors:         m.issueErrors.Load(),
		CacheFallbacks:      m.cacheFallbacks.Load(),
		CacheMisses:         m.cacheMisses.Load(),
	}
}

// IsZero reports whether nothing has been recorded.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// IndexerLatencyAvgMs returns the average lookup latency in milliseconds,
// or 0 before the first call.
func (m *Metrics) IndexerLatencyAvgMs() float64 {
	calls := m.indexerCalls.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.indexerLatencyNanos.Load()) / float64(calls) / 1e6
}

// IndexerErrorRate returns failed lookups as a percentage (0-100).
func (m *Metrics) IndexerErrorRate() float64 {
	calls := m.indexerCalls.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.indexerErrors.Load()) / float64(calls) * 100
}

// Reset zeroes every counter.
// Useful for testing.
func (m *Metrics) Reset() {
	m.indexerCalls.Store(0)
	m.indexerErrors.Store(0)
	m.indexerLatencyNanos.Store(0)
	m.addressesIssued.Store(0)
	m.issueErrors.Store(0)
	m.cacheFallbacks.Store(0)
	m.cacheMisses.Store(0)
}

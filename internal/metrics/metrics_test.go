package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	msigerr "github.com/mrz1836/multisig/pkg/errors"
)

func TestMetrics_RecordIndexerCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordIndexerCall(100*time.Millisecond, nil)
	m.RecordIndexerCall(300*time.Millisecond, msigerr.ErrNetworkError)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.IndexerCalls)
	assert.Equal(t, int64(1), snap.IndexerErrors)
	assert.InDelta(t, 200.0, m.IndexerLatencyAvgMs(), 1.0)
	assert.InDelta(t, 50.0, m.IndexerErrorRate(), 0.001)
}

func TestMetrics_EmptyRates(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	assert.InDelta(t, 0.0, m.IndexerLatencyAvgMs(), 0.001)
	assert.InDelta(t, 0.0, m.IndexerErrorRate(), 0.001)
	assert.True(t, m.Snapshot().IsZero())
}

func TestMetrics_RecordAddressIssued(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordAddressIssued(nil)
	m.RecordAddressIssued(nil)
	m.RecordAddressIssued(msigerr.ErrPersistenceFailure)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.AddressesIssued)
	assert.Equal(t, int64(1), snap.IssueErrors)
}

func TestMetrics_Cache(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordCacheFallback()
	m.RecordCacheFallback()
	m.RecordCacheMiss()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.CacheFallbacks)
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.False(t, snap.IsZero())
}

func TestMetrics_Concurrent(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			m.RecordIndexerCall(time.Millisecond, nil)
			m.RecordAddressIssued(nil)
		})
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.IndexerCalls)
	assert.Equal(t, int64(50), snap.AddressesIssued)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordIndexerCall(time.Millisecond, nil)
	m.RecordAddressIssued(nil)
	m.RecordCacheFallback()

	m.Reset()
	assert.True(t, m.Snapshot().IsZero())
}

func TestGlobal(t *testing.T) {
	assert.NotNil(t, Global)
}

package collector

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

func mockWithInfo() *MockFetcher {
	return &MockFetcher{
		Price: 100,
		Info: map[model.Symbol]*model.CompanyInfo{
			"AAPL": {Symbol: "AAPL", Name: null.StringFrom("Apple Inc.")},
		},
	}
}

func TestCachedFetcher_SingleFetch(t *testing.T) {
	mock := mockWithInfo()
	c := NewCachedFetcher(mock, nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		bars, err := c.FetchPriceHistory(ctx, "AAPL", "5y", "1wk")
		require.NoError(t, err)
		assert.Len(t, bars, 260)
	}
	assert.Equal(t, 1, mock.Calls("FetchPriceHistory"))

	stats := c.Stats()
	assert.Equal(t, int64(4), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCachedFetcher_SymbolIsCaseInsensitive(t *testing.T) {
	mock := mockWithInfo()
	c := NewCachedFetcher(mock, nil, zerolog.Nop())
	ctx := context.Background()

	for _, s := range []model.Symbol{"aapl", "AAPL", " Aapl "} {
		info, err := c.FetchInfo(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "Apple Inc.", info.Name.String)
	}
	assert.Equal(t, 1, mock.Calls("FetchInfo"))
}

func TestCachedFetcher_DistinctParamsAreDistinctKeys(t *testing.T) {
	mock := mockWithInfo()
	c := NewCachedFetcher(mock, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := c.FetchPriceHistory(ctx, "AAPL", "5y", "1wk")
	require.NoError(t, err)
	_, err = c.FetchPriceHistory(ctx, "AAPL", "1y", "1d")
	require.NoError(t, err)
	_, err = c.FetchFinancials(ctx, "AAPL", model.Annual)
	require.NoError(t, err)
	_, err = c.FetchFinancials(ctx, "AAPL", model.Quarterly)
	require.NoError(t, err)

	assert.Equal(t, 2, mock.Calls("FetchPriceHistory"))
	assert.Equal(t, 2, mock.Calls("FetchFinancials"))
}

func TestCachedFetcher_FailureNotCached(t *testing.T) {
	mock := mockWithInfo()
	mock.Err = errors.New("connection reset")
	c := NewCachedFetcher(mock, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := c.FetchDividends(ctx, "MSFT")
	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindDividends, fe.Kind())
	assert.Equal(t, model.Symbol("MSFT"), fe.Key.Symbol)
	assert.ErrorIs(t, err, mock.Err)

	_, cached := c.FetchedAt(Key{Symbol: "MSFT", Kind: KindDividends})
	assert.False(t, cached)

	mock.Err = nil
	mock.Dividends = []model.RawDividend{{Timestamp: "2024-01-01", Amount: 1}}
	divs, err := c.FetchDividends(ctx, "MSFT")
	require.NoError(t, err)
	assert.Len(t, divs, 1)
	assert.Equal(t, 2, mock.Calls("FetchDividends"))
}

func TestCachedFetcher_UnknownSymbolPropagates(t *testing.T) {
	c := NewCachedFetcher(mockWithInfo(), nil, zerolog.Nop())
	_, err := c.FetchInfo(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

// blockingFetcher holds FetchInfo until release is closed.
type blockingFetcher struct {
	*MockFetcher
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingFetcher) FetchInfo(ctx context.Context, symbol model.Symbol) (*model.CompanyInfo, error) {
	b.calls.Add(1)
	<-b.release
	return &model.CompanyInfo{Symbol: symbol}, nil
}

func TestCachedFetcher_ConcurrentSameKey(t *testing.T) {
	bf := &blockingFetcher{MockFetcher: mockWithInfo(), release: make(chan struct{})}
	c := NewCachedFetcher(bf, nil, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := c.FetchInfo(context.Background(), "IBM")
			assert.NoError(t, err)
			assert.Equal(t, model.Symbol("IBM"), info.Symbol)
		}()
	}
	close(bf.release)
	wg.Wait()
	assert.Equal(t, int32(1), bf.calls.Load())
}

func TestCachedFetcher_Reset(t *testing.T) {
	mock := mockWithInfo()
	c := NewCachedFetcher(mock, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := c.FetchInfo(ctx, "AAPL")
	require.NoError(t, err)
	first := c.SessionID()

	c.Reset()
	assert.NotEqual(t, first, c.SessionID())
	assert.Equal(t, 0, c.Stats().Entries)

	_, err = c.FetchInfo(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls("FetchInfo"))
}

func TestCachedFetcher_Metrics(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	mock := mockWithInfo()
	c := NewCachedFetcher(mock, m, zerolog.Nop())
	ctx := context.Background()

	_, _ = c.FetchInfo(ctx, "AAPL")
	_, _ = c.FetchInfo(ctx, "AAPL")
	_, _ = c.FetchInfo(ctx, "NOPE")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues(string(KindInfo))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues(string(KindInfo))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues(string(KindInfo))))
}

func TestCachedFetcher_RecordsUnderlyingCalls(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "fetch.db"), zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	c := NewCachedFetcher(mockWithInfo(), nil, zerolog.Nop())
	c.SetRecorder(rec)
	ctx := context.Background()

	_, _ = c.FetchInfo(ctx, "AAPL")
	_, _ = c.FetchInfo(ctx, "AAPL")
	_, _ = c.FetchInfo(ctx, "NOPE")

	n, err := rec.Count("fetch_log")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "cache hits are not recorded")
}

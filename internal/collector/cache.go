package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
)

// Kind names a query type in a cache key.
type Kind string

const (
	KindPriceHistory Kind = "price_history"
	KindDividends    Kind = "dividends"
	KindFinancials   Kind = "financials"
	KindBalanceSheet Kind = "balance_sheet"
	KindInfo         Kind = "info"
)

// Key identifies one memoized query.
type Key struct {
	Symbol model.Symbol
	Kind   Kind
	Params string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Symbol, k.Kind, k.Params)
}

// FetchError is returned when the underlying Fetcher fails. It is never cached.
type FetchError struct {
	Key Key
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Kind(), e.Key.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kind returns the query kind that failed.
func (e *FetchError) Kind() Kind { return e.Key.Kind }

type entry struct {
	value     any
	fetchedAt time.Time
}

// Stats reports cache activity for the current session.
type Stats struct {
	SessionID string `json:"session_id"`
	Entries   int    `json:"entries"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
}

// CachedFetcher memoizes a Fetcher per (symbol, kind, params) for the
// lifetime of a session. Only successful results are stored. Concurrent
// calls for the same key share a single underlying fetch.
type CachedFetcher struct {
	next    Fetcher
	log     zerolog.Logger
	metrics *metrics.Metrics
	rec     recorder.Recorder
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	items     map[Key]entry
	sessionID string
	hits      int64
	misses    int64
}

// NewCachedFetcher wraps next. m may be nil.
func NewCachedFetcher(next Fetcher, m *metrics.Metrics, log zerolog.Logger) *CachedFetcher {
	return &CachedFetcher{
		next:      next,
		log:       log.With().Str("component", "fetch_cache").Logger(),
		metrics:   m,
		rec:       recorder.NewNoopRecorder(),
		now:       time.Now,
		items:     make(map[Key]entry),
		sessionID: uuid.NewString(),
	}
}

// SetRecorder logs every call that reaches the underlying Fetcher to rec.
func (c *CachedFetcher) SetRecorder(rec recorder.Recorder) {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	c.rec = rec
}

func (c *CachedFetcher) Name() string { return "cached:" + c.next.Name() }

// SessionID identifies the current cache session.
func (c *CachedFetcher) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Stats returns a snapshot of cache counters.
func (c *CachedFetcher) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{SessionID: c.sessionID, Entries: len(c.items), Hits: c.hits, Misses: c.misses}
}

// FetchedAt returns when key was stored, if it is cached.
func (c *CachedFetcher) FetchedAt(key Key) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	return e.fetchedAt, ok
}

// Reset drops every entry and starts a new session. Fetches in flight when
// Reset is called do not populate the new session.
func (c *CachedFetcher) Reset() {
	c.mu.Lock()
	old := c.sessionID
	c.items = make(map[Key]entry)
	c.sessionID = uuid.NewString()
	c.hits, c.misses = 0, 0
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SessionResets.Inc()
	}
	c.log.Info().Str("old_session", old).Str("session", c.SessionID()).Msg("fetch cache session reset")
}

func (c *CachedFetcher) lookup(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if ok {
		c.hits++
	}
	return e.value, ok
}

func (c *CachedFetcher) store(session string, key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != session {
		return
	}
	c.items[key] = entry{value: v, fetchedAt: c.now()}
}

// Fetch returns the cached value for key, or calls fetch and caches its
// result on success. Errors from fetch are wrapped in *FetchError.
func (c *CachedFetcher) Fetch(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		c.observe(key.Kind, true)
		return v, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A fetch for this key may have completed while we waited.
		if v, ok := c.lookup(key); ok {
			c.observe(key.Kind, true)
			return v, nil
		}
		session := c.SessionID()
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		c.observe(key.Kind, false)

		start := time.Now()
		v, err := fetch(ctx)
		c.record(session, key, time.Since(start), err)
		if err != nil {
			if c.metrics != nil {
				c.metrics.FetchErrors.WithLabelValues(string(key.Kind)).Inc()
			}
			c.log.Warn().Err(err).Str("key", key.String()).Msg("fetch failed, not cached")
			return nil, &FetchError{Key: key, Err: err}
		}
		c.store(session, key, v)
		c.log.Debug().Str("key", key.String()).Dur("took", time.Since(start)).Msg("fetched")
		return v, nil
	})
	return v, err
}

func (c *CachedFetcher) record(session string, key Key, took time.Duration, err error) {
	evt := &recorder.FetchEvent{
		SessionID: session,
		Symbol:    key.Symbol.String(),
		Kind:      string(key.Kind),
		Params:    key.Params,
		Duration:  took,
	}
	if err != nil {
		evt.Err = err.Error()
	}
	if rerr := c.rec.RecordFetch(evt); rerr != nil {
		c.log.Error().Err(rerr).Msg("record fetch")
	}
}

func (c *CachedFetcher) observe(kind Kind, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues(string(kind)).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(string(kind)).Inc()
	}
}

func fetchAs[T any](ctx context.Context, c *CachedFetcher, key Key, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) { return fetch(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *CachedFetcher) FetchPriceHistory(ctx context.Context, symbol model.Symbol, period, interval string) ([]model.RawBar, error) {
	symbol = model.NewSymbol(string(symbol))
	key := Key{Symbol: symbol, Kind: KindPriceHistory, Params: period + "/" + interval}
	return fetchAs(ctx, c, key, func(ctx context.Context) ([]model.RawBar, error) {
		return c.next.FetchPriceHistory(ctx, symbol, period, interval)
	})
}

func (c *CachedFetcher) FetchDividends(ctx context.Context, symbol model.Symbol) ([]model.RawDividend, error) {
	symbol = model.NewSymbol(string(symbol))
	return fetchAs(ctx, c, Key{Symbol: symbol, Kind: KindDividends}, func(ctx context.Context) ([]model.RawDividend, error) {
		return c.next.FetchDividends(ctx, symbol)
	})
}

func (c *CachedFetcher) FetchFinancials(ctx context.Context, symbol model.Symbol, freq model.Frequency) ([]model.Statement, error) {
	symbol = model.NewSymbol(string(symbol))
	key := Key{Symbol: symbol, Kind: KindFinancials, Params: string(freq)}
	return fetchAs(ctx, c, key, func(ctx context.Context) ([]model.Statement, error) {
		return c.next.FetchFinancials(ctx, symbol, freq)
	})
}

func (c *CachedFetcher) FetchBalanceSheet(ctx context.Context, symbol model.Symbol) ([]model.Statement, error) {
	symbol = model.NewSymbol(string(symbol))
	return fetchAs(ctx, c, Key{Symbol: symbol, Kind: KindBalanceSheet}, func(ctx context.Context) ([]model.Statement, error) {
		return c.next.FetchBalanceSheet(ctx, symbol)
	})
}

func (c *CachedFetcher) FetchInfo(ctx context.Context, symbol model.Symbol) (*model.CompanyInfo, error) {
	symbol = model.NewSymbol(string(symbol))
	return fetchAs(ctx, c, Key{Symbol: symbol, Kind: KindInfo}, func(ctx context.Context) (*model.CompanyInfo, error) {
		return c.next.FetchInfo(ctx, symbol)
	})
}

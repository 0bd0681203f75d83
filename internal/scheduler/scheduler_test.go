package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/collector"
	"StockLens/internal/recorder"
)

func newCache() *collector.CachedFetcher {
	return collector.NewCachedFetcher(&collector.MockFetcher{Price: 100}, nil, zerolog.Nop())
}

func TestRegisterAll_InvalidCron(t *testing.T) {
	s := NewScheduler(newCache(), nil, zerolog.Nop())
	assert.Error(t, s.RegisterAll("not a cron"))
	assert.Error(t, s.RegisterAll("0 0 * * *"), "five fields lack seconds")
	assert.NoError(t, s.RegisterAll("0 0 0 * * *"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestResetSession_Records(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "s.db"), zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	cache := newCache()
	s := NewScheduler(cache, rec, zerolog.Nop())
	before := cache.SessionID()

	after := s.ResetSession(TriggerAPI)
	assert.NotEqual(t, before, after)
	assert.Equal(t, after, cache.SessionID())

	n, err := rec.Count("session_log")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScheduler_RunsReset(t *testing.T) {
	cache := newCache()
	s := NewScheduler(cache, nil, zerolog.Nop())
	require.NoError(t, s.RegisterAll("@every 1s"))
	before := cache.SessionID()

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return cache.SessionID() != before }, 3*time.Second, 50*time.Millisecond)
}

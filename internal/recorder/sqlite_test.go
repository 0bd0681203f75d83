package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Analyses(t *testing.T) {
	r := openTestRecorder(t)
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, r.RecordAnalysis(&AnalysisEvent{
		Symbol: "AAPL", RangeStart: "2020-01-01", RangeEnd: "2024-01-01",
		ShortWindow: 20, LongWindow: 50, OscillatorWindow: 14, Rows: 209,
		Duration: 1500 * time.Microsecond,
	}))
	require.NoError(t, r.RecordAnalysis(&AnalysisEvent{Symbol: "MSFT", Rows: 0}))

	got, err := r.RecentAnalyses(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MSFT", got[0].Symbol)
	assert.Equal(t, "AAPL", got[1].Symbol)
	assert.Equal(t, 209, got[1].Rows)
	assert.Equal(t, 14, got[1].OscillatorWindow)
	assert.Equal(t, 1500*time.Microsecond, got[1].Duration)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got[1].RecordedAt)

	limited, err := r.RecentAnalyses(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_FetchAndSession(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordFetch(&FetchEvent{SessionID: "s1", Symbol: "AAPL", Kind: "info", Duration: time.Second}))
	require.NoError(t, r.RecordFetch(&FetchEvent{SessionID: "s1", Symbol: "NOPE", Kind: "info", Err: "unknown symbol"}))
	require.NoError(t, r.RecordSession(&SessionEvent{OldSession: "s1", NewSession: "s2", Trigger: "cron"}))

	n, err := r.Count("fetch_log")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.Count("session_log")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.Count("sqlite_master; DROP TABLE fetch_log")
	assert.Error(t, err)
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.RecordAnalysis(&AnalysisEvent{Symbol: "IBM"}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()
	got, err := r.RecentAnalyses(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "IBM", got[0].Symbol)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordFetch(&FetchEvent{}))
	assert.NoError(t, r.RecordAnalysis(&AnalysisEvent{}))
	got, err := r.RecentAnalyses(5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, r.Close())
}

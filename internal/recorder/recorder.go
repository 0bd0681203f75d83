package recorder

import "time"

// FetchEvent describes one call that reached the external data source.
type FetchEvent struct {
	SessionID string
	Symbol    string
	Kind      string
	Params    string
	Duration  time.Duration
	Err       string // empty on success
}

// AnalysisEvent describes one indicator request. Indicator values are not
// stored.
type AnalysisEvent struct {
	Symbol           string
	RangeStart       string // YYYY-MM-DD
	RangeEnd         string
	ShortWindow      int
	LongWindow       int
	OscillatorWindow int
	Rows             int
	Duration         time.Duration
	RecordedAt       time.Time
}

// SessionEvent records a fetch cache session change.
type SessionEvent struct {
	OldSession string
	NewSession string
	Trigger    string // "cron", "api"
}

// Recorder persists request history for later inspection.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecordAnalysis(evt *AnalysisEvent) error
	RecordSession(evt *SessionEvent) error
	RecentAnalyses(limit int) ([]AnalysisEvent, error)
	Close() error
}

package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFetch(_ *FetchEvent) error               { return nil }
func (n *NoopRecorder) RecordAnalysis(_ *AnalysisEvent) error         { return nil }
func (n *NoopRecorder) RecordSession(_ *SessionEvent) error           { return nil }
func (n *NoopRecorder) RecentAnalyses(_ int) ([]AnalysisEvent, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                  { return nil }

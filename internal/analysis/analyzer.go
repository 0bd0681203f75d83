// Package analysis runs the request pipeline: fetch, normalize, filter and
// compute indicators for one symbol and date range.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
	"StockLens/internal/series"
)

var (
	// ErrEmptySymbol is returned for a blank symbol.
	ErrEmptySymbol = errors.New("symbol is required")
	// ErrInvalidWindows wraps window validation failures.
	ErrInvalidWindows = errors.New("invalid indicator windows")
)

// Config selects the history requested from the data source and the
// default indicator windows.
type Config struct {
	Period   string // e.g. "5y"
	Interval string // e.g. "1wk"
	Windows  model.Windows
}

// Request is one analysis request. Zero Start or End default to the bounds
// of the fetched series; zero window fields take the configured defaults.
type Request struct {
	Symbol  model.Symbol
	Start   time.Time
	End     time.Time
	Windows model.Windows
}

// Result is the outcome of Analyze. Range is nil when the series is empty.
type Result struct {
	Symbol  model.Symbol         `json:"symbol"`
	Range   *series.DateRange    `json:"range"`
	Windows model.Windows        `json:"windows"`
	Summary model.PriceSummary   `json:"summary"`
	Rows    []model.IndicatorRow `json:"rows"`
}

// Analyzer orchestrates the pipeline over a (cached) Fetcher.
type Analyzer struct {
	fetcher collector.Fetcher
	cfg     Config
	rec     recorder.Recorder
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewAnalyzer creates an Analyzer. rec and m may be nil.
func NewAnalyzer(f collector.Fetcher, cfg Config, rec recorder.Recorder, m *metrics.Metrics, log zerolog.Logger) *Analyzer {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if cfg.Period == "" {
		cfg.Period = "5y"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1wk"
	}
	cfg.Windows = withDefaults(cfg.Windows, calculator.DefaultWindows)
	return &Analyzer{
		fetcher: f,
		cfg:     cfg,
		rec:     rec,
		metrics: m,
		log:     log.With().Str("component", "analysis").Logger(),
	}
}

func withDefaults(w, d model.Windows) model.Windows {
	if w.Short == 0 {
		w.Short = d.Short
	}
	if w.Long == 0 {
		w.Long = d.Long
	}
	if w.Oscillator == 0 {
		w.Oscillator = d.Oscillator
	}
	return w
}

// Windows returns the default windows applied to requests.
func (a *Analyzer) Windows() model.Windows { return a.cfg.Windows }

// History fetches and normalizes the full configured history for symbol.
func (a *Analyzer) History(ctx context.Context, symbol model.Symbol) (model.TimeSeries, error) {
	raw, err := a.fetcher.FetchPriceHistory(ctx, symbol, a.cfg.Period, a.cfg.Interval)
	if err != nil {
		return nil, err
	}
	ts := series.Normalize(raw)
	if dropped := len(raw) - len(ts); dropped > 0 {
		a.log.Warn().Str("symbol", symbol.String()).Int("dropped", dropped).Msg("dropped unusable rows during normalization")
	}
	return ts, nil
}

// Analyze runs fetch, normalize, filter and compute. A malformed range is
// rejected before anything is fetched. An empty series yields an empty
// result, not an error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	symbol := model.NewSymbol(string(req.Symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	windows := withDefaults(req.Windows, a.cfg.Windows)
	if err := calculator.ValidateWindows(windows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindows, err)
	}
	if !req.Start.IsZero() && !req.End.IsZero() {
		if _, err := series.NewDateRange(req.Start, req.End); err != nil {
			return nil, err
		}
	}

	ts, err := a.History(ctx, symbol)
	if err != nil {
		return nil, err
	}

	result := &Result{Symbol: symbol, Windows: windows, Rows: []model.IndicatorRow{}}
	span, ok := series.Span(ts)
	if !ok {
		a.log.Info().Str("symbol", symbol.String()).Msg("empty series, skipping indicators")
		result.Summary = calculator.Summarize(nil)
		a.record(result, 0)
		return result, nil
	}

	start, end := openBounds(req.Start, req.End, span)
	r, err := series.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	filtered := series.Filter(ts, r)

	began := time.Now()
	result.Rows = calculator.ComputeIndicators(filtered, windows.Short, windows.Long, windows.Oscillator)
	took := time.Since(began)
	result.Range = &r
	result.Summary = calculator.Summarize(filtered)

	if a.metrics != nil {
		a.metrics.IndicatorComputeDur.Observe(took.Seconds())
		a.metrics.IndicatorRowsTotal.Add(float64(len(result.Rows)))
	}
	a.log.Debug().
		Str("symbol", symbol.String()).
		Str("range", r.String()).
		Int("rows", len(result.Rows)).
		Dur("took", took).
		Msg("indicators computed")
	a.record(result, took)
	return result, nil
}

// openBounds fills zero bounds from span. A single given bound beyond the
// span yields an empty range on that day rather than an inverted one.
func openBounds(start, end time.Time, span series.DateRange) (time.Time, time.Time) {
	switch {
	case start.IsZero() && end.IsZero():
		return span.Start, span.End
	case start.IsZero():
		start = span.Start
		if start.After(end) {
			start = end
		}
	case end.IsZero():
		end = span.End
		if end.Before(start) {
			end = start
		}
	}
	return start, end
}

func (a *Analyzer) record(res *Result, took time.Duration) {
	evt := &recorder.AnalysisEvent{
		Symbol:           res.Symbol.String(),
		ShortWindow:      res.Windows.Short,
		LongWindow:       res.Windows.Long,
		OscillatorWindow: res.Windows.Oscillator,
		Rows:             len(res.Rows),
		Duration:         took,
	}
	if res.Range != nil {
		evt.RangeStart = res.Range.Start.Format("2006-01-02")
		evt.RangeEnd = res.Range.End.Format("2006-01-02")
	}
	if err := a.rec.RecordAnalysis(evt); err != nil {
		a.log.Error().Err(err).Msg("record analysis")
	}
}

// Dividends returns the dividend events of symbol within [start, end].
// Zero bounds are open.
func (a *Analyzer) Dividends(ctx context.Context, symbol model.Symbol, start, end time.Time) ([]model.Dividend, error) {
	symbol = model.NewSymbol(string(symbol))
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if !start.IsZero() && !end.IsZero() {
		if _, err := series.NewDateRange(start, end); err != nil {
			return nil, err
		}
	}
	raw, err := a.fetcher.FetchDividends(ctx, symbol)
	if err != nil {
		return nil, err
	}
	divs := series.NormalizeDividends(raw)
	if len(divs) == 0 {
		return divs, nil
	}
	start, end = openBounds(start, end, series.DateRange{Start: divs[0].Time, End: divs[len(divs)-1].Time})
	r, err := series.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return series.FilterDividends(divs, r), nil
}

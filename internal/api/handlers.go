package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"StockLens/internal/analysis"
	"StockLens/internal/collector"
	"StockLens/internal/fundamentals"
	"StockLens/internal/model"
	"StockLens/internal/recorder"
	"StockLens/internal/report"
	"StockLens/internal/scheduler"
	"StockLens/internal/series"
)

func symbolParam(r *http.Request) model.Symbol {
	return model.NewSymbol(chi.URLParam(r, "symbol"))
}

// parseRange reads optional start/end query dates. Either may be omitted.
func parseRange(q url.Values) (start, end time.Time, err error) {
	startRaw, endRaw := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if startRaw != "" && endRaw != "" {
		r, err := series.ParseDateRange(startRaw, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return r.Start, r.End, nil
	}
	if startRaw != "" {
		t, ok := series.ParseTimestamp(startRaw)
		if !ok {
			return time.Time{}, time.Time{}, &series.InvalidRangeError{Start: startRaw, End: endRaw, Reason: "start is not a date"}
		}
		start = t
	}
	if endRaw != "" {
		t, ok := series.ParseTimestamp(endRaw)
		if !ok {
			return time.Time{}, time.Time{}, &series.InvalidRangeError{Start: startRaw, End: endRaw, Reason: "end is not a date"}
		}
		end = t
	}
	return start, end, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, name, raw)
	}
	return n, nil
}

func (s *Server) analysisRequest(r *http.Request) (analysis.Request, error) {
	q := r.URL.Query()
	req := analysis.Request{Symbol: symbolParam(r)}
	var err error
	if req.Start, req.End, err = parseRange(q); err != nil {
		return req, err
	}
	if req.Windows.Short, err = intParam(q, "short"); err != nil {
		return req, err
	}
	if req.Windows.Long, err = intParam(q, "long"); err != nil {
		return req, err
	}
	if req.Windows.Oscillator, err = intParam(q, "rsi"); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.cache != nil {
		resp["source"] = s.cache.Name()
		resp["session_id"] = s.cache.SessionID()
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	req, err := s.analysisRequest(r)
	if err != nil {
		s.sendError(w, err)
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, res)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.fundamentals.Profile(r.Context(), symbolParam(r))
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, info)
}

func (s *Server) handleRatios(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	set, err := s.fundamentals.Ratios(r.Context(), symbol)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, model.ComparisonRow{Symbol: symbol, Ratios: set})
}

func (s *Server) handleDividends(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r.URL.Query())
	if err != nil {
		s.sendError(w, err)
		return
	}
	divs, err := s.analyzer.Dividends(r.Context(), symbolParam(r), start, end)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, divs)
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	freq := model.Frequency(strings.ToLower(r.URL.Query().Get("freq")))
	switch freq {
	case "":
		freq = model.Annual
	case model.Annual, model.Quarterly:
	default:
		s.sendError(w, fmt.Errorf("%w: freq must be %q or %q", errBadRequest, model.Annual, model.Quarterly))
		return
	}
	rows, err := s.fundamentals.Financials(r.Context(), symbolParam(r), freq)
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, rows)
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := s.fundamentals.BalanceSnapshot(r.Context(), symbolParam(r))
	if err != nil {
		s.sendError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, sheet)
}

// handleReport renders a plain-text report. Only the company profile is
// required; other sections are skipped when their lookup fails.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := symbolParam(r)
	info, err := s.fundamentals.Profile(ctx, symbol)
	if err != nil {
		s.sendError(w, err)
		return
	}
	full := report.Full{Info: info, Ratios: fundamentals.RatioSetOf(info)}

	req, err := s.analysisRequest(r)
	if err != nil {
		s.sendError(w, err)
		return
	}
	if full.Analysis, err = s.analyzer.Analyze(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol.String()).Msg("report: skipping technical summary")
	}
	if full.Financials, err = s.fundamentals.Financials(ctx, symbol, model.Annual); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol.String()).Msg("report: skipping financials")
	}
	if full.Dividends, err = s.analyzer.Dividends(ctx, symbol, req.Start, req.End); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol.String()).Msg("report: skipping dividends")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.FormatFull(full)))
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var symbols []model.Symbol
	for _, part := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if sym := model.NewSymbol(part); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	if len(symbols) == 0 {
		s.sendError(w, fmt.Errorf("%w: symbols is required", errBadRequest))
		return
	}
	s.sendJSON(w, http.StatusOK, s.fundamentals.Compare(r.Context(), symbols))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		s.sendError(w, err)
		return
	}
	events, err := s.recorder.RecentAnalyses(limit)
	if err != nil {
		s.sendError(w, err)
		return
	}
	if events == nil {
		events = []recorder.AnalysisEvent{}
	}
	s.sendJSON(w, http.StatusOK, events)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		s.sendJSON(w, http.StatusOK, collector.Stats{})
		return
	}
	s.sendJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheReset(w http.ResponseWriter, _ *http.Request) {
	var session string
	switch {
	case s.resetter != nil:
		session = s.resetter.ResetSession(scheduler.TriggerAPI)
	case s.cache != nil:
		s.cache.Reset()
		session = s.cache.SessionID()
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"session_id": session})
}

// Package series turns raw provider rows into canonical time series and
// serves date-bounded slices of them.
//
// All normalized timestamps are UTC. Inputs carrying an offset are converted
// to UTC; inputs without one (date-only or naive date-times) are read as UTC.
// Comparisons elsewhere in the pipeline therefore never mix representations.
package series

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/model"
)

// layouts accepted by ParseTimestamp, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a raw timestamp and returns it in UTC.
// All-digit input is read as unix seconds.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if isDigits(raw) {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0).UTC(), true
	}
	for _, layout := range layouts {
		// time.Parse reads layouts without an offset as UTC.
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseBars parses every row's timestamp, dropping rows that fail to parse.
// The second value is the number of dropped rows.
func ParseBars(raw []model.RawBar) (model.TimeSeries, int) {
	bars := make(model.TimeSeries, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		t, ok := ParseTimestamp(r.Timestamp)
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, dropped
}

// ToUTC rewrites every timestamp into UTC in place.
func ToUTC(ts model.TimeSeries) model.TimeSeries {
	for i := range ts {
		ts[i].Time = ts[i].Time.UTC()
	}
	return ts
}

// SortDedupe sorts ascending by time, reusing ts. When several rows share a timestamp the
// first one in input order is kept. The second value is the number dropped.
func SortDedupe(ts model.TimeSeries) (model.TimeSeries, int) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Time.Before(ts[j].Time) })
	out := ts[:0]
	for i, b := range ts {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out, len(ts) - len(out)
}

// Normalize parses, converts to UTC, sorts and dedupes raw rows.
// The result satisfies the TimeSeries invariants; it may be empty.
func Normalize(raw []model.RawBar) model.TimeSeries {
	ts, _ := ParseBars(raw)
	ts = ToUTC(ts)
	ts, _ = SortDedupe(ts)
	return ts
}

// NormalizeDividends applies the same timestamp rule to dividend events.
func NormalizeDividends(raw []model.RawDividend) []model.Dividend {
	divs := make([]model.Dividend, 0, len(raw))
	for _, r := range raw {
		t, ok := ParseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		divs = append(divs, model.Dividend{Time: t, Amount: r.Amount})
	}
	sort.SliceStable(divs, func(i, j int) bool { return divs[i].Time.Before(divs[j].Time) })
	out := divs[:0]
	for i, d := range divs {
		if i > 0 && d.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, d)
	}
	return out
}

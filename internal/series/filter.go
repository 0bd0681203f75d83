package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StockLens/internal/model"
)

const dateLayout = "2006-01-02"

// InvalidRangeError reports a malformed date range. Callers should re-prompt.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s]: %s", e.Start, e.End, e.Reason)
}

// IsInvalidRange reports whether err is, or wraps, an InvalidRangeError.
func IsInvalidRange(err error) bool {
	var ire *InvalidRangeError
	return errors.As(err, &ire)
}

// DateRange is an inclusive pair of UTC calendar dates with Start <= End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// calendarDay keeps t's own calendar date and re-expresses it as UTC midnight.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDateRange builds a range from two dates in any location. Only the
// calendar date of each value is kept.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := calendarDay(start), calendarDay(end)
	if s.After(e) {
		return DateRange{}, &InvalidRangeError{
			Start:  s.Format(dateLayout),
			End:    e.Format(dateLayout),
			Reason: "start is after end",
		}
	}
	return DateRange{Start: s, End: e}, nil
}

// ParseDateRange parses two YYYY-MM-DD (or any ParseTimestamp form) strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, ok := ParseTimestamp(start)
	if !ok {
		return DateRange{}, &InvalidRangeError{Start: start, End: end, Reason: "start is not a date"}
	}
	e, ok := ParseTimestamp(end)
	if !ok {
		return DateRange{}, &InvalidRangeError{Start: start, End: end, Reason: "end is not a date"}
	}
	return NewDateRange(s, e)
}

// Contains reports whether t falls on a calendar day within the range.
func (r DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start) && t.Before(r.End.AddDate(0, 0, 1))
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout)
}

// MarshalJSON encodes the range as {"start":"YYYY-MM-DD","end":"YYYY-MM-DD"}.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format(dateLayout), r.End.Format(dateLayout)})
}

// Span returns the calendar range covered by the series. ok is false for an
// empty series.
func Span(ts model.TimeSeries) (r DateRange, ok bool) {
	if len(ts) == 0 {
		return DateRange{}, false
	}
	return DateRange{Start: calendarDay(ts[0].Time.UTC()), End: calendarDay(ts[len(ts)-1].Time.UTC())}, true
}

func filterByTime[T any](rows []T, at func(T) time.Time, r DateRange) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if r.Contains(at(row)) {
			out = append(out, row)
		}
	}
	return out
}

// FilterRange returns the rows whose date lies within [start, end]. A range
// outside the series span yields an empty result, not an error.
func FilterRange(ts model.TimeSeries, start, end time.Time) (model.TimeSeries, error) {
	r, err := NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	return Filter(ts, r), nil
}

// Filter applies an already validated range.
func Filter(ts model.TimeSeries, r DateRange) model.TimeSeries {
	return filterByTime(ts, func(b model.OHLCV) time.Time { return b.Time }, r)
}

// FilterDividends applies a range to dividend events.
func FilterDividends(divs []model.Dividend, r DateRange) []model.Dividend {
	return filterByTime(divs, func(d model.Dividend) time.Time { return d.Time }, r)
}

package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockLens/internal/model"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 4, 5, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"1709528400", want, true},
		{"2024-03-04T05:00:00Z", want, true},
		{"2024-03-04T00:00:00-05:00", want, true},
		{"2024-03-04 00:00:00-05:00", want, true},
		{"2024-03-04 05:00:00", want, true},
		{"2024-03-04T05:00:00", want, true},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"2024-13-40", time.Time{}, false},
		{"-", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}

func TestParseBars_DropsUnparseable(t *testing.T) {
	raw := []model.RawBar{
		{Timestamp: "2024-01-01", Close: 1},
		{Timestamp: "garbage", Close: 2},
		{Timestamp: "", Close: 3},
		{Timestamp: "2024-01-02", Close: 4},
	}
	ts, dropped := ParseBars(raw)
	require.Len(t, ts, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 1.0, ts[0].Close)
	assert.Equal(t, 4.0, ts[1].Close)
}

func TestToUTC(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	ts := model.TimeSeries{{Time: time.Date(2024, 1, 1, 20, 0, 0, 0, ny)}}
	ts = ToUTC(ts)
	assert.Equal(t, time.UTC, ts[0].Time.Location())
	assert.Equal(t, 2, ts[0].Time.Day())
}

func TestSortDedupe_KeepsFirstOccurrence(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	ts := model.TimeSeries{
		{Time: d(3), Close: 30},
		{Time: d(1), Close: 10},
		{Time: d(3), Close: 31},
		{Time: d(2), Close: 20},
		{Time: d(1), Close: 11},
	}
	out, dropped := SortDedupe(ts)
	require.Len(t, out, 3)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []float64{10, 20, 30}, out.Closes())
}

func TestNormalize_MixedOffsetsBecomeUTC(t *testing.T) {
	raw := []model.RawBar{
		{Timestamp: "2024-01-02T00:00:00-05:00", Close: 2},
		{Timestamp: "2024-01-01", Close: 1},
		// Same instant as the first row, expressed in UTC.
		{Timestamp: "2024-01-02T05:00:00Z", Close: 99},
	}
	ts := Normalize(raw)
	require.Len(t, ts, 2)
	assert.Equal(t, []float64{1, 2}, ts.Closes())
	for _, b := range ts {
		assert.Equal(t, time.UTC, b.Time.Location())
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []model.RawBar{
		{Timestamp: "1704067200", Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: "2023-12-25", Close: 1.1},
		{Timestamp: "bad", Close: 7},
		{Timestamp: "2024-01-08T09:30:00-05:00", Close: 1.7, Volume: 3},
		{Timestamp: "2023-12-25 00:00:00", Close: 1.2},
	}
	once := Normalize(raw)
	twice := Normalize(once.Raw())
	require.Len(t, twice, len(once))
	for i := range once {
		assert.True(t, once[i].Time.Equal(twice[i].Time))
		assert.Equal(t, once[i].Close, twice[i].Close)
		assert.Equal(t, once[i].Volume, twice[i].Volume)
	}
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Empty(t, Normalize([]model.RawBar{{Timestamp: "x"}}))
}

func TestNormalizeDividends(t *testing.T) {
	divs := NormalizeDividends([]model.RawDividend{
		{Timestamp: "2024-05-10", Amount: 0.25},
		{Timestamp: "oops", Amount: 9},
		{Timestamp: "2024-02-09", Amount: 0.24},
		{Timestamp: "2024-02-09", Amount: 0.5},
	})
	require.Len(t, divs, 2)
	assert.Equal(t, 0.24, divs[0].Amount)
	assert.Equal(t, 0.25, divs[1].Amount)
}

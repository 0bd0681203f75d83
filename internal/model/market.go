package model

import (
	"strings"
	"time"
)

// Symbol is a case-insensitive instrument identifier, normalized to uppercase.
type Symbol string

// NewSymbol trims and uppercases a user-supplied symbol.
func NewSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string { return string(s) }

// RawBar is an OHLCV row as delivered by a data source, before normalization.
// Timestamp is kept in its source form.
type RawBar struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TimeSeries is strictly increasing by Time, with every Time in UTC.
// Treat it as immutable once built.
type TimeSeries []OHLCV

// Closes returns the close prices in order.
func (ts TimeSeries) Closes() []float64 {
	closes := make([]float64, len(ts))
	for i, b := range ts {
		closes[i] = b.Close
	}
	return closes
}

// Raw converts the series back to source form.
func (ts TimeSeries) Raw() []RawBar {
	raw := make([]RawBar, len(ts))
	for i, b := range ts {
		raw[i] = RawBar{
			Timestamp: b.Time.Format(time.RFC3339Nano),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return raw
}

// RawDividend is a dividend event before normalization.
type RawDividend struct {
	Timestamp string
	Amount    float64
}

// Dividend is a normalized dividend event.
type Dividend struct {
	Time   time.Time `json:"time"`
	Amount float64   `json:"amount"`
}

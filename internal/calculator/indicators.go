package calculator

import (
	"fmt"

	"StockLens/internal/model"
)

// Oscillator window bounds accepted from user input.
const (
	MinOscillatorWindow = 7
	MaxOscillatorWindow = 30
)

// DefaultWindows matches the weekly dashboard: MA20, MA50, RSI/MFI 14.
var DefaultWindows = model.Windows{Short: 20, Long: 50, Oscillator: 14}

// ValidateWindows checks user-supplied window lengths.
func ValidateWindows(w model.Windows) error {
	if w.Short <= 0 || w.Long <= 0 {
		return fmt.Errorf("moving average windows must be positive (short=%d, long=%d)", w.Short, w.Long)
	}
	if w.Oscillator < MinOscillatorWindow || w.Oscillator > MaxOscillatorWindow {
		return fmt.Errorf("oscillator window must be within %d-%d, got %d",
			MinOscillatorWindow, MaxOscillatorWindow, w.Oscillator)
	}
	return nil
}

// ComputeIndicators returns one row per bar, in the same order, with moving
// averages and oscillators attached. It never fails: missing history and
// non-positive windows leave the affected fields undefined.
func ComputeIndicators(bars model.TimeSeries, shortWindow, longWindow, oscillatorWindow int) []model.IndicatorRow {
	closes := bars.Closes()
	maShort := MovingAverage(closes, shortWindow)
	maLong := MovingAverage(closes, longWindow)
	rsi := RSI(closes, oscillatorWindow)
	mfi := MFI(bars, oscillatorWindow)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			OHLCV:   b,
			MAShort: maShort[i],
			MALong:  maLong[i],
			RSI:     rsi[i],
			MFI:     mfi[i],
		}
	}
	return rows
}

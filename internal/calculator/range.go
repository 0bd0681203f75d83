package calculator

import (
	"errors"
	"math"

	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// PriceRange scans the series and returns the highest high and lowest low.
func PriceRange(bars model.TimeSeries) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePosition returns where the current price sits within the range (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	return clamp((current-low)/(high-low), 0, 1), nil
}

// Summarize describes a series slice. Every field but Rows is undefined for
// an empty series.
func Summarize(bars model.TimeSeries) model.PriceSummary {
	s := model.PriceSummary{Rows: len(bars)}
	high, low, err := PriceRange(bars)
	if err != nil {
		return s
	}
	last := bars[len(bars)-1].Close
	s.High = null.FloatFrom(high)
	s.Low = null.FloatFrom(low)
	s.Last = null.FloatFrom(last)
	if pos, err := RangePosition(last, high, low); err == nil {
		s.Position = null.FloatFrom(pos)
	}
	return s
}

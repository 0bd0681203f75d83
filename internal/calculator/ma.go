package calculator

import (
	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"
)

// MovingAverage returns the trailing simple moving average of prices over
// period rows. Index i is undefined while fewer than period rows end at i.
func MovingAverage(prices []float64, period int) []null.Float {
	out := make([]null.Float, len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	sma := talib.Sma(prices, period)
	for i := period - 1; i < len(prices); i++ {
		out[i] = null.FloatFrom(sma[i])
	}
	return out
}

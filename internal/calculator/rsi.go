package calculator

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/floats"
)

// Neutral is the oscillator value used when a window carries no signal.
const Neutral = 50.0

// deltas returns close[i]-close[i-1]; index 0 is 0 and must not be read as data.
func deltas(closes []float64) []float64 {
	d := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d[i] = closes[i] - closes[i-1]
	}
	return d
}

// trailingSums returns, for each i >= period, the sum of v[i-period+1..i].
// Entries below period are left at zero.
func trailingSums(v []float64, period int) []float64 {
	cum := floats.CumSum(make([]float64, len(v)), v)
	sums := make([]float64, len(v))
	for i := period; i < len(v); i++ {
		sums[i] = cum[i] - cum[i-period]
	}
	return sums
}

// RSI computes the Relative Strength Index from trailing means of gains and
// losses over period close-to-close steps. The first period rows are
// undefined. A window with losses but no gains is 0, gains but no losses is
// 100, and a flat window is Neutral.
func RSI(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	d := deltas(closes)
	gains := make([]float64, len(d))
	losses := make([]float64, len(d))
	for i := 1; i < len(d); i++ {
		if d[i] > 0 {
			gains[i] = d[i]
		} else if d[i] < 0 {
			losses[i] = -d[i]
		}
	}
	gainSums := trailingSums(gains, period)
	lossSums := trailingSums(losses, period)

	for i := period; i < len(closes); i++ {
		out[i] = null.FloatFrom(rsiValue(gainSums[i], lossSums[i]))
	}
	return out
}

// rsiValue takes window sums; the ratio of sums equals the ratio of means.
func rsiValue(gain, loss float64) float64 {
	switch {
	case loss == 0 && gain == 0:
		return Neutral
	case loss == 0:
		return 100
	}
	rs := gain / loss
	return clamp(100-100/(1+rs), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package calculator

import (
	"github.com/guregu/null/v6"

	"StockLens/internal/model"
)

// MFI computes the Money Flow Index over period steps. Flow direction
// follows the sign of the close-to-close change, as in RSI; unchanged closes
// contribute to neither side. A window with no flow at all is Neutral.
func MFI(bars model.TimeSeries, period int) []null.Float {
	out := make([]null.Float, len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}

	d := deltas(bars.Closes())
	pos := make([]float64, len(bars))
	neg := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		b := bars[i]
		flow := (b.High + b.Low + b.Close) / 3 * b.Volume
		if d[i] > 0 {
			pos[i] = flow
		} else if d[i] < 0 {
			neg[i] = flow
		}
	}
	posSums := trailingSums(pos, period)
	negSums := trailingSums(neg, period)

	for i := period; i < len(bars); i++ {
		total := posSums[i] + negSums[i]
		if total == 0 {
			out[i] = null.FloatFrom(Neutral)
			continue
		}
		out[i] = null.FloatFrom(clamp(100*posSums[i]/total, 0, 100))
	}
	return out
}

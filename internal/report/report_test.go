package report

import (
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"StockLens/internal/analysis"
	"StockLens/internal/fundamentals"
	"StockLens/internal/model"
	"StockLens/internal/series"
)

func TestFormatCompanyInfo(t *testing.T) {
	out := FormatCompanyInfo(&model.CompanyInfo{
		Symbol:    "AAPL",
		Name:      null.StringFrom("Apple Inc."),
		MarketCap: null.IntFrom(2950000000000),
	})
	assert.Contains(t, out, "Name: Apple Inc.")
	assert.Contains(t, out, "Sector: N/A")
	assert.Contains(t, out, "Website: N/A")
	assert.Contains(t, out, "Market Cap: 2,950,000,000,000")

	out = FormatCompanyInfo(&model.CompanyInfo{Symbol: "NEW"})
	assert.Contains(t, out, "Market Cap: N/A")
	assert.Contains(t, FormatCompanyInfo(nil), "No company information")
}

func TestFormatRatios(t *testing.T) {
	out := FormatRatios([]model.ComparisonRow{
		{Symbol: "AAPL", Ratios: model.RatioSet{
			model.RatioPE: null.FloatFrom(29.456), model.RatioPB: null.Float{},
		}},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DebtToEquity")
	assert.Contains(t, lines[1], "29.46")
	assert.Equal(t, 4, strings.Count(lines[1], "N/A"))
	assert.Contains(t, FormatRatios(nil), "No ratio data")
}

func TestFormatAnalysis(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	r, _ := series.NewDateRange(day, day)
	res := &analysis.Result{
		Symbol:  "SPY",
		Range:   &r,
		Windows: model.Windows{Short: 20, Long: 50, Oscillator: 14},
		Summary: model.PriceSummary{Rows: 1, High: null.FloatFrom(101), Low: null.FloatFrom(99), Position: null.FloatFrom(0.5)},
		Rows: []model.IndicatorRow{{
			OHLCV:   model.OHLCV{Time: day, Close: 100},
			MAShort: null.FloatFrom(100),
			RSI:     null.FloatFrom(50),
		}},
	}
	out := FormatAnalysis(res)
	assert.Contains(t, out, "2024-01-05..2024-01-05")
	assert.Contains(t, out, "MA20: 100.00 | MA50: —")
	assert.Contains(t, out, "RSI(14): 50.00 | MFI(14): —")
	assert.Contains(t, out, "Position: 50%")

	assert.Contains(t, FormatAnalysis(&analysis.Result{}), "No price data")
}

func TestFormatFinancialsAndDividends(t *testing.T) {
	out := FormatFinancials([]fundamentals.FinancialRow{
		{Period: "2024", Revenue: null.FloatFrom(391035000000)},
	})
	assert.Contains(t, out, "391,035,000,000")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, FormatFinancials(nil), "No earnings data")

	out = FormatDividends([]model.Dividend{{Time: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), Amount: 0.24}})
	assert.Contains(t, out, "2024-02-09  0.2400")
	assert.Contains(t, FormatDividends(nil), "No dividend data")
}

func TestFormatFull_SkipsMissingSections(t *testing.T) {
	out := FormatFull(Full{Info: &model.CompanyInfo{Symbol: "AAPL"}, Dividends: []model.Dividend{}})
	assert.Contains(t, out, "Company Information")
	assert.Contains(t, out, "No dividend data")
	assert.NotContains(t, out, "Technical Summary")
}

// Package report renders plain-text summaries of analysis and fundamentals
// results.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v6"

	"StockLens/internal/analysis"
	"StockLens/internal/fundamentals"
	"StockLens/internal/model"
)

const (
	notAvailable = "N/A"
	undefined    = "—"
	dateLayout   = "2006-01-02"
)

func str(s null.String) string {
	if !s.Valid || s.String == "" {
		return notAvailable
	}
	return s.String
}

func num(f null.Float, missing string) string {
	if !f.Valid {
		return missing
	}
	return fmt.Sprintf("%.2f", f.Float64)
}

// FormatCompanyInfo renders company metadata. Absent fields print as N/A.
func FormatCompanyInfo(info *model.CompanyInfo) string {
	if info == nil {
		return "No company information available.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Company Information | %s\n\n", info.Symbol))
	b.WriteString(fmt.Sprintf("Name: %s\n", str(info.Name)))
	b.WriteString(fmt.Sprintf("Sector: %s\n", str(info.Sector)))
	b.WriteString(fmt.Sprintf("Industry: %s\n", str(info.Industry)))
	b.WriteString(fmt.Sprintf("Currency: %s\n", str(info.Currency)))
	marketCap := notAvailable
	if info.MarketCap.Valid {
		marketCap = humanize.Comma(info.MarketCap.Int64)
	}
	b.WriteString(fmt.Sprintf("Market Cap: %s\n", marketCap))
	b.WriteString(fmt.Sprintf("Website: %s\n", str(info.Website)))
	return b.String()
}

// FormatRatios renders a comparison table, one line per symbol.
func FormatRatios(rows []model.ComparisonRow) string {
	if len(rows) == 0 {
		return "No ratio data available.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s", "Symbol"))
	for _, name := range model.RatioNames {
		b.WriteString(fmt.Sprintf(" %14s", name))
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%-8s", row.Symbol))
		for _, name := range model.RatioNames {
			b.WriteString(fmt.Sprintf(" %14s", num(row.Ratios[name], notAvailable)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAnalysis summarizes the latest indicator row of a result.
func FormatAnalysis(res *analysis.Result) string {
	if res == nil || len(res.Rows) == 0 {
		return "No price data available.\n"
	}
	last := res.Rows[len(res.Rows)-1]
	w := res.Windows

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Technical Summary | %s | %s\n\n", res.Symbol, res.Range))
	b.WriteString(fmt.Sprintf("Rows: %d (as of %s)\n", len(res.Rows), last.Time.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", last.Close))
	b.WriteString(fmt.Sprintf("High: %s | Low: %s | Position: %s\n",
		num(res.Summary.High, undefined), num(res.Summary.Low, undefined), percent(res.Summary.Position)))
	b.WriteString(fmt.Sprintf("MA%d: %s | MA%d: %s\n", w.Short, num(last.MAShort, undefined), w.Long, num(last.MALong, undefined)))
	b.WriteString(fmt.Sprintf("RSI(%d): %s | MFI(%d): %s\n", w.Oscillator, num(last.RSI, undefined), w.Oscillator, num(last.MFI, undefined)))
	return b.String()
}

func percent(f null.Float) string {
	if !f.Valid {
		return undefined
	}
	return fmt.Sprintf("%.0f%%", f.Float64*100)
}

// FormatDividends lists dividend events, oldest first.
func FormatDividends(divs []model.Dividend) string {
	if len(divs) == 0 {
		return "No dividend data available.\n"
	}
	var b strings.Builder
	b.WriteString("Dividends\n")
	for _, d := range divs {
		b.WriteString(fmt.Sprintf("  %s  %.4f\n", d.Time.Format(dateLayout), d.Amount))
	}
	return b.String()
}

// FormatFinancials renders revenue and net income per period.
func FormatFinancials(rows []fundamentals.FinancialRow) string {
	if len(rows) == 0 {
		return "No earnings data available.\n"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %20s %20s\n", "Period", "Total Revenue", "Net Income"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-12s %20s %20s\n", r.Period, money(r.Revenue), money(r.NetIncome)))
	}
	return b.String()
}

func money(f null.Float) string {
	if !f.Valid {
		return notAvailable
	}
	return humanize.Comma(int64(f.Float64))
}

// Full is everything rendered by FormatFull. Nil parts are skipped.
type Full struct {
	Info       *model.CompanyInfo
	Ratios     model.RatioSet
	Analysis   *analysis.Result
	Financials []fundamentals.FinancialRow
	Dividends  []model.Dividend
}

// FormatFull joins the available sections of a symbol report.
func FormatFull(f Full) string {
	var sections []string
	if f.Info != nil {
		sections = append(sections, FormatCompanyInfo(f.Info))
	}
	if f.Ratios != nil && f.Info != nil {
		sections = append(sections, FormatRatios([]model.ComparisonRow{{Symbol: f.Info.Symbol, Ratios: f.Ratios}}))
	}
	if f.Analysis != nil {
		sections = append(sections, FormatAnalysis(f.Analysis))
	}
	if f.Financials != nil {
		sections = append(sections, FormatFinancials(f.Financials))
	}
	if f.Dividends != nil {
		sections = append(sections, FormatDividends(f.Dividends))
	}
	return strings.Join(sections, "\n")
}

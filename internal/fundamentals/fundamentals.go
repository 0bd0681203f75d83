// Package fundamentals looks up company metadata, valuation ratios and
// financial statements through a (cached) collector.Fetcher.
package fundamentals

import (
	"context"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockLens/internal/collector"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// Statement line items surfaced by Financials and BalanceSnapshot.
const (
	ItemRevenue     = "Total Revenue"
	ItemNetIncome   = "Net Income"
	ItemAssets      = "Total Assets"
	ItemLiabilities = "Total Liabilities"
	ItemEquity      = "Total Stockholder Equity"

	itemLiabilitiesShort = "Total Liab"
	balancePeriods       = 5
	compareConcurrency   = 4
)

// Service answers fundamentals queries.
type Service struct {
	fetcher collector.Fetcher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewService creates a Service. m may be nil.
func NewService(f collector.Fetcher, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		fetcher: f,
		metrics: m,
		log:     log.With().Str("component", "fundamentals").Logger(),
	}
}

// Profile returns the company metadata for symbol.
func (s *Service) Profile(ctx context.Context, symbol model.Symbol) (*model.CompanyInfo, error) {
	return s.fetcher.FetchInfo(ctx, model.NewSymbol(string(symbol)))
}

// Ratios returns the five valuation ratios. The set always has every key;
// ratios missing from the metadata are invalid, never zero.
func (s *Service) Ratios(ctx context.Context, symbol model.Symbol) (model.RatioSet, error) {
	info, err := s.Profile(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return RatioSetOf(info), nil
}

// RatioSetOf extracts the ratio fields from info. A nil info yields all
// ratios unavailable.
func RatioSetOf(info *model.CompanyInfo) model.RatioSet {
	set := make(model.RatioSet, len(model.RatioNames))
	for _, name := range model.RatioNames {
		set[name] = null.Float{}
	}
	if info == nil {
		return set
	}
	set[model.RatioPE] = info.TrailingPE
	set[model.RatioPB] = info.PriceToBook
	set[model.RatioDebtToEquity] = info.DebtToEquity
	set[model.RatioROE] = info.ReturnOnEquity
	set[model.RatioCurrent] = info.CurrentRatio
	return set
}

// Compare looks up ratios for each symbol. A symbol whose lookup fails is
// omitted from the result; the rest keep their input order. Blank and
// repeated symbols are skipped.
func (s *Service) Compare(ctx context.Context, symbols []model.Symbol) []model.ComparisonRow {
	uniq := make([]model.Symbol, 0, len(symbols))
	seen := make(map[model.Symbol]bool, len(symbols))
	for _, sym := range symbols {
		sym = model.NewSymbol(string(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		uniq = append(uniq, sym)
	}

	results := make([]model.RatioSet, len(uniq))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareConcurrency)
	for i, sym := range uniq {
		g.Go(func() error {
			set, err := s.Ratios(gctx, sym)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", sym.String()).Msg("omitting symbol from comparison")
				if s.metrics != nil {
					s.metrics.BatchOmitted.Inc()
				}
				return nil
			}
			results[i] = set
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]model.ComparisonRow, 0, len(uniq))
	for i, set := range results {
		if set == nil {
			continue
		}
		rows = append(rows, model.ComparisonRow{Symbol: uniq[i], Ratios: set})
	}
	return rows
}

// FinancialRow is one period of the income summary.
type FinancialRow struct {
	Period    string     `json:"period"`
	Revenue   null.Float `json:"total_revenue"`
	NetIncome null.Float `json:"net_income"`
}

// Financials returns revenue and net income per period, oldest first.
// Annual periods are labelled by year, quarterly ones by end date.
func (s *Service) Financials(ctx context.Context, symbol model.Symbol, freq model.Frequency) ([]FinancialRow, error) {
	statements, err := s.fetcher.FetchFinancials(ctx, model.NewSymbol(string(symbol)), freq)
	if err != nil {
		return nil, err
	}
	rows := make([]FinancialRow, 0, len(statements))
	for _, st := range statements {
		label := st.Period
		if freq == model.Annual && len(label) >= 4 {
			label = label[:4]
		}
		rows = append(rows, FinancialRow{
			Period:    label,
			Revenue:   st.Items[ItemRevenue],
			NetIncome: st.Items[ItemNetIncome],
		})
	}
	return rows, nil
}

// BalanceSheet is a snapshot of the most recent balance sheets.
type BalanceSheet struct {
	Columns []string          `json:"columns"`
	Periods []model.Statement `json:"periods"`
}

// BalanceSnapshot returns up to the last five balance sheets, restricted to
// the key columns that appear in at least one of them.
func (s *Service) BalanceSnapshot(ctx context.Context, symbol model.Symbol) (*BalanceSheet, error) {
	statements, err := s.fetcher.FetchBalanceSheet(ctx, model.NewSymbol(string(symbol)))
	if err != nil {
		return nil, err
	}
	if len(statements) > balancePeriods {
		statements = statements[len(statements)-balancePeriods:]
	}

	sheet := &BalanceSheet{Columns: []string{}, Periods: make([]model.Statement, 0, len(statements))}
	present := make(map[string]bool)
	for _, st := range statements {
		items := make(map[string]null.Float)
		for name, v := range st.Items {
			col := name
			if strings.EqualFold(name, itemLiabilitiesShort) {
				col = ItemLiabilities
			}
			if !isBalanceColumn(col) {
				continue
			}
			if existing, ok := items[col]; ok && existing.Valid {
				continue
			}
			items[col] = v
			present[col] = true
		}
		sheet.Periods = append(sheet.Periods, model.Statement{Period: st.Period, Items: items})
	}
	for _, col := range []string{ItemAssets, ItemLiabilities, ItemEquity} {
		if present[col] {
			sheet.Columns = append(sheet.Columns, col)
		}
	}
	return sheet, nil
}

func isBalanceColumn(name string) bool {
	switch name {
	case ItemAssets, ItemLiabilities, ItemEquity:
		return true
	}
	return false
}

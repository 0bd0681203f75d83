package collector

import (
	"context"
	"errors"

	"StockLens/internal/model"
)

// ErrUnknownSymbol is returned when the data source has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Fetcher defines the interface for fetching market data for one symbol.
type Fetcher interface {
	FetchPriceHistory(ctx context.Context, symbol model.Symbol, period, interval string) ([]model.RawBar, error)
	FetchDividends(ctx context.Context, symbol model.Symbol) ([]model.RawDividend, error)
	FetchFinancials(ctx context.Context, symbol model.Symbol, freq model.Frequency) ([]model.Statement, error)
	FetchBalanceSheet(ctx context.Context, symbol model.Symbol) ([]model.Statement, error)
	FetchInfo(ctx context.Context, symbol model.Symbol) (*model.CompanyInfo, error)
	Name() string
}

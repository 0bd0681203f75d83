package collector

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"StockLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Err, when set, is returned by every call. Calls counts invocations per method.
type MockFetcher struct {
	Price     float64
	Bars      []model.RawBar
	Dividends []model.RawDividend
	Income    map[model.Frequency][]model.Statement
	Balance   []model.Statement
	Info      map[model.Symbol]*model.CompanyInfo
	Err       error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times method was invoked.
func (m *MockFetcher) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockFetcher) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	return m.Err
}

func (m *MockFetcher) FetchPriceHistory(_ context.Context, _ model.Symbol, _, _ string) ([]model.RawBar, error) {
	if err := m.record("FetchPriceHistory"); err != nil {
		return nil, err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, 260), nil
}

func (m *MockFetcher) FetchDividends(_ context.Context, _ model.Symbol) ([]model.RawDividend, error) {
	if err := m.record("FetchDividends"); err != nil {
		return nil, err
	}
	return m.Dividends, nil
}

func (m *MockFetcher) FetchFinancials(_ context.Context, _ model.Symbol, freq model.Frequency) ([]model.Statement, error) {
	if err := m.record("FetchFinancials"); err != nil {
		return nil, err
	}
	return m.Income[freq], nil
}

func (m *MockFetcher) FetchBalanceSheet(_ context.Context, _ model.Symbol) ([]model.Statement, error) {
	if err := m.record("FetchBalanceSheet"); err != nil {
		return nil, err
	}
	return m.Balance, nil
}

func (m *MockFetcher) FetchInfo(_ context.Context, symbol model.Symbol) (*model.CompanyInfo, error) {
	if err := m.record("FetchInfo"); err != nil {
		return nil, err
	}
	info, ok := m.Info[symbol]
	if !ok {
		return nil, fmt.Errorf("mock info %s: %w", symbol, ErrUnknownSymbol)
	}
	return info, nil
}

// generateMockBars produces weekly bars ending now, oldest first.
func generateMockBars(basePrice float64, count int) []model.RawBar {
	bars := make([]model.RawBar, count)
	now := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.RawBar{
			Timestamp: strconv.FormatInt(now.AddDate(0, 0, -7*(count-i)).Unix(), 10),
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
			Volume:    1000000,
		}
	}
	return bars
}

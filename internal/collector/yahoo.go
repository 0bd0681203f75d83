package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"StockLens/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const (
	infoModules      = "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData"
	annualModule     = "incomeStatementHistory"
	quarterlyModule  = "incomeStatementHistoryQuarterly"
	balanceModule    = "balanceSheetHistory"
	userAgent        = "Mozilla/5.0"
	maxErrorBodySize = 512
)

// lineItemNames maps Yahoo statement fields to display line items.
var lineItemNames = map[string]string{
	"totalRevenue":            "Total Revenue",
	"netIncome":               "Net Income",
	"grossProfit":             "Gross Profit",
	"operatingIncome":         "Operating Income",
	"totalAssets":             "Total Assets",
	"totalLiab":               "Total Liabilities",
	"totalStockholderEquity":  "Total Stockholder Equity",
	"totalCurrentAssets":      "Total Current Assets",
	"totalCurrentLiabilities": "Total Current Liabilities",
	"cash":                    "Cash",
}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[model.Symbol]string // maps internal symbol to Yahoo ticker
	log       zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. An empty baseURL uses
// DefaultYahooBaseURL.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration, log zerolog.Logger) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SymbolMap: map[model.Symbol]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol model.Symbol) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return string(symbol)
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) err() error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("yahoo api error: %s: %w", e.Description, ErrUnknownSymbol)
	}
	return fmt.Errorf("yahoo api error: %s: %s", e.Code, e.Description)
}

// yahooValue is Yahoo's {"raw": ..., "fmt": ...} number wrapper. Missing
// fields arrive as {} or are omitted entirely.
type yahooValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v *yahooValue) toFloat() null.Float {
	if v == nil || v.Raw == nil {
		return null.Float{}
	}
	return null.FloatFrom(*v.Raw)
}

func (v *yahooValue) toInt() null.Int {
	if v == nil || v.Raw == nil {
		return null.Int{}
	}
	return null.IntFrom(int64(*v.Raw))
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
				Website  string `json:"website"`
			} `json:"assetProfile"`
			Price *struct {
				LongName  string      `json:"longName"`
				ShortName string      `json:"shortName"`
				Currency  string      `json:"currency"`
				MarketCap *yahooValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail *struct {
				TrailingPE *yahooValue `json:"trailingPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics *struct {
				PriceToBook *yahooValue `json:"priceToBook"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				DebtToEquity   *yahooValue `json:"debtToEquity"`
				ReturnOnEquity *yahooValue `json:"returnOnEquity"`
				CurrentRatio   *yahooValue `json:"currentRatio"`
			} `json:"financialData"`
			IncomeStatementHistory *struct {
				Statements []map[string]json.RawMessage `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistory"`
			IncomeStatementHistoryQuarterly *struct {
				Statements []map[string]json.RawMessage `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistoryQuarterly"`
			BalanceSheetHistory *struct {
				Statements []map[string]json.RawMessage `json:"balanceSheetStatements"`
			} `json:"balanceSheetHistory"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (f *YahooFetcher) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	// Yahoo reports unknown symbols as 404 with a JSON error body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		return fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol model.Symbol, rng, interval string) (*yahooChart, error) {
	q := url.Values{}
	q.Set("range", rng)
	q.Set("interval", interval)
	q.Set("events", "div")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	var chart yahooChart
	if err := f.get(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, chart.Chart.Error.err()
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no chart data for %s: %w", symbol, ErrUnknownSymbol)
	}
	return &chart, nil
}

func at(v []*float64, i int) (float64, bool) {
	if i >= len(v) || v[i] == nil {
		return 0, false
	}
	return *v[i], true
}

// FetchPriceHistory returns bars for the Yahoo range (e.g. "5y") and interval
// (e.g. "1wk"). Null bars (holidays etc.) are skipped.
func (f *YahooFetcher) FetchPriceHistory(ctx context.Context, symbol model.Symbol, period, interval string) ([]model.RawBar, error) {
	chart, err := f.fetchChart(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.RawBar, 0, len(result.Timestamp))
	skipped := 0
	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			skipped++
			continue
		}
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.RawBar{
			Timestamp: strconv.FormatInt(ts, 10),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    v,
		})
	}
	if skipped > 0 {
		f.log.Debug().Str("symbol", symbol.String()).Int("skipped", skipped).Msg("skipped null bars")
	}
	return bars, nil
}

// FetchDividends returns the full dividend history.
func (f *YahooFetcher) FetchDividends(ctx context.Context, symbol model.Symbol) ([]model.RawDividend, error) {
	chart, err := f.fetchChart(ctx, symbol, "max", "1mo")
	if err != nil {
		return nil, err
	}
	events := chart.Chart.Result[0].Events.Dividends
	divs := make([]model.RawDividend, 0, len(events))
	for _, d := range events {
		divs = append(divs, model.RawDividend{Timestamp: strconv.FormatInt(d.Date, 10), Amount: d.Amount})
	}
	// map iteration order is random
	sort.Slice(divs, func(i, j int) bool { return divs[i].Timestamp < divs[j].Timestamp })
	return divs, nil
}

func (f *YahooFetcher) fetchSummary(ctx context.Context, symbol model.Symbol, modules string) (*yahooSummary, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), url.QueryEscape(modules))

	var summary yahooSummary
	if err := f.get(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, summary.QuoteSummary.Error.err()
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no summary for %s: %w", symbol, ErrUnknownSymbol)
	}
	return &summary, nil
}

// FetchInfo returns company metadata and the ratio fields.
func (f *YahooFetcher) FetchInfo(ctx context.Context, symbol model.Symbol) (*model.CompanyInfo, error) {
	summary, err := f.fetchSummary(ctx, symbol, infoModules)
	if err != nil {
		return nil, err
	}
	r := summary.QuoteSummary.Result[0]
	info := &model.CompanyInfo{Symbol: symbol}
	if p := r.AssetProfile; p != nil {
		info.Sector = nonEmpty(p.Sector)
		info.Industry = nonEmpty(p.Industry)
		info.Website = nonEmpty(p.Website)
	}
	if p := r.Price; p != nil {
		info.Name = nonEmpty(p.LongName)
		if !info.Name.Valid {
			info.Name = nonEmpty(p.ShortName)
		}
		info.Currency = nonEmpty(p.Currency)
		info.MarketCap = p.MarketCap.toInt()
	}
	if d := r.SummaryDetail; d != nil {
		info.TrailingPE = d.TrailingPE.toFloat()
	}
	if k := r.DefaultKeyStatistics; k != nil {
		info.PriceToBook = k.PriceToBook.toFloat()
	}
	if fd := r.FinancialData; fd != nil {
		info.DebtToEquity = fd.DebtToEquity.toFloat()
		info.ReturnOnEquity = fd.ReturnOnEquity.toFloat()
		info.CurrentRatio = fd.CurrentRatio.toFloat()
	}
	return info, nil
}

// FetchFinancials returns income statements, oldest period first.
func (f *YahooFetcher) FetchFinancials(ctx context.Context, symbol model.Symbol, freq model.Frequency) ([]model.Statement, error) {
	module := annualModule
	if freq == model.Quarterly {
		module = quarterlyModule
	}
	summary, err := f.fetchSummary(ctx, symbol, module)
	if err != nil {
		return nil, err
	}
	r := summary.QuoteSummary.Result[0]
	var raw []map[string]json.RawMessage
	if freq == model.Quarterly {
		if r.IncomeStatementHistoryQuarterly != nil {
			raw = r.IncomeStatementHistoryQuarterly.Statements
		}
	} else if r.IncomeStatementHistory != nil {
		raw = r.IncomeStatementHistory.Statements
	}
	return f.statements(symbol, raw), nil
}

// FetchBalanceSheet returns annual balance sheets, oldest period first.
func (f *YahooFetcher) FetchBalanceSheet(ctx context.Context, symbol model.Symbol) ([]model.Statement, error) {
	summary, err := f.fetchSummary(ctx, symbol, balanceModule)
	if err != nil {
		return nil, err
	}
	r := summary.QuoteSummary.Result[0]
	if r.BalanceSheetHistory == nil {
		return nil, nil
	}
	return f.statements(symbol, r.BalanceSheetHistory.Statements), nil
}

// statements decodes Yahoo statement objects. Fields that are not numeric
// wrappers (maxAge etc.) are ignored; statements without an end date are
// dropped.
func (f *YahooFetcher) statements(symbol model.Symbol, raw []map[string]json.RawMessage) []model.Statement {
	out := make([]model.Statement, 0, len(raw))
	for _, fields := range raw {
		var end yahooValue
		if msg, ok := fields["endDate"]; !ok || json.Unmarshal(msg, &end) != nil || end.Raw == nil {
			f.log.Warn().Str("symbol", symbol.String()).Msg("dropping statement without end date")
			continue
		}
		st := model.Statement{
			Period: time.Unix(int64(*end.Raw), 0).UTC().Format("2006-01-02"),
			Items:  make(map[string]null.Float),
		}
		for key, msg := range fields {
			if key == "endDate" || key == "maxAge" {
				continue
			}
			var v yahooValue
			if err := json.Unmarshal(msg, &v); err != nil {
				continue
			}
			name, ok := lineItemNames[key]
			if !ok {
				name = key
			}
			st.Items[name] = v.toFloat()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func nonEmpty(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

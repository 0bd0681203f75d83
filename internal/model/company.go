package model

import "github.com/guregu/null/v6"

// CompanyInfo is instrument metadata. Every field is optional.
type CompanyInfo struct {
	Symbol    Symbol      `json:"symbol"`
	Name      null.String `json:"name"`
	Sector    null.String `json:"sector"`
	Industry  null.String `json:"industry"`
	Currency  null.String `json:"currency"`
	MarketCap null.Int    `json:"market_cap"`
	Website   null.String `json:"website"`

	TrailingPE     null.Float `json:"trailing_pe"`
	PriceToBook    null.Float `json:"price_to_book"`
	DebtToEquity   null.Float `json:"debt_to_equity"`
	ReturnOnEquity null.Float `json:"return_on_equity"`
	CurrentRatio   null.Float `json:"current_ratio"`
}

// RatioName enumerates the ratios of a RatioSet.
type RatioName string

const (
	RatioPE           RatioName = "PE"
	RatioPB           RatioName = "PB"
	RatioDebtToEquity RatioName = "DebtToEquity"
	RatioROE          RatioName = "ROE"
	RatioCurrent      RatioName = "CurrentRatio"
)

// RatioNames lists every ratio in display order.
var RatioNames = []RatioName{RatioPE, RatioPB, RatioDebtToEquity, RatioROE, RatioCurrent}

// RatioSet always carries all five ratios; an invalid value means unavailable.
type RatioSet map[RatioName]null.Float

// ComparisonRow is one symbol's ratios in a multi-symbol table.
type ComparisonRow struct {
	Symbol Symbol   `json:"symbol"`
	Ratios RatioSet `json:"ratios"`
}

// Frequency selects quarterly or annual financial statements.
type Frequency string

const (
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// Statement is one period of a financial statement, keyed by line item name.
type Statement struct {
	Period string                `json:"period"` // end date, YYYY-MM-DD
	Items  map[string]null.Float `json:"items"`
}

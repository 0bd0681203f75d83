package model

import "github.com/guregu/null/v6"

// IndicatorRow is a bar with its computed indicators.
// An invalid null.Float means the value is not computable yet (warm-up),
// which is distinct from a computed zero.
type IndicatorRow struct {
	OHLCV
	MAShort null.Float `json:"ma_short"`
	MALong  null.Float `json:"ma_long"`
	RSI     null.Float `json:"rsi"`
	MFI     null.Float `json:"mfi"`
}

// Windows holds the rolling window lengths used by the indicator engine.
type Windows struct {
	Short      int `json:"short"`
	Long       int `json:"long"`
	Oscillator int `json:"oscillator"`
}

// PriceSummary describes a series slice.
type PriceSummary struct {
	Rows     int        `json:"rows"`
	High     null.Float `json:"high"`
	Low      null.Float `json:"low"`
	Last     null.Float `json:"last"`
	Position null.Float `json:"position"` // 0.0 ~ 1.0 within [Low, High]
}

package models

import "fmt"

// InstrumentKey names one tradable instrument's live feed. It is comparable and
// used as the map key for all per-instrument state.
type InstrumentKey struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Token    string `json:"token"`
}

func (k InstrumentKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Exchange, k.Symbol, k.Token)
}

// -----------------------------------------------------------------------------

// MCandle is the running intraday aggregate for one instrument. The json tags
// are the push payload wire shape.
type MCandle struct {
	Last             float64 `json:"ltp"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Close            float64 `json:"close"`
	TimestampSeconds int64   `json:"time"`
	IsLive           bool    `json:"isLive"`
	IsSessionOpen    bool    `json:"isMarketOpen"`
}

// MSeedCandle is the reference OHLC supplied by the historical seed source.
type MSeedCandle struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// MQuote is one upstream quote: last traded price plus the day's open/high/low.
type MQuote struct {
	Last float64 `json:"ltp"`
	Open float64 `json:"open"`
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// MDailyCandle is one stored session candle used as a seed.
type MDailyCandle struct {
	Symbol    string  `json:"symbol"`
	Token     string  `json:"token"`
	TradeDate string  `json:"tradeDate"` // YYYY-MM-DD
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

func (d MDailyCandle) Seed() *MSeedCandle {
	return &MSeedCandle{Open: d.Open, High: d.High, Low: d.Low, Close: d.Close}
}

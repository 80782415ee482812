package models

import "time"

// Bar is one daily OHLCV record for a stock. Immutable once ingested;
// bars for a stock are ordered by timestamp.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// NewsEvent is one categorized news item for a stock. Immutable.
type NewsEvent struct {
	ID        string
	Symbol    string
	Timestamp time.Time
	Type      EventType
	Headline  string
	Payload   map[string]interface{}
}

// CorporateAction is an out-of-band signal such as a dividend declaration.
type CorporateAction struct {
	Symbol    string
	Timestamp time.Time
	Kind      string // "dividend"
	Amount    float64
}

// PriceTick is the evaluator-facing view of the latest bar for a stock.
type PriceTick struct {
	Symbol         string
	Timestamp      time.Time
	Price          float64
	PrevClose      float64
	Volume         float64
	BaselineVolume float64
}

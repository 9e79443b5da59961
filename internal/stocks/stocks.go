// Package stocks holds the domain records the pipeline fetches and
// persists. Both record types carry the fields that form their natural
// key, which is what the store's upserts are keyed on.
package stocks

import "time"

// DateFormat is the canonical format for trading dates.
const DateFormat = "2006-01-02"

// Quote is one daily price row for a ticker.
// Natural key: (Symbol, Date).
type Quote struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// InsiderTrade is one insider transaction reported for a ticker.
// Natural key: (Symbol, Insider, Date, TransactionType).
type InsiderTrade struct {
	Symbol          string
	Insider         string
	Relation        string
	Date            time.Time
	TransactionType string
	OwnerType       string
	SharesTraded    int64
	LastPrice       float64 // zero when the source reports no price
	SharesHeld      int64
}

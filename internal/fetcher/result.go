package fetcher

// Outcome summarizes one ticker's completed fetch. It's designed to be
// sent through a channel from worker goroutines to the coordinator
// that aggregates the run-level result.
type Outcome struct {
	// Symbol is the ticker this outcome describes.
	Symbol string

	// QuotePages and TradePages count pages fetched per dataset,
	// including the empty page that terminates a walk.
	QuotePages int
	TradePages int

	// QuotesWritten and TradesWritten count rows the sink reported
	// written for this ticker.
	QuotesWritten int
	TradesWritten int

	// Err is the error that aborted this ticker's fetch, if any. The
	// counters still reflect work completed before the abort.
	Err error
}

// PagesFetched returns the total page count across both datasets.
func (o Outcome) PagesFetched() int {
	return o.QuotePages + o.TradePages
}

// RecordsWritten returns the total rows written across both datasets.
func (o Outcome) RecordsWritten() int {
	return o.QuotesWritten + o.TradesWritten
}

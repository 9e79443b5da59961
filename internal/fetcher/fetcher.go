package fetcher

import (
	"context"

	"stockfetcher/internal/stocks"
)

// Source is the core interface for the paginated data source. Each
// method performs exactly one page retrieval for one symbol; retry and
// page advancement are the Paginator's concern, never the Source's.
type Source interface {
	// QuotePage retrieves one page of daily quotes for a symbol.
	// The bool reports the source's explicit last-page signal.
	// Returns a *FetchError describing the transport or parse failure.
	QuotePage(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error)

	// TradePage retrieves one page of insider trades for a symbol.
	// Same contract as QuotePage.
	TradePage(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error)
}

// Sink persists accumulated batches. Implementations must be safe for
// concurrent use by multiple workers, and upserts must be idempotent
// per natural key so a re-run converges instead of duplicating rows.
type Sink interface {
	// UpsertQuotes writes one ticker's quote batch in a single
	// transaction and returns the number of rows written.
	UpsertQuotes(ctx context.Context, symbol string, quotes []stocks.Quote) (int, error)

	// UpsertTrades writes one ticker's insider trade batch in a single
	// transaction and returns the number of rows written.
	UpsertTrades(ctx context.Context, symbol string, trades []stocks.InsiderTrade) (int, error)
}

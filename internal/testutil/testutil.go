package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockfetcher/internal/stocks"
)

// MockSource is a mock implementation of the fetcher.Source interface
// for testing. Funcs left unset return a single empty page.
type MockSource struct {
	QuotePageFunc func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error)
	TradePageFunc func(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error)
}

// QuotePage implements the Source interface
func (m *MockSource) QuotePage(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
	if m.QuotePageFunc != nil {
		return m.QuotePageFunc(ctx, symbol, page)
	}
	return nil, true, nil
}

// TradePage implements the Source interface
func (m *MockSource) TradePage(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error) {
	if m.TradePageFunc != nil {
		return m.TradePageFunc(ctx, symbol, page)
	}
	return nil, true, nil
}

// QuotesForPage builds n quotes for one page of a symbol. Dates are
// spaced so natural keys never collide across pages, which keeps row
// counting honest in idempotence tests.
func QuotesForPage(symbol string, page, n int) []stocks.Quote {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, (page-1)*n)
	quotes := make([]stocks.Quote, n)
	for i := range quotes {
		quotes[i] = stocks.Quote{
			Symbol: symbol,
			Date:   base.AddDate(0, 0, i),
			Open:   10,
			High:   12,
			Low:    9,
			Close:  11,
			Volume: 1000,
		}
	}
	return quotes
}

// MemorySink is an in-memory fetcher.Sink that models the store's
// upsert semantics: rows are keyed by natural key, so writing the same
// rows twice converges to the same count instead of growing.
type MemorySink struct {
	mu     sync.Mutex
	quotes map[string]stocks.Quote
	trades map[string]stocks.InsiderTrade

	// FailQuotes and FailTrades, when set, make the corresponding
	// upsert return that error.
	FailQuotes error
	FailTrades error

	// QuoteBatches and TradeBatches record batch sizes per symbol in
	// write order, one entry per upsert call.
	QuoteBatches map[string][]int
	TradeBatches map[string][]int
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		quotes:       make(map[string]stocks.Quote),
		trades:       make(map[string]stocks.InsiderTrade),
		QuoteBatches: make(map[string][]int),
		TradeBatches: make(map[string][]int),
	}
}

// UpsertQuotes implements the Sink interface
func (s *MemorySink) UpsertQuotes(ctx context.Context, symbol string, quotes []stocks.Quote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailQuotes != nil {
		return 0, s.FailQuotes
	}

	for _, q := range quotes {
		key := fmt.Sprintf("%s|%s", q.Symbol, q.Date.Format(stocks.DateFormat))
		s.quotes[key] = q
	}
	s.QuoteBatches[symbol] = append(s.QuoteBatches[symbol], len(quotes))
	return len(quotes), nil
}

// UpsertTrades implements the Sink interface
func (s *MemorySink) UpsertTrades(ctx context.Context, symbol string, trades []stocks.InsiderTrade) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailTrades != nil {
		return 0, s.FailTrades
	}

	for _, t := range trades {
		key := fmt.Sprintf("%s|%s|%s|%s", t.Symbol, t.Insider, t.Date.Format(stocks.DateFormat), t.TransactionType)
		s.trades[key] = t
	}
	s.TradeBatches[symbol] = append(s.TradeBatches[symbol], len(trades))
	return len(trades), nil
}

// QuoteCount returns the number of distinct quote rows stored.
func (s *MemorySink) QuoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quotes)
}

// TradeCount returns the number of distinct trade rows stored.
func (s *MemorySink) TradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

// QuoteBatchSizes returns the recorded quote batch sizes for a symbol.
func (s *MemorySink) QuoteBatchSizes(symbol string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.QuoteBatches[symbol]...)
}

package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockfetcher/internal/fetcher"
	"stockfetcher/internal/stocks"
	"stockfetcher/internal/testutil"
)

func testConfig() Config {
	return Config{
		Workers:    4,
		MaxPages:   10,
		RetryDelay: time.Millisecond,
	}
}

func tradeRow(symbol string, page, i int) stocks.InsiderTrade {
	return stocks.InsiderTrade{
		Symbol:          symbol,
		Insider:         "Jane Roe",
		Relation:        "Officer",
		Date:            time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, (page-1)*10+i),
		TransactionType: "Buy",
		OwnerType:       "direct",
		SharesTraded:    100,
		LastPrice:       9.5,
		SharesHeld:      1000,
	}
}

func TestNew(t *testing.T) {
	source := &testutil.MockSource{}
	sink := testutil.NewMemorySink()

	coord := New(source, sink, testConfig())
	if coord == nil {
		t.Fatal("New() returned nil")
	}
}

func TestRun_EveryTickerExactlyOneOutcome(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN", "META", "NVDA", "TSLA", "NFLX"}

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			return testutil.QuotesForPage(symbol, page, 2), true, nil
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), symbols)
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if result.Attempted != len(symbols) {
		t.Errorf("Attempted = %d, want %d", result.Attempted, len(symbols))
	}
	if len(result.Outcomes) != len(symbols) {
		t.Fatalf("got %d outcomes, want %d", len(result.Outcomes), len(symbols))
	}

	seen := make(map[string]int)
	for _, outcome := range result.Outcomes {
		seen[outcome.Symbol]++
	}
	for _, symbol := range symbols {
		if seen[symbol] != 1 {
			t.Errorf("symbol %s appeared in %d outcomes, want exactly 1", symbol, seen[symbol])
		}
	}
}

func TestRun_PaginationStopsOnEmptyPage(t *testing.T) {
	// Rows on pages 1..3, empty on page 4: the walk stops after page 4
	// and the sink sees the three pages of rows as one batch.
	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			if page <= 3 {
				return testutil.QuotesForPage(symbol, page, 2), false, nil
			}
			return nil, false, nil
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Err != nil {
		t.Fatalf("outcome carries unexpected error: %v", outcome.Err)
	}
	if outcome.QuotePages != 4 {
		t.Errorf("QuotePages = %d, want 4", outcome.QuotePages)
	}
	if outcome.QuotesWritten != 6 {
		t.Errorf("QuotesWritten = %d, want 6", outcome.QuotesWritten)
	}

	batches := sink.QuoteBatchSizes("AAPL")
	if len(batches) != 1 {
		t.Fatalf("sink saw %d quote batches, want 1 batch per ticker", len(batches))
	}
	if batches[0] != 6 {
		t.Errorf("batch size = %d, want all 6 accumulated rows", batches[0])
	}
}

func TestRun_PageCapRespected(t *testing.T) {
	var mu sync.Mutex
	maxPageSeen := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			mu.Lock()
			if page > maxPageSeen {
				maxPageSeen = page
			}
			mu.Unlock()
			// Endless data: never empty, never the last page.
			return testutil.QuotesForPage(symbol, page, 2), false, nil
		},
	}
	sink := testutil.NewMemorySink()

	cfg := testConfig()
	cfg.MaxPages = 2

	result, err := New(source, sink, cfg).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.QuotePages != 2 {
		t.Errorf("QuotePages = %d, want 2", outcome.QuotePages)
	}
	if maxPageSeen != 2 {
		t.Errorf("source was asked for page %d, want no page beyond 2", maxPageSeen)
	}
	if outcome.QuotesWritten != 4 {
		t.Errorf("QuotesWritten = %d, want 4", outcome.QuotesWritten)
	}
}

func TestRun_RetryBoundRecovers(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n <= 2 {
				return nil, false, fetcher.NewServerError(500)
			}
			return testutil.QuotesForPage(symbol, page, 3), true, nil
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Err != nil {
		t.Fatalf("two failures within the attempt budget should recover, got error: %v", outcome.Err)
	}
	if outcome.QuotesWritten != 3 {
		t.Errorf("QuotesWritten = %d, want 3", outcome.QuotesWritten)
	}
	if result.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", result.Succeeded)
	}
}

func TestRun_RetryBoundExhausted(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil, false, fetcher.NewServerError(500)
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.Err == nil {
		t.Fatal("expected the outcome to carry the transport error")
	}

	var fetchErr *fetcher.FetchError
	if !errors.As(outcome.Err, &fetchErr) {
		t.Fatalf("outcome error = %v, want a *fetcher.FetchError", outcome.Err)
	}
	if fetchErr.Type != fetcher.ErrorTypeServer {
		t.Errorf("error type = %s, want %s", fetchErr.Type, fetcher.ErrorTypeServer)
	}

	if calls != fetcher.DefaultMaxAttempts {
		t.Errorf("source was called %d times, want %d attempts", calls, fetcher.DefaultMaxAttempts)
	}
	if sink.QuoteCount() != 0 {
		t.Errorf("sink holds %d rows, want 0 for a failed ticker", sink.QuoteCount())
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "BAD", "GOOG", "AMZN"}

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			if symbol == "BAD" {
				return nil, false, fetcher.NewParseError("payload is missing its data envelope", nil)
			}
			return testutil.QuotesForPage(symbol, page, 2), true, nil
		},
	}
	sink := testutil.NewMemorySink()

	// Run should complete without error even though one ticker fails:
	// per-ticker failures live in the RunResult, not in Run's error.
	result, err := New(source, sink, testConfig()).Run(context.Background(), symbols)
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if result.Succeeded != 4 {
		t.Errorf("Succeeded = %d, want 4", result.Succeeded)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}

	failed := result.FailedOutcomes()
	if len(failed) != 1 || failed[0].Symbol != "BAD" {
		t.Fatalf("FailedOutcomes() = %+v, want exactly the BAD ticker", failed)
	}
	if failed[0].QuotesWritten != 0 {
		t.Errorf("failed ticker wrote %d rows, want 0", failed[0].QuotesWritten)
	}
}

func TestRun_ParseErrorNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil, false, fetcher.NewParseError("bad payload", nil)
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("source was called %d times, want 1: parse errors are permanent", calls)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
}

func TestRun_Idempotence(t *testing.T) {
	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			if page <= 2 {
				return testutil.QuotesForPage(symbol, page, 3), false, nil
			}
			return nil, false, nil
		},
		TradePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error) {
			return []stocks.InsiderTrade{tradeRow(symbol, page, 0)}, true, nil
		},
	}
	sink := testutil.NewMemorySink()
	symbols := []string{"AAPL", "MSFT"}

	coord := New(source, sink, testConfig())
	if _, err := coord.Run(context.Background(), symbols); err != nil {
		t.Fatalf("first Run() returned unexpected error: %v", err)
	}
	firstQuotes, firstTrades := sink.QuoteCount(), sink.TradeCount()

	if _, err := coord.Run(context.Background(), symbols); err != nil {
		t.Fatalf("second Run() returned unexpected error: %v", err)
	}

	if sink.QuoteCount() != firstQuotes {
		t.Errorf("quote rows after second run = %d, want %d: re-runs must converge", sink.QuoteCount(), firstQuotes)
	}
	if sink.TradeCount() != firstTrades {
		t.Errorf("trade rows after second run = %d, want %d: re-runs must converge", sink.TradeCount(), firstTrades)
	}
}

func TestRun_QuoteFailureSkipsTrades(t *testing.T) {
	var mu sync.Mutex
	tradeCalls := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			return nil, false, fetcher.NewParseError("bad payload", nil)
		},
		TradePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error) {
			mu.Lock()
			tradeCalls++
			mu.Unlock()
			return nil, true, nil
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if tradeCalls != 0 {
		t.Errorf("trade pages were fetched %d times after a quote failure, want 0", tradeCalls)
	}
	if result.Outcomes[0].TradePages != 0 {
		t.Errorf("TradePages = %d, want 0", result.Outcomes[0].TradePages)
	}
}

func TestRun_TradesFetchedAndWritten(t *testing.T) {
	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			return testutil.QuotesForPage(symbol, page, 1), true, nil
		},
		TradePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error) {
			if page <= 2 {
				return []stocks.InsiderTrade{tradeRow(symbol, page, 0)}, false, nil
			}
			return nil, false, nil
		},
	}
	sink := testutil.NewMemorySink()

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if outcome.TradePages != 3 {
		t.Errorf("TradePages = %d, want 3", outcome.TradePages)
	}
	if outcome.TradesWritten != 2 {
		t.Errorf("TradesWritten = %d, want 2", outcome.TradesWritten)
	}
	if sink.TradeCount() != 2 {
		t.Errorf("sink holds %d trades, want 2", sink.TradeCount())
	}
}

func TestRun_SinkErrorRecorded(t *testing.T) {
	sinkErr := errors.New("connection reset")

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			return testutil.QuotesForPage(symbol, page, 1), true, nil
		},
	}
	sink := testutil.NewMemorySink()
	sink.FailQuotes = sinkErr

	result, err := New(source, sink, testConfig()).Run(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	outcome := result.Outcomes[0]
	if !errors.Is(outcome.Err, sinkErr) {
		t.Errorf("outcome error = %v, want it to wrap the sink error", outcome.Err)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
}

func TestRun_NoSymbols(t *testing.T) {
	coord := New(&testutil.MockSource{}, testutil.NewMemorySink(), testConfig())

	_, err := coord.Run(context.Background(), nil)
	if err == nil {
		t.Error("Run() expected error for no symbols, got nil")
	}
}

func TestRun_WorkerLimit(t *testing.T) {
	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	source := &testutil.MockSource{
		QuotePageFunc: func(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()

			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			inFlight--
			mu.Unlock()
			return testutil.QuotesForPage(symbol, page, 1), true, nil
		},
	}
	sink := testutil.NewMemorySink()

	cfg := testConfig()
	cfg.Workers = 2
	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN", "META", "NVDA"}

	result, err := New(source, sink, cfg).Run(context.Background(), symbols)
	if err != nil {
		t.Fatalf("Run() returned unexpected error: %v", err)
	}

	if result.Attempted != len(symbols) {
		t.Errorf("Attempted = %d, want %d", result.Attempted, len(symbols))
	}
	if maxInFlight > cfg.Workers {
		t.Errorf("observed %d concurrent fetches, want at most %d workers", maxInFlight, cfg.Workers)
	}
}

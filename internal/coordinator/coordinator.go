package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockfetcher/internal/fetcher"
	"stockfetcher/internal/stocks"
)

// Config carries the pipeline knobs. It is passed in explicitly so
// tests can vary worker count and page cap per run.
type Config struct {
	// Workers is the number of concurrent fetch workers.
	Workers int

	// MaxPages caps pagination per ticker per dataset.
	MaxPages int

	// RetryAttempts and RetryDelay override the Paginator defaults
	// when positive.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Coordinator owns the worker pool that drains the ticker queue and
// aggregates per-ticker outcomes into a RunResult.
type Coordinator struct {
	source fetcher.Source
	sink   fetcher.Sink
	cfg    Config
}

// New creates a Coordinator with the given source, sink and run
// configuration.
func New(source fetcher.Source, sink fetcher.Sink, cfg Config) *Coordinator {
	return &Coordinator{
		source: source,
		sink:   sink,
		cfg:    cfg,
	}
}

// Run fetches every symbol using a fixed pool of workers. The work
// queue is populated once before the workers start and never refilled;
// workers exit when it drains. Per-ticker failures are recorded in the
// RunResult and logged, never escalated to a run failure. Outcomes are
// logged as they arrive, in completion order.
func (c *Coordinator) Run(ctx context.Context, symbols []string) (*RunResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to fetch")
	}

	workers := c.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan string, len(symbols))
	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)

	resultChan := make(chan fetcher.Outcome, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				resultChan <- c.fetchSymbol(ctx, symbol)
			}
		}()
	}

	// Close the result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	result := &RunResult{RunID: uuid.NewString()}
	for outcome := range resultChan {
		result.add(outcome)

		if outcome.Err != nil {
			slog.Error("ticker fetch failed",
				"run_id", result.RunID,
				"symbol", outcome.Symbol,
				"error", outcome.Err)
			continue
		}
		slog.Info("ticker fetched",
			"run_id", result.RunID,
			"symbol", outcome.Symbol,
			"pages", outcome.PagesFetched(),
			"quotes_written", outcome.QuotesWritten,
			"trades_written", outcome.TradesWritten)
	}

	return result, nil
}

// fetchSymbol runs both paginated datasets for one ticker and writes
// each accumulated batch exactly once. The quote walk runs first; a
// failure there skips the trade walk, so a ticker never persists
// later-dataset rows after an earlier-dataset abort.
func (c *Coordinator) fetchSymbol(ctx context.Context, symbol string) fetcher.Outcome {
	outcome := fetcher.Outcome{Symbol: symbol}

	var quotes []stocks.Quote
	pages, err := c.newPaginator().Run(ctx, func(ctx context.Context, page int) (fetcher.PageStatus, error) {
		rows, last, err := c.source.QuotePage(ctx, symbol, page)
		if err != nil {
			return fetcher.PageStatus{}, err
		}
		quotes = append(quotes, rows...)
		return fetcher.PageStatus{Rows: len(rows), LastPage: last}, nil
	})
	outcome.QuotePages = pages
	if err != nil {
		outcome.Err = fmt.Errorf("fetch quotes: %w", err)
		return outcome
	}

	written, err := c.sink.UpsertQuotes(ctx, symbol, quotes)
	if err != nil {
		outcome.Err = fmt.Errorf("upsert quotes: %w", err)
		return outcome
	}
	outcome.QuotesWritten = written

	var trades []stocks.InsiderTrade
	pages, err = c.newPaginator().Run(ctx, func(ctx context.Context, page int) (fetcher.PageStatus, error) {
		rows, last, err := c.source.TradePage(ctx, symbol, page)
		if err != nil {
			return fetcher.PageStatus{}, err
		}
		trades = append(trades, rows...)
		return fetcher.PageStatus{Rows: len(rows), LastPage: last}, nil
	})
	outcome.TradePages = pages
	if err != nil {
		outcome.Err = fmt.Errorf("fetch insider trades: %w", err)
		return outcome
	}

	written, err = c.sink.UpsertTrades(ctx, symbol, trades)
	if err != nil {
		outcome.Err = fmt.Errorf("upsert insider trades: %w", err)
		return outcome
	}
	outcome.TradesWritten = written

	return outcome
}

// newPaginator builds a Paginator from the run configuration.
func (c *Coordinator) newPaginator() *fetcher.Paginator {
	p := fetcher.NewPaginator(c.cfg.MaxPages)
	if c.cfg.RetryAttempts > 0 {
		p.MaxAttempts = c.cfg.RetryAttempts
	}
	if c.cfg.RetryDelay > 0 {
		p.RetryDelay = c.cfg.RetryDelay
	}
	return p
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stockfetcher/internal/stocks"
)

const upsertQuoteSQL = `
INSERT INTO quotes (symbol, date, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (symbol, date) DO UPDATE SET
	open       = EXCLUDED.open,
	high       = EXCLUDED.high,
	low        = EXCLUDED.low,
	close      = EXCLUDED.close,
	volume     = EXCLUDED.volume,
	fetched_at = now()`

const upsertTradeSQL = `
INSERT INTO insider_trades (symbol, insider, relation, date, transaction_type,
	owner_type, shares_traded, last_price, shares_held)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (symbol, insider, date, transaction_type) DO UPDATE SET
	relation      = EXCLUDED.relation,
	owner_type    = EXCLUDED.owner_type,
	shares_traded = EXCLUDED.shares_traded,
	last_price    = EXCLUDED.last_price,
	shares_held   = EXCLUDED.shares_held,
	fetched_at    = now()`

// UpsertQuotes writes one ticker's quote batch in a single
// transaction. Rows conflict on the (symbol, date) natural key and the
// newest values win, so re-running the pipeline converges instead of
// duplicating. An empty batch is a no-op. Implements fetcher.Sink.
func (s *Store) UpsertQuotes(ctx context.Context, symbol string, quotes []stocks.Quote) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(upsertQuoteSQL, q.Symbol, q.Date, q.Open, q.High, q.Low, q.Close, q.Volume)
	}

	if err := s.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("upsert quotes for %s: %w", symbol, err)
	}
	return len(quotes), nil
}

// UpsertTrades writes one ticker's insider trade batch in a single
// transaction, keyed on (symbol, insider, date, transaction_type).
// A zero LastPrice means the source reported no price; it is stored as
// NULL. Implements fetcher.Sink.
func (s *Store) UpsertTrades(ctx context.Context, symbol string, trades []stocks.InsiderTrade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range trades {
		var lastPrice any
		if t.LastPrice != 0 {
			lastPrice = t.LastPrice
		}
		batch.Queue(upsertTradeSQL,
			t.Symbol, t.Insider, t.Relation, t.Date, t.TransactionType,
			t.OwnerType, t.SharesTraded, lastPrice, t.SharesHeld)
	}

	if err := s.sendBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("upsert insider trades for %s: %w", symbol, err)
	}
	return len(trades), nil
}

// sendBatch executes every queued statement inside one transaction so
// a mid-batch failure leaves no partially written ticker batch.
func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

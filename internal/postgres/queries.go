package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"stockfetcher/internal/stocks"
)

// QuoteFilter narrows the quote read surface.
type QuoteFilter struct {
	// From keeps quotes on or after this date when non-zero.
	From time.Time

	// Limit caps the result set when positive.
	Limit uint64
}

// TradeFilter narrows the insider trade read surface.
type TradeFilter struct {
	From  time.Time
	Limit uint64
}

// Quotes returns a ticker's stored quotes, newest first.
func (s *Store) Quotes(ctx context.Context, symbol string, f QuoteFilter) ([]stocks.Quote, error) {
	q := sq.Select("symbol", "date", "open", "high", "low", "close", "volume").
		From("quotes").
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("date DESC").
		PlaceholderFormat(sq.Dollar)

	if !f.From.IsZero() {
		q = q.Where(sq.GtOrEq{"date": f.From})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build quotes query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query quotes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var quotes []stocks.Quote
	for rows.Next() {
		var quote stocks.Quote
		if err := rows.Scan(&quote.Symbol, &quote.Date,
			&quote.Open, &quote.High, &quote.Low, &quote.Close, &quote.Volume); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// QuoteAt returns the quote stored under the natural key
// (symbol, date). pgx.ErrNoRows is wrapped in the returned error when
// no such quote exists.
func (s *Store) QuoteAt(ctx context.Context, symbol string, date time.Time) (stocks.Quote, error) {
	sql, args, err := sq.Select("symbol", "date", "open", "high", "low", "close", "volume").
		From("quotes").
		Where(sq.Eq{"symbol": symbol, "date": date}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("build quote query: %w", err)
	}

	var quote stocks.Quote
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&quote.Symbol, &quote.Date,
		&quote.Open, &quote.High, &quote.Low, &quote.Close, &quote.Volume); err != nil {
		return stocks.Quote{}, fmt.Errorf("quote %s at %s: %w", symbol, date.Format(stocks.DateFormat), err)
	}
	return quote, nil
}

// Trades returns a ticker's stored insider trades, newest first.
func (s *Store) Trades(ctx context.Context, symbol string, f TradeFilter) ([]stocks.InsiderTrade, error) {
	q := sq.Select("symbol", "insider", "relation", "date", "transaction_type",
		"owner_type", "shares_traded", "last_price", "shares_held").
		From("insider_trades").
		Where(sq.Eq{"symbol": symbol}).
		OrderBy("date DESC").
		PlaceholderFormat(sq.Dollar)

	if !f.From.IsZero() {
		q = q.Where(sq.GtOrEq{"date": f.From})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trades query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades for %s: %w", symbol, err)
	}
	defer rows.Close()

	var trades []stocks.InsiderTrade
	for rows.Next() {
		var trade stocks.InsiderTrade
		var lastPrice *float64
		if err := rows.Scan(&trade.Symbol, &trade.Insider, &trade.Relation, &trade.Date,
			&trade.TransactionType, &trade.OwnerType, &trade.SharesTraded,
			&lastPrice, &trade.SharesHeld); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if lastPrice != nil {
			trade.LastPrice = *lastPrice
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// Symbols lists the distinct tickers present in the store.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	sql, args, err := sq.Select("DISTINCT symbol").
		From("quotes").
		OrderBy("symbol").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build symbols query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

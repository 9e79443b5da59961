package nasdaq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockfetcher/internal/fetcher"
	"stockfetcher/internal/stocks"
)

// pageDateLayout is the date format the API uses in row payloads.
const pageDateLayout = "01/02/2006"

// historyResponse represents one page of the historical quotes payload
type historyResponse struct {
	Data struct {
		Symbol     string       `json:"symbol"`
		TotalPages int          `json:"totalPages"`
		Rows       []historyRow `json:"rows"`
	} `json:"data"`
}

type historyRow struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// QuotePage retrieves one page of daily quotes for symbol. The bool is
// true when the source reports this page as the last one. Implements
// fetcher.Source.
func (c *Client) QuotePage(ctx context.Context, symbol string, page int) ([]stocks.Quote, bool, error) {
	var result historyResponse

	path := fmt.Sprintf("/api/quote/%s/historical", strings.ToLower(symbol))
	if err := c.getPage(ctx, path, page, &result); err != nil {
		return nil, false, err
	}

	if result.Data.Rows == nil && result.Data.TotalPages == 0 {
		return nil, false, fetcher.NewParseError(
			fmt.Sprintf("history payload for %s is missing its data envelope", symbol), nil)
	}

	quotes := make([]stocks.Quote, 0, len(result.Data.Rows))
	for _, row := range result.Data.Rows {
		quote, err := row.toQuote(symbol)
		if err != nil {
			slog.Warn("skipping unparseable history row",
				"symbol", symbol,
				"page", page,
				"error", err)
			continue
		}
		quotes = append(quotes, quote)
	}

	return quotes, page >= result.Data.TotalPages, nil
}

func (r historyRow) toQuote(symbol string) (stocks.Quote, error) {
	date, err := time.Parse(pageDateLayout, r.Date)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad date %q: %w", r.Date, err)
	}

	open, err := parsePrice(r.Open)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad open %q: %w", r.Open, err)
	}
	high, err := parsePrice(r.High)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad high %q: %w", r.High, err)
	}
	low, err := parsePrice(r.Low)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad low %q: %w", r.Low, err)
	}
	closePrice, err := parsePrice(r.Close)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad close %q: %w", r.Close, err)
	}
	volume, err := parseCount(r.Volume)
	if err != nil {
		return stocks.Quote{}, fmt.Errorf("bad volume %q: %w", r.Volume, err)
	}

	return stocks.Quote{
		Symbol: symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}

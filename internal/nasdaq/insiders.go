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

// insidersResponse represents one page of the insider trades payload
type insidersResponse struct {
	Data struct {
		Symbol     string       `json:"symbol"`
		TotalPages int          `json:"totalPages"`
		Rows       []insiderRow `json:"rows"`
	} `json:"data"`
}

type insiderRow struct {
	Insider         string `json:"insider"`
	Relation        string `json:"relation"`
	LastDate        string `json:"lastDate"`
	TransactionType string `json:"transactionType"`
	OwnerType       string `json:"ownerType"`
	SharesTraded    string `json:"sharesTraded"`
	LastPrice       string `json:"lastPrice"`
	SharesHeld      string `json:"sharesHeld"`
}

// TradePage retrieves one page of insider trades for symbol. Same
// contract as QuotePage. Implements fetcher.Source.
func (c *Client) TradePage(ctx context.Context, symbol string, page int) ([]stocks.InsiderTrade, bool, error) {
	var result insidersResponse

	path := fmt.Sprintf("/api/quote/%s/insider-trades", strings.ToLower(symbol))
	if err := c.getPage(ctx, path, page, &result); err != nil {
		return nil, false, err
	}

	if result.Data.Rows == nil && result.Data.TotalPages == 0 {
		return nil, false, fetcher.NewParseError(
			fmt.Sprintf("insider trades payload for %s is missing its data envelope", symbol), nil)
	}

	trades := make([]stocks.InsiderTrade, 0, len(result.Data.Rows))
	for _, row := range result.Data.Rows {
		trade, err := row.toTrade(symbol)
		if err != nil {
			slog.Warn("skipping unparseable insider trade row",
				"symbol", symbol,
				"page", page,
				"error", err)
			continue
		}
		trades = append(trades, trade)
	}

	return trades, page >= result.Data.TotalPages, nil
}

func (r insiderRow) toTrade(symbol string) (stocks.InsiderTrade, error) {
	date, err := time.Parse(pageDateLayout, r.LastDate)
	if err != nil {
		return stocks.InsiderTrade{}, fmt.Errorf("bad date %q: %w", r.LastDate, err)
	}

	sharesTraded, err := parseCount(r.SharesTraded)
	if err != nil {
		return stocks.InsiderTrade{}, fmt.Errorf("bad shares traded %q: %w", r.SharesTraded, err)
	}
	lastPrice, err := parsePrice(r.LastPrice)
	if err != nil {
		return stocks.InsiderTrade{}, fmt.Errorf("bad last price %q: %w", r.LastPrice, err)
	}
	sharesHeld, err := parseCount(r.SharesHeld)
	if err != nil {
		return stocks.InsiderTrade{}, fmt.Errorf("bad shares held %q: %w", r.SharesHeld, err)
	}

	return stocks.InsiderTrade{
		Symbol:          symbol,
		Insider:         r.Insider,
		Relation:        r.Relation,
		Date:            date,
		TransactionType: r.TransactionType,
		OwnerType:       r.OwnerType,
		SharesTraded:    sharesTraded,
		LastPrice:       lastPrice,
		SharesHeld:      sharesHeld,
	}, nil
}

// Package tickers loads the symbol list that seeds a pipeline run.
package tickers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrSourceUnavailable means the backing list could not be read.
	ErrSourceUnavailable = errors.New("ticker source unavailable")

	// ErrNoTickers means the list was readable but held no symbols.
	// Callers can treat this as "no work" rather than a broken input.
	ErrNoTickers = errors.New("ticker source is empty")
)

// Load reads a newline-delimited symbol list from path. Symbols are
// trimmed, blank lines are dropped, and duplicates are collapsed
// keeping the first occurrence, so no ticker is queued twice in a run.
// The order of first occurrence is preserved.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var symbols []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		symbol := strings.TrimSpace(scanner.Text())
		if symbol == "" {
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTickers, path)
	}

	return symbols, nil
}

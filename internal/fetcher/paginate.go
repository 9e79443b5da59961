package fetcher

import (
	"context"
	"time"
)

// State is the pagination lifecycle for one ticker's walk.
type State int

const (
	// StatePending means the walk has not started.
	StatePending State = iota
	// StateFetching means a page request is in flight or waiting for a retry.
	StateFetching
	// StateDone means the walk terminated successfully: an empty page,
	// the source's last-page signal, or the page cap.
	StateDone
	// StateFailed means the walk aborted on an unrecoverable error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageStatus describes one successfully fetched page.
type PageStatus struct {
	// Rows is the number of records parsed from the page.
	Rows int

	// LastPage is the source's explicit no-more-pages signal.
	LastPage bool
}

// PageFunc fetches and consumes a single page. Implementations append
// parsed records to their own accumulator and report only what the
// Paginator needs for its transition decision.
type PageFunc func(ctx context.Context, page int) (PageStatus, error)

const (
	// DefaultMaxPages caps a walk when the caller does not set its own cap.
	DefaultMaxPages = 10

	// DefaultMaxAttempts is the total number of tries per page before a
	// retryable error becomes permanent.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the base wait between attempts on the same
	// page; the actual wait grows linearly with the attempt number.
	DefaultRetryDelay = 1 * time.Second
)

// Paginator walks one ticker's pages in order, starting at page 1.
// Retryable errors are retried in place with a bounded attempt budget;
// pages are never skipped. A page that cannot be fetched within the
// budget fails the whole walk, so a ticker's stored data never has
// holes in the middle of its page range.
type Paginator struct {
	// MaxPages caps the walk; reaching the cap is success, not an error.
	MaxPages int

	// MaxAttempts configures the per-page retry budget; zero falls back
	// to DefaultMaxAttempts. RetryDelay is the base wait between
	// attempts; zero disables the wait.
	MaxAttempts int
	RetryDelay  time.Duration

	state State
}

// NewPaginator returns a Paginator with the default retry policy.
// Non-positive maxPages falls back to DefaultMaxPages.
func NewPaginator(maxPages int) *Paginator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Paginator{
		MaxPages:    maxPages,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
	}
}

// State returns the current lifecycle state.
func (p *Paginator) State() State {
	return p.state
}

// Run drives fn from page 1 until a terminal condition and returns the
// number of pages fetched, including the empty page that terminates a
// walk. A non-retryable error, an exhausted attempt budget, or context
// cancellation moves the Paginator to StateFailed and returns the
// error together with the pages fetched so far.
func (p *Paginator) Run(ctx context.Context, fn PageFunc) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	p.state = StateFetching
	page := 1
	attempt := 1
	fetched := 0

	for {
		if err := ctx.Err(); err != nil {
			p.state = StateFailed
			return fetched, err
		}

		status, err := fn(ctx, page)
		if err != nil {
			if !IsRetryable(err) || attempt >= maxAttempts {
				p.state = StateFailed
				return fetched, err
			}
			if waitErr := p.wait(ctx, attempt); waitErr != nil {
				p.state = StateFailed
				return fetched, waitErr
			}
			attempt++
			continue
		}

		fetched++
		attempt = 1

		if status.Rows == 0 || status.LastPage || page >= p.MaxPages {
			p.state = StateDone
			return fetched, nil
		}
		page++
	}
}

// wait blocks for the linearly scaled retry delay, honoring context
// cancellation.
func (p *Paginator) wait(ctx context.Context, attempt int) error {
	delay := p.RetryDelay
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(attempt) * delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

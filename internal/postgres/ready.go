package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	readyInitialInterval = 1 * time.Second
	readyMaxInterval     = 30 * time.Second
)

// WaitReady blocks until the database accepts connections and the
// schema exists. It retries with exponential backoff and no attempt
// limit: the default policy is to keep trying until the store is
// reachable. The context is the only way to give up, so callers that
// need a bound pass one with a deadline.
func (s *Store) WaitReady(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = readyInitialInterval
	b.MaxInterval = readyMaxInterval
	b.MaxElapsedTime = 0

	return waitReady(ctx, s.initSchema, b)
}

// waitReady drives the retry loop around init. The policy is a
// parameter so the gate's behavior is testable without a database.
func waitReady(ctx context.Context, init func(context.Context) error, policy backoff.BackOff) error {
	attempt := 0
	op := func() error {
		attempt++
		if err := init(ctx); err != nil {
			slog.Warn("database not ready",
				"attempt", attempt,
				"error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("wait for database: %w", err)
	}

	slog.Info("database ready", "attempts", attempt)
	return nil
}

package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles outbound requests to the upstream data source so a
// full worker pool cannot exceed the source's tolerated request rate.
// A nil Limiter is valid and unlimited.
type Limiter struct {
	limiter *rate.Limiter
}

// PerSecond returns a Limiter that admits perSec requests per second
// with a burst of one. perSec <= 0 means unlimited.
func PerSecond(perSec float64) *Limiter {
	if perSec <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSec), 1)}
}

// Wait blocks until the limiter permits a request. It returns an error
// if the context is canceled before the request can proceed.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may happen now.
func (l *Limiter) Allow() bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

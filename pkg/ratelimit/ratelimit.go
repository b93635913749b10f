// Package ratelimit provides a sliding-window request limiter keyed by model
// name. Each model gets at most maxRequests starts per period; excess callers
// block until the oldest request leaves the window.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter is a sliding-window limiter for a single model.
type Limiter struct {
	model       string
	maxRequests int
	period      time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	starts []time.Time
}

// NewLimiter builds a limiter allowing maxRequests per period.
// maxRequests <= 0 disables limiting.
func NewLimiter(model string, maxRequests int, period time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		model:       model,
		maxRequests: maxRequests,
		period:      period,
		logger:      logger.With("component", "ratelimit", "model", model),
	}
}

// Wait blocks until a request may start, then records the start. It returns
// early with ctx.Err() if the context is canceled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.maxRequests <= 0 {
		return nil
	}
	for {
		delay := l.tryAcquire(time.Now())
		if delay <= 0 {
			return nil
		}
		l.logger.Info("rate limit reached, delaying request", "delay", delay.Round(time.Millisecond))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// tryAcquire records a request start if the window has room, or returns how
// long until the oldest recorded start exits the window. The lock covers only
// bookkeeping, never the waiting itself.
func (l *Limiter) tryAcquire(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.period)
	kept := l.starts[:0]
	for _, s := range l.starts {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	l.starts = kept

	if len(l.starts) < l.maxRequests {
		l.starts = append(l.starts, now)
		return 0
	}
	return l.starts[0].Add(l.period).Sub(now)
}

// sleep waits for d or until ctx is done. The wait is chopped into short
// slices so cancellation is observed promptly even for long delays.
func sleep(ctx context.Context, d time.Duration) error {
	const slice = time.Second
	for d > 0 {
		step := d
		if step > slice {
			step = slice
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		d -= step
	}
	return nil
}

// Registry hands out one shared Limiter per model name.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger, limiters: make(map[string]*Limiter)}
}

// Register installs a limiter for model, replacing any previous one.
func (r *Registry) Register(model string, maxRequests int, period time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[model] = NewLimiter(model, maxRequests, period, r.logger)
}

// Wait applies the limiter registered for model. Unregistered models pass
// through without waiting.
func (r *Registry) Wait(ctx context.Context, model string) error {
	r.mu.Lock()
	l := r.limiters[model]
	r.mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

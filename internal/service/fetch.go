package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ticktraq/field-service/internal/clock"
)

// RetryPolicy bounds attempts at a reference load. Delay doubles after
// every failed attempt.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// fetcher runs reference loads with in-flight de-duplication and
// retry. A coalesced call runs under the context of the caller that
// started it; later callers stop waiting when their own context ends.
type fetcher struct {
	group  singleflight.Group
	clock  clock.Clock
	policy RetryPolicy
	logger *zap.Logger
}

func newFetcher(c clock.Clock, policy RetryPolicy, logger *zap.Logger) *fetcher {
	return &fetcher{clock: c, policy: policy, logger: logger}
}

func (f *fetcher) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := f.group.DoChan(key, func() (any, error) {
		return f.retry(ctx, key, fn)
	})
	select {
	case res := <-ch:
		if res.Shared {
			f.logger.Debug("fetch coalesced", zap.String("collection", key))
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fetcher) retry(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	delay := f.policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= f.policy.attempts(); attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt == f.policy.attempts() {
			break
		}
		f.logger.Warn("fetch attempt failed",
			zap.String("collection", key),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		if !clock.Sleep(f.clock, delay, ctx.Done()) {
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

// fetchTyped adapts fetcher.do to a concrete result type.
func fetchTyped[T any](ctx context.Context, f *fetcher, key string, fn func(context.Context) (T, error)) (T, error) {
	val, err := f.do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return val.(T), nil
}

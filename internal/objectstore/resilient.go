// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package objectstore

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/callvault/internal/metrics"
	"github.com/ManuGH/callvault/internal/resilience"
)

// ResilientOptions configures the guard wrapped around a backend.
type ResilientOptions struct {
	// Timeout bounds each call. Streams returned by Open are not bounded.
	Timeout          time.Duration
	RPS              float64
	Burst            int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Resilient decorates a Store with a per-call deadline, a client-side rate
// limit, a circuit breaker and metrics.
type Resilient struct {
	inner   Store
	timeout time.Duration
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// NewResilient wraps inner.
func NewResilient(inner Store, opts ResilientOptions) *Resilient {
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Resilient{
		inner:   inner,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker("objectstore", opts.BreakerThreshold, opts.BreakerCooldown,
			resilience.WithFailureClassifier(isBackendFailure)),
	}
}

// isBackendFailure keeps caller-side outcomes from tripping the breaker.
func isBackendFailure(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrInvalidKey) &&
		!errors.Is(err, ErrUnsupported) &&
		!errors.Is(err, context.Canceled)
}

func (r *Resilient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.ObserveObjectStore(op, err, time.Since(start))
		return err
	}
	err := r.breaker.Execute(func() error {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	metrics.ObserveObjectStore(op, err, time.Since(start))
	return err
}

func (r *Resilient) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := r.call(ctx, "list", func(ctx context.Context) error {
		var err error
		keys, err = r.inner.List(ctx, prefix)
		return err
	})
	return keys, err
}

func (r *Resilient) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.call(ctx, "get", func(ctx context.Context) error {
		var err error
		data, err = r.inner.Get(ctx, key)
		return err
	})
	return data, err
}

// Open is guarded only while the stream is being established; the returned
// reader lives on the caller's context.
func (r *Resilient) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.ObserveObjectStore("open", err, time.Since(start))
		return nil, err
	}
	err := r.breaker.Execute(func() error {
		var err error
		rc, err = r.inner.Open(ctx, key)
		return err
	})
	metrics.ObserveObjectStore("open", err, time.Since(start))
	return rc, err
}

func (r *Resilient) Exists(ctx context.Context) (bool, error) {
	var ok bool
	err := r.call(ctx, "exists", func(ctx context.Context) error {
		var err error
		ok, err = r.inner.Exists(ctx)
		return err
	})
	return ok, err
}

func (r *Resilient) Put(ctx context.Context, key string, body io.Reader) error {
	return r.call(ctx, "put", func(ctx context.Context) error {
		return Put(ctx, r.inner, key, body)
	})
}

func (r *Resilient) FindByTags(ctx context.Context, q TagQuery) (TagPage, error) {
	var page TagPage
	err := r.call(ctx, "find_by_tags", func(ctx context.Context) error {
		var err error
		page, err = FindByTags(ctx, r.inner, q)
		return err
	})
	return page, err
}

// Breaker exposes the circuit state for health reporting.
func (r *Resilient) Breaker() *resilience.CircuitBreaker { return r.breaker }

// Close releases the wrapped backend when it holds resources.
func (r *Resilient) Close() error {
	if c, ok := r.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

package pricefeeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/oracle-dispatcher/pkg/circuitbreaker"
	"golang.org/x/time/rate"
)

// GuardOpts configures the protections wrapped around a source.
type GuardOpts struct {
	// Timeout bounds every request, zero means no timeout other than the
	// caller's.
	Timeout time.Duration
	// RateLimit is the max number of requests per second, zero means
	// unlimited.
	RateLimit float64
	// Breaker, if nil, defaults to a circuit breaker named after the source.
	Breaker *gobreaker.CircuitBreaker
}

type guardedSource struct {
	Source
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
}

// Guard wraps src so that each request waits for the rate limiter, is bounded
// by the timeout and goes through a circuit breaker.
func Guard(src Source, opts GuardOpts) Source {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	cb := opts.Breaker
	if cb == nil {
		cb = circuitbreaker.NewCircuitBreaker(src.Name())
	}
	return &guardedSource{
		Source:  src,
		timeout: opts.Timeout,
		limiter: limiter,
		cb:      cb,
	}
}

func (g *guardedSource) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.Source.GetPrice(ctx, symbol)
	})
	if err != nil {
		return decimal.Zero, err
	}

	price := res.(decimal.Decimal)
	if !price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return price, nil
}

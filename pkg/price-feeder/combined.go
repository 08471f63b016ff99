package pricefeeder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
	"golang.org/x/sync/errgroup"
)

// Combined queries all its sources concurrently, waits for every one of them
// to settle and applies the policy to the successful quotes.
type Combined struct {
	sources []Source
	policy  Policy
}

// NewCombined returns a Combined source. Median{MinValid: 1} is used if policy
// is nil.
func NewCombined(policy Policy, sources ...Source) (*Combined, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if policy == nil {
		policy = Median{MinValid: 1}
	}
	return &Combined{sources, policy}, nil
}

func (c *Combined) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return fmt.Sprintf("%s[%s]", c.policy, strings.Join(names, ","))
}

// GetPrice issues one request per source. A failing source never cancels the
// others.
func (c *Combined) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	lock := &sync.Mutex{}
	quotes := make([]Quote, 0, len(c.sources))

	eg := &errgroup.Group{}
	for _, src := range c.sources {
		src := src
		eg.Go(func() error {
			price, err := src.GetPrice(ctx, symbol)
			stats.SourceRequests.WithLabelValues(src.Name(), stats.Result(err)).Inc()
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"module": "price-feeder",
					"source": src.Name(),
					"symbol": symbol,
				}).Debug("source failed to return price")
				return nil
			}

			lock.Lock()
			quotes = append(quotes, Quote{Source: src.Name(), Price: price})
			lock.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	price, err := c.policy.Combine(quotes)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", symbol, err)
	}
	return price, nil
}

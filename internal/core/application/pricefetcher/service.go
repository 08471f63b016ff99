// Package pricefetcher resolves the price of every configured symbol once
// per cycle.
package pricefetcher

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	"golang.org/x/sync/errgroup"
)

// SymbolFeed binds a symbol to the currency it's reported under and to the
// (usually combined) source its price is resolved from.
type SymbolFeed struct {
	Symbol   domain.Symbol
	Currency domain.Currency
	Source   pricefeeder.Source
}

type Service struct {
	feeds []SymbolFeed
	now   func() time.Time
	log   *log.Entry
}

func NewService(feeds []SymbolFeed) (*Service, error) {
	if len(feeds) == 0 {
		return nil, ErrNoSymbols
	}
	seen := make(map[domain.Symbol]bool, len(feeds))
	for _, f := range feeds {
		if f.Source == nil {
			return nil, ErrMissingSource
		}
		if seen[f.Symbol] {
			return nil, ErrDuplicatedSymbol
		}
		seen[f.Symbol] = true
	}

	return &Service{
		feeds: feeds,
		now:   time.Now,
		log:   log.WithField("module", "price-fetcher"),
	}, nil
}

// FetchPrices resolves all symbols concurrently. Symbols whose source fails
// are dropped from the batch, which keeps the configured order. ErrNoPrices
// is returned only if no symbol could be resolved.
func (s *Service) FetchPrices(ctx context.Context) (domain.PriceBatch, error) {
	// every go routine writes its own slot.
	results := make([]*domain.PriceQuote, len(s.feeds))

	// no errgroup.WithContext: a failing symbol must not cancel the others.
	eg := &errgroup.Group{}
	for i, feed := range s.feeds {
		i, feed := i, feed
		eg.Go(func() error {
			price, err := feed.Source.GetPrice(ctx, feed.Symbol.String())
			if err != nil {
				s.log.WithError(err).WithField("symbol", feed.Symbol).Warn(
					"failed to fetch price, dropping symbol from this cycle",
				)
				return nil
			}

			results[i] = &domain.PriceQuote{
				Symbol:   feed.Symbol,
				Currency: feed.Currency,
				Price:    price,
			}
			return nil
		})
	}
	_ = eg.Wait()

	quotes := make([]domain.PriceQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	if len(quotes) == 0 {
		return domain.PriceBatch{}, ErrNoPrices
	}

	return domain.NewPriceBatch(quotes, s.now()), nil
}

// Symbols returns the configured symbols in order.
func (s *Service) Symbols() []domain.Symbol {
	symbols := make([]domain.Symbol, 0, len(s.feeds))
	for _, f := range s.feeds {
		symbols = append(symbols, f.Symbol)
	}
	return symbols
}

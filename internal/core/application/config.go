package application

import (
	"fmt"

	"github.com/tdex-network/oracle-dispatcher/internal/core/application/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/oracle"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/pricefetcher"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	calculator "github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/arbitrage"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	"github.com/tdex-network/oracle-dispatcher/pkg/signer"
)

// SymbolConfig is a symbol to read along with the names of the sources its
// price is combined from.
type SymbolConfig struct {
	Symbol    domain.Symbol
	Currency  domain.Currency
	Exchanges []string
}

// Config assembles the application services. Services are built lazily on
// first access and reused afterwards.
type Config struct {
	Ledger     ports.Ledger
	Signer     *signer.Signer
	OracleName string

	Symbols    []SymbolConfig
	SourceOpts pricefetcher.SourceOpts
	Policy     pricefeeder.Policy
	// PriceFetcher, if set, is used in place of the one built from Symbols.
	PriceFetcher ports.PriceFetcher

	EnableArbitrage bool
	BaseCurrency    domain.Currency
	ArbitrageOpts   calculator.Opts

	DispatcherOpts DispatcherOpts

	sources    *pricefetcher.SourceFactory
	fetcher    ports.PriceFetcher
	submitter  *oracle.Service
	rebalancer *arbitrage.Service
	dispatcher *Dispatcher
}

// Validate builds every service, returning the first error encountered.
func (c *Config) Validate() error {
	if c.Ledger == nil {
		return ErrMissingLedger
	}
	if _, err := c.priceFetcher(); err != nil {
		return err
	}
	if _, err := c.oracleService(); err != nil {
		return err
	}
	if _, err := c.arbitrageService(); err != nil {
		return err
	}
	if _, err := c.dispatcherService(); err != nil {
		return err
	}
	return nil
}

func (c *Config) PriceFetcherService() ports.PriceFetcher {
	svc, _ := c.priceFetcher()
	return svc
}

func (c *Config) OracleService() *oracle.Service {
	svc, _ := c.oracleService()
	return svc
}

// ArbitrageService returns nil if arbitrage is disabled.
func (c *Config) ArbitrageService() *arbitrage.Service {
	svc, _ := c.arbitrageService()
	return svc
}

func (c *Config) Dispatcher() *Dispatcher {
	svc, _ := c.dispatcherService()
	return svc
}

// Close releases the price source connections and the ledger client.
func (c *Config) Close() {
	if c.sources != nil {
		c.sources.Stop()
	}
	if c.Ledger != nil {
		c.Ledger.Close()
	}
}

func (c *Config) priceFetcher() (ports.PriceFetcher, error) {
	if c.fetcher == nil {
		if c.PriceFetcher != nil {
			c.fetcher = c.PriceFetcher
			return c.fetcher, nil
		}

		if c.sources == nil {
			c.sources = pricefetcher.NewSourceFactory(c.SourceOpts)
		}
		feeds := make([]pricefetcher.SymbolFeed, 0, len(c.Symbols))
		for _, s := range c.Symbols {
			src, err := c.sources.Combined(c.Policy, s.Exchanges)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.Symbol, err)
			}
			feeds = append(feeds, pricefetcher.SymbolFeed{
				Symbol:   s.Symbol,
				Currency: s.Currency,
				Source:   src,
			})
		}
		fetcher, err := pricefetcher.NewService(feeds)
		if err != nil {
			return nil, err
		}
		c.fetcher = fetcher
	}
	return c.fetcher, nil
}

func (c *Config) oracleService() (*oracle.Service, error) {
	if c.submitter == nil {
		svc, err := oracle.NewService(c.Ledger, c.Signer, c.OracleName)
		if err != nil {
			return nil, err
		}
		c.submitter = svc
	}
	return c.submitter, nil
}

func (c *Config) arbitrageService() (*arbitrage.Service, error) {
	if !c.EnableArbitrage {
		return nil, nil
	}
	if c.rebalancer == nil {
		svc, err := arbitrage.NewService(c.Ledger, c.BaseCurrency, c.ArbitrageOpts)
		if err != nil {
			return nil, err
		}
		c.rebalancer = svc
	}
	return c.rebalancer, nil
}

func (c *Config) dispatcherService() (*Dispatcher, error) {
	if c.dispatcher == nil {
		fetcher, err := c.priceFetcher()
		if err != nil {
			return nil, err
		}
		submitter, err := c.oracleService()
		if err != nil {
			return nil, err
		}
		rebalancer, err := c.arbitrageService()
		if err != nil {
			return nil, err
		}

		// a nil *arbitrage.Service must not become a non nil interface.
		var r Rebalancer
		if rebalancer != nil {
			r = rebalancer
		}
		d, err := NewDispatcher(fetcher, submitter, r, c.DispatcherOpts)
		if err != nil {
			return nil, err
		}
		c.dispatcher = d
	}
	return c.dispatcher, nil
}

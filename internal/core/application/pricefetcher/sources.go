package pricefetcher

import (
	"fmt"
	"strings"
	"sync"
	"time"

	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	alphavantagefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/alphavantage"
	bitfinexfeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/bitfinex"
	coinbasefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/coinbase"
	cryptocomparefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/cryptocompare"
	krakenfeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/kraken"
)

const (
	SourceCryptoCompare = "cryptocompare"
	SourceKraken        = "kraken"
	SourceCoinbase      = "coinbase"
	SourceBitfinex      = "bitfinex"
	SourceAlphaVantage  = "alphavantage"
)

// SupportedSources lists the accepted source names.
var SupportedSources = []string{
	SourceCryptoCompare,
	SourceKraken,
	SourceCoinbase,
	SourceBitfinex,
	SourceAlphaVantage,
}

// NormalizeSourceName maps a configured exchange name to one of
// SupportedSources. Names are case insensitive and the CCXT:<exchange> form is
// accepted, eg. CCXT:kraken and Kraken are the same source.
func NormalizeSourceName(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "ccxt:")
	switch n {
	case "coinbasepro", "coinbaseexchange":
		n = SourceCoinbase
	}
	for _, s := range SupportedSources {
		if s == n {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

// SourceOpts configures the sources built by a SourceFactory.
type SourceOpts struct {
	Timeout             time.Duration
	RateLimit           float64
	CryptoCompareAPIKey string
	AlphaVantageAPIKey  string
	// URLs overrides the default endpoint of a source, by source name.
	URLs map[string]string
}

// SourceFactory builds guarded sources by name. Each source is built once and
// shared across symbols, so that its rate limiter and circuit breaker apply
// to all requests to the same provider.
type SourceFactory struct {
	opts SourceOpts

	lock    *sync.Mutex
	sources map[string]pricefeeder.Source
	kraken  *krakenfeeder.Service
}

func NewSourceFactory(opts SourceOpts) *SourceFactory {
	return &SourceFactory{
		opts:    opts,
		lock:    &sync.Mutex{},
		sources: make(map[string]pricefeeder.Source),
	}
}

// Source returns the guarded source with the given name.
func (f *SourceFactory) Source(name string) (pricefeeder.Source, error) {
	name, err := NormalizeSourceName(name)
	if err != nil {
		return nil, err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if src, ok := f.sources[name]; ok {
		return src, nil
	}

	src, err := f.newSource(name)
	if err != nil {
		return nil, err
	}
	guarded := pricefeeder.Guard(src, pricefeeder.GuardOpts{
		Timeout:   f.opts.Timeout,
		RateLimit: f.opts.RateLimit,
	})
	f.sources[name] = guarded
	return guarded, nil
}

// Combined returns a Combined source querying every named source.
func (f *SourceFactory) Combined(policy pricefeeder.Policy, names []string) (*pricefeeder.Combined, error) {
	sources := make([]pricefeeder.Source, 0, len(names))
	for _, name := range names {
		src, err := f.Source(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return pricefeeder.NewCombined(policy, sources...)
}

// Stop releases streaming connections.
func (f *SourceFactory) Stop() {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.kraken != nil {
		f.kraken.Stop()
	}
}

func (f *SourceFactory) newSource(name string) (pricefeeder.Source, error) {
	url := f.opts.URLs[name]

	switch name {
	case SourceCryptoCompare:
		return cryptocomparefeeder.NewService(cryptocomparefeeder.Opts{
			URL:     url,
			APIKey:  f.opts.CryptoCompareAPIKey,
			Timeout: f.opts.Timeout,
		})
	case SourceAlphaVantage:
		return alphavantagefeeder.NewService(alphavantagefeeder.Opts{
			URL:     url,
			APIKey:  f.opts.AlphaVantageAPIKey,
			Timeout: f.opts.Timeout,
		})
	case SourceCoinbase:
		return coinbasefeeder.NewService(coinbasefeeder.Opts{
			URL:     url,
			Timeout: f.opts.Timeout,
		}), nil
	case SourceBitfinex:
		return bitfinexfeeder.NewService(bitfinexfeeder.Opts{
			URL:     url,
			Timeout: f.opts.Timeout,
		}), nil
	case SourceKraken:
		f.kraken = krakenfeeder.NewService(krakenfeeder.Opts{URL: url})
		return f.kraken, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
}

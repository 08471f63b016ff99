// Package coinbasefeeder is a price source backed by the coinbase exchange
// REST ticker endpoint.
package coinbasefeeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/oracle-dispatcher/pkg/httputil"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	"github.com/tidwall/gjson"
)

const baseURL = "https://api.exchange.coinbase.com"

type Opts struct {
	URL     string
	Timeout time.Duration
}

type Service struct {
	url    string
	client *httputil.Client
}

func NewService(opts Opts) *Service {
	url := opts.URL
	if url == "" {
		url = baseURL
	}
	return &Service{
		url:    strings.TrimSuffix(url, "/"),
		client: httputil.NewClient(opts.Timeout),
	}
}

func (s *Service) Name() string {
	return "coinbase"
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := pricefeeder.SplitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	url := fmt.Sprintf("%s/products/%s-%s/ticker", s.url, base, quote)
	status, body, err := s.client.Get(ctx, url, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := httputil.CheckStatus(status, body); err != nil {
		return decimal.Zero, err
	}

	return parsePrice(body)
}

func parsePrice(body []byte) (decimal.Decimal, error) {
	res := gjson.GetBytes(body, "price")
	if !res.Exists() {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() {
			return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrPriceNotAvailable, msg.String())
		}
		return decimal.Zero, pricefeeder.ErrPriceNotAvailable
	}

	price, err := decimal.NewFromString(res.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrInvalidPrice, err)
	}
	return price, nil
}

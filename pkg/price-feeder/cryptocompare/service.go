// Package cryptocomparefeeder is a price source backed by the CryptoCompare
// aggregated index.
package cryptocomparefeeder

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

const (
	baseURL = "https://min-api.cryptocompare.com"
	// DefaultExchange is the CryptoCompare aggregated index.
	DefaultExchange = "CCCAGG"
)

type Opts struct {
	URL      string
	APIKey   string
	Exchange string
	Timeout  time.Duration
}

type Service struct {
	url      string
	apiKey   string
	exchange string
	client   *httputil.Client
}

func NewService(opts Opts) (*Service, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	url := opts.URL
	if url == "" {
		url = baseURL
	}
	exchange := opts.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Service{
		url:      strings.TrimSuffix(url, "/"),
		apiKey:   opts.APIKey,
		exchange: exchange,
		client:   httputil.NewClient(opts.Timeout),
	}, nil
}

func (s *Service) Name() string {
	return "cryptocompare"
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := pricefeeder.SplitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	query := map[string]string{
		"fsym":  base,
		"tsyms": quote,
		"e":     s.exchange,
	}
	header := map[string]string{
		"Authorization": "Apikey " + s.apiKey,
	}
	status, body, err := s.client.Get(ctx, s.url+"/data/price", query, header)
	if err != nil {
		return decimal.Zero, err
	}
	if err := httputil.CheckStatus(status, body); err != nil {
		return decimal.Zero, err
	}

	// errors are reported with status 200 and {"Response": "Error", "Message": ...}
	if gjson.GetBytes(body, "Response").String() == "Error" {
		return decimal.Zero, fmt.Errorf(
			"%w: %s", pricefeeder.ErrPriceNotAvailable, gjson.GetBytes(body, "Message").String(),
		)
	}

	res := gjson.GetBytes(body, quote)
	if res.Type != gjson.Number {
		return decimal.Zero, pricefeeder.ErrPriceNotAvailable
	}
	price, err := decimal.NewFromString(res.Raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrInvalidPrice, err)
	}
	return price, nil
}

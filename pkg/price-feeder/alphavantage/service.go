// Package alphavantagefeeder is a forex price source backed by the Alpha
// Vantage exchange rate endpoint.
package alphavantagefeeder

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
	baseURL = "https://www.alphavantage.co"

	exchangeRatePath = `Realtime Currency Exchange Rate.5\. Exchange Rate`
)

type Opts struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Service struct {
	url    string
	apiKey string
	client *httputil.Client
}

func NewService(opts Opts) (*Service, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	url := opts.URL
	if url == "" {
		url = baseURL
	}
	return &Service{
		url:    strings.TrimSuffix(url, "/"),
		apiKey: opts.APIKey,
		client: httputil.NewClient(opts.Timeout),
	}, nil
}

func (s *Service) Name() string {
	return "alphavantage"
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	base, quote, err := pricefeeder.SplitSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	query := map[string]string{
		"function":      "CURRENCY_EXCHANGE_RATE",
		"from_currency": base,
		"to_currency":   quote,
		"apikey":        s.apiKey,
	}
	status, body, err := s.client.Get(ctx, s.url+"/query", query, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := httputil.CheckStatus(status, body); err != nil {
		return decimal.Zero, err
	}

	res := gjson.GetBytes(body, exchangeRatePath)
	if !res.Exists() {
		// rate limiting and invalid requests come back as 200 with a note
		for _, key := range []string{"Error Message", "Note", "Information"} {
			if msg := gjson.GetBytes(body, key); msg.Exists() {
				return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrPriceNotAvailable, msg.String())
			}
		}
		return decimal.Zero, pricefeeder.ErrPriceNotAvailable
	}

	price, err := decimal.NewFromString(res.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrInvalidPrice, err)
	}
	return price, nil
}

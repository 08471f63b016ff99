// Package bitfinexfeeder is a price source backed by the bitfinex public REST
// ticker endpoint.
package bitfinexfeeder

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
	baseURL = "https://api-pub.bitfinex.com/v2"

	// position of LAST_PRICE in the ticker array
	// [BID, BID_SIZE, ASK, ASK_SIZE, DAILY_CHANGE, DAILY_CHANGE_RELATIVE, LAST_PRICE, ...]
	lastPriceIndex = 6
)

// bitfinex uses 3 letter codes.
var assetAliases = map[string]string{
	"USDT": "UST",
	"DASH": "DSH",
}

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
	return "bitfinex"
}

func (s *Service) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ticker, err := toTicker(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	status, body, err := s.client.Get(ctx, fmt.Sprintf("%s/ticker/%s", s.url, ticker), nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if err := httputil.CheckStatus(status, body); err != nil {
		return decimal.Zero, err
	}

	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		return decimal.Zero, fmt.Errorf("%w: unexpected response %s", pricefeeder.ErrPriceNotAvailable, body)
	}
	// errors are returned as ["error", code, message]
	if first := res.Get("0"); first.Type == gjson.String && first.String() == "error" {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrPriceNotAvailable, res.Get("2").String())
	}

	last := res.Get(fmt.Sprintf("%d", lastPriceIndex))
	if last.Type != gjson.Number {
		return decimal.Zero, pricefeeder.ErrPriceNotAvailable
	}
	price, err := decimal.NewFromString(last.Raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrInvalidPrice, err)
	}
	return price, nil
}

func toTicker(symbol string) (string, error) {
	base, quote, err := pricefeeder.SplitSymbol(symbol)
	if err != nil {
		return "", err
	}
	if alias, ok := assetAliases[base]; ok {
		base = alias
	}
	if alias, ok := assetAliases[quote]; ok {
		quote = alias
	}
	if len(base) > 3 || len(quote) > 3 {
		return fmt.Sprintf("t%s:%s", base, quote), nil
	}
	return fmt.Sprintf("t%s%s", base, quote), nil
}

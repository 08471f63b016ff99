// Package pricefeeder defines the price source boundary and the policies used
// to combine the quotes of several sources into one price.
package pricefeeder

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

var (
	WebSocketCloseErrors = []int{
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseProtocolError,
		websocket.CloseUnsupportedData,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
		websocket.CloseInvalidFramePayloadData,
		websocket.ClosePolicyViolation,
		websocket.CloseMessageTooBig,
		websocket.CloseMandatoryExtension,
		websocket.CloseInternalServerErr,
		websocket.CloseServiceRestart,
		websocket.CloseTryAgainLater,
		websocket.CloseTLSHandshake,
	}
)

// Source returns the current price of a symbol in the form BASE/QUOTE, ie.
// how many units of QUOTE one unit of BASE is worth.
type Source interface {
	Name() string
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Quote is the price returned by a single source.
type Quote struct {
	Source string
	Price  decimal.Decimal
}

// SplitSymbol returns the base and quote assets of symbol.
func SplitSymbol(symbol string) (base, quote string, err error) {
	base, quote, ok := strings.Cut(symbol, "/")
	if !ok || base == "" || quote == "" || strings.Contains(quote, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return strings.ToUpper(base), strings.ToUpper(quote), nil
}

package domain

import "github.com/shopspring/decimal"

// PoolState is a snapshot of the reserves of a constant product pool pairing
// a listing currency with the base currency. It must be read fresh before
// every decision.
type PoolState struct {
	Listing        Currency
	Base           Currency
	ListingReserve decimal.Decimal
	BaseReserve    decimal.Decimal
}

// IsEmpty returns whether either reserve is not positive, in which case the
// pool has no price.
func (p PoolState) IsEmpty() bool {
	return !p.ListingReserve.IsPositive() || !p.BaseReserve.IsPositive()
}

type SwapDirection string

const (
	SwapBuy  SwapDirection = "buy"
	SwapSell SwapDirection = "sell"
)

// SwapIntent is an exact-supply swap with a minimum accepted output.
type SwapIntent struct {
	Direction       SwapDirection
	SupplyCurrency  Currency
	SupplyAmount    decimal.Decimal
	TargetCurrency  Currency
	MinTargetAmount decimal.Decimal
}

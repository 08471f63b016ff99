// Package arbitrage decides whether a constant product pool has drifted from
// a reference price enough to be worth rebalancing, and by how much.
package arbitrage

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/formula"
	"github.com/tdex-network/oracle-dispatcher/pkg/mathutil"
)

const (
	// DefaultThreshold is the minimum relative gap between pool and reference
	// price that triggers a trade.
	DefaultThreshold = 0.03
	// DefaultSlippage is the tolerated relative shortfall of the received
	// amount.
	DefaultSlippage = 0.01
	// DefaultAmountPrecision is the number of decimal places of the amounts of
	// a swap intent.
	DefaultAmountPrecision = 18
)

// Action is the outcome of a decision.
type Action int

const (
	NoAction Action = iota
	// Buy supplies base currency to the pool and takes listing currency out.
	Buy
	// Sell supplies listing currency to the pool and takes base currency out.
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "none"
	}
}

// Reason explains a NoAction decision.
type Reason string

const (
	ReasonEmptyPool  Reason = "empty pool"
	ReasonPriceClose Reason = "pool price close to reference price"
	ReasonDustAmount Reason = "amount to swap rounds to zero"
)

// Pool is the state of a constant product pool at decision time. Reserves
// are expressed in whole units of the respective currencies.
type Pool struct {
	ListingReserve decimal.Decimal
	BaseReserve    decimal.Decimal
}

// Opts tunes the calculator. A non positive Threshold or AmountPrecision
// selects the default, while a zero Slippage is used as is.
type Opts struct {
	Threshold       float64
	Slippage        float64
	AmountPrecision int32
}

// DefaultOpts returns the options used when nothing is configured.
func DefaultOpts() Opts {
	return Opts{
		Threshold:       DefaultThreshold,
		Slippage:        DefaultSlippage,
		AmountPrecision: DefaultAmountPrecision,
	}
}

func (o Opts) withDefaults() Opts {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Slippage < 0 {
		o.Slippage = 0
	}
	if o.AmountPrecision <= 0 {
		o.AmountPrecision = DefaultAmountPrecision
	}
	return o
}

// Intent is the swap that moves the pool price onto the reference price.
// SupplyAmount is always positive. For a Buy it is expressed in base currency
// and MinTargetAmount in listing currency, the other way around for a Sell.
type Intent struct {
	Direction       Action
	SupplyAmount    decimal.Decimal
	MinTargetAmount decimal.Decimal
}

// Decision is the result of Calculate. Intent is nil unless Action is Buy or
// Sell.
type Decision struct {
	Action     Action
	Reason     Reason
	DexPrice   float64
	Gap        float64
	NewListing float64
	NewBase    float64
	Intent     *Intent
}

// Calculate compares the pool price B/L with the reference price P and, if the
// relative gap reaches the threshold, returns the swap that brings the pool to
// the reserves (L', B') with L' * B' = L * B and B' / L' = P.
func Calculate(pool Pool, referencePrice decimal.Decimal, opts Opts) (Decision, error) {
	opts = opts.withDefaults()

	if !pool.ListingReserve.IsPositive() || !pool.BaseReserve.IsPositive() {
		return Decision{Action: NoAction, Reason: ReasonEmptyPool}, nil
	}
	if !referencePrice.IsPositive() {
		return Decision{}, ErrInvalidPrice
	}

	// the pool price is how much base one unit of listing is worth.
	reserves := formula.ConstantProductOpts{
		BalanceIn:  pool.ListingReserve,
		BalanceOut: pool.BaseReserve,
	}
	spotPrice, err := formula.ConstantProduct{}.SpotPrice(reserves)
	if err != nil {
		return Decision{}, err
	}

	l, _ := pool.ListingReserve.Float64()
	b, _ := pool.BaseReserve.Float64()
	p, _ := referencePrice.Float64()
	dexPrice, _ := spotPrice.Float64()
	gap := math.Abs(p-dexPrice) / p

	if gap < opts.Threshold {
		return Decision{
			Action:   NoAction,
			Reason:   ReasonPriceClose,
			DexPrice: dexPrice,
			Gap:      gap,
		}, nil
	}

	k, _ := formula.ConstantProduct{}.Invariant(reserves).Float64()
	newListing := math.Sqrt(k / p)
	newBase := k / newListing

	decision := Decision{
		DexPrice:   dexPrice,
		Gap:        gap,
		NewListing: newListing,
		NewBase:    newBase,
	}

	var supply, target float64
	if dexPrice < p {
		decision.Action = Buy
		supply = newBase - b
		target = l - newListing
	} else {
		decision.Action = Sell
		supply = newListing - l
		target = b - newBase
	}

	minTarget := mathutil.LessPercentage(
		toAmount(target, formula.Precision), decimal.NewFromFloat(opts.Slippage),
	)
	intent := &Intent{
		Direction:       decision.Action,
		SupplyAmount:    toAmount(supply, opts.AmountPrecision),
		MinTargetAmount: minTarget.Truncate(opts.AmountPrecision),
	}
	if !intent.SupplyAmount.IsPositive() {
		return Decision{
			Action:   NoAction,
			Reason:   ReasonDustAmount,
			DexPrice: dexPrice,
			Gap:      gap,
		}, nil
	}
	decision.Intent = intent
	return decision, nil
}

func toAmount(v float64, precision int32) decimal.Decimal {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Truncate(precision)
}

// Package formula implements the constant product (x * y = k) market making
// formula used by the liquidity pools the oracle operator rebalances.
package formula

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places results are rounded to.
const Precision = 18

var (
	// ErrAmountTooLow ...
	ErrAmountTooLow = errors.New("provided amount is too low")
	// ErrBalanceTooLow ...
	ErrBalanceTooLow = errors.New("reserve balance amount is too low")
)

// ConstantProductOpts defines the reserves of the pool the formula is
// applied to. BalanceIn is the reserve of the asset supplied to the pool,
// BalanceOut the reserve of the asset taken out of it.
type ConstantProductOpts struct {
	BalanceIn  decimal.Decimal
	BalanceOut decimal.Decimal
}

func (o ConstantProductOpts) validate() error {
	if !o.BalanceIn.IsPositive() || !o.BalanceOut.IsPositive() {
		return ErrBalanceTooLow
	}
	return nil
}

// ConstantProduct defines an AMM strategy that keeps the product of the two
// reserves constant across swaps. Fees are not modelled.
type ConstantProduct struct{}

// SpotPrice returns the price of one unit of the in asset expressed in out
// asset, ie. BalanceOut / BalanceIn.
func (ConstantProduct) SpotPrice(opts ConstantProductOpts) (decimal.Decimal, error) {
	if err := opts.validate(); err != nil {
		return decimal.Zero, err
	}
	return opts.BalanceOut.DivRound(opts.BalanceIn, Precision), nil
}

// Invariant returns k = BalanceIn * BalanceOut.
func (ConstantProduct) Invariant(opts ConstantProductOpts) decimal.Decimal {
	return opts.BalanceIn.Mul(opts.BalanceOut)
}

// OutGivenIn returns the amount of out asset received for supplying amountIn.
func (ConstantProduct) OutGivenIn(
	opts ConstantProductOpts, amountIn decimal.Decimal,
) (decimal.Decimal, error) {
	if err := opts.validate(); err != nil {
		return decimal.Zero, err
	}
	if !amountIn.IsPositive() {
		return decimal.Zero, ErrAmountTooLow
	}

	// out = Bout - k / (Bin + in)
	k := opts.BalanceIn.Mul(opts.BalanceOut)
	newBalanceOut := k.DivRound(opts.BalanceIn.Add(amountIn), Precision)
	amount := opts.BalanceOut.Sub(newBalanceOut).Truncate(Precision)
	if !amount.IsPositive() {
		return decimal.Zero, ErrAmountTooLow
	}
	return amount, nil
}

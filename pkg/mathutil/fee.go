package mathutil

import (
	"github.com/shopspring/decimal"
)

// TenThousands is the number of basis points in one unit.
var TenThousands = decimal.NewFromInt(10000)

// PlusBasisPoints returns amount increased by the given basis points (ie.
// 0.25% = 25). Negative basis points decrease the amount.
func PlusBasisPoints(amount decimal.Decimal, basisPoints decimal.Decimal) decimal.Decimal {
	delta := amount.Mul(basisPoints).DivRound(TenThousands, BaseUnitDecimals)
	return amount.Add(delta)
}

// LessPercentage returns amount decreased by ratio, ie. amount * (1 - ratio).
func LessPercentage(amount decimal.Decimal, ratio decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(ratio))
}

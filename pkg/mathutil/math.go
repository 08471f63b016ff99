package mathutil

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// BaseUnitDecimals is the number of decimal places of the fixed point
// representation of values accepted by the ledger.
const BaseUnitDecimals = 18

var (
	// BaseUnit represents a single unit of a value with precision 18.
	BaseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(BaseUnitDecimals), nil)
	// BaseUnitDecimal represents BaseUnit as decimal.Decimal.
	BaseUnitDecimal = decimal.NewFromBigInt(BaseUnit, 0)
)

// ToBaseUnit converts a decimal value into its 18-decimal fixed point
// integer representation. Digits beyond the 18th decimal place are truncated.
func ToBaseUnit(value decimal.Decimal) (*big.Int, error) {
	if value.IsNegative() {
		return nil, ErrNegativeValue
	}
	return value.Shift(BaseUnitDecimals).Truncate(0).BigInt(), nil
}

// ToBaseUnitString is like ToBaseUnit but returns the base-10 string of the
// integer.
func ToBaseUnitString(value decimal.Decimal) (string, error) {
	v, err := ToBaseUnit(value)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Median returns the median of the given values. For an even number of values
// it returns the mean of the two central ones. The slice is not modified.
func Median(values []decimal.Decimal) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, ErrEmptySet
	}

	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	SortDecimals(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return decimal.Avg(sorted[mid-1], sorted[mid]), nil
}

// SortDecimals sorts values in ascending order in place.
func SortDecimals(values []decimal.Decimal) {
	sort.Slice(values, func(i, j int) bool {
		return values[i].LessThan(values[j])
	})
}

// RelativeDiff returns |a - b| / |b|. b must not be zero.
func RelativeDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs().DivRound(b.Abs(), BaseUnitDecimals)
}

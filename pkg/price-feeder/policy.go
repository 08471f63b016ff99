package pricefeeder

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/oracle-dispatcher/pkg/mathutil"
)

// Policy combines the successful quotes of a symbol into a single price.
type Policy interface {
	Combine(quotes []Quote) (decimal.Decimal, error)
	String() string
}

// Median requires at least MinValid quotes and returns their median.
type Median struct {
	MinValid int
}

func (m Median) Combine(quotes []Quote) (decimal.Decimal, error) {
	minValid := m.MinValid
	if minValid < 1 {
		minValid = 1
	}
	if len(quotes) < minValid {
		return decimal.Zero, fmt.Errorf(
			"%w: got %d, need %d", ErrNotEnoughQuotes, len(quotes), minValid,
		)
	}
	return mathutil.Median(prices(quotes))
}

func (m Median) String() string {
	return fmt.Sprintf("median(min=%d)", m.MinValid)
}

// Quorum requires at least K quotes within Tolerance (relative) of the median
// of all quotes, and returns the median of the agreeing ones.
type Quorum struct {
	K         int
	Tolerance decimal.Decimal
}

func (q Quorum) Combine(quotes []Quote) (decimal.Decimal, error) {
	k := q.K
	if k < 1 {
		k = 1
	}
	if len(quotes) < k {
		return decimal.Zero, fmt.Errorf(
			"%w: got %d, need %d", ErrNotEnoughQuotes, len(quotes), k,
		)
	}

	median, err := mathutil.Median(prices(quotes))
	if err != nil {
		return decimal.Zero, err
	}

	agreeing := make([]decimal.Decimal, 0, len(quotes))
	for _, quote := range quotes {
		if mathutil.RelativeDiff(quote.Price, median).LessThanOrEqual(q.Tolerance) {
			agreeing = append(agreeing, quote.Price)
		}
	}
	if len(agreeing) < k {
		return decimal.Zero, fmt.Errorf(
			"%w: %d of %d quotes within %s of %s",
			ErrNoQuorum, len(agreeing), len(quotes), q.Tolerance, median,
		)
	}
	return mathutil.Median(agreeing)
}

func (q Quorum) String() string {
	return fmt.Sprintf("quorum(k=%d, tolerance=%s)", q.K, q.Tolerance)
}

func prices(quotes []Quote) []decimal.Decimal {
	p := make([]decimal.Decimal, 0, len(quotes))
	for _, q := range quotes {
		p = append(p, q.Price)
	}
	return p
}

package arbitrage_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/arbitrage"
)

func pool(listing, base string) arbitrage.Pool {
	return arbitrage.Pool{
		ListingReserve: decimal.RequireFromString(listing),
		BaseReserve:    decimal.RequireFromString(base),
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name          string
		pool          arbitrage.Pool
		price         string
		wantAction    arbitrage.Action
		wantReason    arbitrage.Reason
		wantSupply    float64
		wantMinTarget float64
	}{
		{
			name:          "pool cheaper than reference buys listing",
			pool:          pool("1000", "1000"),
			price:         "1.05",
			wantAction:    arbitrage.Buy,
			wantSupply:    24.695076,
			wantMinTarget: 23.858928,
		},
		{
			name:       "gap below threshold",
			pool:       pool("1000", "1000"),
			price:      "1.02",
			wantAction: arbitrage.NoAction,
			wantReason: arbitrage.ReasonPriceClose,
		},
		{
			name:          "pool more expensive than reference sells listing",
			pool:          pool("1000", "1000"),
			price:         "0.95",
			wantAction:    arbitrage.Sell,
			wantSupply:    25.978352,
			wantMinTarget: 25.067360,
		},
		{
			name:       "empty listing reserve",
			pool:       pool("0", "1000"),
			price:      "1.05",
			wantAction: arbitrage.NoAction,
			wantReason: arbitrage.ReasonEmptyPool,
		},
		{
			name:       "empty base reserve",
			pool:       pool("1000", "0"),
			price:      "1.05",
			wantAction: arbitrage.NoAction,
			wantReason: arbitrage.ReasonEmptyPool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := arbitrage.Calculate(
				tt.pool, decimal.RequireFromString(tt.price), arbitrage.DefaultOpts(),
			)
			require.NoError(t, err)
			require.Equal(t, tt.wantAction, decision.Action)

			if tt.wantAction == arbitrage.NoAction {
				require.Equal(t, tt.wantReason, decision.Reason)
				require.Nil(t, decision.Intent)
				return
			}

			require.NotNil(t, decision.Intent)
			require.Equal(t, tt.wantAction, decision.Intent.Direction)
			supply, _ := decision.Intent.SupplyAmount.Float64()
			minTarget, _ := decision.Intent.MinTargetAmount.Float64()
			assert.InDelta(t, tt.wantSupply, supply, 1e-5)
			assert.InDelta(t, tt.wantMinTarget, minTarget, 1e-5)
		})
	}
}

func TestCalculateScenarioReserves(t *testing.T) {
	decision, err := arbitrage.Calculate(
		pool("1000", "1000"), decimal.RequireFromString("1.05"), arbitrage.DefaultOpts(),
	)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, decision.DexPrice, 1e-12)
	assert.InDelta(t, 0.047619, decision.Gap, 1e-6)
	assert.InDelta(t, 975.900073, decision.NewListing, 1e-6)
	assert.InDelta(t, 1024.695077, decision.NewBase, 1e-6)
}

func TestCalculateInvalidPrice(t *testing.T) {
	for _, price := range []string{"0", "-1"} {
		_, err := arbitrage.Calculate(
			pool("1000", "1000"), decimal.RequireFromString(price), arbitrage.DefaultOpts(),
		)
		require.ErrorIs(t, err, arbitrage.ErrInvalidPrice)
	}
}

// After applying the intent without slippage, the pool price matches the
// reference price and the invariant is preserved.
func TestCalculateProperties(t *testing.T) {
	pools := []arbitrage.Pool{
		pool("1000", "1000"),
		pool("12.5", "810000"),
		pool("250000", "3.75"),
	}
	factors := []float64{0.5, 0.9, 0.96, 1.04, 1.1, 3}

	for _, p := range pools {
		l, _ := p.ListingReserve.Float64()
		b, _ := p.BaseReserve.Float64()
		for _, f := range factors {
			price := b / l * f
			decision, err := arbitrage.Calculate(p, decimal.NewFromFloat(price), arbitrage.Opts{Slippage: 0})
			require.NoError(t, err)
			require.NotNil(t, decision.Intent)

			supply, _ := decision.Intent.SupplyAmount.Float64()
			received, _ := decision.Intent.MinTargetAmount.Float64()
			require.Greater(t, supply, 0.0)

			newL, newB := l-received, b+supply
			if decision.Action == arbitrage.Sell {
				newL, newB = l+supply, b-received
			}
			assert.InEpsilon(t, price, newB/newL, 1e-6)
			assert.InEpsilon(t, l*b, newL*newB, 1e-6)
			assert.InEpsilon(t, l*b, decision.NewListing*decision.NewBase, 1e-9)

			if f < 1 {
				require.Equal(t, arbitrage.Sell, decision.Action)
			} else {
				require.Equal(t, arbitrage.Buy, decision.Action)
			}
		}
	}
}

func TestCalculateSlippage(t *testing.T) {
	p := pool("1000", "1000")
	price := decimal.RequireFromString("1.05")

	tight, err := arbitrage.Calculate(p, price, arbitrage.Opts{Slippage: 0})
	require.NoError(t, err)
	loose, err := arbitrage.Calculate(p, price, arbitrage.Opts{Slippage: 0.1})
	require.NoError(t, err)

	require.True(t, tight.Intent.SupplyAmount.Equal(loose.Intent.SupplyAmount))
	require.True(t, loose.Intent.MinTargetAmount.LessThan(tight.Intent.MinTargetAmount))

	tightMin, _ := tight.Intent.MinTargetAmount.Float64()
	looseMin, _ := loose.Intent.MinTargetAmount.Float64()
	require.False(t, math.IsNaN(tightMin))
	assert.InDelta(t, tightMin*0.9, looseMin, 1e-9)
}

func TestCalculatePrecision(t *testing.T) {
	decision, err := arbitrage.Calculate(
		pool("1000", "1000"),
		decimal.RequireFromString("1.05"),
		arbitrage.Opts{Slippage: 0.01, AmountPrecision: 8},
	)
	require.NoError(t, err)
	require.LessOrEqual(t, -decision.Intent.SupplyAmount.Exponent(), int32(8))
	require.LessOrEqual(t, -decision.Intent.MinTargetAmount.Exponent(), int32(8))
}

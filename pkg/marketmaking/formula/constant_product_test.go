package formula

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConstantProduct_SpotPrice(t *testing.T) {
	tests := []struct {
		name          string
		opts          ConstantProductOpts
		wantSpotPrice decimal.Decimal
		wantErr       error
	}{
		{
			"balanced",
			ConstantProductOpts{BalanceIn: d("1000"), BalanceOut: d("1000")},
			d("1"),
			nil,
		},
		{
			"unbalanced",
			ConstantProductOpts{BalanceIn: d("2"), BalanceOut: d("19520")},
			d("9760"),
			nil,
		},
		{
			"empty reserve",
			ConstantProductOpts{BalanceIn: decimal.Zero, BalanceOut: d("1000")},
			decimal.Zero,
			ErrBalanceTooLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConstantProduct{}.SpotPrice(tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantSpotPrice.Equal(got), got.String())
		})
	}
}

func TestConstantProduct_OutGivenIn(t *testing.T) {
	opts := ConstantProductOpts{BalanceIn: d("1000"), BalanceOut: d("1000")}

	tests := []struct {
		name          string
		amountIn      decimal.Decimal
		wantAmountOut decimal.Decimal
		wantErr       error
	}{
		{"swap", d("1000"), d("500"), nil},
		{"small swap", d("10"), d("9.90099009900990099"), nil},
		{"zero amount", decimal.Zero, decimal.Zero, ErrAmountTooLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConstantProduct{}.OutGivenIn(opts, tt.amountIn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantAmountOut.Equal(got), got.String())
		})
	}
}

func TestConstantProduct_Invariant(t *testing.T) {
	opts := ConstantProductOpts{BalanceIn: d("1000"), BalanceOut: d("1000")}
	amountIn := d("250")

	amountOut, err := ConstantProduct{}.OutGivenIn(opts, amountIn)
	require.NoError(t, err)

	after := ConstantProductOpts{
		BalanceIn:  opts.BalanceIn.Add(amountIn),
		BalanceOut: opts.BalanceOut.Sub(amountOut),
	}
	k := ConstantProduct{}.Invariant(opts)
	kAfter := ConstantProduct{}.Invariant(after)
	// truncation of the output may only increase k.
	require.True(t, kAfter.GreaterThanOrEqual(k))
	require.True(t, kAfter.Sub(k).LessThan(d("0.000001")))
}

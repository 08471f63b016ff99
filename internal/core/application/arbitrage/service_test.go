package arbitrage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	calculator "github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/arbitrage"
)

const base = domain.Currency("AUSD")

var (
	ctx       = context.Background()
	errLedger = errors.New("ledger unavailable")
	opts      = calculator.Opts{
		Threshold:       0.03,
		Slippage:        0.01,
		AmountPrecision: 6,
	}
	inBlock = ports.InBlock{TxHash: "0xtx", BlockHash: "0xblock"}
)

func quote(t *testing.T, symbol, currency, price string) domain.PriceQuote {
	s, err := domain.ParseSymbol(symbol)
	require.NoError(t, err)
	return domain.PriceQuote{
		Symbol:   s,
		Currency: domain.Currency(currency),
		Price:    decimal.RequireFromString(price),
	}
}

func pool(listing string, listingReserve, baseReserve int64) domain.PoolState {
	return domain.PoolState{
		Listing:        domain.Currency(listing),
		Base:           base,
		ListingReserve: decimal.NewFromInt(listingReserve),
		BaseReserve:    decimal.NewFromInt(baseReserve),
	}
}

func TestRebalance(t *testing.T) {
	buyDOT := domain.SwapIntent{
		Direction:       domain.SwapBuy,
		SupplyCurrency:  base,
		SupplyAmount:    decimal.RequireFromString("24.695076"),
		TargetCurrency:  "DOT",
		MinTargetAmount: decimal.RequireFromString("23.858927"),
	}
	sellKSM := domain.SwapIntent{
		Direction:       domain.SwapSell,
		SupplyCurrency:  "KSM",
		SupplyAmount:    decimal.RequireFromString("25.978352"),
		TargetCurrency:  base,
		MinTargetAmount: decimal.RequireFromString("25.067359"),
	}

	ledger := &mockLedger{}
	ledger.On("LiquidityPool", mock.Anything, domain.Currency("DOT"), base).
		Return(pool("DOT", 1000, 1000), nil)
	ledger.On("LiquidityPool", mock.Anything, domain.Currency("KSM"), base).
		Return(pool("KSM", 1000, 1000), nil)
	ledger.On("LiquidityPool", mock.Anything, domain.Currency("BTC"), base).
		Return(pool("BTC", 1000, 1000), nil)

	var submitted []domain.SwapIntent
	ledger.On("SubmitSwaps", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			submitted = args.Get(1).([]domain.SwapIntent)
		}).
		Return(inBlock, nil).Once()

	svc, err := arbitrage.NewService(ledger, base, opts)
	require.NoError(t, err)

	batch := domain.NewPriceBatch([]domain.PriceQuote{
		quote(t, "DOT/USD", "DOT", "1.05"),
		quote(t, "AUSD/USD", "AUSD", "1"),
		quote(t, "KSM/USD", "KSM", "0.95"),
		quote(t, "BTC/USD", "BTC", "1.01"),
	}, time.Now())

	result, err := svc.Rebalance(ctx, batch)
	require.NoError(t, err)
	require.NotNil(t, result.InBlock)
	require.Equal(t, inBlock, *result.InBlock)

	require.Len(t, submitted, 2)
	requireSwapEqual(t, buyDOT, submitted[0])
	requireSwapEqual(t, sellKSM, submitted[1])
	require.Equal(t, submitted, result.Swaps)

	require.Contains(t, result.Skipped, "BTC/USD")
	require.NotContains(t, result.Skipped, "AUSD/USD")
	ledger.AssertNotCalled(t, "LiquidityPool", mock.Anything, base, base)
}

func TestRebalanceWithoutSlippage(t *testing.T) {
	noSlippage := opts
	noSlippage.Slippage = 0

	tests := []struct {
		name  string
		quote domain.PriceQuote
		want  domain.SwapIntent
	}{
		{
			name:  "buy",
			quote: quote(t, "DOT/USD", "DOT", "1.05"),
			want: domain.SwapIntent{
				Direction:       domain.SwapBuy,
				SupplyCurrency:  base,
				SupplyAmount:    decimal.RequireFromString("24.695076"),
				TargetCurrency:  "DOT",
				MinTargetAmount: decimal.RequireFromString("24.099926"),
			},
		},
		{
			name:  "sell",
			quote: quote(t, "KSM/USD", "KSM", "0.95"),
			want: domain.SwapIntent{
				Direction:       domain.SwapSell,
				SupplyCurrency:  "KSM",
				SupplyAmount:    decimal.RequireFromString("25.978352"),
				TargetCurrency:  base,
				MinTargetAmount: decimal.RequireFromString("25.320565"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{}
			ledger.On("LiquidityPool", mock.Anything, tt.quote.Currency, base).
				Return(pool(string(tt.quote.Currency), 1000, 1000), nil)

			var submitted []domain.SwapIntent
			ledger.On("SubmitSwaps", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					submitted = args.Get(1).([]domain.SwapIntent)
				}).
				Return(inBlock, nil).Once()

			svc, err := arbitrage.NewService(ledger, base, noSlippage)
			require.NoError(t, err)

			batch := domain.NewPriceBatch([]domain.PriceQuote{tt.quote}, time.Now())
			result, err := svc.Rebalance(ctx, batch)
			require.NoError(t, err)
			require.Empty(t, result.Skipped)
			require.Len(t, submitted, 1)
			requireSwapEqual(t, tt.want, submitted[0])
			ledger.AssertExpectations(t)
		})
	}
}

func TestRebalanceNothingToDo(t *testing.T) {
	tests := []struct {
		name string
		pool domain.PoolState
		err  error
	}{
		{"price close", pool("DOT", 1000, 1010), nil},
		{"empty pool", pool("DOT", 0, 0), nil},
		{"pool not found", domain.PoolState{}, ports.ErrPoolNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{}
			if tt.err != nil {
				ledger.On("LiquidityPool", mock.Anything, domain.Currency("DOT"), base).
					Return(nil, tt.err)
			} else {
				ledger.On("LiquidityPool", mock.Anything, domain.Currency("DOT"), base).
					Return(tt.pool, nil)
			}

			svc, err := arbitrage.NewService(ledger, base, opts)
			require.NoError(t, err)

			batch := domain.NewPriceBatch([]domain.PriceQuote{
				quote(t, "DOT/USD", "DOT", "1"),
			}, time.Now())

			result, err := svc.Rebalance(ctx, batch)
			require.NoError(t, err)
			require.Empty(t, result.Swaps)
			require.Nil(t, result.InBlock)
			require.Contains(t, result.Skipped, "DOT/USD")
			ledger.AssertNotCalled(t, "SubmitSwaps", mock.Anything, mock.Anything)
		})
	}
}

func TestRebalanceFailure(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(l *mockLedger)
		wantErr error
	}{
		{
			name: "every pool read fails",
			setup: func(l *mockLedger) {
				l.On("LiquidityPool", mock.Anything, mock.Anything, base).Return(nil, errLedger)
			},
			wantErr: arbitrage.ErrPoolsUnavailable,
		},
		{
			name: "batch rejected",
			setup: func(l *mockLedger) {
				l.On("LiquidityPool", mock.Anything, domain.Currency("DOT"), base).
					Return(pool("DOT", 1000, 1000), nil)
				l.On("LiquidityPool", mock.Anything, domain.Currency("KSM"), base).
					Return(nil, errLedger)
				l.On("SubmitSwaps", mock.Anything, mock.Anything).Return(nil, errLedger)
			},
			wantErr: errLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{}
			tt.setup(ledger)

			svc, err := arbitrage.NewService(ledger, base, opts)
			require.NoError(t, err)

			batch := domain.NewPriceBatch([]domain.PriceQuote{
				quote(t, "DOT/USD", "DOT", "1.05"),
				quote(t, "KSM/USD", "KSM", "1.05"),
			}, time.Now())

			result, err := svc.Rebalance(ctx, batch)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, result.InBlock)
		})
	}
}

func TestNewService(t *testing.T) {
	_, err := arbitrage.NewService(nil, base, opts)
	require.ErrorIs(t, err, arbitrage.ErrMissingLedger)
	_, err = arbitrage.NewService(&mockLedger{}, "", opts)
	require.ErrorIs(t, err, arbitrage.ErrMissingBaseCurrency)
}

func requireSwapEqual(t *testing.T, want, got domain.SwapIntent) {
	t.Helper()
	require.Equal(t, want.Direction, got.Direction)
	require.Equal(t, want.SupplyCurrency, got.SupplyCurrency)
	require.Equal(t, want.TargetCurrency, got.TargetCurrency)
	require.True(t, want.SupplyAmount.Equal(got.SupplyAmount), got.SupplyAmount.String())
	require.True(t, want.MinTargetAmount.Equal(got.MinTargetAmount), got.MinTargetAmount.String())
}

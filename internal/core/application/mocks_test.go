package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/oracle"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
)

// **** PriceFetcher ****

type mockPriceFetcher struct {
	mock.Mock
}

func (m *mockPriceFetcher) FetchPrices(ctx context.Context) (domain.PriceBatch, error) {
	args := m.Called(ctx)

	var res domain.PriceBatch
	if a := args.Get(0); a != nil {
		res = a.(domain.PriceBatch)
	}
	return res, args.Error(1)
}

// **** OracleSubmitter ****

type mockSubmitter struct {
	mock.Mock
	submitted chan domain.PriceBatch
}

func newMockSubmitter() *mockSubmitter {
	return &mockSubmitter{submitted: make(chan domain.PriceBatch, 100)}
}

func (m *mockSubmitter) Submit(
	ctx context.Context, batch domain.PriceBatch,
) (oracle.Receipt, error) {
	args := m.Called(ctx, batch)
	select {
	case m.submitted <- batch:
	default:
	}

	var res oracle.Receipt
	if a := args.Get(0); a != nil {
		res = a.(oracle.Receipt)
	}
	return res, args.Error(1)
}

// **** Rebalancer ****

type mockRebalancer struct {
	mock.Mock
}

func (m *mockRebalancer) Rebalance(
	ctx context.Context, batch domain.PriceBatch,
) (arbitrage.Result, error) {
	args := m.Called(ctx, batch)

	var res arbitrage.Result
	if a := args.Get(0); a != nil {
		res = a.(arbitrage.Result)
	}
	return res, args.Error(1)
}

// **** Ledger ****

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) OracleProtocol(ctx context.Context) (domain.OracleProtocol, error) {
	args := m.Called(ctx)

	var res domain.OracleProtocol
	if a := args.Get(0); a != nil {
		res = a.(domain.OracleProtocol)
	}
	return res, args.Error(1)
}

func (m *mockLedger) OracleMembers(ctx context.Context, oracle string) ([]string, error) {
	args := m.Called(ctx, oracle)

	var res []string
	if a := args.Get(0); a != nil {
		res = a.([]string)
	}
	return res, args.Error(1)
}

func (m *mockLedger) AccountNonce(ctx context.Context, oracle, account string) (uint32, error) {
	args := m.Called(ctx, oracle, account)

	var res uint32
	if a := args.Get(0); a != nil {
		res = a.(uint32)
	}
	return res, args.Error(1)
}

func (m *mockLedger) BlockHeight(ctx context.Context) (uint32, error) {
	args := m.Called(ctx)

	var res uint32
	if a := args.Get(0); a != nil {
		res = a.(uint32)
	}
	return res, args.Error(1)
}

func (m *mockLedger) LiquidityPool(
	ctx context.Context, listing, base domain.Currency,
) (domain.PoolState, error) {
	args := m.Called(ctx, listing, base)

	var res domain.PoolState
	if a := args.Get(0); a != nil {
		res = a.(domain.PoolState)
	}
	return res, args.Error(1)
}

func (m *mockLedger) FeedValues(
	ctx context.Context, oracle string, values []domain.OracleValue,
) (ports.InBlock, error) {
	args := m.Called(ctx, oracle, values)

	var res ports.InBlock
	if a := args.Get(0); a != nil {
		res = a.(ports.InBlock)
	}
	return res, args.Error(1)
}

func (m *mockLedger) FeedSignedValues(
	ctx context.Context, oracle string, feed ports.SignedFeed,
) (string, error) {
	args := m.Called(ctx, oracle, feed)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockLedger) SubmitSwaps(
	ctx context.Context, swaps []domain.SwapIntent,
) (ports.InBlock, error) {
	args := m.Called(ctx, swaps)

	var res ports.InBlock
	if a := args.Get(0); a != nil {
		res = a.(ports.InBlock)
	}
	return res, args.Error(1)
}

func (m *mockLedger) Close() {}

package ledgerrpc

import (
	"context"
	"fmt"

	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
)

func (s *service) LiquidityPool(
	ctx context.Context, listing, base domain.Currency,
) (domain.PoolState, error) {
	var res *pool
	if err := s.client.call(
		ctx, MethodLiquidityPool, &res, listing.String(), base.String(),
	); err != nil {
		return domain.PoolState{}, err
	}
	if res == nil {
		return domain.PoolState{}, fmt.Errorf("%s/%s: %w", listing, base, ports.ErrPoolNotFound)
	}
	if res.ListingReserve.IsNegative() || res.BaseReserve.IsNegative() {
		return domain.PoolState{}, fmt.Errorf("%s: %w: negative reserve", MethodLiquidityPool, ErrInvalidResult)
	}

	return domain.PoolState{
		Listing:        listing,
		Base:           base,
		ListingReserve: res.ListingReserve,
		BaseReserve:    res.BaseReserve,
	}, nil
}

// SubmitSwaps sends all swaps in a single batch that the ledger executes
// atomically.
func (s *service) SubmitSwaps(
	ctx context.Context, swaps []domain.SwapIntent,
) (ports.InBlock, error) {
	params := make([]swap, 0, len(swaps))
	for _, sw := range swaps {
		params = append(params, swap{
			Direction:       string(sw.Direction),
			SupplyCurrency:  sw.SupplyCurrency.String(),
			SupplyAmount:    sw.SupplyAmount,
			TargetCurrency:  sw.TargetCurrency.String(),
			MinTargetAmount: sw.MinTargetAmount,
		})
	}

	res := inBlock{}
	if err := s.client.call(ctx, MethodSwapBatch, &res, params); err != nil {
		return ports.InBlock{}, err
	}
	if res.TxHash == "" || res.BlockHash == "" {
		return ports.InBlock{}, fmt.Errorf("%s: %w: missing tx or block hash", MethodSwapBatch, ErrInvalidResult)
	}
	return ports.InBlock{TxHash: res.TxHash, BlockHash: res.BlockHash}, nil
}

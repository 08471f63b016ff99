// Package arbitrage keeps the dex pools aligned with the reference prices by
// submitting the swaps suggested by the constant product calculator.
package arbitrage

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	"github.com/tdex-network/oracle-dispatcher/internal/core/ports"
	calculator "github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/arbitrage"
	"github.com/tdex-network/oracle-dispatcher/pkg/marketmaking/formula"
	"github.com/tdex-network/oracle-dispatcher/pkg/stats"
)

// Result reports what a rebalance did. InBlock is nil if no swap was
// submitted.
type Result struct {
	Swaps   []domain.SwapIntent
	Skipped map[string]string
	InBlock *ports.InBlock
}

type Service struct {
	ledger    ports.Ledger
	base      domain.Currency
	opts      calculator.Opts
	precision int32
	log       *log.Entry
}

func NewService(
	ledger ports.Ledger, base domain.Currency, opts calculator.Opts,
) (*Service, error) {
	if ledger == nil {
		return nil, ErrMissingLedger
	}
	if base == "" {
		return nil, ErrMissingBaseCurrency
	}
	precision := opts.AmountPrecision
	if precision <= 0 {
		precision = calculator.DefaultAmountPrecision
	}
	return &Service{
		ledger:    ledger,
		base:      base,
		opts:      opts,
		precision: precision,
		log:       log.WithField("module", "dex"),
	}, nil
}

// Rebalance reads the pool of every quoted currency against the base
// currency and submits all the resulting swaps as a single atomic batch.
// Pools are always read right before deciding, never cached.
func (s *Service) Rebalance(ctx context.Context, batch domain.PriceBatch) (Result, error) {
	result := Result{Skipped: make(map[string]string)}

	var readErrs, reads int
	for _, quote := range batch.Quotes {
		if quote.Currency == s.base {
			continue
		}
		reads++

		symbol := quote.Symbol.String()
		pool, err := s.ledger.LiquidityPool(ctx, quote.Currency, s.base)
		if err != nil {
			if errors.Is(err, ports.ErrPoolNotFound) {
				s.skip(&result, symbol, "no pool")
				continue
			}
			readErrs++
			s.log.WithError(err).WithField("symbol", symbol).Warn("failed to read pool")
			result.Skipped[symbol] = err.Error()
			continue
		}
		if pool.IsEmpty() {
			s.skip(&result, symbol, string(calculator.ReasonEmptyPool))
			continue
		}

		swap, reason, err := s.decide(quote, pool)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", symbol, err)
		}
		if swap == nil {
			s.skip(&result, symbol, reason)
			continue
		}
		result.Swaps = append(result.Swaps, *swap)
	}

	if reads > 0 && readErrs == reads {
		return Result{}, ErrPoolsUnavailable
	}
	if len(result.Swaps) == 0 {
		return result, nil
	}

	inBlock, err := s.ledger.SubmitSwaps(ctx, result.Swaps)
	if err != nil {
		return Result{}, fmt.Errorf("failed to submit swaps: %w", err)
	}
	for _, swap := range result.Swaps {
		stats.Swaps.WithLabelValues(string(swap.Direction)).Inc()
	}

	s.log.WithFields(log.Fields{
		"swaps":     len(result.Swaps),
		"txHash":    inBlock.TxHash,
		"blockHash": inBlock.BlockHash,
	}).Info("swaps included in block")

	result.InBlock = &inBlock
	return result, nil
}

func (s *Service) decide(
	quote domain.PriceQuote, pool domain.PoolState,
) (*domain.SwapIntent, string, error) {
	decision, err := calculator.Calculate(calculator.Pool{
		ListingReserve: pool.ListingReserve,
		BaseReserve:    pool.BaseReserve,
	}, quote.Price, s.opts)
	if err != nil {
		return nil, "", err
	}
	if decision.Intent == nil {
		return nil, string(decision.Reason), nil
	}

	swap := domain.SwapIntent{
		SupplyAmount:    decision.Intent.SupplyAmount,
		MinTargetAmount: decision.Intent.MinTargetAmount,
	}
	balances := formula.ConstantProductOpts{}
	if decision.Action == calculator.Buy {
		swap.Direction = domain.SwapBuy
		swap.SupplyCurrency, swap.TargetCurrency = s.base, quote.Currency
		balances.BalanceIn, balances.BalanceOut = pool.BaseReserve, pool.ListingReserve
	} else {
		swap.Direction = domain.SwapSell
		swap.SupplyCurrency, swap.TargetCurrency = quote.Currency, s.base
		balances.BalanceIn, balances.BalanceOut = pool.ListingReserve, pool.BaseReserve
	}

	expected, err := formula.ConstantProduct{}.OutGivenIn(balances, swap.SupplyAmount)
	if err != nil {
		return nil, err.Error(), nil
	}
	// the min target never exceeds what the pool pays for the truncated
	// supply, which may be slightly less than the calculator estimate.
	if floor := expected.Truncate(s.precision); floor.LessThan(swap.MinTargetAmount) {
		swap.MinTargetAmount = floor
	}

	s.log.WithFields(log.Fields{
		"symbol":    quote.Symbol.String(),
		"direction": swap.Direction,
		"supply":    swap.SupplyAmount.String(),
		"minTarget": swap.MinTargetAmount.String(),
		"expected":  expected.String(),
		"dexPrice":  decision.DexPrice,
		"gap":       decision.Gap,
	}).Debug("swap planned")

	return &swap, "", nil
}

func (s *Service) skip(result *Result, symbol, reason string) {
	result.Skipped[symbol] = reason
	s.log.WithFields(log.Fields{
		"symbol": symbol,
		"reason": reason,
	}).Debug("skipping pool")
}

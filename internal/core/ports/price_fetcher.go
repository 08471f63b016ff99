package ports

import (
	"context"

	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
)

// PriceFetcher resolves one batch of prices for every configured symbol.
type PriceFetcher interface {
	FetchPrices(ctx context.Context) (domain.PriceBatch, error)
}

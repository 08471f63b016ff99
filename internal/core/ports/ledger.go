package ports

import (
	"context"

	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
)

// InBlock identifies the block a transaction was included in.
type InBlock struct {
	TxHash    string
	BlockHash string
}

// SignedFeed is a batch of oracle values authenticated by the operator.
type SignedFeed struct {
	Values []domain.OracleValue
	// Index is the position of the operator in the oracle member list.
	Index uint32
	Nonce uint32
	// BlockHeight is nil unless the negotiated protocol requires it.
	BlockHeight *uint32
	Signature   []byte
}

// Ledger is the remote ledger the operator reads pool and oracle state from
// and submits transactions to.
type Ledger interface {
	// OracleProtocol detects which submission protocol the ledger accepts.
	OracleProtocol(ctx context.Context) (domain.OracleProtocol, error)
	// OracleMembers returns the ordered list of accounts allowed to feed the
	// given oracle instance.
	OracleMembers(ctx context.Context, oracle string) ([]string, error)
	// AccountNonce returns the current replay protection nonce of the account
	// for signed submissions.
	AccountNonce(ctx context.Context, oracle, account string) (uint32, error)
	BlockHeight(ctx context.Context) (uint32, error)
	// LiquidityPool returns the reserves of the listing/base pool.
	LiquidityPool(ctx context.Context, listing, base domain.Currency) (domain.PoolState, error)
	// FeedValues submits values with the operator account and waits for the
	// transaction to be included in a block.
	FeedValues(ctx context.Context, oracle string, values []domain.OracleValue) (InBlock, error)
	// FeedSignedValues dispatches a signed feed and returns its hash once the
	// ledger acknowledged it.
	FeedSignedValues(ctx context.Context, oracle string, feed SignedFeed) (string, error)
	// SubmitSwaps executes all swaps atomically, either all or none, and
	// waits for inclusion in a block.
	SubmitSwaps(ctx context.Context, swaps []domain.SwapIntent) (InBlock, error)
	Close()
}

package ledgerrpc

import (
	"github.com/shopspring/decimal"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
)

type inBlock struct {
	TxHash    string `json:"txHash"`
	BlockHash string `json:"blockHash"`
}

type signedFeed struct {
	Values      []domain.OracleValue `json:"values"`
	Index       uint32               `json:"index"`
	Nonce       uint32               `json:"nonce"`
	BlockHeight *uint32              `json:"blockHeight,omitempty"`
	Signature   string               `json:"signature"`
}

// reserves are in whole units, serialized as decimal strings.
type pool struct {
	ListingReserve decimal.Decimal `json:"listingReserve"`
	BaseReserve    decimal.Decimal `json:"baseReserve"`
}

type swap struct {
	Direction       string          `json:"direction"`
	SupplyCurrency  string          `json:"supplyCurrency"`
	SupplyAmount    decimal.Decimal `json:"supplyAmount"`
	TargetCurrency  string          `json:"targetCurrency"`
	MinTargetAmount decimal.Decimal `json:"minTargetAmount"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceQuote is the price of a symbol resolved in a single fetch cycle.
type PriceQuote struct {
	Symbol   Symbol
	Currency Currency
	Price    decimal.Decimal
}

// PriceBatch holds the quotes of every symbol that resolved successfully in
// a cycle, in configured symbol order.
type PriceBatch struct {
	ID        uuid.UUID
	Quotes    []PriceQuote
	FetchedAt time.Time
}

// NewPriceBatch returns a batch with a fresh id.
func NewPriceBatch(quotes []PriceQuote, fetchedAt time.Time) PriceBatch {
	return PriceBatch{
		ID:        uuid.New(),
		Quotes:    quotes,
		FetchedAt: fetchedAt,
	}
}

func (b PriceBatch) IsEmpty() bool {
	return len(b.Quotes) == 0
}

func (b PriceBatch) Symbols() []string {
	symbols := make([]string, 0, len(b.Quotes))
	for _, q := range b.Quotes {
		symbols = append(symbols, q.Symbol.String())
	}
	return symbols
}

// Prices returns symbol -> price, for logging.
func (b PriceBatch) Prices() map[string]string {
	prices := make(map[string]string, len(b.Quotes))
	for _, q := range b.Quotes {
		prices[q.Symbol.String()] = q.Price.String()
	}
	return prices
}

// Map returns a copy of the batch with every price transformed by fn and a
// new id.
func (b PriceBatch) Map(fn func(decimal.Decimal) decimal.Decimal) PriceBatch {
	quotes := make([]PriceQuote, 0, len(b.Quotes))
	for _, q := range b.Quotes {
		quotes = append(quotes, PriceQuote{
			Symbol:   q.Symbol,
			Currency: q.Currency,
			Price:    fn(q.Price),
		})
	}
	return NewPriceBatch(quotes, b.FetchedAt)
}

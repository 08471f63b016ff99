package pricefeeder_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockSource struct {
	mock.Mock
	name  string
	delay time.Duration
}

func newMockSource(name string) *mockSource {
	return &mockSource{name: name}
}

func (m *mockSource) Name() string {
	return m.name
}

func (m *mockSource) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}
	args := m.Called(symbol)

	var res decimal.Decimal
	if a := args.Get(0); a != nil {
		res = a.(decimal.Decimal)
	}
	return res, args.Error(1)
}

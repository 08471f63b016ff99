package bitfinexfeeder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	bitfinexfeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder/bitfinex"
)

func TestService(t *testing.T) {
	requested := make(chan string, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested <- r.URL.Path
		switch r.URL.Path {
		case "/ticker/tBTCUSD":
			_, _ = w.Write([]byte(`[30100,1.5,30101,2.1,-120,-0.004,30100.5,1000,30500,29800]`))
		case "/ticker/tBTCUST":
			_, _ = w.Write([]byte(`[30100,1.5,30101,2.1,-120,-0.004,30099,1000,30500,29800]`))
		default:
			_, _ = w.Write([]byte(`["error",10020,"symbol: invalid"]`))
		}
	}))
	defer srv.Close()

	svc := bitfinexfeeder.NewService(bitfinexfeeder.Opts{URL: srv.URL})
	require.Equal(t, "bitfinex", svc.Name())

	tests := []struct {
		name     string
		symbol   string
		wantPath string
		want     string
		wantErr  error
	}{
		{name: "ok", symbol: "BTC/USD", wantPath: "/ticker/tBTCUSD", want: "30100.5"},
		{name: "aliased asset", symbol: "BTC/USDT", wantPath: "/ticker/tBTCUST", want: "30099"},
		{name: "long asset code", symbol: "MATIC/USD", wantPath: "/ticker/tMATIC:USD", wantErr: pricefeeder.ErrPriceNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := svc.GetPrice(context.Background(), tt.symbol)
			require.Equal(t, tt.wantPath, <-requested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, price.String())
		})
	}
}

package signer_test

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/oracle-dispatcher/pkg/signer"
)

func TestNewFromSeed(t *testing.T) {
	hexKey := strings.Repeat("11", 32)

	tests := []struct {
		name    string
		seed    string
		wantErr error
	}{
		{name: "hex private key", seed: hexKey},
		{name: "prefixed hex private key", seed: "0x" + hexKey},
		{name: "phrase", seed: "bottom drive obey lake curtain smoke basket hold race lonely fit walk"},
		{name: "empty", seed: " ", wantErr: signer.ErrEmptySeed},
		{name: "zero key", seed: strings.Repeat("00", 32), wantErr: signer.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := signer.NewFromSeed(tt.seed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(s.Address(), "0x"))
			require.Len(t, s.Address(), 2+66)

			again, err := signer.NewFromSeed(tt.seed)
			require.NoError(t, err)
			require.Equal(t, s.Address(), again.Address())
		})
	}

	fromHex, err := signer.NewFromSeed(hexKey)
	require.NoError(t, err)
	require.Equal(t, hexKey, fromHex.PrivateKeyHex())
}

func TestSignAndVerify(t *testing.T) {
	s, err := signer.Generate()
	require.NoError(t, err)

	restored, err := signer.NewFromSeed(s.PrivateKeyHex())
	require.NoError(t, err)
	require.Equal(t, s.Address(), restored.Address())

	payload := []byte("payload")
	sig := s.Sign(payload)
	require.NoError(t, signer.Verify(s.Address(), payload, sig))

	require.ErrorIs(t, signer.Verify(s.Address(), []byte("tampered"), sig), signer.ErrInvalidSignature)

	other, err := signer.Generate()
	require.NoError(t, err)
	require.ErrorIs(t, signer.Verify(other.Address(), payload, sig), signer.ErrInvalidSignature)

	require.ErrorIs(t, signer.Verify("0xzz", payload, sig), signer.ErrInvalidAddress)
	require.ErrorIs(t, signer.Verify(s.Address(), payload, []byte{0x01}), signer.ErrInvalidSignature)
}

func TestEncodePayload(t *testing.T) {
	height := uint32(0x0a0b0c0d)
	values := []signer.Value{
		{Currency: "BTC", Amount: big.NewInt(1)},
	}

	tests := []struct {
		name        string
		nonce       uint32
		blockHeight *uint32
		values      []signer.Value
		want        string
		wantErr     error
	}{
		{
			name:   "without block height",
			nonce:  7,
			values: values,
			want: "07000000" + // nonce
				"04" + // one value
				"0c425443" + // "BTC"
				"01000000000000000000000000000000",
		},
		{
			name:        "with block height",
			nonce:       7,
			blockHeight: &height,
			values:      values,
			want: "07000000" +
				"0d0c0b0a" +
				"04" +
				"0c425443" +
				"01000000000000000000000000000000",
		},
		{
			name:  "no values",
			nonce: 1,
			want:  "01000000" + "00",
		},
		{
			name:    "negative amount",
			values:  []signer.Value{{Currency: "BTC", Amount: big.NewInt(-1)}},
			wantErr: signer.ErrAmountOutOfRange,
		},
		{
			name:    "amount exceeding u128",
			values:  []signer.Value{{Currency: "BTC", Amount: new(big.Int).Lsh(big.NewInt(1), 128)}},
			wantErr: signer.ErrAmountOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := signer.EncodePayload(tt.nonce, tt.blockHeight, tt.values)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func TestEncodePayloadDeterministic(t *testing.T) {
	amount, _ := new(big.Int).SetString("30000000000000000000000", 10)
	values := []signer.Value{
		{Currency: "XBTC", Amount: amount},
		{Currency: "ETH", Amount: big.NewInt(42)},
	}

	a, err := signer.EncodePayload(3, nil, values)
	require.NoError(t, err)
	b, err := signer.EncodePayload(3, nil, values)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := signer.EncodePayload(4, nil, values)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

package signer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Value is a currency value in base unit.
type Value struct {
	Currency string
	Amount   *big.Int
}

// EncodePayload returns the canonical byte encoding of a signed feed:
//
//	nonce        u32 little endian
//	block height u32 little endian, only if not nil
//	count        compact integer
//	values       compact length + currency bytes, u128 little endian amount
func EncodePayload(nonce uint32, blockHeight *uint32, values []Value) ([]byte, error) {
	buf := &bytes.Buffer{}

	writeUint32(buf, nonce)
	if blockHeight != nil {
		writeUint32(buf, *blockHeight)
	}

	if err := writeCompact(buf, uint64(len(values))); err != nil {
		return nil, err
	}
	for _, v := range values {
		if err := writeCompact(buf, uint64(len(v.Currency))); err != nil {
			return nil, err
		}
		buf.WriteString(v.Currency)

		if err := writeUint128(buf, v.Amount); err != nil {
			return nil, fmt.Errorf("currency %s: %w", v.Currency, err)
		}
	}
	return buf.Bytes(), nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	buf.Write(b)
}

func writeUint128(buf *bytes.Buffer, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint128) > 0 {
		return ErrAmountOutOfRange
	}
	be := v.FillBytes(make([]byte, 16))
	le := make([]byte, 16)
	for i := range be {
		le[i] = be[15-i]
	}
	buf.Write(le)
	return nil
}

// writeCompact writes v as a compact integer: the two least significant bits
// of the first byte select a 1, 2 or 4 byte little endian encoding of v << 2.
func writeCompact(buf *bytes.Buffer, v uint64) error {
	switch {
	case v < 1<<6:
		buf.WriteByte(byte(v << 2))
	case v < 1<<14:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v<<2)|0b01)
		buf.Write(b)
	case v < 1<<30:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v<<2)|0b10)
		buf.Write(b)
	default:
		return ErrLengthOutOfRange
	}
	return nil
}

// Package signer holds the operator key used to authenticate oracle feeds.
package signer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"
)

const addressPrefix = "0x"

// Signer signs payloads with a secp256k1 key. Signatures are DER encoded
// ECDSA signatures over the blake2b-256 hash of the payload.
type Signer struct {
	prvkey *btcec.PrivateKey
	pubkey *btcec.PublicKey
}

// NewFromSeed derives the operator key from seed. A seed made of 64 hex chars
// (optionally 0x prefixed) is used as the raw private key, anything else is
// treated as a secret phrase and hashed into one.
func NewFromSeed(seed string) (*Signer, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, ErrEmptySeed
	}

	var keyBytes []byte
	if raw := strings.TrimPrefix(seed, addressPrefix); len(raw) == 64 {
		if b, err := hex.DecodeString(raw); err == nil {
			keyBytes = b
		}
	}
	if keyBytes == nil {
		h := blake2b.Sum256([]byte(seed))
		keyBytes = h[:]
	}
	if bytes.Equal(keyBytes, make([]byte, 32)) {
		return nil, ErrInvalidKey
	}

	prvkey, pubkey := btcec.PrivKeyFromBytes(keyBytes)
	return &Signer{prvkey, pubkey}, nil
}

// Generate returns a signer with a fresh random key.
func Generate() (*Signer, error) {
	prvkey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Signer{prvkey, prvkey.PubKey()}, nil
}

// Address returns the account identifier of the operator, the hex encoded
// compressed public key.
func (s *Signer) Address() string {
	return addressPrefix + hex.EncodeToString(s.pubkey.SerializeCompressed())
}

// PrivateKeyHex returns the hex encoded private key, loadable with
// NewFromSeed.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.prvkey.Serialize())
}

// Sign returns the signature of payload.
func (s *Signer) Sign(payload []byte) []byte {
	hash := blake2b.Sum256(payload)
	return ecdsa.Sign(s.prvkey, hash[:]).Serialize()
}

// Verify checks that sig is a signature of payload made by the key of the
// given address.
func Verify(address string, payload, sig []byte) error {
	pubkeyBytes, err := hex.DecodeString(strings.TrimPrefix(address, addressPrefix))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	pubkey, err := btcec.ParsePubKey(pubkeyBytes)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	signature, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	hash := blake2b.Sum256(payload)
	if !signature.Verify(hash[:], pubkey) {
		return ErrInvalidSignature
	}
	return nil
}

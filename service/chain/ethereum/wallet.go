package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyWallet signs transaction hashes with a secp256k1 key.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// ParseKeyWallet reads a hex encoded private key, with or without 0x.
func ParseKeyWallet(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewKeyWallet(key), nil
}

func (w *KeyWallet) Address() common.Address { return w.address }

func (w *KeyWallet) PublicKey() string { return w.address.Hex() }

// Sign expects a 32 byte hash.
func (w *KeyWallet) Sign(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, w.key)
}

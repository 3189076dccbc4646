package fake

import (
	"crypto/sha256"
	"errors"
)

var ErrRejected = errors.New("user rejected the request")

// Wallet signs by hashing; Reject makes every signature request fail.
type Wallet struct {
	Address string
	Reject  bool
}

func NewWallet(address string) *Wallet {
	return &Wallet{Address: address}
}

func (w *Wallet) PublicKey() string { return w.Address }

func (w *Wallet) Sign(message []byte) ([]byte, error) {
	if w.Reject {
		return nil, ErrRejected
	}
	sum := sha256.Sum256(append([]byte(w.Address), message...))
	return sum[:], nil
}

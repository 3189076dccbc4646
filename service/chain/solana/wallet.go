package solana

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
)

// KeypairWallet signs with a local ed25519 keypair.
type KeypairWallet struct {
	account types.Account
}

func NewKeypairWallet(account types.Account) *KeypairWallet {
	return &KeypairWallet{account}
}

// LoadKeypairWallet reads a keypair file in the solana-keygen format,
// a JSON array of 64 byte values.
func LoadKeypairWallet(path string) (*KeypairWallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}
	return ParseKeypair(string(raw))
}

func ParseKeypair(s string) (*KeypairWallet, error) {
	var ints []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &ints); err != nil {
		return nil, fmt.Errorf("keypair is not a json int array: %w", err)
	}
	if len(ints) != 64 {
		return nil, fmt.Errorf("keypair: want 64 bytes, got %d", len(ints))
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair: byte out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}

	account, err := types.AccountFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("keypair: %w", err)
	}
	return NewKeypairWallet(account), nil
}

func (w *KeypairWallet) PublicKey() string {
	return w.account.PublicKey.ToBase58()
}

func (w *KeypairWallet) Sign(message []byte) ([]byte, error) {
	return w.account.Sign(message), nil
}

// Package chain defines the boundary between the mint service and the network
// that hosts the sale program. Backends live in the sub packages.
package chain

import (
	"context"
	"math/big"
	"time"
)

// Kind identifies which blockchain a backend targets.
type Kind string

const (
	KindSolana   Kind = "solana"
	KindFlow     Kind = "flow"
	KindEthereum Kind = "ethereum"
	KindFake     Kind = "fake"
)

// Client is the chain collaborator used by the mint core.
// Addresses and signatures are strings because every backend encodes them
// differently (base58, hex with or without 0x).
type Client interface {
	// Kind returns which blockchain this client targets.
	Kind() Kind

	// Decimals is the number of decimals of the native currency
	// (9 for lamports, 8 for FLOW, 18 for wei).
	Decimals() int

	// GetBalance returns the native balance of address in base units.
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// SubmitMintTransaction builds, signs with wallet and sends a single mint
	// transaction. It returns as soon as the network accepted the transaction.
	SubmitMintTransaction(ctx context.Context, req MintRequest, wallet Wallet) (string, error)

	// GetSignatureStatus reports what the network currently knows about a
	// previously submitted transaction.
	GetSignatureStatus(ctx context.Context, signature string) (SignatureStatus, error)

	// ReadCampaignAccounts reads the sale counters of the program.
	ReadCampaignAccounts(ctx context.Context, candyMachineID string) (CampaignAccounts, error)
}

// Wallet is the signing collaborator. A nil Wallet means "not connected".
type Wallet interface {
	PublicKey() string
	Sign(message []byte) ([]byte, error)
}

// MintRequest carries the program accounts a mint transaction is built from.
type MintRequest struct {
	CandyMachine string
	Config       string
	Treasury     string
}

// CampaignAccounts is the raw sale state as stored on chain.
type CampaignAccounts struct {
	ItemsAvailable uint64
	ItemsRedeemed  uint64
	ItemsRemaining uint64
	GoLiveDate     time.Time // zero when the program has no start date set
	Price          *big.Int
}

// SignatureStatus is the observed state of a submitted transaction.
type SignatureStatus struct {
	Found      bool
	Commitment Commitment
	Err        *ProgramError // set when the transaction landed with an error
}

package flow_helpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/crypto"
	"github.com/onflow/flow-go-sdk/crypto/cloudkms"
	"google.golang.org/grpc"
)

const GOOGLE_KMS_KEY_TYPE = "google_kms"

// AccountGetter is the part of the access API needed to look up proposal keys.
type AccountGetter interface {
	GetAccount(ctx context.Context, address flow.Address, opts ...grpc.CallOption) (*flow.Account, error)
}

// Account is a Flow wallet: an address plus one of its keys, held either
// locally as a hex encoded private key or in Google Cloud KMS.
type Account struct {
	Address        flow.Address
	PrivateKey     string
	PrivateKeyType string
	KeyIndex       int

	signerOnce sync.Once
	signer     crypto.Signer
	signerErr  error
}

func NewAccount(address flow.Address, privateKey, privateKeyType string, keyIndex int) *Account {
	return &Account{
		Address:        address,
		PrivateKey:     privateKey,
		PrivateKeyType: privateKeyType,
		KeyIndex:       keyIndex,
	}
}

// PublicKey returns the account address, which is what identifies a Flow wallet.
func (a *Account) PublicKey() string {
	return "0x" + a.Address.Hex()
}

// Sign signs message with the account key.
func (a *Account) Sign(message []byte) ([]byte, error) {
	signer, err := a.GetSigner()
	if err != nil {
		return nil, err
	}
	return signer.Sign(message)
}

func (a *Account) GetProposalKey(ctx context.Context, flowClient AccountGetter) (*flow.AccountKey, error) {
	account, err := flowClient.GetAccount(ctx, a.Address)
	if err != nil {
		return nil, fmt.Errorf("error in flow_helpers.Account.GetProposalKey: %w", err)
	}
	if a.KeyIndex < 0 || a.KeyIndex >= len(account.Keys) {
		return nil, fmt.Errorf("error in flow_helpers.Account.GetProposalKey: account %s has no key %d", a.Address, a.KeyIndex)
	}
	return account.Keys[a.KeyIndex], nil
}

// GetSigner lazily builds the signer; KMS clients are only dialed once.
func (a *Account) GetSigner() (crypto.Signer, error) {
	a.signerOnce.Do(func() {
		a.signer, a.signerErr = a.newSigner()
	})
	return a.signer, a.signerErr
}

func (a *Account) newSigner() (crypto.Signer, error) {
	// Get Google KMS Signer if using KMS key
	if a.PrivateKeyType == GOOGLE_KMS_KEY_TYPE {
		s, err := getGoogleKMSSigner(a.Address, a.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("error in flow_helpers.Account.GetSigner: %w", err)
		}
		return s, nil
	}

	// Default to using local key
	p, err := crypto.DecodePrivateKeyHex(crypto.ECDSA_P256, a.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error in flow_helpers.Account.GetSigner: %w", err)
	}

	return crypto.NewNaiveSigner(p, crypto.SHA3_256), nil
}

func getGoogleKMSSigner(address flow.Address, resourceId string) (crypto.Signer, error) {
	ctx := context.Background()
	c, err := cloudkms.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	k, err := cloudkms.KeyFromResourceID(resourceId)
	if err != nil {
		return nil, err
	}

	s, err := c.SignerForKey(ctx, k)
	if err != nil {
		return nil, err
	}

	return s, nil
}

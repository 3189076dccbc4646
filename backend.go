package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/ethereum"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
	"github.com/flow-hydraulics/mint-gate/service/chain/flowchain"
	"github.com/flow-hydraulics/mint-gate/service/chain/solana"
	"github.com/flow-hydraulics/mint-gate/service/config"
	"github.com/flow-hydraulics/mint-gate/service/flow_helpers"
	"github.com/onflow/flow-go-sdk"
	log "github.com/sirupsen/logrus"
)

// Campaign served by the fake backend
const (
	fakeItemsAvailable = 10
	fakePrice          = 1_000_000_000
	fakeWalletBalance  = 5_000_000_000
	fakeWalletAddress  = "FakeBuyer1111111111111111111111111111111111"
)

type backend struct {
	Client chain.Client
	Wallet chain.Wallet
	close  func() error
}

func (b *backend) Close(logger *log.Logger) {
	if b.close == nil {
		return
	}
	if err := b.close(); err != nil {
		logger.Println(err)
	}
}

// newBackend builds the chain client selected by MINT_CHAIN and the wallet
// configured for it. A missing wallet key leaves Wallet nil.
func newBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch chain.Kind(cfg.Chain) {
	case chain.KindSolana:
		b := &backend{Client: solana.New(cfg.RPCEndpoint)}
		if cfg.WalletKeypair != "" {
			w, err := loadSolanaWallet(cfg.WalletKeypair)
			if err != nil {
				return nil, err
			}
			b.Wallet = w
		}
		return b, nil

	case chain.KindFlow:
		flowClient, err := flowchain.Dial(cfg.RPCEndpoint)
		if err != nil {
			return nil, err
		}
		b := &backend{
			Client: flowchain.New(flowClient, cfg.CandyMachineID, cfg.FlowGasLimit),
			close:  flowClient.Close,
		}
		if cfg.WalletAddress != "" {
			b.Wallet = flow_helpers.NewAccount(
				flow.HexToAddress(cfg.WalletAddress),
				cfg.WalletKeypair,
				cfg.WalletKeyType,
				cfg.WalletKeyIndex,
			)
		}
		return b, nil

	case chain.KindEthereum:
		client, err := ethereum.Dial(ctx, cfg.RPCEndpoint)
		if err != nil {
			return nil, err
		}
		b := &backend{Client: client}
		if cfg.WalletKeypair != "" {
			w, err := ethereum.ParseKeyWallet(cfg.WalletKeypair)
			if err != nil {
				return nil, err
			}
			b.Wallet = w
		}
		return b, nil

	case chain.KindFake:
		client := fake.NewClient(chain.CampaignAccounts{
			ItemsAvailable: fakeItemsAvailable,
			GoLiveDate:     cfg.SaleStartTime(),
			Price:          big.NewInt(fakePrice),
		})
		address := cfg.WalletAddress
		if address == "" {
			address = fakeWalletAddress
		}
		client.SetBalance(address, big.NewInt(fakeWalletBalance))
		return &backend{Client: client, Wallet: fake.NewWallet(address)}, nil

	default:
		return nil, fmt.Errorf("unsupported chain '%s'", cfg.Chain)
	}
}

// loadSolanaWallet accepts either a keypair file path or the keypair JSON itself.
func loadSolanaWallet(keypair string) (*solana.KeypairWallet, error) {
	if strings.HasPrefix(strings.TrimSpace(keypair), "[") {
		return solana.ParseKeypair(keypair)
	}
	if _, err := os.Stat(keypair); err != nil {
		return nil, fmt.Errorf("keypair file: %w", err)
	}
	return solana.LoadKeypairWallet(keypair)
}

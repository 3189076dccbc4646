// Package ethereum implements chain.Client against an EVM drop contract.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	log "github.com/sirupsen/logrus"
)

const weiDecimals = 18

type ethAPI interface {
	bind.ContractBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type Backend struct {
	client ethAPI
	abi    abi.ABI
}

var _ chain.Client = (*Backend)(nil)

func Dial(ctx context.Context, rpcURL string) (*Backend, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	cli, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return New(cli)
}

func New(cli ethAPI) (*Backend, error) {
	parsedABI, err := abi.JSON(strings.NewReader(DropABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	return &Backend{client: cli, abi: parsedABI}, nil
}

func (b *Backend) Kind() chain.Kind { return chain.KindEthereum }

func (b *Backend) Decimals() int { return weiDecimals }

func (b *Backend) bind(contractAddress string) (*bind.BoundContract, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid drop contract address '%s'", contractAddress)
	}
	return bind.NewBoundContract(common.HexToAddress(contractAddress), b.abi, b.client, b.client, b.client), nil
}

func (b *Backend) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address '%s'", address)
	}
	balance, err := b.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, chain.NetworkError("get balance", err)
	}
	return balance, nil
}

func callUint(ctx context.Context, contract *bind.BoundContract, method string) (*big.Int, error) {
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return nil, chain.NetworkError(method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(out))
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (b *Backend) ReadCampaignAccounts(ctx context.Context, contractAddress string) (chain.CampaignAccounts, error) {
	contract, err := b.bind(contractAddress)
	if err != nil {
		return chain.CampaignAccounts{}, err
	}

	available, err := callUint(ctx, contract, "itemsAvailable")
	if err != nil {
		return chain.CampaignAccounts{}, err
	}
	redeemed, err := callUint(ctx, contract, "itemsRedeemed")
	if err != nil {
		return chain.CampaignAccounts{}, err
	}
	goLive, err := callUint(ctx, contract, "goLiveDate")
	if err != nil {
		return chain.CampaignAccounts{}, err
	}
	price, err := callUint(ctx, contract, "price")
	if err != nil {
		return chain.CampaignAccounts{}, err
	}

	if !available.IsUint64() || !redeemed.IsUint64() || !goLive.IsInt64() {
		return chain.CampaignAccounts{}, fmt.Errorf("drop counters out of range")
	}
	if redeemed.Cmp(available) > 0 {
		return chain.CampaignAccounts{}, fmt.Errorf("drop redeemed %s of %s items", redeemed, available)
	}

	res := chain.CampaignAccounts{
		ItemsAvailable: available.Uint64(),
		ItemsRedeemed:  redeemed.Uint64(),
		ItemsRemaining: available.Uint64() - redeemed.Uint64(),
		Price:          price,
	}
	if goLive.Sign() > 0 {
		res.GoLiveDate = time.Unix(goLive.Int64(), 0).UTC()
	}
	return res, nil
}

// SubmitMintTransaction pays the current price to the drop's mint function.
// The wallet signs the transaction hash, the node estimates gas.
func (b *Backend) SubmitMintTransaction(ctx context.Context, req chain.MintRequest, wallet chain.Wallet) (string, error) {
	if wallet == nil {
		return "", chain.ErrNotConnected
	}
	if !common.IsHexAddress(wallet.PublicKey()) {
		return "", fmt.Errorf("%w: not an ethereum account: %s", chain.ErrWalletRejected, wallet.PublicKey())
	}

	logger := log.WithFields(log.Fields{
		"method": "SubmitMintTransaction",
		"drop":   req.CandyMachine,
		"buyer":  wallet.PublicKey(),
	})

	contract, err := b.bind(req.CandyMachine)
	if err != nil {
		return "", err
	}

	price, err := callUint(ctx, contract, "price")
	if err != nil {
		return "", err
	}

	chainID, err := b.client.ChainID(ctx)
	if err != nil {
		return "", chain.NetworkError("fetch chain id", err)
	}

	from := common.HexToAddress(wallet.PublicKey())
	opts := &bind.TransactOpts{
		From:    from,
		Context: ctx,
		Value:   price,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != from {
				return nil, bind.ErrNotAuthorized
			}
			signer := types.LatestSignerForChainID(chainID)
			sig, err := wallet.Sign(signer.Hash(tx).Bytes())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", chain.ErrWalletRejected, err)
			}
			return tx.WithSignature(signer, sig)
		},
	}

	tx, err := contract.Transact(opts, "mint")
	if err != nil {
		return "", submitError(err)
	}

	logger.WithField("txHash", tx.Hash().Hex()).Info("Mint transaction submitted")

	return tx.Hash().Hex(), nil
}

// submitError keeps revert reasons as program errors; gas estimation runs
// the call first, so most program rejections surface here.
func submitError(err error) error {
	if errors.Is(err, chain.ErrWalletRejected) {
		return err
	}
	if perr, ok := chain.ParseProgramError(err.Error()); ok {
		return perr
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return &chain.ProgramError{Message: err.Error()}
	}
	return chain.NetworkError("send mint transaction", err)
}

// GetSignatureStatus treats an included receipt as confirmed and upgrades it
// to finalized once the finalized head has passed its block.
func (b *Backend) GetSignatureStatus(ctx context.Context, signature string) (chain.SignatureStatus, error) {
	receipt, err := b.client.TransactionReceipt(ctx, common.HexToHash(signature))
	if errors.Is(err, ethereum.NotFound) {
		return chain.SignatureStatus{}, nil
	}
	if err != nil {
		return chain.SignatureStatus{}, chain.NetworkError("get transaction receipt", err)
	}

	res := chain.SignatureStatus{Found: true, Commitment: chain.CommitmentConfirmed}
	if receipt.Status == types.ReceiptStatusFailed {
		res.Err = &chain.ProgramError{Message: "execution reverted"}
	}

	finalized, err := b.client.HeaderByNumber(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
	if err != nil {
		log.WithFields(log.Fields{
			"method": "GetSignatureStatus",
			"txHash": signature,
		}).WithError(err).Debug("Finalized header not available")
		return res, nil
	}
	if receipt.BlockNumber != nil && finalized.Number.Cmp(receipt.BlockNumber) >= 0 {
		res.Commitment = chain.CommitmentFinalized
	}

	return res, nil
}

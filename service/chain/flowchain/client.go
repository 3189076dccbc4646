// Package flowchain implements chain.Client against a Flow drop contract.
package flowchain

import (
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/flow_helpers"
	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/client"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const flowDecimals = 8

//go:embed cadence/mint.cdc
var mintTransaction []byte

//go:embed cadence/campaign.cdc
var campaignScript []byte

// accessAPI is the subset of the access node client used by the backend.
type accessAPI interface {
	flow_helpers.AccountGetter
	GetLatestBlockHeader(ctx context.Context, isSealed bool, opts ...grpc.CallOption) (*flow.BlockHeader, error)
	SendTransaction(ctx context.Context, tx flow.Transaction, opts ...grpc.CallOption) error
	GetTransactionResult(ctx context.Context, txID flow.Identifier, opts ...grpc.CallOption) (*flow.TransactionResult, error)
	ExecuteScriptAtLatestBlock(ctx context.Context, script []byte, arguments []cadence.Value, opts ...grpc.CallOption) (cadence.Value, error)
}

type Backend struct {
	flowClient accessAPI
	gasLimit   uint64
	vars       *flow_helpers.CadenceTemplateVars
}

var _ chain.Client = (*Backend)(nil)

// New returns a backend for the drop contract deployed at dropAddress.
func New(flowClient accessAPI, dropAddress string, gasLimit uint64) *Backend {
	if gasLimit == 0 {
		gasLimit = 9999
	}
	return &Backend{
		flowClient: flowClient,
		gasLimit:   gasLimit,
		vars:       &flow_helpers.CadenceTemplateVars{Drop: dropAddress},
	}
}

// Dial connects to an access node.
func Dial(accessAPIHost string) (*client.Client, error) {
	return client.New(accessAPIHost, grpc.WithInsecure())
}

func (b *Backend) Kind() chain.Kind { return chain.KindFlow }

func (b *Backend) Decimals() int { return flowDecimals }

func (b *Backend) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	account, err := b.flowClient.GetAccount(ctx, flow.HexToAddress(address))
	if err != nil {
		return nil, chain.NetworkError("get account", err)
	}
	return new(big.Int).SetUint64(account.Balance), nil
}

func (b *Backend) ReadCampaignAccounts(ctx context.Context, dropAddress string) (chain.CampaignAccounts, error) {
	vars := *b.vars
	if dropAddress != "" {
		vars.Drop = dropAddress
	}

	script, err := flow_helpers.ParseCadenceTemplate("campaign", campaignScript, &vars)
	if err != nil {
		return chain.CampaignAccounts{}, err
	}

	value, err := b.flowClient.ExecuteScriptAtLatestBlock(ctx, script, nil)
	if err != nil {
		return chain.CampaignAccounts{}, chain.NetworkError("execute campaign script", err)
	}

	return decodeCampaign(value)
}

func decodeCampaign(value cadence.Value) (chain.CampaignAccounts, error) {
	arr, ok := value.(cadence.Array)
	if !ok || len(arr.Values) != 4 {
		return chain.CampaignAccounts{}, fmt.Errorf("unexpected campaign script result: %v", value)
	}

	var nums [3]uint64
	for i := range nums {
		n, ok := arr.Values[i].(cadence.UInt64)
		if !ok {
			return chain.CampaignAccounts{}, fmt.Errorf("campaign field %d is %T, expected UInt64", i, arr.Values[i])
		}
		nums[i] = uint64(n)
	}

	price, ok := arr.Values[3].(cadence.UFix64)
	if !ok {
		return chain.CampaignAccounts{}, fmt.Errorf("campaign price is %T, expected UFix64", arr.Values[3])
	}

	available, redeemed, goLive := nums[0], nums[1], nums[2]
	if redeemed > available {
		return chain.CampaignAccounts{}, fmt.Errorf("drop redeemed %d of %d items", redeemed, available)
	}

	res := chain.CampaignAccounts{
		ItemsAvailable: available,
		ItemsRedeemed:  redeemed,
		ItemsRemaining: available - redeemed,
		Price:          new(big.Int).SetUint64(uint64(price)),
	}
	if goLive > 0 {
		res.GoLiveDate = time.Unix(int64(goLive), 0).UTC()
	}
	return res, nil
}

func (b *Backend) SubmitMintTransaction(ctx context.Context, req chain.MintRequest, wallet chain.Wallet) (string, error) {
	if wallet == nil {
		return "", chain.ErrNotConnected
	}

	account, ok := wallet.(*flow_helpers.Account)
	if !ok {
		return "", fmt.Errorf("%w: flow backend needs a flow account wallet, got %T", chain.ErrWalletRejected, wallet)
	}

	logger := log.WithFields(log.Fields{
		"method": "SubmitMintTransaction",
		"drop":   req.CandyMachine,
		"buyer":  account.Address.Hex(),
	})

	vars := *b.vars
	if req.CandyMachine != "" {
		vars.Drop = req.CandyMachine
	}

	code, err := flow_helpers.ParseCadenceTemplate("mint", mintTransaction, &vars)
	if err != nil {
		return "", err
	}

	latestBlock, err := b.flowClient.GetLatestBlockHeader(ctx, true)
	if err != nil {
		return "", chain.NetworkError("get latest block", err)
	}

	tx := flow.NewTransaction().
		SetScript(code).
		SetGasLimit(b.gasLimit).
		SetReferenceBlockID(latestBlock.ID)

	if err := tx.AddArgument(cadence.NewAddress(flow.HexToAddress(req.Treasury))); err != nil {
		return "", err
	}

	if err := flow_helpers.SignProposeAndPayAs(ctx, b.flowClient, account, tx); err != nil {
		return "", fmt.Errorf("%w: %v", chain.ErrWalletRejected, err)
	}

	if err := b.flowClient.SendTransaction(ctx, *tx); err != nil {
		if flow_helpers.IsInvalidProposalSeqNumberError(err) {
			logger.Warn("Proposal key sequence number out of date")
		}
		return "", chain.NetworkError("send transaction", err)
	}

	logger.WithField("transactionID", tx.ID().Hex()).Info("Mint transaction submitted")

	return tx.ID().Hex(), nil
}

func (b *Backend) GetSignatureStatus(ctx context.Context, signature string) (chain.SignatureStatus, error) {
	result, err := b.flowClient.GetTransactionResult(ctx, flow.HexToID(signature))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return chain.SignatureStatus{}, nil
		}
		return chain.SignatureStatus{}, chain.NetworkError("get transaction result", err)
	}

	res := chain.SignatureStatus{Found: true}

	switch result.Status {
	case flow.TransactionStatusUnknown:
		return chain.SignatureStatus{}, nil
	case flow.TransactionStatusPending:
		res.Commitment = chain.CommitmentNone
	case flow.TransactionStatusFinalized:
		res.Commitment = chain.CommitmentProcessed
	case flow.TransactionStatusExecuted:
		res.Commitment = chain.CommitmentConfirmed
	case flow.TransactionStatusSealed:
		res.Commitment = chain.CommitmentFinalized
	case flow.TransactionStatusExpired:
		res.Commitment = chain.CommitmentFinalized
		res.Err = &chain.ProgramError{Message: "transaction expired"}
		return res, nil
	}

	if result.Error != nil {
		res.Err = programError(result.Error)
	}

	return res, nil
}

// programError maps a failed transaction result to a ProgramError, taking the
// code from the "(code N)" marker of the drop contract panics.
func programError(err error) *chain.ProgramError {
	msg := strings.TrimSpace(err.Error())
	if perr, ok := chain.ParseProgramError(msg); ok {
		return perr
	}
	return &chain.ProgramError{Message: msg}
}

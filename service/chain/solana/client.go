// Package solana implements chain.Client for the candy machine v1 program.
package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	log "github.com/sirupsen/logrus"
)

const lamportDecimals = 9

// rpcAPI is the subset of the blocto client used by the backend.
type rpcAPI interface {
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
}

type Backend struct {
	rpc       rpcAPI
	programID common.PublicKey
}

var _ chain.Client = (*Backend)(nil)

// New creates a backend talking to the given JSON-RPC endpoint.
// An empty endpoint defaults to devnet.
func New(endpoint string) *Backend {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = rpc.DevnetRPCEndpoint
	}
	return &Backend{
		rpc:       client.NewClient(endpoint),
		programID: common.PublicKeyFromString(CandyMachineProgramID),
	}
}

func (b *Backend) Kind() chain.Kind { return chain.KindSolana }

func (b *Backend) Decimals() int { return lamportDecimals }

func (b *Backend) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	lamports, err := b.rpc.GetBalance(ctx, address)
	if err != nil {
		return nil, chain.NetworkError("get balance", err)
	}
	return new(big.Int).SetUint64(lamports), nil
}

func (b *Backend) ReadCampaignAccounts(ctx context.Context, candyMachineID string) (chain.CampaignAccounts, error) {
	info, err := b.rpc.GetAccountInfo(ctx, candyMachineID)
	if err != nil {
		return chain.CampaignAccounts{}, chain.NetworkError("get candy machine account", err)
	}
	if len(info.Data) == 0 {
		return chain.CampaignAccounts{}, fmt.Errorf("candy machine %s not found", candyMachineID)
	}
	if info.Owner != b.programID {
		return chain.CampaignAccounts{}, fmt.Errorf("candy machine %s is owned by %s", candyMachineID, info.Owner.ToBase58())
	}

	cm, err := decodeCandyMachine(info.Data)
	if err != nil {
		return chain.CampaignAccounts{}, err
	}

	return cm.campaignAccounts(), nil
}

// SubmitMintTransaction creates a fresh mint account, its associated token
// account for the payer and calls mint_nft in a single transaction.
func (b *Backend) SubmitMintTransaction(ctx context.Context, req chain.MintRequest, wallet chain.Wallet) (string, error) {
	if wallet == nil {
		return "", chain.ErrNotConnected
	}

	logger := log.WithFields(log.Fields{
		"method":       "SubmitMintTransaction",
		"candyMachine": req.CandyMachine,
		"payer":        wallet.PublicKey(),
	})

	payer := common.PublicKeyFromString(wallet.PublicKey())
	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(payer, mint.PublicKey)
	if err != nil {
		return "", fmt.Errorf("find associated token address: %w", err)
	}

	mintRent, err := b.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", chain.NetworkError("get rent exemption", err)
	}

	recent, err := b.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", chain.NetworkError("get latest blockhash", err)
	}

	mintNFT, err := mintNFTInstruction(b.programID, mintNFTAccounts{
		Config:       common.PublicKeyFromString(req.Config),
		CandyMachine: common.PublicKeyFromString(req.CandyMachine),
		Payer:        payer,
		Treasury:     common.PublicKeyFromString(req.Treasury),
		Mint:         mint.PublicKey,
	})
	if err != nil {
		return "", err
	}

	msg := types.NewMessage(types.NewMessageParam{
		FeePayer:        payer,
		RecentBlockhash: recent.Blockhash,
		Instructions: []types.Instruction{
			system.CreateAccount(system.CreateAccountParam{
				From:     payer,
				New:      mint.PublicKey,
				Owner:    common.TokenProgramID,
				Lamports: mintRent,
				Space:    token.MintAccountSize,
			}),
			token.InitializeMint(token.InitializeMintParam{
				Decimals:   0,
				Mint:       mint.PublicKey,
				MintAuth:   payer,
				FreezeAuth: &payer,
			}),
			associated_token_account.CreateAssociatedTokenAccount(
				associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 payer,
					Owner:                  payer,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				},
			),
			token.MintTo(token.MintToParam{
				Mint:   mint.PublicKey,
				To:     ata,
				Auth:   payer,
				Amount: 1,
			}),
			mintNFT,
		},
	})

	tx, err := signMessage(msg, wallet, mint)
	if err != nil {
		return "", err
	}

	sig, err := b.rpc.SendTransaction(ctx, tx)
	if err != nil {
		if perr, ok := chain.ParseProgramError(err.Error()); ok {
			logger.WithField("code", perr.Code).Warn("Mint transaction rejected by program")
			return "", perr
		}
		return "", chain.NetworkError("send transaction", err)
	}

	logger.WithFields(log.Fields{
		"signature": sig,
		"mint":      mint.PublicKey.ToBase58(),
	}).Info("Mint transaction submitted")

	return sig, nil
}

// signMessage collects one signature per required signer, asking the wallet
// for the payer signature and signing locally for the ephemeral mint account.
func signMessage(msg types.Message, wallet chain.Wallet, local types.Account) (types.Transaction, error) {
	data, err := msg.Serialize()
	if err != nil {
		return types.Transaction{}, fmt.Errorf("serialize message: %w", err)
	}

	payer := wallet.PublicKey()
	count := int(msg.Header.NumRequireSignatures)
	signatures := make([]types.Signature, count)

	for i := 0; i < count; i++ {
		signer := msg.Accounts[i]
		switch {
		case signer.ToBase58() == payer:
			sig, err := wallet.Sign(data)
			if err != nil {
				return types.Transaction{}, fmt.Errorf("%w: %v", chain.ErrWalletRejected, err)
			}
			signatures[i] = sig
		case signer == local.PublicKey:
			signatures[i] = local.Sign(data)
		default:
			return types.Transaction{}, fmt.Errorf("no signer for required account %s", signer.ToBase58())
		}
	}

	return types.Transaction{Signatures: signatures, Message: msg}, nil
}

func (b *Backend) GetSignatureStatus(ctx context.Context, signature string) (chain.SignatureStatus, error) {
	status, err := b.rpc.GetSignatureStatus(ctx, signature)
	if err != nil {
		return chain.SignatureStatus{}, chain.NetworkError("get signature status", err)
	}
	if status == nil {
		return chain.SignatureStatus{}, nil
	}

	res := chain.SignatureStatus{
		Found:      true,
		Commitment: commitmentFromRPC(status.ConfirmationStatus),
	}
	if status.Err != nil {
		res.Err = parseTransactionError(status.Err)
	}
	return res, nil
}

func commitmentFromRPC(c *rpc.Commitment) chain.Commitment {
	if c == nil {
		return chain.CommitmentProcessed
	}
	switch *c {
	case rpc.CommitmentFinalized:
		return chain.CommitmentFinalized
	case rpc.CommitmentConfirmed:
		return chain.CommitmentConfirmed
	default:
		return chain.CommitmentProcessed
	}
}

// parseTransactionError turns the "err" field of a signature status, e.g.
// {"InstructionError":[4,{"Custom":311}]}, into a ProgramError.
func parseTransactionError(raw any) *chain.ProgramError {
	b, err := json.Marshal(raw)
	if err != nil {
		return &chain.ProgramError{Message: fmt.Sprint(raw)}
	}

	res := &chain.ProgramError{Message: string(b)}

	var txErr struct {
		InstructionError []json.RawMessage `json:"InstructionError"`
	}
	if err := json.Unmarshal(b, &txErr); err != nil || len(txErr.InstructionError) != 2 {
		return res
	}

	var custom struct {
		Custom *int `json:"Custom"`
	}
	if err := json.Unmarshal(txErr.InstructionError[1], &custom); err == nil && custom.Custom != nil {
		res.Code = *custom.Custom
		return res
	}

	var name string
	if err := json.Unmarshal(txErr.InstructionError[1], &name); err == nil {
		res.Message = name
	}
	return res
}

package solana

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/near/borsh-go"
)

// CandyMachineProgramID is the candy machine v1 program on mainnet-beta and devnet.
const CandyMachineProgramID = "cndyAnrLdpjq1Ssp1z8xxDsB8dxe7u4HL5Nxi2K5WXZ"

// Candy machine v1 error codes.
const (
	ErrCodeNotEnoughSOL           = 0x135
	ErrCodeCandyMachineEmpty      = 0x137
	ErrCodeCandyMachineNotLiveYet = 0x138
)

type candyMachineData struct {
	UUID           string
	Price          uint64
	ItemsAvailable uint64
	GoLiveDate     *int64
}

type candyMachineAccount struct {
	Authority     common.PublicKey
	Wallet        common.PublicKey
	TokenMint     *common.PublicKey
	Config        common.PublicKey
	Data          candyMachineData
	ItemsRedeemed uint64
	Bump          uint8
}

// anchorDiscriminator computes the 8 byte Anchor prefix: sha256("namespace:name")[:8].
func anchorDiscriminator(namespace, name string) []byte {
	hash := sha256.Sum256([]byte(namespace + ":" + name))
	return hash[:8]
}

func decodeCandyMachine(data []byte) (*candyMachineAccount, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("candy machine account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], anchorDiscriminator("account", "CandyMachine")) {
		return nil, fmt.Errorf("account is not a candy machine")
	}

	cm := candyMachineAccount{}
	if err := borsh.Deserialize(&cm, data[8:]); err != nil {
		return nil, fmt.Errorf("decode candy machine: %w", err)
	}

	if cm.ItemsRedeemed > cm.Data.ItemsAvailable {
		return nil, fmt.Errorf("candy machine redeemed %d of %d items", cm.ItemsRedeemed, cm.Data.ItemsAvailable)
	}

	return &cm, nil
}

func (cm *candyMachineAccount) campaignAccounts() chain.CampaignAccounts {
	res := chain.CampaignAccounts{
		ItemsAvailable: cm.Data.ItemsAvailable,
		ItemsRedeemed:  cm.ItemsRedeemed,
		ItemsRemaining: cm.Data.ItemsAvailable - cm.ItemsRedeemed,
		Price:          new(big.Int).SetUint64(cm.Data.Price),
	}
	if cm.Data.GoLiveDate != nil {
		res.GoLiveDate = time.Unix(*cm.Data.GoLiveDate, 0).UTC()
	}
	return res
}

type mintNFTAccounts struct {
	Config       common.PublicKey
	CandyMachine common.PublicKey
	Payer        common.PublicKey
	Treasury     common.PublicKey
	Mint         common.PublicKey
}

// mintNFTInstruction builds the candy machine v1 "mint_nft" instruction.
// The payer acts as mint and update authority of the new token.
func mintNFTInstruction(programID common.PublicKey, a mintNFTAccounts) (types.Instruction, error) {
	metadata, err := token_metadata.GetTokenMetaPubkey(a.Mint)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("metadata address: %w", err)
	}
	masterEdition, err := token_metadata.GetMasterEdition(a.Mint)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("master edition address: %w", err)
	}

	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: a.Config, IsSigner: false, IsWritable: false},
			{PubKey: a.CandyMachine, IsSigner: false, IsWritable: true},
			{PubKey: a.Payer, IsSigner: true, IsWritable: true},
			{PubKey: a.Treasury, IsSigner: false, IsWritable: true},
			{PubKey: metadata, IsSigner: false, IsWritable: true},
			{PubKey: a.Mint, IsSigner: false, IsWritable: true},
			{PubKey: a.Payer, IsSigner: true, IsWritable: false}, // mint authority
			{PubKey: a.Payer, IsSigner: true, IsWritable: false}, // update authority
			{PubKey: masterEdition, IsSigner: false, IsWritable: true},
			{PubKey: common.MetaplexTokenMetaProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
			{PubKey: common.SysVarRentPubkey, IsSigner: false, IsWritable: false},
			{PubKey: common.SysVarClockPubkey, IsSigner: false, IsWritable: false},
		},
		Data: anchorDiscriminator("global", "mint_nft"),
	}, nil
}

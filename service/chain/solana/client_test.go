package solana

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/stretchr/testify/assert"
)

type stubRPC struct {
	accountInfo client.AccountInfo
	sendErr     error
	sent        []types.Transaction
	status      *rpc.SignatureStatus
	statusErr   error
}

func (s *stubRPC) GetBalance(ctx context.Context, base58Addr string) (uint64, error) {
	return 2500000000, nil
}

func (s *stubRPC) GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error) {
	return s.accountInfo, nil
}

func (s *stubRPC) GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error) {
	return rpc.GetLatestBlockhashValue{Blockhash: "9zrUHnA1nCByPksy3aL8tQ47vqdaG2vnFs4HrxgcZj4F", LatestValidBlockHeight: 100}, nil
}

func (s *stubRPC) GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error) {
	return 1461600, nil
}

func (s *stubRPC) SendTransaction(ctx context.Context, tx types.Transaction) (string, error) {
	s.sent = append(s.sent, tx)
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW", nil
}

func (s *stubRPC) GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error) {
	return s.status, s.statusErr
}

func newTestBackend(stub *stubRPC) *Backend {
	return &Backend{rpc: stub, programID: common.PublicKeyFromString(CandyMachineProgramID)}
}

func testMintRequest() chain.MintRequest {
	return chain.MintRequest{
		CandyMachine: types.NewAccount().PublicKey.ToBase58(),
		Config:       types.NewAccount().PublicKey.ToBase58(),
		Treasury:     types.NewAccount().PublicKey.ToBase58(),
	}
}

func TestSubmitMintTransactionSigns(t *testing.T) {
	stub := &stubRPC{}
	b := newTestBackend(stub)
	payer := types.NewAccount()
	wallet := NewKeypairWallet(payer)

	sig, err := b.SubmitMintTransaction(context.Background(), testMintRequest(), wallet)
	if err != nil {
		t.Fatal(err)
	}
	assert.NotEmpty(t, sig)

	if !assert.Len(t, stub.sent, 1) {
		return
	}
	tx := stub.sent[0]
	assert.Len(t, tx.Signatures, 2)
	assert.Equal(t, payer.PublicKey, tx.Message.Accounts[0])

	data, err := tx.Message.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, ed25519.Verify(payer.PublicKey.Bytes(), data, tx.Signatures[0]))
	assert.Len(t, tx.Message.Instructions, 5)
}

func TestSubmitMintTransactionProgramError(t *testing.T) {
	stub := &stubRPC{sendErr: errors.New("rpc response error: {\"code\":-32002,\"message\":\"Transaction simulation failed: Error processing Instruction 4: custom program error: 0x137\"}")}
	b := newTestBackend(stub)

	_, err := b.SubmitMintTransaction(context.Background(), testMintRequest(), NewKeypairWallet(types.NewAccount()))

	var perr *chain.ProgramError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, ErrCodeCandyMachineEmpty, perr.Code)
	}
}

func TestSubmitMintTransactionNetworkError(t *testing.T) {
	stub := &stubRPC{sendErr: errors.New("dial tcp: connection refused")}
	b := newTestBackend(stub)

	_, err := b.SubmitMintTransaction(context.Background(), testMintRequest(), NewKeypairWallet(types.NewAccount()))
	assert.ErrorIs(t, err, chain.ErrNetwork)

	_, err = b.SubmitMintTransaction(context.Background(), testMintRequest(), nil)
	assert.ErrorIs(t, err, chain.ErrNotConnected)
}

type rejectingWallet struct{ account types.Account }

func (w rejectingWallet) PublicKey() string { return w.account.PublicKey.ToBase58() }
func (w rejectingWallet) Sign(message []byte) ([]byte, error) {
	return nil, errors.New("user rejected the request")
}

func TestSubmitMintTransactionWalletRejected(t *testing.T) {
	stub := &stubRPC{}
	b := newTestBackend(stub)

	_, err := b.SubmitMintTransaction(context.Background(), testMintRequest(), rejectingWallet{types.NewAccount()})
	assert.ErrorIs(t, err, chain.ErrWalletRejected)
	assert.Empty(t, stub.sent)
}

func TestReadCampaignAccounts(t *testing.T) {
	stub := &stubRPC{accountInfo: client.AccountInfo{
		Owner: common.PublicKeyFromString(CandyMachineProgramID),
		Data:  encodeCandyMachine(t, testCandyMachine(125, 125, nil)),
	}}
	b := newTestBackend(stub)

	res, err := b.ReadCampaignAccounts(context.Background(), "any")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, uint64(0), res.ItemsRemaining)

	stub.accountInfo.Owner = common.SystemProgramID
	_, err = b.ReadCampaignAccounts(context.Background(), "any")
	assert.Error(t, err)

	stub.accountInfo = client.AccountInfo{}
	_, err = b.ReadCampaignAccounts(context.Background(), "any")
	assert.Error(t, err)
}

func TestGetSignatureStatus(t *testing.T) {
	stub := &stubRPC{}
	b := newTestBackend(stub)

	st, err := b.GetSignatureStatus(context.Background(), "sig")
	assert.NoError(t, err)
	assert.False(t, st.Found)

	confirmed := rpc.CommitmentConfirmed
	stub.status = &rpc.SignatureStatus{Slot: 10, ConfirmationStatus: &confirmed}
	st, err = b.GetSignatureStatus(context.Background(), "sig")
	assert.NoError(t, err)
	assert.True(t, st.Found)
	assert.Equal(t, chain.CommitmentConfirmed, st.Commitment)
	assert.Nil(t, st.Err)

	finalized := rpc.CommitmentFinalized
	stub.status = &rpc.SignatureStatus{
		Slot:               11,
		ConfirmationStatus: &finalized,
		Err:                map[string]any{"InstructionError": []any{4, map[string]any{"Custom": 312}}},
	}
	st, err = b.GetSignatureStatus(context.Background(), "sig")
	assert.NoError(t, err)
	assert.Equal(t, chain.CommitmentFinalized, st.Commitment)
	if assert.NotNil(t, st.Err) {
		assert.Equal(t, ErrCodeCandyMachineNotLiveYet, st.Err.Code)
	}

	stub.statusErr = errors.New("timeout")
	_, err = b.GetSignatureStatus(context.Background(), "sig")
	assert.ErrorIs(t, err, chain.ErrNetwork)
}

func TestParseTransactionError(t *testing.T) {
	perr := parseTransactionError(map[string]any{"InstructionError": []any{0, "InvalidAccountData"}})
	assert.Equal(t, 0, perr.Code)
	assert.Equal(t, "InvalidAccountData", perr.Message)

	perr = parseTransactionError("AccountInUse")
	assert.Equal(t, 0, perr.Code)
	assert.Equal(t, `"AccountInUse"`, perr.Message)
}

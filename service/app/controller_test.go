package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
	"github.com/flow-hydraulics/mint-gate/service/common"
	"github.com/stretchr/testify/assert"
)

func TestAttemptMintSuccess(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125, ItemsRedeemed: 10}, testEpoch)
	core.connect(t)
	reads, balances := core.chain.Reads(), core.chain.BalanceCalls()

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, common.AttemptStatusSucceeded, attempt.Status)
	assert.Equal(t, common.OutcomeSuccess, attempt.Outcome)
	assert.Equal(t, MessageSuccess, attempt.Message)
	assert.Equal(t, fake.Signature("buyer", 1), attempt.Signature)
	assert.NotNil(t, attempt.FinishedAt)

	assert.Equal(t, 1, core.chain.Submits())
	assert.Equal(t, reads+1, core.chain.Reads(), "campaign refreshed exactly once")
	assert.Equal(t, balances+1, core.chain.BalanceCalls(), "balance refreshed exactly once")

	assert.Equal(t, uint64(114), core.campaign.Snapshot().ItemsRemaining)
	assert.False(t, core.controller.InFlight())

	latest, ok := core.controller.Latest()
	assert.True(t, ok)
	assert.Equal(t, attempt, latest)
}

func TestDoubleStartSubmitsOnce(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)

	release := make(chan struct{})
	core.chain.OnSubmit = func() { <-release }

	first, err := core.controller.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, common.AttemptStatusSubmitting, first.Status)

	_, err = core.controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	_, err = core.controller.AttemptMint(context.Background())
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	assert.ErrorIs(t, core.controller.Dismiss(), ErrAttemptInFlight)

	close(release)
	core.controller.Wait()

	assert.Equal(t, 1, core.chain.Submits())
	latest, _ := core.controller.Latest()
	assert.Equal(t, first.ID, latest.ID)
	assert.Equal(t, common.AttemptStatusSucceeded, latest.Status)
}

func TestStartSurvivesRequestCancel(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := core.controller.Start(ctx)
	cancel()
	if err != nil {
		t.Fatal(err)
	}
	core.controller.Wait()

	latest, _ := core.controller.Latest()
	assert.Equal(t, common.OutcomeSuccess, latest.Outcome)
}

func TestSubmitFailureSkipsPolling(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)
	reads := core.chain.Reads()

	core.chain.FailSubmit(chain.NetworkError("send transaction", errors.New("Transaction simulation failed: insufficient lamports 10, need 1461600")))

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, common.AttemptStatusFailed, attempt.Status)
	assert.Equal(t, common.OutcomeInsufficientFunds, attempt.Outcome)
	assert.Equal(t, MessageInsufficientFunds, attempt.Message)
	assert.Empty(t, attempt.Signature)
	assert.Equal(t, 0, core.chain.StatusCalls(), "no poll after a failed submission")
	assert.Equal(t, reads+1, core.chain.Reads(), "state refreshed after failure")
}

func TestWalletRejectionIsGenericFailure(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)
	core.wallet.Reject = true

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, common.OutcomeGenericFailure, attempt.Outcome)
	assert.Equal(t, MessageFailed, attempt.Message)
}

func TestPollTimeoutIsGenericFailureAndRefreshes(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.controller.cfg.TxTimeout = 20 * time.Millisecond
	core.connect(t)
	reads, balances := core.chain.Reads(), core.chain.BalanceCalls()

	core.chain.QueueStatus(chain.SignatureStatus{})

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, common.AttemptStatusFailed, attempt.Status)
	assert.Equal(t, common.OutcomeGenericFailure, attempt.Outcome)
	assert.Equal(t, MessageFailed, attempt.Message)
	assert.NotEmpty(t, attempt.Signature)
	assert.Equal(t, reads+1, core.chain.Reads())
	assert.Equal(t, balances+1, core.chain.BalanceCalls())
}

func TestLandedSoldOutForcesFlag(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125, ItemsRedeemed: 120}, testEpoch)
	core.connect(t)

	core.chain.QueueStatus(chain.SignatureStatus{
		Found:      true,
		Commitment: chain.CommitmentFinalized,
		Err:        &chain.ProgramError{Code: 0x137, Message: "candy machine is empty"},
	})
	// The post-attempt refresh fails, so only the forced flag is visible
	core.chain.FailRead(errors.New("account is not a candy machine"))

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, common.OutcomeSoldOut, attempt.Outcome)
	assert.Equal(t, MessageSoldOut, attempt.Message)

	state := core.campaign.Snapshot()
	assert.True(t, state.IsSoldOut)
	assert.Equal(t, uint64(5), state.ItemsRemaining)

	_, err = core.controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, 1, core.chain.Submits())
}

func TestLandedUnknownProgramError(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)
	core.chain.QueueStatus(chain.SignatureStatus{
		Found:      true,
		Commitment: chain.CommitmentConfirmed,
		Err:        &chain.ProgramError{Code: 0x1, Message: "insufficient account keys"},
	})

	attempt, _ := core.controller.AttemptMint(context.Background())
	assert.Equal(t, common.OutcomeGenericFailure, attempt.Outcome)
	assert.Equal(t, MessageTransactionFailed, attempt.Message)
}

func TestSoldOutCampaignRejectsWithoutChainContact(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125, ItemsRedeemed: 125}, testEpoch)
	core.connect(t)

	state := core.campaign.Snapshot()
	assert.True(t, state.IsSoldOut)

	calls := core.chain.BalanceCalls() + core.chain.Reads()
	_, err := core.controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.Equal(t, 0, core.chain.Submits())
	assert.Equal(t, calls, core.chain.BalanceCalls()+core.chain.Reads())

	_, ok := core.controller.Latest()
	assert.False(t, ok)
}

func TestRejections(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)

	_, err := core.controller.Start(context.Background())
	assert.ErrorIs(t, err, chain.ErrNotConnected)

	core.chain.FailRead(errors.New("account not found"))
	_ = core.session.Connect(context.Background(), core.wallet)
	_, err = core.controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrCampaignNotLoaded)

	assert.Equal(t, 0, core.chain.Submits())
}

func TestSaleActivatesAtStartInstant(t *testing.T) {
	start := testEpoch.Add(time.Hour)
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125, GoLiveDate: start}, start)
	core.connect(t)

	assert.False(t, core.campaign.Snapshot().IsSaleActive)
	_, err := core.controller.Start(context.Background())
	assert.ErrorIs(t, err, ErrSaleNotActive)

	core.clock.Set(start)

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, core.campaign.Snapshot().IsSaleActive)
	assert.Equal(t, common.OutcomeSuccess, attempt.Outcome)
}

func TestNotStartedOutcome(t *testing.T) {
	// Local view thinks the sale is open, the program disagrees
	start := testEpoch.Add(time.Hour)
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)
	core.chain.SetCampaign(chain.CampaignAccounts{ItemsAvailable: 125, GoLiveDate: start})

	attempt, err := core.controller.AttemptMint(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, common.OutcomeNotStarted, attempt.Outcome)
	assert.Equal(t, MessageNotStarted, attempt.Message)

	// Refresh picked up the new start time but the sale stays active
	state := core.campaign.Snapshot()
	assert.Equal(t, start, state.SaleStartTime)
	assert.True(t, state.IsSaleActive)
}

func TestDismiss(t *testing.T) {
	core := newTestCore(t, chain.CampaignAccounts{ItemsAvailable: 125}, testEpoch)
	core.connect(t)

	assert.ErrorIs(t, core.controller.Dismiss(), ErrNoAttempt)

	if _, err := core.controller.AttemptMint(context.Background()); err != nil {
		t.Fatal(err)
	}
	assert.NoError(t, core.controller.Dismiss())

	_, ok := core.controller.Latest()
	assert.False(t, ok)
}

func TestAttemptTransitions(t *testing.T) {
	a := newAttempt(testEpoch)
	assert.NoError(t, a.SetAwaitingConfirmation("sig"))
	assert.Error(t, a.SetAwaitingConfirmation("sig"))

	assert.NoError(t, a.SetFinished(common.OutcomeSuccess, nil, testEpoch))
	assert.Equal(t, common.AttemptStatusSucceeded, a.Status)
	assert.Error(t, a.SetFinished(common.OutcomeSuccess, nil, testEpoch))
}

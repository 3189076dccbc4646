package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
	"github.com/stretchr/testify/assert"
)

func newTestPoller() (*Poller, *fake.Client) {
	client := fake.NewClient(chain.CampaignAccounts{ItemsAvailable: 1})
	return NewPoller(client, time.Millisecond, NewMetrics()), client
}

func TestConfirmWaitsForCommitment(t *testing.T) {
	p, client := newTestPoller()
	client.QueueStatus(chain.SignatureStatus{})
	client.QueueStatus(chain.SignatureStatus{Found: true, Commitment: chain.CommitmentProcessed})
	client.QueueStatus(chain.SignatureStatus{Found: true, Commitment: chain.CommitmentConfirmed})

	res, err := p.Confirm(context.Background(), "sig", time.Second, chain.CommitmentConfirmed)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, chain.CommitmentConfirmed, res.Status.Commitment)
}

func TestConfirmStopsOnProgramError(t *testing.T) {
	p, client := newTestPoller()
	perr := &chain.ProgramError{Code: 0x137, Message: "candy machine is empty"}
	client.QueueStatus(chain.SignatureStatus{Found: true, Commitment: chain.CommitmentProcessed, Err: perr})

	_, err := p.Confirm(context.Background(), "sig", time.Second, chain.CommitmentFinalized)

	var txErr *TransactionError
	if assert.ErrorAs(t, err, &txErr) {
		assert.Equal(t, "sig", txErr.Signature)
		assert.Equal(t, perr, txErr.Err)
	}
	assert.Equal(t, 1, client.StatusCalls(), "no polling after an observed error")
}

func TestConfirmKeepsPollingThroughTransientErrors(t *testing.T) {
	p, client := newTestPoller()
	client.QueueStatusResult(chain.SignatureStatus{}, chain.NetworkError("get signature status", errors.New("502")))
	client.QueueStatus(chain.SignatureStatus{Found: true, Commitment: chain.CommitmentFinalized})

	res, err := p.Confirm(context.Background(), "sig", time.Second, chain.CommitmentConfirmed)
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Rounds)
}

func TestConfirmTimesOut(t *testing.T) {
	p, client := newTestPoller()
	client.QueueStatus(chain.SignatureStatus{})

	start := time.Now()
	res, err := p.Confirm(context.Background(), "sig", 30*time.Millisecond, chain.CommitmentConfirmed)

	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.False(t, res.Status.Found)
	assert.Greater(t, res.Rounds, 1)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConfirmParentCancelled(t *testing.T) {
	p, client := newTestPoller()
	client.QueueStatus(chain.SignatureStatus{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Confirm(ctx, "sig", time.Minute, chain.CommitmentConfirmed)
	assert.ErrorIs(t, err, context.Canceled)
}

package app

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/chain/fake"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type testCore struct {
	clock      *testClock
	chain      *fake.Client
	wallet     *fake.Wallet
	metrics    *Metrics
	campaign   *Campaign
	reader     *StateReader
	session    *Session
	controller *Controller
}

var testEpoch = time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestCore(t *testing.T, accounts chain.CampaignAccounts, start time.Time) *testCore {
	t.Helper()

	clock := newTestClock(testEpoch)

	client := fake.NewClient(accounts)
	client.SetNow(clock.Now)

	wallet := fake.NewWallet("buyer")
	client.SetBalance("buyer", big.NewInt(5_000_000_000))

	metrics := NewMetrics()
	campaign := NewCampaign(start, clock.Now())

	reader := NewStateReader(client, campaign, "candy", 200*time.Millisecond, metrics)
	reader.now = clock.Now

	session := NewSession(client, reader, metrics)
	session.now = clock.Now

	controller := NewController(
		ControllerConfig{
			Request:    chain.MintRequest{CandyMachine: "candy", Config: "config", Treasury: "treasury"},
			TxTimeout:  500 * time.Millisecond,
			Commitment: chain.CommitmentConfirmed,
		},
		client,
		session,
		campaign,
		reader,
		NewPoller(client, time.Millisecond, metrics),
		NewClassifier(DefaultClassifierConfig()),
		metrics,
	)
	controller.now = clock.Now

	return &testCore{
		clock:      clock,
		chain:      client,
		wallet:     wallet,
		metrics:    metrics,
		campaign:   campaign,
		reader:     reader,
		session:    session,
		controller: controller,
	}
}

// connect starts the session and fails the test if it could not load.
func (c *testCore) connect(t *testing.T) {
	t.Helper()
	if err := c.session.Connect(context.Background(), c.wallet); err != nil {
		t.Fatal(err)
	}
}

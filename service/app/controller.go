package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/common"
	log "github.com/sirupsen/logrus"
)

var (
	ErrCampaignNotLoaded = errors.New("campaign state not loaded yet")
	ErrSaleNotActive     = errors.New("sale has not started yet")
	ErrSoldOut           = errors.New("campaign is sold out")
	ErrAttemptInFlight   = errors.New("a mint attempt is already in flight")
	ErrNoAttempt         = errors.New("no mint attempt to dismiss")
)

type ControllerConfig struct {
	Request    chain.MintRequest
	TxTimeout  time.Duration
	Commitment chain.Commitment
}

// Controller drives mint attempts, one at a time:
// submit, confirm, classify, then refresh campaign and balance.
type Controller struct {
	cfg        ControllerConfig
	chain      chain.Client
	session    *Session
	campaign   *Campaign
	reader     *StateReader
	poller     *Poller
	classifier *Classifier
	metrics    *Metrics
	now        func() time.Time

	mu       sync.Mutex
	inFlight bool
	latest   *Attempt

	wg sync.WaitGroup
}

func NewController(
	cfg ControllerConfig,
	chainClient chain.Client,
	session *Session,
	campaign *Campaign,
	reader *StateReader,
	poller *Poller,
	classifier *Classifier,
	metrics *Metrics,
) *Controller {
	return &Controller{
		cfg:        cfg,
		chain:      chainClient,
		session:    session,
		campaign:   campaign,
		reader:     reader,
		poller:     poller,
		classifier: classifier,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Start begins an attempt and returns right after the eligibility check.
// The attempt keeps running when ctx is cancelled.
func (c *Controller) Start(ctx context.Context) (Attempt, error) {
	attempt, wallet, err := c.begin()
	if err != nil {
		return Attempt{}, err
	}

	runCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(runCtx, attempt, wallet)
	}()

	return *attempt, nil
}

// AttemptMint runs an attempt to completion and returns its final state.
func (c *Controller) AttemptMint(ctx context.Context) (Attempt, error) {
	attempt, wallet, err := c.begin()
	if err != nil {
		return Attempt{}, err
	}

	c.wg.Add(1)
	defer c.wg.Done()

	return c.run(ctx, attempt, wallet), nil
}

// begin checks eligibility and claims the in-flight slot in one step.
func (c *Controller) begin() (*Attempt, chain.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wallet := c.session.Wallet()

	c.campaign.Tick(c.now())
	state := c.campaign.Snapshot()

	var err error
	var reason string
	switch {
	case wallet == nil:
		err, reason = chain.ErrNotConnected, "not_connected"
	case c.inFlight:
		err, reason = ErrAttemptInFlight, "in_flight"
	case !state.Loaded:
		err, reason = ErrCampaignNotLoaded, "not_loaded"
	case state.IsSoldOut:
		err, reason = ErrSoldOut, "sold_out"
	case !state.IsSaleActive:
		err, reason = ErrSaleNotActive, "not_active"
	}
	if err != nil {
		c.metrics.incRejection(reason)
		return nil, nil, err
	}

	c.inFlight = true
	attempt := newAttempt(c.now())
	c.latest = attempt

	log.WithFields(log.Fields{
		"method":  "begin",
		"attempt": attempt.ID,
		"wallet":  wallet.PublicKey(),
	}).Info("Mint attempt started")

	return attempt, wallet, nil
}

func (c *Controller) run(ctx context.Context, attempt *Attempt, wallet chain.Wallet) Attempt {
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	logger := log.WithFields(log.Fields{
		"method":  "run",
		"attempt": attempt.ID,
	})

	err := c.submitAndConfirm(ctx, attempt, wallet)

	outcome := c.classifier.Classify(err)
	if outcome == common.OutcomeSoldOut {
		c.campaign.MarkSoldOut()
	}

	c.mu.Lock()
	if ferr := attempt.SetFinished(outcome, err, c.now()); ferr != nil {
		logger.WithError(ferr).Error("Could not finish attempt")
	}
	final := *attempt
	c.mu.Unlock()

	c.metrics.incAttempt(outcome)

	entry := logger.WithFields(log.Fields{
		"outcome":   outcome.String(),
		"signature": final.Signature,
	})
	if err != nil {
		entry.WithError(err).Warn("Mint attempt failed")
	} else {
		entry.Info("Mint attempt succeeded")
	}

	c.refreshAfterAttempt(ctx, wallet)

	return final
}

// submitAndConfirm returns nil only for a transaction that reached the
// configured commitment without error.
func (c *Controller) submitAndConfirm(ctx context.Context, attempt *Attempt, wallet chain.Wallet) error {
	signature, err := c.chain.SubmitMintTransaction(ctx, c.cfg.Request, wallet)
	if err != nil {
		return err
	}

	c.mu.Lock()
	err = attempt.SetAwaitingConfirmation(signature)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = c.poller.Confirm(ctx, signature, c.cfg.TxTimeout, c.cfg.Commitment)
	return err
}

// refreshAfterAttempt re-syncs campaign and balance. Failures are only
// logged and counted, they never change the attempt outcome.
func (c *Controller) refreshAfterAttempt(ctx context.Context, wallet chain.Wallet) {
	logger := log.WithField("method", "refreshAfterAttempt")

	if err := c.session.RefreshBalance(ctx); err != nil {
		logger.WithError(err).Warn("Balance refresh failed")
	}

	if _, err := c.reader.Refresh(ctx, wallet); err != nil {
		logger.WithError(err).Warn("Campaign refresh failed")
	}
}

// Latest returns the most recent attempt, if any.
func (c *Controller) Latest() (Attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Attempt{}, false
	}
	return *c.latest, true
}

func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Dismiss clears the notification of a finished attempt.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return ErrNoAttempt
	}
	if !c.latest.Status.Terminal() {
		return ErrAttemptInFlight
	}
	c.latest = nil
	return nil
}

// Wait blocks until attempts started with Start have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

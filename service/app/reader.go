package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flow-hydraulics/mint-gate/service/chain"
	log "github.com/sirupsen/logrus"
)

var ErrInconsistentCampaign = errors.New("campaign counters are inconsistent")

const refreshInitialInterval = 100 * time.Millisecond

// StateReader loads the campaign counters from chain into the Campaign.
type StateReader struct {
	chain          chain.Client
	campaign       *Campaign
	candyMachineID string
	maxElapsed     time.Duration
	metrics        *Metrics
	now            func() time.Time
}

func NewStateReader(chainClient chain.Client, campaign *Campaign, candyMachineID string, maxElapsed time.Duration, metrics *Metrics) *StateReader {
	return &StateReader{
		chain:          chainClient,
		campaign:       campaign,
		candyMachineID: candyMachineID,
		maxElapsed:     maxElapsed,
		metrics:        metrics,
		now:            time.Now,
	}
}

// Refresh is a no-op without a wallet. Network errors are retried with
// exponential backoff; any other error fails the refresh right away and
// leaves the previous snapshot in place.
func (r *StateReader) Refresh(ctx context.Context, wallet chain.Wallet) (CampaignState, error) {
	if wallet == nil {
		return r.campaign.Snapshot(), nil
	}

	logger := log.WithFields(log.Fields{
		"method":       "Refresh",
		"candyMachine": r.candyMachineID,
	})

	var accounts chain.CampaignAccounts
	operation := func() error {
		var err error
		accounts, err = r.chain.ReadCampaignAccounts(ctx, r.candyMachineID)
		if err == nil {
			return nil
		}
		if errors.Is(err, chain.ErrNetwork) {
			logger.WithError(err).Warn("Retrying campaign read")
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = refreshInitialInterval
	b.MaxElapsedTime = r.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		r.metrics.incRefreshFailure("campaign")
		return r.campaign.Snapshot(), fmt.Errorf("refresh campaign: %w", err)
	}

	if accounts.ItemsRedeemed > accounts.ItemsAvailable {
		r.metrics.incRefreshFailure("campaign")
		return r.campaign.Snapshot(), fmt.Errorf("refresh campaign: %w: redeemed %d of %d",
			ErrInconsistentCampaign, accounts.ItemsRedeemed, accounts.ItemsAvailable)
	}

	state := r.campaign.apply(accounts, r.now())
	r.metrics.setItemsRemaining(state.ItemsRemaining)

	logger.WithFields(log.Fields{
		"itemsAvailable": state.ItemsAvailable,
		"itemsRedeemed":  state.ItemsRedeemed,
		"isSoldOut":      state.IsSoldOut,
		"isSaleActive":   state.IsSaleActive,
	}).Debug("Campaign refreshed")

	return state, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	log "github.com/sirupsen/logrus"
)

var ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

// TransactionError is returned when a transaction landed but the program
// rejected it.
type TransactionError struct {
	Signature string
	Err       *chain.ProgramError
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Signature, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Confirmation is the last status observed for a signature.
type Confirmation struct {
	Signature string
	Status    chain.SignatureStatus
	Rounds    int
}

type Poller struct {
	chain    chain.Client
	interval time.Duration
	metrics  *Metrics
}

func NewPoller(chainClient chain.Client, interval time.Duration, metrics *Metrics) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{chainClient, interval, metrics}
}

// Confirm polls the status of signature until it reaches commitment, lands
// with a program error, or timeout elapses. A timeout says nothing about
// whether the transaction will still land.
func (p *Poller) Confirm(ctx context.Context, signature string, timeout time.Duration, commitment chain.Commitment) (Confirmation, error) {
	logger := log.WithFields(log.Fields{
		"method":     "Confirm",
		"signature":  signature,
		"commitment": commitment.String(),
	})

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	res := Confirmation{Signature: signature}

	for {
		res.Rounds++
		p.metrics.incPollRound()

		status, err := p.chain.GetSignatureStatus(pollCtx, signature)
		switch {
		case err != nil:
			logger.WithError(err).Debug("Signature status not available, retrying")
		case status.Err != nil:
			res.Status = status
			logger.WithField("error", status.Err.Error()).Info("Transaction landed with an error")
			return res, &TransactionError{Signature: signature, Err: status.Err}
		case status.Found && status.Commitment.Reaches(commitment):
			res.Status = status
			logger.WithField("rounds", res.Rounds).Info("Transaction confirmed")
			return res, nil
		default:
			res.Status = status
			logger.WithFields(log.Fields{
				"found":  status.Found,
				"status": status.Commitment.String(),
			}).Trace("Transaction not yet confirmed")
		}

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.WithField("rounds", res.Rounds).Warn("Timed out waiting for confirmation")
			return res, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

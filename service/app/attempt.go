package app

import (
	"fmt"
	"time"

	"github.com/flow-hydraulics/mint-gate/service/common"
	"github.com/google/uuid"
)

// Attempt is one user initiated mint.
type Attempt struct {
	ID         uuid.UUID            `json:"id"`
	Status     common.AttemptStatus `json:"status"`
	Signature  string               `json:"signature,omitempty"`
	Outcome    common.Outcome       `json:"outcome"`
	Message    string               `json:"message,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
}

func newAttempt(now time.Time) *Attempt {
	return &Attempt{
		ID:        uuid.New(),
		Status:    common.AttemptStatusSubmitting,
		Outcome:   common.OutcomeNone,
		StartedAt: now,
	}
}

func (a *Attempt) SetAwaitingConfirmation(signature string) error {
	if a.Status != common.AttemptStatusSubmitting {
		return fmt.Errorf("attempt can not await confirmation at this state: %s", a.Status)
	}
	a.Status = common.AttemptStatusAwaitingConfirmation
	a.Signature = signature
	return nil
}

// SetFinished moves the attempt into its terminal state for outcome.
func (a *Attempt) SetFinished(outcome common.Outcome, cause error, now time.Time) error {
	if a.Status != common.AttemptStatusSubmitting && a.Status != common.AttemptStatusAwaitingConfirmation {
		return fmt.Errorf("attempt can not be finished at this state: %s", a.Status)
	}

	if outcome == common.OutcomeSuccess {
		a.Status = common.AttemptStatusSucceeded
	} else {
		a.Status = common.AttemptStatusFailed
	}
	a.Outcome = outcome
	a.Message = OutcomeMessage(outcome, cause)
	if cause != nil {
		a.Error = cause.Error()
	}
	a.FinishedAt = &now
	return nil
}

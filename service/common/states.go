package common

import "encoding/json"

type AttemptStatus uint
type Outcome uint

const (
	AttemptStatusIdle AttemptStatus = iota
	AttemptStatusSubmitting
	AttemptStatusAwaitingConfirmation
	AttemptStatusSucceeded
	AttemptStatusFailed
)

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeSoldOut
	OutcomeNotStarted
	OutcomeInsufficientFunds
	OutcomeGenericFailure
)

var attemptStatusNames = map[AttemptStatus]string{
	AttemptStatusIdle:                 "idle",
	AttemptStatusSubmitting:           "submitting",
	AttemptStatusAwaitingConfirmation: "awaiting_confirmation",
	AttemptStatusSucceeded:            "succeeded",
	AttemptStatusFailed:               "failed",
}

var outcomeNames = map[Outcome]string{
	OutcomeNone:              "none",
	OutcomeSuccess:           "success",
	OutcomeSoldOut:           "sold_out",
	OutcomeNotStarted:        "not_started",
	OutcomeInsufficientFunds: "insufficient_funds",
	OutcomeGenericFailure:    "generic_failure",
}

func (s AttemptStatus) String() string {
	if n, ok := attemptStatusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal reports whether no further transition follows s within an attempt.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusSucceeded || s == AttemptStatusFailed
}

func (s AttemptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return "unknown"
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

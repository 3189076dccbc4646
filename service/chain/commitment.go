package chain

import (
	"fmt"
	"strings"
)

// Commitment is the confidence level at which a transaction is considered settled.
type Commitment uint

const (
	CommitmentNone Commitment = iota
	CommitmentProcessed
	CommitmentConfirmed
	CommitmentFinalized
)

func (c Commitment) String() string {
	switch c {
	case CommitmentProcessed:
		return "processed"
	case CommitmentConfirmed:
		return "confirmed"
	case CommitmentFinalized:
		return "finalized"
	default:
		return "none"
	}
}

// Reaches reports whether c is at least as strong as target.
func (c Commitment) Reaches(target Commitment) bool {
	return c != CommitmentNone && c >= target
}

// ParseCommitment accepts the commitment names used by Solana RPC, including
// the deprecated aliases still found in older front ends.
func ParseCommitment(s string) (Commitment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "processed", "recent":
		return CommitmentProcessed, nil
	case "confirmed", "singlegossip", "single":
		return CommitmentConfirmed, nil
	case "finalized", "max", "root":
		return CommitmentFinalized, nil
	default:
		return CommitmentNone, fmt.Errorf("unknown commitment level '%s'", s)
	}
}

package app

import (
	"errors"
	"strings"

	"github.com/flow-hydraulics/mint-gate/service/chain"
	"github.com/flow-hydraulics/mint-gate/service/common"
)

const (
	MessageSuccess           = "Congratulations! Mint succeeded!"
	MessageSoldOut           = "SOLD OUT!"
	MessageNotStarted        = "Minting period hasn't started yet."
	MessageInsufficientFunds = "Insufficient funds to mint. Please fund your wallet."
	MessageFailed            = "Minting failed! Please try again!"
	// Used when the transaction landed but the program rejected it
	MessageTransactionFailed = "Mint failed! Please try again!"
)

// ClassifierConfig holds the program error codes and the text sentinels
// matched against errors that carry no code.
type ClassifierConfig struct {
	SoldOutCode                int
	NotStartedCode             int
	InsufficientFundsCode      int
	InsufficientFundsSentinels []string
	SoldOutSentinels           []string
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		SoldOutCode:                0x137,
		NotStartedCode:             0x138,
		InsufficientFundsCode:      0x135,
		InsufficientFundsSentinels: []string{"insufficient funds", "insufficient lamports"},
		SoldOutSentinels:           []string{"sold out"},
	}
}

// Classifier maps mint failures to outcomes. It holds no state besides its
// configuration, the same error always yields the same outcome.
type Classifier struct {
	cfg ClassifierConfig
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{cfg}
}

func (c *Classifier) Classify(err error) common.Outcome {
	if err == nil {
		return common.OutcomeSuccess
	}

	var perr *chain.ProgramError
	if errors.As(err, &perr) && perr.Code != 0 {
		switch perr.Code {
		case c.cfg.SoldOutCode:
			return common.OutcomeSoldOut
		case c.cfg.NotStartedCode:
			return common.OutcomeNotStarted
		case c.cfg.InsufficientFundsCode:
			return common.OutcomeInsufficientFunds
		}
	}

	text := strings.ToLower(err.Error())
	if containsAny(text, c.cfg.InsufficientFundsSentinels) {
		return common.OutcomeInsufficientFunds
	}
	if containsAny(text, c.cfg.SoldOutSentinels) {
		return common.OutcomeSoldOut
	}

	return common.OutcomeGenericFailure
}

func containsAny(text string, sentinels []string) bool {
	for _, s := range sentinels {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// OutcomeMessage is the user facing notification for an outcome.
func OutcomeMessage(outcome common.Outcome, err error) string {
	switch outcome {
	case common.OutcomeSuccess:
		return MessageSuccess
	case common.OutcomeSoldOut:
		return MessageSoldOut
	case common.OutcomeNotStarted:
		return MessageNotStarted
	case common.OutcomeInsufficientFunds:
		return MessageInsufficientFunds
	case common.OutcomeNone:
		return ""
	}

	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return MessageTransactionFailed
	}
	return MessageFailed
}

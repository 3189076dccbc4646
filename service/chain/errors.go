package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrNotConnected is returned when an operation needs a wallet and there is none.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrWalletRejected is returned when the wallet declined to sign.
	ErrWalletRejected = errors.New("wallet rejected the transaction")
	// ErrNetwork wraps transport failures while talking to the chain.
	ErrNetwork = errors.New("chain network error")
)

// ProgramError is an error raised by the on-chain program itself.
// Code is zero when the program did not report a numeric code.
type ProgramError struct {
	Code    int
	Message string
}

func (e *ProgramError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("program error: %s", e.Message)
	}
	return fmt.Sprintf("program error 0x%x: %s", e.Code, e.Message)
}

// NetworkError wraps err so that errors.Is(err, ErrNetwork) holds.
func NetworkError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrNetwork, err)
}

var (
	customProgramErrorRe = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	codeMarkerRe         = regexp.MustCompile(`\(code (\d+)\)`)
)

// ParseProgramError extracts a program error code from error text. It
// understands the "custom program error: 0x..." fragment printed by Solana
// simulation failures and the "(code N)" marker the Flow and EVM drop
// contracts put into their panic and revert reasons.
func ParseProgramError(text string) (*ProgramError, bool) {
	if m := customProgramErrorRe.FindStringSubmatch(text); m != nil {
		code, err := strconv.ParseInt(m[1], 16, 32)
		if err != nil {
			return nil, false
		}
		return &ProgramError{Code: int(code), Message: text}, true
	}
	if m := codeMarkerRe.FindStringSubmatch(text); m != nil {
		code, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, false
		}
		return &ProgramError{Code: code, Message: text}, true
	}
	return nil, false
}

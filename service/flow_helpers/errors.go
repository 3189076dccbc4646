package flow_helpers

import (
	"regexp"
	"strconv"
)

// Execution error codes reported by the Flow virtual machine.
const (
	InvalidProposalSeqNumberErrorCode = 1007
	CadenceRuntimeErrorCode           = 1101
)

var errorCodeRe = regexp.MustCompile(`\[Error Code: (\d+)\]`)

// ErrorCode extracts the FVM error code from a transaction error, or 0.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	m := errorCodeRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

func IsInvalidProposalSeqNumberError(err error) bool {
	return ErrorCode(err) == InvalidProposalSeqNumberErrorCode
}

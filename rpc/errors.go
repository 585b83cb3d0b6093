package rpc

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/pkg/errors"
)

// JSON-RPC 2.0 error codes, plus the code wallets decode contract revert
// reasons from.
const (
	parseErrorCode     = -32700
	invalidRequestCode = -32600
	methodNotFoundCode = -32601
	invalidParamsCode  = -32602
	serverErrorCode    = -32000
	revertErrorCode    = 3
)

// invalidParamsError rejects a call whose arguments cannot be decoded.
type invalidParamsError struct {
	message string
}

func (e *invalidParamsError) Error() string { return e.message }

// ErrorCode implements the coded error contract the dispatcher honors.
func (e *invalidParamsError) ErrorCode() int { return invalidParamsCode }

func errInvalidParams(format string, args ...interface{}) error {
	return &invalidParamsError{message: fmt.Sprintf(format, args...)}
}

// revertError carries the raw revert bytes alongside the decoded reason,
// the shape wallets expect when a contract call reverts.
type revertError struct {
	error
	reason string
}

// newRevertError decodes the revert reason of a failed execution result.
// The raw bytes travel in the error data even when the reason cannot be
// unpacked.
func newRevertError(result *core.ExecutionResult) *revertError {
	reason, errUnpack := abi.UnpackRevert(result.Revert())
	err := errors.New("execution reverted")
	if errUnpack == nil {
		err = fmt.Errorf("execution reverted: %v", reason)
	}
	return &revertError{
		error:  err,
		reason: hexutil.Encode(result.Revert()),
	}
}

// ErrorCode implements the coded error contract the dispatcher honors.
func (e *revertError) ErrorCode() int { return revertErrorCode }

// ErrorData returns the hex encoded revert bytes.
func (e *revertError) ErrorData() interface{} { return e.reason }

package discovery

import (
	"errors"
	"fmt"

	"github.com/baing/baing/internal/media"
)

var (
	ErrInvalidCount      = errors.New("count is out of range")
	ErrUndecodable       = errors.New("response is not valid JSON for the contract")
	ErrContractViolation = errors.New("response does not satisfy the contract")
)

// ResponseFormatError reports model output that could not be turned into
// items. Raw is truncated and is meant for logs, not for clients.
type ResponseFormatError struct {
	Kind media.Kind
	Raw  string
	Err  error
}

func (e *ResponseFormatError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("malformed model response: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s response: %v", e.Kind, e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// PartialBatchWarning marks a kind that failed inside a multi-kind request
// whose other kinds succeeded. It travels with the result, not as an error.
type PartialBatchWarning struct {
	Kind    media.Kind `json:"kind"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

func newPartialBatchWarning(kind media.Kind, err error) PartialBatchWarning {
	return PartialBatchWarning{Kind: kind, Message: err.Error(), Err: err}
}

func (w PartialBatchWarning) String() string {
	return fmt.Sprintf("%s recommendations unavailable: %s", w.Kind, w.Message)
}

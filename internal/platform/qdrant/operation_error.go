package qdrant

import "fmt"

type OperationErrorCode string

const (
	OperationErrorValidation        OperationErrorCode = "validation"
	OperationErrorEncodeFailed      OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed      OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed   OperationErrorCode = "transport_failed"
	OperationErrorTimeout           OperationErrorCode = "timeout"
	OperationErrorQueryFailed       OperationErrorCode = "query_failed"
	OperationErrorUnsupportedFilter OperationErrorCode = "unsupported_filter"
)

// OperationError is the typed failure surfaced by the adapter. Timeout
// and transport failures are recoverable (the owning entity is marked
// error and may be re-enqueued); validation failures are programmer
// errors.
type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "qdrant operation error"
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Operation != "" {
		msg = fmt.Sprintf("qdrant %s: %s", e.Operation, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Recoverable reports whether a retry after operator intervention could
// succeed.
func (e *OperationError) Recoverable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case OperationErrorTimeout, OperationErrorTransportFailed, OperationErrorQueryFailed:
		return true
	default:
		return false
	}
}

func opErr(op string, code OperationErrorCode, message string, cause error) *OperationError {
	return &OperationError{Code: code, Operation: op, Message: message, Cause: cause}
}

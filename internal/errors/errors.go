package errors

import "fmt"

// ErrorCode classifies a workflow error.
type ErrorCode string

const (
	ErrConfigMissing  ErrorCode = "CONFIG_MISSING"  // required setting absent; run aborts early
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // bad operation input
	ErrNotFound       ErrorCode = "NOT_FOUND"       // snapshot/file/sheet absent
	ErrExternalCall   ErrorCode = "EXTERNAL_CALL"   // mail/sheet/chat/LLM call failed
	ErrDataShape      ErrorCode = "DATA_SHAPE"      // response/row not in the expected shape
	ErrInternal       ErrorCode = "INTERNAL"
)

// WorkflowError is a structured error with a code and optional details.
type WorkflowError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigMissing reports absent required configuration keys.
func NewConfigMissing(keys []string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrConfigMissing,
		Message: fmt.Sprintf("missing required configuration: %v", keys),
		Details: map[string]any{"missing": keys},
	}
}

// NewInvalidRequest creates an error for invalid operation parameters.
func NewInvalidRequest(msg string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing resource.
func NewNotFound(identifier string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewExternalCall wraps a failed call to an external service.
func NewExternalCall(service string, err error) *WorkflowError {
	msg := "call failed"
	if err != nil {
		msg = err.Error()
	}
	return &WorkflowError{
		Code:    ErrExternalCall,
		Message: fmt.Sprintf("%s: %s", service, msg),
		Details: map[string]any{"service": service},
	}
}

// NewDataShape reports input that could not be parsed into the expected shape.
func NewDataShape(context string, err error) *WorkflowError {
	msg := "unexpected data shape"
	if err != nil {
		msg = err.Error()
	}
	return &WorkflowError{
		Code:    ErrDataShape,
		Message: fmt.Sprintf("%s: %s", context, msg),
		Details: map[string]any{"context": context},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *WorkflowError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &WorkflowError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a WorkflowError with the given code.
func Is(err error, code ErrorCode) bool {
	if wErr, ok := err.(*WorkflowError); ok {
		return wErr.Code == code
	}
	return false
}

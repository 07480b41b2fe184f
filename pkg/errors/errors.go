package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandler indicates that a nil handler was supplied to a dispatch
	ErrInvalidHandler = errors.New("invalid handler")

	// ErrNonZeroStatus indicates that a handler returned a nonzero status while halting was enabled
	ErrNonZeroStatus = errors.New("handler returned nonzero status")

	// ErrReportFailed indicates that a status could not be delivered to a reporter
	ErrReportFailed = errors.New("report failed")

	// ErrPublishFailed indicates that a status could not be published to NATS
	ErrPublishFailed = errors.New("publish failed")

	// ErrCircuitOpen indicates that the circuit breaker rejected the operation
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrScriptFailed indicates that a script handler threw or returned a non-numeric value
	ErrScriptFailed = errors.New("script failed")

	// ErrNotConnected indicates that the client is not connected to NATS
	ErrNotConnected = errors.New("not connected to NATS")
)

// Error codes carried by Error.
const (
	CodeInvalidHandler = "INVALID_HANDLER"
	CodeNonZeroStatus  = "NON_ZERO_STATUS"
	CodeReportFailed   = "REPORT_FAILED"
	CodePublishFailed  = "PUBLISH_FAILED"
	CodeCircuitOpen    = "CIRCUIT_OPEN"
	CodeScriptFailed   = "SCRIPT_FAILED"
	CodeNotConnected   = "NOT_CONNECTED"
)

var sentinels = map[string]error{
	CodeInvalidHandler: ErrInvalidHandler,
	CodeNonZeroStatus:  ErrNonZeroStatus,
	CodeReportFailed:   ErrReportFailed,
	CodePublishFailed:  ErrPublishFailed,
	CodeCircuitOpen:    ErrCircuitOpen,
	CodeScriptFailed:   ErrScriptFailed,
	CodeNotConnected:   ErrNotConnected,
}

// Error represents a structured finder error
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Item is the item being visited when the error occurred, if any
	Item string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	prefix := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Item != "" {
		prefix = fmt.Sprintf("%s (item %q)", prefix, e.Item)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel registered for this error's code
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && sentinel == target
}

// NewError creates a new structured error
func NewError(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewItemError creates a structured error tagged with the item being visited
func NewItemError(code, item, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Item:    item,
		Err:     err,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCircuitOpen checks if an error is a circuit breaker rejection
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsNonZeroStatus checks if an error was caused by a halting nonzero status
func IsNonZeroStatus(err error) bool {
	return errors.Is(err, ErrNonZeroStatus)
}

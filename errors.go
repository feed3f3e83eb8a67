package toolrun

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrTimeout      = errors.New("tool execution timeout")
	ErrValidation   = errors.New("validation failed")
	ErrShutdown     = errors.New("registry is shutting down")
)

// FieldError describes a single argument problem in a form the model can act
// on: where it happened, what kind of problem, and a short message. No
// internal detail (stack traces, documentation URLs) is ever included.
type FieldError struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds used by the argument decoder.
const (
	KindJSONInvalid    = "json_invalid"
	KindTypeMismatch   = "type_mismatch"
	KindSchemaMismatch = "schema_mismatch"
	KindValueError     = "value_error"
)

// ValidationError is a recoverable decode/validation failure. While the tool's
// retry budget lasts it is converted into a RetryPrompt carrying Errors; it
// never reaches the end user. Wraps ErrValidation for errors.Is.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid tool arguments"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.Path != "" {
			msgs[i] = fe.Path + ": " + fe.Message
		} else {
			msgs[i] = fe.Message
		}
	}
	return "invalid tool arguments: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RetryRequest is returned (or wrapped) by a tool function to signal that its
// failure is a correctable model error, not a bug: the message is sent back to
// the model as a RetryPrompt while the retry budget lasts. Any other error
// from a tool function is fatal and propagates unchanged.
type RetryRequest struct {
	Message string
}

func (e *RetryRequest) Error() string { return "tool requested retry: " + e.Message }

// Retryf builds a RetryRequest with a formatted message.
func Retryf(format string, args ...any) error {
	return &RetryRequest{Message: fmt.Sprintf(format, args...)}
}

// RetriesExhaustedError is the fatal error raised the moment an otherwise
// recoverable failure would push a tool's retry counter past its bound. It
// aborts the run; it is never converted into a RetryPrompt.
type RetriesExhaustedError struct {
	ToolName   string
	MaxRetries int
	Err        error // the recoverable failure that broke the budget
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("tool %q exceeded max retries count of %d", e.ToolName, e.MaxRetries)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRecoverable reports whether err is one of the two failure kinds the
// pipeline converts into a RetryPrompt: argument validation failure or an
// explicit retry request from the tool.
func IsRecoverable(err error) bool {
	var ve *ValidationError
	var rr *RetryRequest
	return errors.As(err, &ve) || errors.As(err, &rr)
}

// IsRetriesExhausted returns true if err is or wraps a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	var re *RetriesExhaustedError
	return errors.As(err, &re)
}

// panicError carries a recovered panic value through the error path.
type panicError struct {
	p any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("tool panicked: %v", e.p)
}

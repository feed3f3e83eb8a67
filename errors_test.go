package toolrun

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    *ValidationError
		expect string
	}{
		{"no fields", &ValidationError{}, "invalid tool arguments"},
		{
			"single field",
			&ValidationError{Errors: []FieldError{{Path: "a", Kind: KindTypeMismatch, Message: "want int"}}},
			"invalid tool arguments: a: want int",
		},
		{
			"multiple fields",
			&ValidationError{Errors: []FieldError{
				{Path: "a", Message: "want int"},
				{Kind: KindSchemaMismatch, Message: "additional property"},
			}},
			"invalid tool arguments: a: want int; additional property",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.err.Error())
		})
	}
}

func TestValidationError_WrapsSentinel(t *testing.T) {
	t.Parallel()
	err := &ValidationError{Errors: []FieldError{{Message: "x"}}}
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRetryRequest(t *testing.T) {
	t.Parallel()
	err := Retryf("x must be %s", "positive")
	var rr *RetryRequest
	require.ErrorAs(t, err, &rr)
	assert.Equal(t, "x must be positive", rr.Message)
	assert.Equal(t, "tool requested retry: x must be positive", rr.Error())
}

func TestRetriesExhaustedError(t *testing.T) {
	t.Parallel()
	cause := &RetryRequest{Message: "again"}
	err := &RetriesExhaustedError{ToolName: "add", MaxRetries: 2, Err: cause}
	assert.Equal(t, `tool "add" exceeded max retries count of 2`, err.Error())
	assert.Same(t, cause, errors.Unwrap(err).(*RetryRequest))
}

func TestIsRecoverable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"validation", &ValidationError{}, true},
		{"retry request", &RetryRequest{Message: "x"}, true},
		{"wrapped retry request", wrapErr{err: &RetryRequest{Message: "x"}}, true},
		{"exhausted", &RetriesExhaustedError{ToolName: "t", MaxRetries: 1}, false},
		{"plain", errors.New("boom"), false},
		{"sentinel", ErrToolNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsRecoverable(tt.err))
		})
	}
}

func TestIsValidationError(t *testing.T) {
	t.Parallel()
	require.True(t, IsValidationError(&ValidationError{}))
	require.True(t, IsValidationError(wrapErr{err: &ValidationError{}}))
	require.False(t, IsValidationError(&RetryRequest{Message: "x"}))
	require.False(t, IsValidationError(ErrValidation))
}

func TestIsRetriesExhausted(t *testing.T) {
	t.Parallel()
	require.True(t, IsRetriesExhausted(&RetriesExhaustedError{ToolName: "t", MaxRetries: 1}))
	require.True(t, IsRetriesExhausted(wrapErr{err: &RetriesExhaustedError{ToolName: "t", MaxRetries: 1}}))
	require.False(t, IsRetriesExhausted(&ValidationError{}))
}

type wrapErr struct {
	err error
}

func (e wrapErr) Error() string {
	if e.err == nil {
		return ""
	}
	return "wrap: " + e.err.Error()
}
func (e wrapErr) Unwrap() error { return e.err }

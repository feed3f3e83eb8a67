package toolrun

import (
	"encoding/json"
	"fmt"
)

// ToolCall is a single invocation request as produced by the LLM.
// Arguments arrive in one of two shapes: Args holds the raw JSON text of the
// arguments, ArgsMap holds arguments the provider already decoded into a map.
// When ArgsMap is non-nil it takes precedence over Args. Empty or absent
// arguments in either shape decode as an empty object.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage
	ArgsMap  map[string]any
}

// argsJSON renders the call arguments as JSON text for tracing.
func (c ToolCall) argsJSON() string {
	if c.ArgsMap != nil {
		b, err := json.Marshal(c.ArgsMap)
		if err != nil {
			return fmt.Sprintf("%v", c.ArgsMap)
		}
		return string(b)
	}
	if len(c.Args) == 0 {
		return "{}"
	}
	return string(c.Args)
}

// Message is the outcome of one invocation attempt: either a *ToolReturn
// (success) or a *RetryPrompt (recoverable failure the model should correct).
// The two are mutually exclusive; fatal failures are returned as errors, not
// messages.
type Message interface {
	// ModelResponse renders the content that goes back to the model.
	ModelResponse() string

	message()
}

// ToolReturn carries the result of a successful tool invocation.
type ToolReturn struct {
	ToolName   string
	ToolCallID string
	Content    json.RawMessage
}

func (*ToolReturn) message() {}

// ModelResponse returns the result JSON as text.
func (r *ToolReturn) ModelResponse() string { return string(r.Content) }

// RetryPrompt asks the model to correct and re-issue a tool call. Exactly one
// of FieldErrors (argument validation failure) or Message (the tool requested
// a retry) is set.
type RetryPrompt struct {
	ToolName    string
	ToolCallID  string
	FieldErrors []FieldError
	Message     string
}

func (*RetryPrompt) message() {}

// ModelResponse renders the corrective guidance shown to the model: the field
// errors as JSON, or the tool's own message, followed by an instruction to fix
// the call and try again.
func (p *RetryPrompt) ModelResponse() string {
	description := p.Message
	if len(p.FieldErrors) > 0 {
		if b, err := json.Marshal(p.FieldErrors); err == nil {
			description = string(b)
		}
	}
	return description + "\n\nFix the errors and try again."
}

var (
	_ Message = (*ToolReturn)(nil)
	_ Message = (*RetryPrompt)(nil)
)

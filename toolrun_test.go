package toolrun

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func raw(s string) json.RawMessage { return []byte(s) }

func TestToolCall_ArgsJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		call   ToolCall
		expect string
	}{
		{"textual", ToolCall{Args: raw(`{"x": 1}`)}, `{"x": 1}`},
		{"empty", ToolCall{}, `{}`},
		{"structured", ToolCall{ArgsMap: map[string]any{"x": 1}}, `{"x":1}`},
		{"structured wins", ToolCall{Args: raw(`{"y": 2}`), ArgsMap: map[string]any{"x": 1}}, `{"x":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.expect, tt.call.argsJSON())
		})
	}
}

func TestToolReturn_ModelResponse(t *testing.T) {
	t.Parallel()
	ret := &ToolReturn{ToolName: "weather", ToolCallID: "1", Content: raw(`{"temp": 22.5}`)}
	assert.JSONEq(t, `{"temp": 22.5}`, ret.ModelResponse())
}

func TestRetryPrompt_ModelResponse_Message(t *testing.T) {
	t.Parallel()
	prompt := &RetryPrompt{ToolName: "sqrt", ToolCallID: "1", Message: "x must be positive"}
	assert.Equal(t, "x must be positive\n\nFix the errors and try again.", prompt.ModelResponse())
}

func TestRetryPrompt_ModelResponse_FieldErrors(t *testing.T) {
	t.Parallel()
	prompt := &RetryPrompt{
		ToolName:   "add",
		ToolCallID: "1",
		FieldErrors: []FieldError{
			{Path: "a", Kind: KindTypeMismatch, Message: "cannot decode string into int"},
		},
	}
	rendered := prompt.ModelResponse()
	assert.Contains(t, rendered, `"path":"a"`)
	assert.Contains(t, rendered, KindTypeMismatch)
	assert.Contains(t, rendered, "Fix the errors and try again.")

	var errs []FieldError
	jsonPart, _, found := cutSuffix(rendered)
	require.True(t, found)
	require.NoError(t, json.Unmarshal([]byte(jsonPart), &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "a", errs[0].Path)
}

// cutSuffix splits the rendered prompt into content and the fixed instruction.
func cutSuffix(rendered string) (content, suffix string, found bool) {
	const instruction = "\n\nFix the errors and try again."
	if len(rendered) < len(instruction) {
		return "", "", false
	}
	head := rendered[:len(rendered)-len(instruction)]
	tail := rendered[len(rendered)-len(instruction):]
	return head, tail, tail == instruction
}

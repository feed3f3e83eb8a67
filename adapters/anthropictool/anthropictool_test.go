package anthropictool

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/toolrun"
)

func TestDefinitions(t *testing.T) {
	t.Parallel()
	defs := []toolrun.ToolDefinition{
		{
			Name:        "add",
			Description: "Add two numbers",
			ParametersSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "integer"},
					"b": map[string]any{"type": "integer"},
				},
				"required": []any{"a", "b"},
			},
		},
	}

	params := Definitions(defs)
	require.Len(t, params, 1)
	tool := params[0].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "add", tool.Name)
	assert.Equal(t, "Add two numbers", tool.Description.Value)
	assert.Equal(t, []string{"a", "b"}, tool.InputSchema.Required)

	props, ok := tool.InputSchema.Properties.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
}

func TestRequiredNames(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		input  any
		expect []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"any slice with junk", []any{"a", 7}, []string{"a"}},
		{"unexpected shape", "a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, requiredNames(tt.input))
		})
	}
}

func TestCall(t *testing.T) {
	t.Parallel()
	call := Call(anthropic.ToolUseBlock{
		ID:    "toolu_1",
		Name:  "add",
		Input: json.RawMessage(`{"a": 1, "b": 2}`),
	})
	assert.Equal(t, "toolu_1", call.ID)
	assert.Equal(t, "add", call.ToolName)
	assert.JSONEq(t, `{"a": 1, "b": 2}`, string(call.Args))
}

func TestResultBlock(t *testing.T) {
	t.Parallel()
	ret := ResultBlock(&toolrun.ToolReturn{
		ToolName: "add", ToolCallID: "toolu_1", Content: json.RawMessage(`{"sum": 3}`),
	})
	require.NotNil(t, ret.OfToolResult)
	assert.Equal(t, "toolu_1", ret.OfToolResult.ToolUseID)
	assert.False(t, ret.OfToolResult.IsError.Value)

	retry := ResultBlock(&toolrun.RetryPrompt{
		ToolName: "add", ToolCallID: "toolu_1", Message: "a must be positive",
	})
	require.NotNil(t, retry.OfToolResult)
	assert.True(t, retry.OfToolResult.IsError.Value, "retry prompts are flagged as errors")
}

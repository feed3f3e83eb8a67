// Package openaitool converts toolrun definitions, calls, and results to and
// from the OpenAI Chat Completions tool-calling shapes.
package openaitool

import (
	"encoding/json"

	"github.com/openai/openai-go"

	"github.com/skosovsky/toolrun"
)

// Definitions converts prepared tool definitions to OpenAI tool params.
// The Strict tri-state maps directly onto the OpenAI strict field; nil leaves
// it unset so the API infers it.
func Definitions(defs []toolrun.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		fn := openai.FunctionDefinitionParam{
			Name:       def.Name,
			Parameters: openai.FunctionParameters(def.ParametersSchema),
		}
		if def.Description != "" {
			fn.Description = openai.String(def.Description)
		}
		if def.Strict != nil {
			fn.Strict = openai.Bool(*def.Strict)
		}
		out[i] = openai.ChatCompletionToolParam{
			Type:     "function",
			Function: fn,
		}
	}
	return out
}

// Call converts an OpenAI tool call into the pipeline's call message. The
// arguments stay on the textual path; decoding happens inside the pipeline.
func Call(tc openai.ChatCompletionMessageToolCall) toolrun.ToolCall {
	return toolrun.ToolCall{
		ID:       tc.ID,
		ToolName: tc.Function.Name,
		Args:     json.RawMessage(tc.Function.Arguments),
	}
}

// ResultMessage converts a pipeline outcome into the tool message appended to
// the conversation. Retry prompts ride the same channel as returns; only
// their content differs.
func ResultMessage(msg toolrun.Message) openai.ChatCompletionMessageParamUnion {
	switch m := msg.(type) {
	case *toolrun.ToolReturn:
		return openai.ToolMessage(m.ModelResponse(), m.ToolCallID)
	case *toolrun.RetryPrompt:
		return openai.ToolMessage(m.ModelResponse(), m.ToolCallID)
	default:
		return openai.ChatCompletionMessageParamUnion{}
	}
}

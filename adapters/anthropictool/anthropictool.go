// Package anthropictool converts toolrun definitions, calls, and results to
// and from the Anthropic Messages API tool-calling shapes.
package anthropictool

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/skosovsky/toolrun"
)

// Definitions converts prepared tool definitions to Anthropic tool params.
// Anthropic has no strict flag; the Strict tri-state is ignored here.
func Definitions(defs []toolrun.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if props, ok := def.ParametersSchema["properties"]; ok {
			schema.Properties = props
		}
		if req, ok := def.ParametersSchema["required"]; ok {
			schema.Required = requiredNames(req)
		}
		tool := anthropic.ToolUnionParamOfTool(schema, def.Name)
		if def.Description != "" && tool.OfTool != nil {
			tool.OfTool.Description = anthropic.String(def.Description)
		}
		out[i] = tool
	}
	return out
}

// requiredNames normalizes the schema's required list, which may be []string
// or []any depending on how the schema map was built.
func requiredNames(required any) []string {
	switch req := required.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Call converts a tool_use content block into the pipeline's call message.
func Call(block anthropic.ToolUseBlock) toolrun.ToolCall {
	return toolrun.ToolCall{
		ID:       block.ID,
		ToolName: block.Name,
		Args:     json.RawMessage(block.Input),
	}
}

// ResultBlock converts a pipeline outcome into the tool_result content block
// for the next user message. Retry prompts are flagged as errors so the model
// treats the content as corrective guidance.
func ResultBlock(msg toolrun.Message) anthropic.ContentBlockParamUnion {
	switch m := msg.(type) {
	case *toolrun.ToolReturn:
		return anthropic.NewToolResultBlock(m.ToolCallID, m.ModelResponse(), false)
	case *toolrun.RetryPrompt:
		return anthropic.NewToolResultBlock(m.ToolCallID, m.ModelResponse(), true)
	default:
		return anthropic.ContentBlockParamUnion{}
	}
}

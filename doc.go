// Package toolrun implements the tool invocation pipeline for LLM agents:
// a named, schema-described function is prepared for one model step, receives
// untrusted structured arguments, is invoked, and has its failures converted
// into a bounded sequence of model-visible retry prompts instead of
// uncontrolled errors.
//
// # Overview
//
// LLMs produce tool calls as JSON. This package turns that JSON into concrete
// Go function calls: decode and validate against the same JSON Schema shown to
// the model, dispatch to the function, then either return the marshaled result
// or hand the model corrective guidance. Two failure kinds are recoverable and
// become RetryPrompt messages while the tool's retry budget lasts: argument
// validation failures and explicit RetryRequest errors from the function
// itself. Everything else is fatal and propagates; once the budget is
// exhausted the pipeline raises RetriesExhaustedError exactly once.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) →
// Tool → PrepareDefinition (per step, hooks may rewrite or omit) → Execute
// (decode, validate, invoke, classify) → ToolReturn or RetryPrompt.
//
// # Key concepts
//
//   - Single Source of Truth: one set of struct tags drives both the schema
//     sent to the model and the validation of incoming JSON.
//   - Self-Correction: RetryPrompt carries field-level errors or the tool's
//     own message back to the model; the end user never sees them.
//   - Retry budget: the counter lives on the Tool and resets on any success;
//     runs that must not share history clone the tool.
//   - Tracing: every attempt runs inside an OpenTelemetry span; span emission
//     never alters control flow.
//
// # Example
//
//	type Args struct { City string `json:"city"` }
//	type Out  struct { Temp float64 `json:"temp"` }
//	tool, err := toolrun.NewTool("weather", "Get weather", func(_ context.Context, a Args) (Out, error) {
//	    return Out{Temp: 22.5}, nil
//	})
//	if err != nil { ... }
//	reg := toolrun.NewRegistry(toolrun.WithDefaultMaxRetries(2))
//	reg.Register(tool)
//	msg, err := reg.Execute(ctx, toolrun.ToolCall{ID: "1", ToolName: "weather", Args: []byte(`{"city":"Moscow"}`)}, nil)
package toolrun

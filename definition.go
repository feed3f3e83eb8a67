package toolrun

import (
	"context"
	"maps"
)

// ToolDefinition is the per-step snapshot of a tool exposed to the model. A
// fresh definition is built from the Tool's current attributes on every step
// and never mutated afterwards, so changes to the Tool only become visible on
// the next step.
type ToolDefinition struct {
	// Name of the tool.
	Name string
	// ParametersSchema is the object-shaped JSON Schema for the arguments.
	ParametersSchema map[string]any
	// Description of the tool, may be empty.
	Description string
	// OuterKey is set only when the definition wraps a non-object argument
	// schema under a synthetic object key.
	OuterKey string
	// Strict requests vendor-specific strict schema validation. nil leaves
	// the choice to the provider adapter.
	Strict *bool
}

// clone returns a copy safe to hand to a prepare hook; the schema map is
// cloned at the top level only.
func (d *ToolDefinition) clone() *ToolDefinition {
	out := *d
	out.ParametersSchema = maps.Clone(d.ParametersSchema)
	return &out
}

// PrepareFunc customizes (or suppresses) one tool's definition for the
// current step. Returning nil with a nil error omits the tool from the step:
// it is not offered to the model and must not be invoked. A returned error is
// fatal for the run; prepare hooks are caller-authored setup logic, not
// model-facing failure.
type PrepareFunc func(ctx context.Context, rc *RunContext, def *ToolDefinition) (*ToolDefinition, error)

// ToolsPrepareFunc customizes the whole toolset for a step: it receives every
// prepared definition and returns the (possibly filtered or rewritten) list to
// offer. Returning nil offers no tools this step. Same fatal-error rule as
// PrepareFunc.
type ToolsPrepareFunc func(ctx context.Context, rc *RunContext, defs []ToolDefinition) ([]ToolDefinition, error)

package toolrun

// RunContext is the ambient per-call data handed to context-taking tool
// functions. The caller builds a base RunContext once per run (usually only
// Deps is set); the pipeline derives a fresh copy per call with Retry,
// ToolName, and ToolCallID filled in. The base is never mutated or retained.
type RunContext struct {
	// Deps carries caller-supplied dependencies (DB handles, API clients, ...).
	Deps any
	// Retry is the tool's retry counter as observed before this attempt.
	Retry int
	// ToolName is the name from the current call message.
	ToolName string
	// ToolCallID is the identifier of the current call message.
	ToolCallID string
}

// derive returns a per-call copy of rc. A nil receiver derives from a zero
// base context.
func (rc *RunContext) derive(retry int, toolName, toolCallID string) *RunContext {
	out := RunContext{}
	if rc != nil {
		out = *rc
	}
	out.Retry = retry
	out.ToolName = toolName
	out.ToolCallID = toolCallID
	return &out
}

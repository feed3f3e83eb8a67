package toolrun

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Tool binds one callable to its schema and retry state. It is the long-lived
// entity of the pipeline: created once at registration, its retry counter
// mutates across the steps of a run, and it is destroyed with the owning run.
// Runs that must not share retry history need their own copy (see Clone).
//
// The retry counter is guarded by a mutex, so concurrent calls against one
// Tool are safe, but they still share a single budget; callers that want
// per-call budgets must serialize or clone.
type Tool struct {
	name        string
	description string
	schema      *FunctionSchema
	opts        toolOptions

	retryMu      sync.Mutex
	currentRetry int
}

// NewTool builds a Tool from a typed function that does not need the run
// context. Schema generation and validation are delegated to Extractor[T].
// Returns an error if schema generation fails (e.g. unsupported type).
func NewTool[T, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (*Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	schema, err := newPlainSchema[T, R](o.strict != nil && *o.strict, fn)
	if err != nil {
		return nil, err
	}
	return &Tool{name: name, description: description, schema: schema, opts: o}, nil
}

// NewContextTool builds a Tool from a typed function that receives the derived
// RunContext (retry count, tool name, call id, caller deps) as its second
// argument.
func NewContextTool[T, R any](
	name, description string,
	fn func(ctx context.Context, rc *RunContext, args T) (R, error),
	opts ...ToolOption,
) (*Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	schema, err := newContextSchema[T, R](o.strict != nil && *o.strict, fn)
	if err != nil {
		return nil, err
	}
	return &Tool{name: name, description: description, schema: schema, opts: o}, nil
}

// NewDynamicTool builds a Tool from a raw JSON Schema map and a handler that
// receives validated raw JSON. Useful for runtime API integration (OpenAPI,
// MCP, remote toolsets). The provided map is deep-copied, never mutated.
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, rc *RunContext, argsJSON json.RawMessage) (json.RawMessage, error),
	opts ...ToolOption,
) (*Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	schema, err := newDynamicSchema(schemaMap, o.strict != nil && *o.strict, fn)
	if err != nil {
		return nil, err
	}
	return &Tool{name: name, description: description, schema: schema, opts: o}, nil
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Description returns the tool description.
func (t *Tool) Description() string { return t.description }

// Parameters returns a shallow copy of the parameters JSON Schema.
// Nested maps are shared; callers must not mutate them.
func (t *Tool) Parameters() map[string]any { return maps.Clone(t.schema.JSONSchema) }

// TakesContext reports whether the underlying function receives a RunContext.
func (t *Tool) TakesContext() bool { return t.schema.TakesContext }

// CurrentRetry returns a snapshot of the retry counter.
func (t *Tool) CurrentRetry() int {
	t.retryMu.Lock()
	defer t.retryMu.Unlock()
	return t.currentRetry
}

// Clone returns a copy of the tool with a fresh retry counter. The schema and
// options are shared; use it to give each run an independent retry history.
func (t *Tool) Clone() *Tool {
	return &Tool{
		name:        t.name,
		description: t.description,
		schema:      t.schema,
		opts:        t.opts,
	}
}

// PrepareDefinition builds this step's ToolDefinition from the tool's current
// attributes and passes it through the prepare hook when one is set. A nil
// definition with a nil error means the tool is omitted from the step: it must
// not be offered to the model or invoked. Hook errors are fatal and propagate.
func (t *Tool) PrepareDefinition(ctx context.Context, rc *RunContext) (*ToolDefinition, error) {
	def := &ToolDefinition{
		Name:             t.name,
		ParametersSchema: maps.Clone(t.schema.JSONSchema),
		Description:      t.description,
		OuterKey:         t.schema.OuterKey,
		Strict:           t.opts.strict,
	}
	if t.opts.prepare != nil {
		return t.opts.prepare(ctx, rc, def)
	}
	return def, nil
}

// Execute runs one invocation attempt: decode the arguments, dispatch to the
// function, and classify the outcome. It returns a *ToolReturn on success, a
// *RetryPrompt for a recoverable failure within the retry budget, and an error
// for everything fatal (exhausted retries, function failure, hook failure).
//
// base carries caller dependencies for context-taking tools; nil is treated as
// an empty base context.
func (t *Tool) Execute(ctx context.Context, call ToolCall, base *RunContext) (Message, error) {
	return t.execute(ctx, call, base, execConfig{
		maxRetries:     DefaultMaxRetries,
		tracer:         t.opts.tracer,
		includeContent: t.opts.includeContent,
	})
}

// execConfig carries caller-level defaults into one attempt; per-tool options
// win over these.
type execConfig struct {
	maxRetries     int
	tracer         trace.Tracer
	includeContent bool
}

func (t *Tool) execute(ctx context.Context, call ToolCall, base *RunContext, cfg execConfig) (msg Message, err error) {
	if call.ToolName == "" {
		call.ToolName = t.name
	}

	ctx, span := startInvocationSpan(ctx, cfg, call)
	defer span.End()

	args, decodeErr := t.schema.decode(call)
	if decodeErr != nil {
		var ve *ValidationError
		if errors.As(decodeErr, &ve) {
			msg, err = t.onRecoverable(call, ve, cfg)
			finishInvocationSpan(span, cfg, msg, err)
			return msg, err
		}
		finishInvocationSpan(span, cfg, nil, decodeErr)
		return nil, decodeErr
	}

	rc := base.derive(t.CurrentRetry(), call.ToolName, call.ID)
	content, callErr := t.schema.invoke(ctx, rc, args)
	if callErr != nil {
		var rr *RetryRequest
		if errors.As(callErr, &rr) {
			msg, err = t.onRecoverable(call, rr, cfg)
			finishInvocationSpan(span, cfg, msg, err)
			return msg, err
		}
		finishInvocationSpan(span, cfg, nil, callErr)
		return nil, callErr
	}

	// A single success clears all accumulated retry history.
	t.retryMu.Lock()
	t.currentRetry = 0
	t.retryMu.Unlock()

	msg = &ToolReturn{ToolName: call.ToolName, ToolCallID: call.ID, Content: content}
	finishInvocationSpan(span, cfg, msg, nil)
	return msg, nil
}

// onRecoverable is the retry governor: the single place where a recoverable
// failure either becomes a RetryPrompt or, once the budget is exhausted, the
// fatal RetriesExhaustedError.
func (t *Tool) onRecoverable(call ToolCall, cause error, cfg execConfig) (Message, error) {
	t.retryMu.Lock()
	t.currentRetry++
	n := t.currentRetry
	t.retryMu.Unlock()

	max := cfg.maxRetries
	if t.opts.maxRetries != nil {
		max = *t.opts.maxRetries
	}
	if n > max {
		return nil, &RetriesExhaustedError{ToolName: t.name, MaxRetries: max, Err: cause}
	}

	prompt := &RetryPrompt{ToolName: call.ToolName, ToolCallID: call.ID}
	var ve *ValidationError
	var rr *RetryRequest
	switch {
	case errors.As(cause, &ve):
		prompt.FieldErrors = ve.Errors
	case errors.As(cause, &rr):
		prompt.Message = rr.Message
	}
	return prompt, nil
}

package toolrun

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRetries is the retry budget used when neither the tool nor the
// registry configures one.
const DefaultMaxRetries = 1

// toolOptions hold optional per-tool settings.
type toolOptions struct {
	maxRetries     *int
	strict         *bool
	prepare        PrepareFunc
	tracer         trace.Tracer
	includeContent bool
	timeout        time.Duration
}

// ToolOption configures a tool (e.g. WithStrict, WithMaxRetries).
type ToolOption func(*toolOptions)

// WithMaxRetries sets this tool's retry budget, overriding the caller default.
// A budget of k means the first k recoverable failures produce retry prompts
// and the (k+1)-th is fatal.
func WithMaxRetries(n int) ToolOption {
	return func(o *toolOptions) {
		o.maxRetries = &n
	}
}

// WithStrict pins the strict tri-state for the tool's definition. true also
// rewrites the generated schema to the strict shape (additionalProperties:
// false, all properties required). Leaving the option off lets provider
// adapters infer strictness from the schema.
func WithStrict(strict bool) ToolOption {
	return func(o *toolOptions) {
		o.strict = &strict
	}
}

// WithPrepare sets the per-tool definition hook run every step.
func WithPrepare(fn PrepareFunc) ToolOption {
	return func(o *toolOptions) {
		o.prepare = fn
	}
}

// WithTracer sets the tracer used to span each invocation attempt of this
// tool. Without it the tool uses the registry default, or a no-op tracer.
func WithTracer(tracer trace.Tracer) ToolOption {
	return func(o *toolOptions) {
		o.tracer = tracer
	}
}

// WithIncludeContent records serialized arguments and responses on invocation
// spans. Off by default: argument payloads may carry user data.
func WithIncludeContent() ToolOption {
	return func(o *toolOptions) {
		o.includeContent = true
	}
}

// WithTimeout sets a per-tool execution timeout applied by the registry,
// overriding its default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	defaultMaxRetries int
	timeout           time.Duration
	maxConcurrency    int
	recoverPanics     bool
	prepareTools      ToolsPrepareFunc
	tracer            trace.Tracer
	includeContent    bool
	onBefore          func(context.Context, ToolCall)
	onAfter           func(context.Context, ToolCall, Message, error, time.Duration)
}

// WithDefaultMaxRetries sets the retry budget for tools that do not carry
// their own WithMaxRetries bound.
func WithDefaultMaxRetries(n int) RegistryOption {
	return func(o *registryOptions) {
		o.defaultMaxRetries = n
	}
}

// WithDefaultTimeout sets the default execution timeout for tools.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithMaxConcurrency limits concurrent tool executions (semaphore).
// Pass 0 or negative to disable the semaphore (unlimited concurrency).
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) {
		o.maxConcurrency = n
	}
}

// WithRecoverPanics enables panic recovery in Execute (a recovered panic is
// returned as a fatal error).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithPrepareTools sets the toolset-wide definition hook run once per step
// over all prepared definitions.
func WithPrepareTools(fn ToolsPrepareFunc) RegistryOption {
	return func(o *registryOptions) {
		o.prepareTools = fn
	}
}

// WithDefaultTracer sets the tracer used for tools that do not carry their
// own WithTracer. Named with "Default" to avoid collision with the ToolOption.
func WithDefaultTracer(tracer trace.Tracer) RegistryOption {
	return func(o *registryOptions) {
		o.tracer = tracer
	}
}

// WithContentCapture records serialized arguments and responses on invocation
// spans for every tool executed through the registry.
func WithContentCapture() RegistryOption {
	return func(o *registryOptions) {
		o.includeContent = true
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution with the
// outcome message (nil on fatal failure), the error, and the duration.
func WithOnAfterExecute(fn func(context.Context, ToolCall, Message, error, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}

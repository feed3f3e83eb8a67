package toolrun

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the tools offered to a model and runs their calls with
// timeout, semaphore, optional panic recovery, and the middleware chain. It
// also builds the per-step definition list, applying per-tool and
// toolset-wide prepare hooks.
type Registry struct {
	tools       map[string]*Tool
	sem         chan struct{}
	opts        registryOptions
	done        chan struct{}
	running     sync.WaitGroup
	mu          sync.Mutex
	middlewares []Middleware
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		defaultMaxRetries: DefaultMaxRetries,
		timeout:           5 * time.Second,
		maxConcurrency:    10,
		recoverPanics:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	var sem chan struct{}
	if o.maxConcurrency > 0 {
		sem = make(chan struct{}, o.maxConcurrency)
	}
	return &Registry{
		tools: make(map[string]*Tool),
		sem:   sem,
		opts:  o,
		done:  make(chan struct{}),
	}
}

// Register adds a tool. If a tool with the same name already exists it is
// replaced. Safe for concurrent use with Execute and other Register calls.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// GetTool returns the tool with the given name, or (nil, false) if not found.
func (r *Registry) GetTool(name string) (*Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[name]
	return t, ok
}

// GetAllTools returns all registered tools sorted by name for deterministic
// order.
func (r *Registry) GetAllTools() []*Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Use stores the middleware chain applied around every Execute (onion order:
// first middleware is outermost). Calling Use again replaces the chain.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
}

// Definitions builds this step's tool definitions: each tool's
// PrepareDefinition runs first (hooks may rewrite or omit single tools), then
// the toolset-wide prepare hook sees the whole list. The returned definitions
// are the only tools the caller may offer to the model this step. Hook errors
// are fatal.
func (r *Registry) Definitions(ctx context.Context, rc *RunContext) ([]ToolDefinition, error) {
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, t := range r.GetAllTools() {
		def, err := t.PrepareDefinition(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("prepare tool %q: %w", t.Name(), err)
		}
		if def == nil {
			continue
		}
		defs = append(defs, *def)
	}
	if r.opts.prepareTools != nil {
		return r.opts.prepareTools(ctx, rc, defs)
	}
	return defs, nil
}

// Execute runs one tool call through the pipeline and returns the resulting
// message (ToolReturn or RetryPrompt). Fatal failures (unknown tool,
// exhausted retries, tool function errors) come back as errors. A call with
// an empty ID is assigned a fresh one.
func (r *Registry) Execute(ctx context.Context, call ToolCall, rc *RunContext) (msg Message, err error) {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil, ErrShutdown
	default:
	}
	tool, ok := r.tools[call.ToolName]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%q: %w", call.ToolName, ErrToolNotFound)
	}
	middlewares := r.middlewares
	r.running.Add(1)
	r.mu.Unlock()

	if err = r.acquireSemaphore(ctx); err != nil {
		r.running.Done()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer r.releaseSemaphore()
	defer r.running.Done()

	if call.ID == "" {
		call.ID = uuid.NewString()
	}

	timeout := r.opts.timeout
	if tool.opts.timeout > 0 {
		timeout = tool.opts.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	// The after-execution hook always fires with the final outcome; the panic
	// recovery defer is registered later so it runs first and fills err.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, msg, err, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				msg = nil
				err = &panicError{p: p}
			}
		}()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	exec := r.execFunc(tool)
	for i := len(middlewares) - 1; i >= 0; i-- {
		exec = middlewares[i](exec)
	}
	msg, err = exec(ctx, call, rc)
	return msg, err
}

// execFunc builds the innermost chain step for one tool, overlaying registry
// defaults with per-tool options.
func (r *Registry) execFunc(tool *Tool) ExecFunc {
	cfg := execConfig{
		maxRetries:     r.opts.defaultMaxRetries,
		tracer:         r.opts.tracer,
		includeContent: r.opts.includeContent || tool.opts.includeContent,
	}
	if tool.opts.tracer != nil {
		cfg.tracer = tool.opts.tracer
	}
	return func(ctx context.Context, call ToolCall, rc *RunContext) (Message, error) {
		return tool.execute(ctx, call, rc, cfg)
	}
}

// ExecResult pairs one call of a batch with its outcome.
type ExecResult struct {
	Call    ToolCall
	Message Message
	Err     error
}

// ExecuteBatch runs all calls in parallel and collects every outcome; one
// fatal failure does not cancel the other calls. Results keep the order of
// the input calls.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall, rc *RunContext) []ExecResult {
	results := make([]ExecResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			msg, err := r.Execute(ctx, call, rc)
			results[i] = ExecResult{Call: call, Message: msg, Err: err}
		})
	}
	wg.Wait()
	return results
}

func (r *Registry) acquireSemaphore(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) releaseSemaphore() {
	if r.sem != nil {
		<-r.sem
	}
}

// Shutdown closes the registry for new calls and waits for in-flight
// executions or ctx to cancel.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil
	default:
		close(r.done)
	}
	r.mu.Unlock()
	done := make(chan struct{})
	go func() {
		r.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package testutil provides test helpers for toolrun (canned tools, a span
// recorder, a preconfigured registry).
package testutil

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/skosovsky/toolrun"
)

// EchoArgs is the argument struct used by NewEchoTool.
type EchoArgs struct {
	Text string `json:"text"`
}

// EchoResult is the result struct used by NewEchoTool.
type EchoResult struct {
	Text string `json:"text"`
}

// NewEchoTool returns a tool that echoes its text argument back.
func NewEchoTool(name string, opts ...toolrun.ToolOption) (*toolrun.Tool, error) {
	return toolrun.NewTool(name, "Echo the text back",
		func(_ context.Context, a EchoArgs) (EchoResult, error) {
			return EchoResult{Text: a.Text}, nil
		}, opts...)
}

// NewFlakyTool returns a tool that requests a corrective retry the first
// failures times it is called and succeeds afterwards.
func NewFlakyTool(name string, failures int, message string, opts ...toolrun.ToolOption) (*toolrun.Tool, error) {
	var calls atomic.Int64
	return toolrun.NewTool(name, "Fails a fixed number of times, then echoes",
		func(_ context.Context, a EchoArgs) (EchoResult, error) {
			if calls.Add(1) <= int64(failures) {
				return EchoResult{}, toolrun.Retryf("%s", message)
			}
			return EchoResult{Text: a.Text}, nil
		}, opts...)
}

// NewSpanRecorder returns a tracer backed by an in-memory span recorder, for
// asserting on invocation spans without an exporter.
func NewSpanRecorder() (trace.Tracer, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return tp.Tracer("toolrun/testutil"), sr
}

package toolrun

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attributes follow the GenAI semantic conventions for execute-tool
// spans; tool_arguments and tool_response are recorded only under content
// capture.
const (
	invocationSpanName = "running tool"
	attrToolName       = "gen_ai.tool.name"
	attrToolCallID     = "gen_ai.tool.call.id"
	attrToolArguments  = "tool_arguments"
	attrToolResponse   = "tool_response"
)

var noopTracer = noop.NewTracerProvider().Tracer("toolrun")

// startInvocationSpan opens the span wrapping one invocation attempt. Span
// handling never feeds back into pipeline control flow; with no tracer
// configured a no-op span is used.
func startInvocationSpan(ctx context.Context, cfg execConfig, call ToolCall) (context.Context, trace.Span) {
	tracer := cfg.tracer
	if tracer == nil {
		tracer = noopTracer
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrToolName, call.ToolName),
		attribute.String(attrToolCallID, call.ID),
	}
	if cfg.includeContent {
		attrs = append(attrs, attribute.String(attrToolArguments, call.argsJSON()))
	}
	return tracer.Start(ctx, invocationSpanName, trace.WithAttributes(attrs...))
}

// finishInvocationSpan records the attempt outcome. The caller still owns the
// span.End(), which runs on every exit path.
func finishInvocationSpan(span trace.Span, cfg execConfig, msg Message, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if cfg.includeContent && msg != nil && span.IsRecording() {
		span.SetAttributes(attribute.String(attrToolResponse, msg.ModelResponse()))
	}
}

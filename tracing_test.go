package toolrun_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/skosovsky/toolrun"
	"github.com/skosovsky/toolrun/testutil"
)

func findAttr(t *testing.T, span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	t.Helper()
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInvocationSpan(t *testing.T) {
	t.Parallel()
	tracer, recorder := testutil.NewSpanRecorder()
	tool, err := testutil.NewEchoTool("echo", toolrun.WithTracer(tracer))
	require.NoError(t, err)

	msg, err := tool.Execute(context.Background(), toolrun.ToolCall{
		ID: "call-1", ToolName: "echo",
		Args: []byte(`{"text": "hi"}`),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, msg)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "running tool", span.Name())

	name, ok := findAttr(t, span, "gen_ai.tool.name")
	require.True(t, ok)
	assert.Equal(t, "echo", name.AsString())

	callID, ok := findAttr(t, span, "gen_ai.tool.call.id")
	require.True(t, ok)
	assert.Equal(t, "call-1", callID.AsString())

	// Content capture is off by default.
	_, ok = findAttr(t, span, "tool_arguments")
	assert.False(t, ok)
	_, ok = findAttr(t, span, "tool_response")
	assert.False(t, ok)
}

func TestInvocationSpan_ContentCapture(t *testing.T) {
	t.Parallel()
	tracer, recorder := testutil.NewSpanRecorder()
	tool, err := testutil.NewEchoTool("echo", toolrun.WithTracer(tracer), toolrun.WithIncludeContent())
	require.NoError(t, err)

	// Per-tool span settings apply through the registry pipeline too.
	reg := testutil.NewTestRegistry(tool)
	msg, err := reg.Execute(context.Background(), toolrun.ToolCall{
		ID: "call-1", ToolName: "echo",
		Args: []byte(`{"text": "hi"}`),
	}, nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	args, ok := findAttr(t, spans[0], "tool_arguments")
	require.True(t, ok)
	assert.JSONEq(t, `{"text": "hi"}`, args.AsString())

	response, ok := findAttr(t, spans[0], "tool_response")
	require.True(t, ok)
	assert.Equal(t, msg.ModelResponse(), response.AsString())
}

func TestInvocationSpan_ErrorStatus(t *testing.T) {
	t.Parallel()
	tracer, recorder := testutil.NewSpanRecorder()
	tool, err := testutil.NewFlakyTool("flaky", 5, "not yet",
		toolrun.WithTracer(tracer), toolrun.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), toolrun.ToolCall{
		ID: "call-1", ToolName: "flaky",
		Args: []byte(`{"text": "hi"}`),
	}, nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events(), "the fatal error is recorded on the span")
}

func TestInvocationSpan_RetryPromptIsNotAnError(t *testing.T) {
	t.Parallel()
	tracer, recorder := testutil.NewSpanRecorder()
	tool, err := testutil.NewFlakyTool("flaky", 1, "not yet",
		toolrun.WithTracer(tracer), toolrun.WithMaxRetries(2))
	require.NoError(t, err)

	msg, err := tool.Execute(context.Background(), toolrun.ToolCall{
		ID: "call-1", ToolName: "flaky",
		Args: []byte(`{"text": "hi"}`),
	}, nil)
	require.NoError(t, err)
	require.IsType(t, &toolrun.RetryPrompt{}, msg)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code,
		"a retry prompt heading back to the model is a normal outcome")
}

func TestRegistry_DefaultTracer(t *testing.T) {
	t.Parallel()
	tracer, recorder := testutil.NewSpanRecorder()
	tool, err := testutil.NewEchoTool("echo")
	require.NoError(t, err)

	reg := toolrun.NewRegistry(toolrun.WithDefaultTracer(tracer), toolrun.WithContentCapture())
	reg.Register(tool)

	_, err = reg.Execute(context.Background(), toolrun.ToolCall{
		ID: "call-1", ToolName: "echo",
		Args: []byte(`{"text": "hi"}`),
	}, nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	_, ok := findAttr(t, spans[0], "tool_arguments")
	assert.True(t, ok, "registry-level content capture applies to every tool")
}

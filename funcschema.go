package toolrun

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// FunctionSchema binds a tool function to its argument schema: a validator for
// untrusted arguments, the JSON Schema exposed to the model, whether the
// function takes a RunContext, and the invocation adapter chosen once at
// construction. The pipeline never inspects the function itself.
type FunctionSchema struct {
	// JSONSchema is the object-shaped parameters schema shown to the model.
	JSONSchema map[string]any
	// TakesContext reports whether the function receives a *RunContext.
	TakesContext bool
	// OuterKey is the synthetic object key wrapping a non-object argument
	// schema, or empty when the schema was object-shaped already.
	OuterKey string

	decode func(call ToolCall) (any, error)
	invoke func(ctx context.Context, rc *RunContext, args any) (json.RawMessage, error)
}

// Schema returns a shallow copy of the parameters schema.
func (s *FunctionSchema) Schema() map[string]any {
	return maps.Clone(s.JSONSchema)
}

// typedDecode builds the decode step shared by both typed adapters: textual
// arguments go through ParseAndValidate, structured ones through ValidateMap.
func typedDecode[T any](ext *Extractor[T]) func(call ToolCall) (any, error) {
	return func(call ToolCall) (any, error) {
		if call.ArgsMap != nil {
			return ext.ValidateMap(call.ArgsMap)
		}
		return ext.ParseAndValidate(call.Args)
	}
}

func marshalResult[R any](res R) (json.RawMessage, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return b, nil
}

// newPlainSchema builds a FunctionSchema for a function that does not take a
// RunContext.
func newPlainSchema[T, R any](strict bool, fn func(ctx context.Context, args T) (R, error)) (*FunctionSchema, error) {
	ext, err := NewExtractor[T](strict)
	if err != nil {
		return nil, err
	}
	s := &FunctionSchema{
		JSONSchema:   ext.schemaMap,
		TakesContext: false,
		decode:       typedDecode(ext),
		invoke: func(ctx context.Context, _ *RunContext, args any) (json.RawMessage, error) {
			res, err := fn(ctx, args.(T))
			if err != nil {
				return nil, err
			}
			return marshalResult(res)
		},
	}
	if ext.wrapped {
		s.OuterKey = outerKey
	}
	return s, nil
}

// newContextSchema builds a FunctionSchema for a function that receives the
// derived RunContext as its second argument.
func newContextSchema[T, R any](strict bool, fn func(ctx context.Context, rc *RunContext, args T) (R, error)) (*FunctionSchema, error) {
	ext, err := NewExtractor[T](strict)
	if err != nil {
		return nil, err
	}
	s := &FunctionSchema{
		JSONSchema:   ext.schemaMap,
		TakesContext: true,
		decode:       typedDecode(ext),
		invoke: func(ctx context.Context, rc *RunContext, args any) (json.RawMessage, error) {
			res, err := fn(ctx, rc, args.(T))
			if err != nil {
				return nil, err
			}
			return marshalResult(res)
		},
	}
	if ext.wrapped {
		s.OuterKey = outerKey
	}
	return s, nil
}

// newDynamicSchema builds a FunctionSchema from a raw JSON Schema map. The
// function receives the validated arguments as raw JSON and returns raw JSON.
// The caller's map is deep-copied before any modification.
func newDynamicSchema(schemaMap map[string]any, strict bool, fn func(ctx context.Context, rc *RunContext, argsJSON json.RawMessage) (json.RawMessage, error)) (*FunctionSchema, error) {
	if schemaMap == nil {
		return nil, fmt.Errorf("dynamic schema map must not be nil")
	}
	if fn == nil {
		return nil, fmt.Errorf("dynamic tool handler must not be nil")
	}
	schemaCopy, err := deepCopySchema(schemaMap)
	if err != nil {
		return nil, err
	}
	if strict {
		applyStrictMode(schemaCopy)
	}
	stripSchemaIDs(schemaCopy)
	compiled, err := compileRawSchema(schemaCopy)
	if err != nil {
		return nil, fmt.Errorf("compile dynamic schema: %w", err)
	}
	return &FunctionSchema{
		JSONSchema:   schemaCopy,
		TakesContext: true,
		decode:       dynamicDecode(compiled),
		invoke: func(ctx context.Context, rc *RunContext, args any) (json.RawMessage, error) {
			return fn(ctx, rc, args.(json.RawMessage))
		},
	}, nil
}

// dynamicDecode validates either argument shape against the compiled schema
// and hands the canonical JSON encoding to the handler.
func dynamicDecode(compiled *jsonschema.Resolved) func(call ToolCall) (any, error) {
	return func(call ToolCall) (any, error) {
		var v any
		if call.ArgsMap != nil {
			v = call.ArgsMap
		} else {
			raw := call.Args
			if len(raw) == 0 {
				raw = json.RawMessage("{}")
			}
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, jsonDecodeError(err)
			}
		}
		if err := validateAgainstSchema(compiled, v); err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, jsonDecodeError(err)
		}
		return json.RawMessage(b), nil
	}
}

func deepCopySchema(schemaMap map[string]any) (map[string]any, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("deep copy schema map: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("deep copy schema map: %w", err)
	}
	return out, nil
}

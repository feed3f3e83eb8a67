package toolrun

import (
	"bytes"
	"encoding/json"
	"maps"

	"github.com/google/jsonschema-go/jsonschema"
)

// Extractor is the schema-compiler surface for argument type T: it owns the
// generated JSON Schema and a validator, and turns untrusted arguments into a
// validated T. Decode and validation are atomic from the caller's point of
// view; no partially-decoded value is ever visible.
//
// Use it directly in custom orchestrators that need schema export and
// validated parsing without the Tool pipeline.
type Extractor[T any] struct {
	schemaMap map[string]any
	resolved  *jsonschema.Resolved
	wrapped   bool
}

// NewExtractor creates an Extractor for type T. When strict is true the
// generated schema has additionalProperties: false for all objects and all
// properties required (OpenAI Structured Outputs shape).
func NewExtractor[T any](strict bool) (*Extractor[T], error) {
	schemaMap, resolved, wrapped, err := generateSchema[T](strict)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{
		schemaMap: schemaMap,
		resolved:  resolved,
		wrapped:   wrapped,
	}, nil
}

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (e *Extractor[T]) Schema() map[string]any {
	return maps.Clone(e.schemaMap)
}

// Wrapped reports whether the schema wraps a non-object argument type under
// the synthetic outer key.
func (e *Extractor[T]) Wrapped() bool { return e.wrapped }

// ParseAndValidate decodes the textual argument path: parse JSON, validate
// against the schema, bind into T, then run Validatable if T implements it.
// Empty or whitespace-only input decodes as an empty object before validation.
// All failures are recoverable *ValidationError values with field-level detail.
func (e *Extractor[T]) ParseAndValidate(argsJSON []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(argsJSON)) == 0 {
		argsJSON = []byte("{}")
	}
	var v any
	if err := json.Unmarshal(argsJSON, &v); err != nil {
		return zero, jsonDecodeError(err)
	}
	return e.validateAndBind(v)
}

// ValidateMap decodes the already-structured argument path. A nil map is
// treated as an empty object.
func (e *Extractor[T]) ValidateMap(args map[string]any) (T, error) {
	if args == nil {
		args = map[string]any{}
	}
	return e.validateAndBind(args)
}

func (e *Extractor[T]) validateAndBind(v any) (T, error) {
	var zero T
	if err := validateAgainstSchema(e.resolved, v); err != nil {
		return zero, err
	}
	if e.wrapped {
		if obj, ok := v.(map[string]any); ok {
			v = obj[outerKey]
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return zero, jsonDecodeError(err)
	}
	var args T
	if err := json.Unmarshal(data, &args); err != nil {
		return zero, jsonDecodeError(err)
	}
	if err := runCustomValidation(args); err != nil {
		return zero, valueError(err)
	}
	return args, nil
}

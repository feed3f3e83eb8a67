package toolrun

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// outerKey is the synthetic object key used to wrap tools whose argument type
// does not produce an object schema (e.g. a bare int or slice).
const outerKey = "response"

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType maps a custom Go type to a JSON Schema type/format in generated
// schemas. emptyInstance is a value of the type (e.g. uuid.UUID{}); jsonType is
// the JSON Schema type ("string", "number", ...); format is optional ("uuid",
// "decimal"). Pointer fields (*T) reuse the mapping registered for T.
// Call RegisterType at startup, before the first NewTool or NewExtractor.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("toolrun: RegisterType emptyInstance must not be nil")
	}
	if jsonType == "" {
		panic("toolrun: RegisterType jsonType must not be empty")
	}
	t := reflect.TypeOf(emptyInstance)
	s := &jsonschema.Schema{Type: jsonType, Format: format}
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[t] = s
}

// buildTypeSchemas snapshots registered type schemas for ForOptions.
// Safe for concurrent use with RegisterType.
func buildTypeSchemas() map[reflect.Type]*jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	out := make(map[reflect.Type]*jsonschema.Schema, len(customTypes))
	for t, s := range customTypes {
		if s != nil {
			out[t] = s.CloneSchemas()
		}
	}
	return out
}

var errNilSchema = errors.New("schema reflection returned nil")

// generateSchema produces the parameters schema and resolved validator for
// type T. It runs once per tool construction. When T is not object-shaped the
// schema is wrapped under the synthetic outer key and the returned wrapped
// flag is true. strict applies additionalProperties: false and all-required to
// every object node.
func generateSchema[T any](strict bool) (schemaMap map[string]any, resolved *jsonschema.Resolved, wrapped bool, err error) {
	opts := &jsonschema.ForOptions{TypeSchemas: buildTypeSchemas()}
	schema, err := jsonschema.For[T](opts)
	if err != nil {
		return nil, nil, false, err
	}
	if schema == nil {
		return nil, nil, false, errNilSchema
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, false, err
	}
	if err = json.Unmarshal(data, &schemaMap); err != nil {
		return nil, nil, false, err
	}
	annotateFromStructTags(schemaMap, reflect.TypeOf(*new(T)))
	if !isObjectSchema(schemaMap) {
		schemaMap = wrapUnderOuterKey(schemaMap)
		wrapped = true
	}
	if strict {
		applyStrictMode(schemaMap)
	}
	stripSchemaIDs(schemaMap)
	resolved, err = compileRawSchema(schemaMap)
	if err != nil {
		return nil, nil, false, err
	}
	return schemaMap, resolved, wrapped, nil
}

// isObjectSchema reports whether the schema root describes a JSON object.
func isObjectSchema(schemaMap map[string]any) bool {
	if schemaMap == nil {
		return false
	}
	if t, ok := schemaMap["type"].(string); ok {
		return t == "object"
	}
	_, hasProps := schemaMap["properties"]
	return hasProps
}

// wrapUnderOuterKey wraps a non-object schema in a single-property object so
// every tool definition exposed to the model is object-shaped. The decoder
// unwraps the property again before handing arguments to the tool function.
func wrapUnderOuterKey(inner map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{outerKey: inner},
		"required":             []any{outerKey},
		"additionalProperties": false,
	}
}

// annotateFromStructTags copies description and enum struct tags into
// root-level schema properties, matched by json tag name.
func annotateFromStructTags(schemaMap map[string]any, typ reflect.Type) {
	if schemaMap == nil || typ == nil {
		return
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}
	props, ok := schemaMap["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return
	}
	jsonToField := make(map[string]reflect.StructField)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		jsonTag := strings.Split(field.Tag.Get("json"), ",")[0]
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		jsonToField[jsonTag] = field
	}
	for key, val := range props {
		prop, ok := val.(map[string]any)
		if !ok {
			continue
		}
		field, ok := jsonToField[key]
		if !ok {
			continue
		}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		if enumStr := field.Tag.Get("enum"); enumStr != "" {
			parts := strings.Split(enumStr, ",")
			enum := make([]any, len(parts))
			for i, p := range parts {
				enum[i] = strings.TrimSpace(p)
			}
			prop["enum"] = enum
		}
	}
}

// walkSchema visits every map node in the schema tree, including $defs.
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					walkSchema(m, visit)
				}
			}
		}
	}
}

// applyStrictMode sets additionalProperties: false and marks every property
// required for each object node (OpenAI Structured Outputs shape).
func applyStrictMode(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		props, isObj := n["properties"].(map[string]any)
		if !isObj {
			return
		}
		n["additionalProperties"] = false
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		required := make([]any, len(keys))
		for i, k := range keys {
			required[i] = k
		}
		if len(required) > 0 {
			n["required"] = required
		}
	})
}

// stripSchemaIDs removes id and $id nodes so resolution never depends on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}

// compileRawSchema compiles a raw JSON Schema map into a resolved validator.
// The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

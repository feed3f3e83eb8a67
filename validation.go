package toolrun

import (
	"encoding/json"
	"errors"
	"reflect"
)

// Validatable is implemented by argument structs that need business validation
// beyond the JSON Schema. It runs after schema validation and unmarshaling;
// a returned error becomes a recoverable ValidationError.
type Validatable interface {
	Validate() error
}

// schemaValidator validates an already-parsed JSON value.
// *jsonschema.Resolved implements it.
type schemaValidator interface {
	Validate(v any) error
}

// validateAgainstSchema runs schema validation on the parsed value v and
// converts a failure into a field-level ValidationError.
func validateAgainstSchema(validate schemaValidator, v any) error {
	if err := validate.Validate(v); err != nil {
		return &ValidationError{Errors: []FieldError{{
			Kind:    KindSchemaMismatch,
			Message: err.Error(),
		}}}
	}
	return nil
}

// jsonDecodeError converts a json.Unmarshal failure into a ValidationError,
// attaching the field path when the stdlib reports one.
func jsonDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Errors: []FieldError{{
			Path:    typeErr.Field,
			Kind:    KindTypeMismatch,
			Message: "cannot decode " + typeErr.Value + " into " + typeErr.Type.String(),
		}}}
	}
	return &ValidationError{Errors: []FieldError{{
		Kind:    KindJSONInvalid,
		Message: "json parse error: " + err.Error(),
	}}}
}

// valueError converts a Validatable failure into a recoverable ValidationError
// unless it already is one.
func valueError(err error) error {
	if IsValidationError(err) {
		return err
	}
	return &ValidationError{Errors: []FieldError{{
		Kind:    KindValueError,
		Message: err.Error(),
	}}}
}

// runCustomValidation calls Validatable.Validate on args; when args is a value
// type whose Validate has a pointer receiver it retries with &args. Validate is
// never called twice on the same receiver.
func runCustomValidation[T any](args T) error {
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	if v, ok := any(&args).(Validatable); ok {
		return v.Validate()
	}
	return nil
}

package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-docstore/pkg/rules"
	"github.com/goliatone/go-docstore/schema/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// Candidate is a decoded document awaiting acceptance. Doc is a pointer to
// the decoded value and Raw the bytes it was decoded from.
type Candidate struct {
	Name string
	Path string
	Raw  []byte
	Doc  any
}

// Validator accepts or rejects a decoded document. A rejection makes the
// store treat the file as corrupt.
type Validator interface {
	Validate(Candidate) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(Candidate) error

// Validate implements Validator.
func (f ValidatorFunc) Validate(c Candidate) error {
	if f == nil {
		return nil
	}
	return f(c)
}

func runValidators(validators []Validator, c Candidate) error {
	for _, v := range validators {
		if v == nil {
			continue
		}
		if err := v.Validate(c); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return err
			}
			return &ValidationError{Validator: "custom", Err: err}
		}
	}
	return nil
}

// MethodValidator calls Validate() error on documents that define it.
func MethodValidator() Validator {
	return ValidatorFunc(func(c Candidate) error {
		if err := callValidate(c.Doc); err != nil {
			return &ValidationError{Validator: "method", Err: err}
		}
		return nil
	})
}

func callValidate(doc any) error {
	if doc == nil {
		return nil
	}
	if v, ok := doc.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	rv := reflect.ValueOf(doc)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if v, ok := rv.Elem().Interface().(interface{ Validate() error }); ok {
			return v.Validate()
		}
	}
	return nil
}

// StructValidator checks `validate` struct tags with go-playground/validator.
// A nil v uses a validator with required-struct checks enabled.
func StructValidator(v *validator.Validate) Validator {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return ValidatorFunc(func(c Candidate) error {
		rv := reflect.ValueOf(c.Doc)
		for rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil
		}
		if err := v.Struct(rv.Interface()); err != nil {
			return &ValidationError{Validator: "struct", Err: err}
		}
		return nil
	})
}

// SchemaValidator checks documents against a JSON Schema. JSON files are
// validated as stored; other encodings are validated through their JSON form.
func SchemaValidator(schema []byte) (Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("docstore: compile schema: %w", err)
	}
	return ValidatorFunc(func(c Candidate) error {
		var loader gojsonschema.JSONLoader
		if json.Valid(c.Raw) {
			loader = gojsonschema.NewBytesLoader(c.Raw)
		} else {
			loader = gojsonschema.NewGoLoader(c.Doc)
		}
		result, err := compiled.Validate(loader)
		if err != nil {
			return &ValidationError{Validator: "schema", Err: err}
		}
		if result.Valid() {
			return nil
		}
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return &ValidationError{Validator: "schema", Err: errors.New(strings.Join(problems, "; "))}
	}), nil
}

// TypeSchemaValidator checks documents against the JSON Schema derived from
// T, which rejects values of the wrong JSON type and out of range numbers.
func TypeSchemaValidator[T any]() (Validator, error) {
	schema, err := jsonschema.Marshal[T]()
	if err != nil {
		return nil, fmt.Errorf("docstore: generate schema: %w", err)
	}
	return SchemaValidator(schema)
}

// RuleValidator requires every rule to evaluate to true against the
// document's JSON form. Rules are compiled once; a nil evaluator uses expr.
// A rule that does not compile rejects every document.
func RuleValidator(evaluator rules.Evaluator, list ...rules.Rule) Validator {
	set, compileErr := rules.NewSet(evaluator, list...)
	return ValidatorFunc(func(c Candidate) error {
		if compileErr != nil {
			return &ValidationError{Validator: "rules", Err: compileErr}
		}
		snapshot, err := documentSnapshot(c.Doc)
		if err != nil {
			return &ValidationError{Validator: "rules", Err: err}
		}
		ctx := rules.RuleContext{Snapshot: snapshot, Document: c.Name, Path: c.Path}
		if err := set.Check(ctx); err != nil {
			return &ValidationError{Validator: "rules", Err: err}
		}
		return nil
	})
}

func documentSnapshot(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	snapshot := map[string]any{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("document is not an object: %w", err)
	}
	return snapshot, nil
}

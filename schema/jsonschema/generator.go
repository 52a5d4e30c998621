// Package jsonschema derives a JSON Schema (draft-07) from a Go document
// type, following encoding/json field naming.
//
// The generated schema constrains types only: every property is optional
// and unknown properties are allowed, so files written by older or newer
// versions of a document still validate. Numeric `validate` tags
// (gte, lte, gt, lt, min, max) become bounds.
package jsonschema

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const draft = "http://json-schema.org/draft-07/schema#"

var (
	timeType            = reflect.TypeFor[time.Time]()
	rawMessageType      = reflect.TypeFor[json.RawMessage]()
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Generate returns the schema of T as a JSON-ready map.
func Generate[T any]() map[string]any {
	return GenerateType(reflect.TypeFor[T]())
}

// GenerateType returns the schema of t.
func GenerateType(t reflect.Type) map[string]any {
	g := &generator{defs: map[string]any{}, names: map[reflect.Type]string{}, used: map[string]struct{}{}}
	root := g.schemaFor(t, true)
	root["$schema"] = draft
	if len(g.defs) > 0 {
		root["definitions"] = g.defs
	}
	return root
}

// Marshal returns the indented JSON encoding of the schema of T.
func Marshal[T any]() ([]byte, error) {
	return json.MarshalIndent(Generate[T](), "", "  ")
}

type generator struct {
	defs  map[string]any
	names map[reflect.Type]string
	used  map[string]struct{}
}

func (g *generator) schemaFor(t reflect.Type, root bool) map[string]any {
	nullable := false
	for t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	schema := g.build(t, root)
	if nullable {
		return orNull(schema)
	}
	return schema
}

func (g *generator) build(t reflect.Type, root bool) map[string]any {
	switch {
	case t == timeType:
		return map[string]any{"type": "string", "format": "date-time"}
	case t == rawMessageType, reflect.PointerTo(t).Implements(jsonUnmarshalerType):
		return map[string]any{}
	case reflect.PointerTo(t).Implements(textUnmarshalerType):
		if isInteger(t.Kind()) {
			// Enums are written by name; ordinals are still read.
			return map[string]any{"type": []any{"string", "integer"}}
		}
		return map[string]any{"type": "string"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return map[string]any{"type": "integer"}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer", "minimum": 0}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Interface:
		return map[string]any{}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": []any{"string", "null"}, "contentEncoding": "base64"}
		}
		return map[string]any{"type": []any{"array", "null"}, "items": g.schemaFor(t.Elem(), false)}
	case reflect.Array:
		return map[string]any{
			"type":     "array",
			"items":    g.schemaFor(t.Elem(), false),
			"minItems": t.Len(),
			"maxItems": t.Len(),
		}
	case reflect.Map:
		if !mapKeyIsString(t.Key()) {
			return map[string]any{"type": []any{"object", "null"}}
		}
		return map[string]any{"type": []any{"object", "null"}, "additionalProperties": g.schemaFor(t.Elem(), false)}
	case reflect.Struct:
		if root || t.Name() == "" {
			return g.object(t)
		}
		return map[string]any{"$ref": "#/definitions/" + g.define(t)}
	default:
		// Channels, functions and complex numbers have no JSON form.
		return map[string]any{"not": map[string]any{}}
	}
}

// define registers t under a unique definition name and returns it. The
// name is reserved before the body is built so recursive types terminate.
func (g *generator) define(t reflect.Type) string {
	if name, ok := g.names[t]; ok {
		return name
	}
	name := g.uniqueName(t.Name())
	g.names[t] = name
	g.defs[name] = g.object(t)
	return name
}

func (g *generator) object(t reflect.Type) map[string]any {
	properties := map[string]any{}
	g.collectFields(t, properties)
	return map[string]any{"type": "object", "properties": properties}
}

// collectFields adds the JSON properties of t, flattening embedded structs
// the way encoding/json does.
func (g *generator) collectFields(t reflect.Type, properties map[string]any) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, skip := jsonName(field)
		if skip {
			continue
		}
		if field.Anonymous && name == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				g.collectFields(embedded, properties)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if _, exists := properties[name]; exists {
			continue
		}
		schema := g.schemaFor(field.Type, false)
		applyBounds(schema, field.Tag.Get("validate"))
		properties[name] = schema
	}
}

func jsonName(field reflect.StructField) (name string, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	return name, false
}

// applyBounds turns numeric validate tags into schema bounds.
func applyBounds(schema map[string]any, tag string) {
	if tag == "" || !isNumericSchema(schema) {
		return
	}
	for _, rule := range strings.Split(tag, ",") {
		key, param, ok := strings.Cut(rule, "=")
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(param, 64)
		if err != nil {
			continue
		}
		switch key {
		case "gte", "min":
			schema["minimum"] = value
		case "lte", "max":
			schema["maximum"] = value
		case "gt":
			schema["exclusiveMinimum"] = value
		case "lt":
			schema["exclusiveMaximum"] = value
		}
	}
}

func isNumericSchema(schema map[string]any) bool {
	switch schema["type"] {
	case "integer", "number":
		return true
	}
	return false
}

func orNull(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return schema
	}
	return map[string]any{"anyOf": []any{schema, map[string]any{"type": "null"}}}
}

func isInteger(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func mapKeyIsString(t reflect.Type) bool {
	return t.Kind() == reflect.String || reflect.PointerTo(t).Implements(textUnmarshalerType) || isInteger(t.Kind())
}

var definitionNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func (g *generator) uniqueName(hint string) string {
	safe := strings.Trim(definitionNameRegexp.ReplaceAllString(hint, "_"), "_")
	if safe == "" {
		safe = "Schema"
	}
	candidate := safe
	for suffix := 1; ; suffix++ {
		if _, taken := g.used[candidate]; !taken {
			g.used[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", safe, suffix)
	}
}

// Package openapi renders the raw counterpart of a converted type as an
// OpenAPI 3.1 components document. Handle fields become strings annotated
// with x-xref-kind and x-xref-role.
package openapi

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/goliatone/go-xref"
)

// ErrNotStruct is returned when the root value is not a struct.
var ErrNotStruct = errors.New("openapi: root value must be a struct")

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Generator builds schema documents.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI schema generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Generator{config: cfg}
}

// Generate describes the raw document accepted by the type of value.
func Generate(value any, opts ...GeneratorOption) (map[string]any, error) {
	return NewGenerator(opts...).Generate(value)
}

// Generate describes the raw document accepted by the type of value. The
// root struct is referenced by x-xref-root.
func (g *Generator) Generate(value any) (map[string]any, error) {
	rt := reflect.TypeOf(value)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %v", ErrNotStruct, rt)
	}

	b := &builder{registry: newComponentRegistry(), options: g.config.xrefOptions}
	if g.config.rootComponent != "" {
		b.registry.names[rt] = g.config.rootComponent
		b.registry.used[g.config.rootComponent] = struct{}{}
	}
	root, err := b.schemaFor(rt)
	if err != nil {
		return nil, err
	}

	info := map[string]any{
		"title":   g.config.info.Title,
		"version": g.config.info.Version,
	}
	if g.config.info.Description != "" {
		info["description"] = g.config.info.Description
	}
	return map[string]any{
		"openapi":     g.config.openAPIVersion,
		"info":        info,
		"components":  map[string]any{"schemas": b.registry.componentsMap()},
		"x-xref-root": root["$ref"],
	}, nil
}

type builder struct {
	registry *componentRegistry
	options  []xref.Option
}

func (b *builder) schemaFor(t reflect.Type) (map[string]any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == durationType:
		return map[string]any{"type": "string", "format": "duration"}, nil
	case t == timeType:
		return map[string]any{"type": "string", "format": "date-time"}, nil
	case t.Kind() != reflect.Struct && reflect.PointerTo(t).Implements(textUnmarshalerType):
		return map[string]any{"type": "string"}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Interface:
		return map[string]any{}, nil
	case reflect.Slice, reflect.Array:
		items, err := b.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		schema := map[string]any{"type": "array", "items": items}
		if t.Kind() == reflect.Array {
			schema["minItems"] = t.Len()
			schema["maxItems"] = t.Len()
		}
		return schema, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("openapi: map key type %s unsupported", t.Key())
		}
		values, err := b.schemaFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": values}, nil
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(textUnmarshalerType) {
			return map[string]any{"type": "string"}, nil
		}
		return b.structReference(t)
	default:
		return nil, fmt.Errorf("openapi: type %s unsupported", t)
	}
}

// structReference registers t as a component before describing its fields,
// so recursive types terminate on the reference.
func (b *builder) structReference(t reflect.Type) (map[string]any, error) {
	name, created := b.registry.reserve(t)
	if !created {
		return reference(name), nil
	}
	fields, err := xref.RawFields(t, b.options...)
	if err != nil {
		return nil, err
	}

	properties := map[string]any{}
	var required []string
	for _, field := range fields {
		if field.Role == xref.RoleName {
			continue
		}
		schema, err := b.fieldSchema(field)
		if err != nil {
			return nil, fmt.Errorf("openapi: %s.%s: %w", t, field.GoName, err)
		}
		properties[field.Name] = schema
		if field.Required {
			required = append(required, field.Name)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	b.registry.set(name, schema)
	return reference(name), nil
}

func (b *builder) fieldSchema(field xref.RawField) (map[string]any, error) {
	var (
		schema map[string]any
		err    error
	)
	switch field.Role {
	case xref.RolePreserve:
		schema = map[string]any{}
	case xref.RoleDeclare, xref.RoleReference:
		schema = handleSchema(field.Type, func() map[string]any {
			handle := map[string]any{
				"type":        "string",
				"x-xref-kind": xref.KindName(field.Kind),
				"x-xref-role": string(field.Role),
			}
			if field.Scope != nil && field.Scope != xref.RootKey {
				handle["x-xref-scope"] = xref.KindName(field.Scope)
			}
			if field.Tracked {
				handle["x-xref-tracked"] = true
			}
			if len(field.Imports) > 0 {
				handle["x-xref-imports"] = field.Imports
			}
			return handle
		})
	default:
		schema, err = b.schemaFor(field.Type)
		if err != nil {
			return nil, err
		}
	}
	if field.Expr != "" {
		schema = withExtension(schema, "x-xref-expr", field.Expr)
	}
	return schema, nil
}

// handleSchema wraps the handle schema in the containers around the handle.
func handleSchema(t reflect.Type, handle func() map[string]any) map[string]any {
	if _, isHandle := xref.HandleKind(t); !isHandle {
		return handle()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return handleSchema(t.Elem(), handle)
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": handleSchema(t.Elem(), handle)}
	case reflect.Map:
		return map[string]any{"type": "object", "additionalProperties": handleSchema(t.Elem(), handle)}
	default:
		return handle()
	}
}

// withExtension attaches an extension. References are wrapped in allOf.
func withExtension(schema map[string]any, key string, value any) map[string]any {
	if _, isRef := schema["$ref"]; isRef {
		return map[string]any{"allOf": []any{schema}, key: value}
	}
	schema[key] = value
	return schema
}

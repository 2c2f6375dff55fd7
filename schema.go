package xref

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldRole is the registry role of a struct field.
type FieldRole string

const (
	RoleValue     FieldRole = "value"
	RoleDeclare   FieldRole = "declare"
	RoleReference FieldRole = "reference"
	RoleName      FieldRole = "name"
	RolePreserve  FieldRole = "preserve"
)

// RawField describes how one struct field maps to its raw key.
type RawField struct {
	Name     string
	GoName   string
	Type     reflect.Type
	Role     FieldRole
	Kind     Key
	Scope    Key
	Tracked  bool
	Imports  []string
	Required bool
	Expr     string
}

// HandleKind reports the kind of the handles held by t, looking through
// pointers, slices, arrays and maps.
func HandleKind(t reflect.Type) (Key, bool) {
	for t != nil {
		if reflect.PointerTo(t).Implements(identifierFieldType) {
			return reflect.New(t).Interface().(identifierField).identifierKind(), true
		}
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		default:
			return nil, false
		}
	}
	return nil, false
}

// RawFields lists the fields of struct type t in conversion order. Options
// select the tag name the same way they do for a Context.
func RawFields(t reflect.Type, opts ...Option) ([]RawField, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrInvalidRaw, t)
	}
	plan, err := planFor(t, applyOptions(opts).tagName)
	if err != nil {
		return nil, err
	}
	fields := make([]RawField, 0, len(plan.fields))
	for _, field := range plan.fields {
		raw := RawField{
			Name:     field.name,
			GoName:   field.goName,
			Type:     field.typ,
			Role:     RoleValue,
			Tracked:  field.opts.track,
			Imports:  append([]string(nil), field.opts.imports...),
			Required: field.required,
			Expr:     field.expr,
		}
		switch {
		case field.isName:
			raw.Role = RoleName
			raw.Kind = reflect.New(field.typ).Interface().(nameField).nameKind()
		case field.opts.preserve:
			raw.Role = RolePreserve
		default:
			if kind, ok := HandleKind(field.typ); ok {
				raw.Kind = kind
				raw.Role = RoleReference
				if field.opts.declare {
					raw.Role = RoleDeclare
				}
			}
		}
		if raw.Kind != nil {
			raw.Scope = reflect.Zero(raw.Kind).Interface().(Identifiable).IdentifierScope()
		}
		fields = append(fields, raw)
	}
	return fields, nil
}

// FieldDescriptor is one entry of the flattened description of a raw
// document. List elements appear as "[]" and map values as ".*".
type FieldDescriptor struct {
	Path     string    `json:"path"`
	Type     string    `json:"type"`
	Role     FieldRole `json:"role"`
	Kind     string    `json:"kind,omitempty"`
	Required bool      `json:"required,omitempty"`
	Tracked  bool      `json:"tracked,omitempty"`
	Imports  []string  `json:"imports,omitempty"`
	Expr     string    `json:"expr,omitempty"`
}

// DescribeRaw flattens the raw counterpart of value's type: every key the
// converter reads, its raw type and its registry role. Name fields have no
// raw key and are omitted.
func DescribeRaw(value any, opts ...Option) ([]FieldDescriptor, error) {
	t := reflect.TypeOf(value)
	if t == nil {
		return []FieldDescriptor{}, nil
	}
	out := []FieldDescriptor{}
	err := describeType(t, "", map[reflect.Type]bool{}, &out, opts)
	return out, err
}

func describeType(t reflect.Type, prefix string, active map[reflect.Type]bool, out *[]FieldDescriptor, opts []Option) error {
	t = structOf(t)
	if t == nil || active[t] {
		return nil
	}
	active[t] = true
	defer delete(active, t)

	fields, err := RawFields(t, opts...)
	if err != nil {
		return err
	}
	for _, field := range fields {
		if field.Role == RoleName {
			continue
		}
		path := childPath(prefix, field.Name)
		descriptor := FieldDescriptor{
			Path:     path,
			Type:     RawTypeName(field.Type),
			Role:     field.Role,
			Required: field.Required,
			Tracked:  field.Tracked,
			Imports:  field.Imports,
			Expr:     field.Expr,
		}
		if field.Kind != nil {
			descriptor.Kind = KindName(field.Kind)
		}
		*out = append(*out, descriptor)
		if field.Role != RoleValue {
			continue
		}
		if err := describeType(field.Type, childPathOf(field.Type, path), active, out, opts); err != nil {
			return err
		}
	}
	return nil
}

// structOf peels containers off t and returns the struct type they hold, if
// it is converted field by field.
func structOf(t reflect.Type) reflect.Type {
	for t != nil {
		switch {
		case t == timeType || reflect.PointerTo(t).Implements(textUnmarshalerType):
			return nil
		case t.Kind() == reflect.Struct:
			return t
		case t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map:
			t = t.Elem()
		default:
			return nil
		}
	}
	return nil
}

func childPathOf(t reflect.Type, path string) string {
	var b strings.Builder
	b.WriteString(path)
	for t != nil && t.Kind() != reflect.Struct {
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			b.WriteString("[]")
		case reflect.Map:
			b.WriteString(".*")
		}
		t = t.Elem()
	}
	return b.String()
}

// RawTypeName names the raw shape a field of type t accepts.
func RawTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case reflect.PointerTo(t).Implements(identifierFieldType):
		return "string"
	case t == durationType:
		return "duration"
	case t == timeType:
		return "date-time"
	case reflect.PointerTo(t).Implements(textUnmarshalerType):
		return "string"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "any"
	}
}

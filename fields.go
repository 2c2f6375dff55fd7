package xref

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/stoewer/go-strcase"
)

const exprTagName = "expr"

// fieldOptions are the registry roles read from a field tag. They apply to
// the field and to the handles nested in its pointers, slices and maps.
type fieldOptions struct {
	declare  bool
	track    bool
	preserve bool
	imports  []string
}

type fieldPlan struct {
	name     string
	goName   string
	index    []int
	typ      reflect.Type
	opts     fieldOptions
	expr     string
	isName   bool
	required bool
}

type structPlan struct {
	fields []fieldPlan
	known  map[string]struct{}
}

type planKey struct {
	typ reflect.Type
	tag string
}

var plans sync.Map

// planFor returns the conversion plan of struct type t. Fields keep their
// declaration order; embedded structs without a tag are flattened in place.
func planFor(t reflect.Type, tagName string) (*structPlan, error) {
	key := planKey{typ: t, tag: tagName}
	if cached, ok := plans.Load(key); ok {
		return cached.(*structPlan), nil
	}
	plan := &structPlan{known: map[string]struct{}{}}
	if err := plan.collect(t, nil, tagName); err != nil {
		return nil, err
	}
	actual, _ := plans.LoadOrStore(key, plan)
	return actual.(*structPlan), nil
}

func (p *structPlan) collect(t reflect.Type, parent []int, tagName string) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup(tagName)
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), parent...), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !tagged && !isRegistryType(sf.Type) {
			if err := p.collect(sf.Type, index, tagName); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		field, err := parseField(sf, tag)
		if err != nil {
			return fmt.Errorf("xref: %s.%s: %w", t, sf.Name, err)
		}
		field.index = index
		if _, dup := p.known[field.name]; dup {
			return fmt.Errorf("xref: %s.%s: %w: raw key %q used twice", t, sf.Name, ErrInvalidTag, field.name)
		}
		p.known[field.name] = struct{}{}
		p.fields = append(p.fields, field)
	}
	return nil
}

func parseField(sf reflect.StructField, tag string) (fieldPlan, error) {
	field := fieldPlan{
		name:   strcase.SnakeCase(sf.Name),
		goName: sf.Name,
		typ:    sf.Type,
		expr:   strings.TrimSpace(sf.Tag.Get(exprTagName)),
		isName: reflect.PointerTo(sf.Type).Implements(nameFieldType),
	}
	parts := strings.Split(tag, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		field.name = name
	}
	for _, part := range parts[1:] {
		option := strings.TrimSpace(part)
		switch {
		case option == "":
		case option == "new":
			field.opts.declare = true
		case option == "track":
			field.opts.track = true
		case option == "preserve":
			field.opts.preserve = true
		case strings.HasPrefix(option, "import="):
			for _, kind := range strings.Split(strings.TrimPrefix(option, "import="), "|") {
				if kind = strings.TrimSpace(kind); kind != "" {
					field.opts.imports = append(field.opts.imports, kind)
				}
			}
		default:
			return fieldPlan{}, fmt.Errorf("%w: unknown option %q", ErrInvalidTag, option)
		}
	}

	switch {
	case field.opts.track && !field.opts.declare:
		return fieldPlan{}, fmt.Errorf("%w: track requires new", ErrInvalidTag)
	case field.opts.declare && len(field.opts.imports) > 0:
		return fieldPlan{}, fmt.Errorf("%w: a declaration cannot import", ErrInvalidTag)
	case field.isName && (field.opts.declare || len(field.opts.imports) > 0):
		return fieldPlan{}, fmt.Errorf("%w: name fields take no registry options", ErrInvalidTag)
	case field.opts.preserve && (field.opts.declare || field.opts.track || len(field.opts.imports) > 0):
		return fieldPlan{}, fmt.Errorf("%w: preserve takes no other options", ErrInvalidTag)
	case field.opts.preserve && holdsRegistryType(sf.Type):
		return fieldPlan{}, fmt.Errorf("%w: preserve cannot hold %s", ErrInvalidTag, sf.Type)
	}

	field.required = sf.Type.Kind() != reflect.Pointer &&
		reflect.PointerTo(sf.Type).Implements(identifierFieldType)
	return field, nil
}

// holdsRegistryType reports whether t is a handle or name type, directly or
// as the element of pointers, slices, arrays and maps.
func holdsRegistryType(t reflect.Type) bool {
	for {
		if isRegistryType(t) {
			return true
		}
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		default:
			return false
		}
	}
}

func isRegistryType(t reflect.Type) bool {
	ptr := reflect.PointerTo(t)
	return ptr.Implements(identifierFieldType) || ptr.Implements(nameFieldType)
}

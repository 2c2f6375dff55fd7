package openapi

import (
	"reflect"
	"regexp"
	"strconv"
)

// componentRegistry assigns one unique component name per struct type.
type componentRegistry struct {
	names   map[reflect.Type]string
	used    map[string]struct{}
	schemas map[string]map[string]any
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		names:   map[reflect.Type]string{},
		used:    map[string]struct{}{},
		schemas: map[string]map[string]any{},
	}
}

// reserve returns the component name of t and whether it was newly assigned.
func (r *componentRegistry) reserve(t reflect.Type) (string, bool) {
	if name, ok := r.names[t]; ok {
		return name, false
	}
	base := sanitizeComponentName(t.Name())
	if base == "" {
		base = sanitizeComponentName(t.String())
	}
	if base == "" {
		base = "Object"
	}
	name := base
	if _, taken := r.used[name]; taken {
		name = sanitizeComponentName(t.String())
		for i := 2; ; i++ {
			if _, taken := r.used[name]; !taken {
				break
			}
			name = base + "_" + strconv.Itoa(i)
		}
	}
	r.names[t] = name
	r.used[name] = struct{}{}
	return name, true
}

func (r *componentRegistry) set(name string, schema map[string]any) {
	r.schemas[name] = schema
}

func (r *componentRegistry) componentsMap() map[string]any {
	out := make(map[string]any, len(r.schemas))
	for name, schema := range r.schemas {
		out[name] = schema
	}
	return out
}

func reference(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

var componentNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

func sanitizeComponentName(name string) string {
	name = componentNameRegexp.ReplaceAllString(name, "_")
	name = trimUnderscores(name)
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func trimUnderscores(input string) string {
	start := 0
	for start < len(input) && input[start] == '_' {
		start++
	}
	end := len(input)
	for end > start && input[end-1] == '_' {
		end--
	}
	return input[start:end]
}

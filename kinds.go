package xref

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	identifierFieldType = reflect.TypeFor[identifierField]()
	nameFieldType       = reflect.TypeFor[nameField]()
	identifiableType    = reflect.TypeFor[Identifiable]()
)

// kindIndex maps the names used in import tags to kind keys. A kind is known
// by its short type name and by its package qualified name.
type kindIndex struct {
	mu      sync.RWMutex
	byName  map[string][]Key
	visited map[reflect.Type]struct{}
}

func newKindIndex(kinds ...Key) *kindIndex {
	index := &kindIndex{
		byName:  map[string][]Key{},
		visited: map[reflect.Type]struct{}{},
	}
	for _, kind := range kinds {
		index.add(kind)
	}
	return index
}

func (k *kindIndex) add(kind Key) {
	if kind == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.addLocked(kind)
}

func (k *kindIndex) addLocked(kind Key) {
	for _, name := range []string{kind.Name(), kind.String()} {
		if name == "" {
			continue
		}
		known := k.byName[name]
		duplicate := false
		for _, existing := range known {
			if existing == kind {
				duplicate = true
				break
			}
		}
		if !duplicate {
			k.byName[name] = append(known, kind)
		}
	}
}

// walk registers every kind reachable from t: identifiable structs, the
// kinds of handle fields and their scopes.
func (k *kindIndex) walk(t reflect.Type) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.walkLocked(t)
}

func (k *kindIndex) walkLocked(t reflect.Type) {
	if t == nil {
		return
	}
	if _, seen := k.visited[t]; seen {
		return
	}
	k.visited[t] = struct{}{}

	if reflect.PointerTo(t).Implements(identifierFieldType) {
		field := reflect.New(t).Interface().(identifierField)
		kind := field.identifierKind()
		k.addLocked(kind)
		k.walkLocked(kind)
		return
	}
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && t.Implements(identifiableType) {
		k.addLocked(t)
		if scope := reflect.Zero(t).Interface().(Identifiable).IdentifierScope(); scope != nil && scope != RootKey {
			k.addLocked(scope)
			k.walkLocked(scope)
		}
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		k.walkLocked(t.Elem())
	case reflect.Map:
		k.walkLocked(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			k.walkLocked(t.Field(i).Type)
		}
	}
}

func (k *kindIndex) lookup(name string) (Key, error) {
	name = strings.TrimSpace(name)
	k.mu.RLock()
	defer k.mu.RUnlock()
	known := k.byName[name]
	switch len(known) {
	case 0:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, name)
	case 1:
		return known[0], nil
	default:
		return nil, fmt.Errorf("%w %q: ambiguous between %s and %s, use the package qualified name", ErrUnknownKind, name, known[0], known[1])
	}
}

// lookupAll resolves every import name, failing on the first unknown one.
func (k *kindIndex) lookupAll(names []string) ([]Key, error) {
	if len(names) == 0 {
		return nil, nil
	}
	keys := make([]Key, 0, len(names))
	for _, name := range names {
		key, err := k.lookup(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

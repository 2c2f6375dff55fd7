package xref

import (
	"fmt"
	"iter"
	"reflect"
)

// slotStore holds at most one value per slot type. Values are stored as *T
// so callers mutate them in place.
type slotStore map[reflect.Type]any

func slotOf[T any](store slotStore) (*T, bool) {
	if store == nil {
		return nil, false
	}
	value, ok := store[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	typed, ok := value.(*T)
	if !ok {
		panic(fmt.Sprintf("xref: slot %s holds %T", reflect.TypeFor[T](), value))
	}
	return typed, true
}

// Get returns the T slot of the innermost layer tagged key. It reports false
// when no such layer is active or the layer has no T slot yet.
func Get[T any](c *Context, key Key) (*T, bool) {
	l := c.find(key)
	if l == nil {
		return nil, false
	}
	return slotOf[T](l.slots)
}

// GetMut returns the T slot of the innermost layer tagged key, creating it
// with factory on first access. Calling GetMut for a scope that is not on the
// stack is a logic error and panics.
func GetMut[T any](c *Context, key Key, factory func() T) *T {
	l := c.find(key)
	if l == nil {
		panic(fmt.Sprintf("xref: scope %s is not on the stack", KindName(key)))
	}
	return slotIn(l, factory)
}

func slotIn[T any](l *layer, factory func() T) *T {
	if value, ok := slotOf[T](l.slots); ok {
		return value
	}
	if l.slots == nil {
		l.slots = slotStore{}
	}
	var created T
	if factory != nil {
		created = factory()
	}
	l.slots[reflect.TypeFor[T]()] = &created
	return &created
}

// Each yields the T slot of every layer holding one, innermost first,
// regardless of the layer key.
func Each[T any](c *Context) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := len(c.layers) - 1; i >= 0; i-- {
			value, ok := slotOf[T](c.layers[i].slots)
			if !ok {
				continue
			}
			if !yield(value) {
				return
			}
		}
	}
}

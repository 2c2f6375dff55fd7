package xref

import (
	"fmt"
	"reflect"
)

// Key identifies the kind of structured value that opened a layer. It is the
// reflect.Type of the value being converted.
type Key = reflect.Type

// Root marks the implicit bottom layer of every Context. Identifiers whose
// scope is RootKey are global to the conversion run.
type Root struct{}

// RootKey is the key of the bottom layer that never pops.
var RootKey = KeyOf[Root]()

// KeyOf returns the layer key for T.
func KeyOf[T any]() Key {
	return reflect.TypeFor[T]()
}

// KindName renders key for error messages and logs.
func KindName(key Key) string {
	if key == nil {
		return "<nil>"
	}
	if key.Name() != "" {
		return key.Name()
	}
	return key.String()
}

// layer is one stack frame, tied to one active conversion.
type layer struct {
	key   Key
	slots slotStore
}

// Scope is returned by Push and must be handed back to Pop in LIFO order.
type Scope struct {
	key   Key
	index int
}

// Key reports the key the scope was pushed with.
func (s Scope) Key() Key {
	return s.key
}

// Context is the scope stack threaded through one conversion run. It owns
// every counter, declaration record, import table and the persistent registry
// produced during the run. A Context is not safe for concurrent use.
type Context struct {
	layers []*layer
	cfg    config
	kinds  *kindIndex
}

// NewContext returns a Context holding only the root layer.
func NewContext(opts ...Option) *Context {
	c := &Context{
		layers: []*layer{{key: RootKey}},
		cfg:    applyOptions(opts),
	}
	c.kinds = newKindIndex(c.cfg.kinds...)
	return c
}

// Push opens a layer keyed by key.
func (c *Context) Push(key Key) Scope {
	if key == nil {
		panic("xref: push of nil scope key")
	}
	index := len(c.layers)
	c.layers = append(c.layers, &layer{key: key})
	return Scope{key: key, index: index}
}

// Pop closes the layer opened by scope. Scopes must be popped in exact
// reverse order of Push; any mismatch is an internal consistency violation
// and panics.
func (c *Context) Pop(scope Scope) {
	if len(c.layers) <= 1 {
		panic("xref: pop of root scope")
	}
	top := c.layers[len(c.layers)-1]
	if top.key != scope.key {
		panic(fmt.Sprintf("xref: scope mismatch: popping %s but top is %s", KindName(scope.key), KindName(top.key)))
	}
	if scope.index != len(c.layers)-1 {
		panic(fmt.Sprintf("xref: scope mismatch: popping %s at depth %d but stack depth is %d", KindName(scope.key), scope.index, len(c.layers)-1))
	}
	c.layers[len(c.layers)-1] = nil
	c.layers = c.layers[:len(c.layers)-1]
}

// Depth returns the number of active layers, root included.
func (c *Context) Depth() int {
	return len(c.layers)
}

// NthLastScope returns the key of the nth layer from the top, 0 being the
// current layer.
func (c *Context) NthLastScope(n int) (Key, bool) {
	if n < 0 || n >= len(c.layers) {
		return nil, false
	}
	return c.layers[len(c.layers)-1-n].key, true
}

// find returns the innermost layer tagged key.
func (c *Context) find(key Key) *layer {
	for i := len(c.layers) - 1; i >= 0; i-- {
		if c.layers[i].key == key {
			return c.layers[i]
		}
	}
	return nil
}

func (c *Context) root() *layer {
	return c.layers[0]
}

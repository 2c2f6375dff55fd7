package xref

import (
	"slices"
	"time"
)

// counter lists the names declared for kind X in one scope, in declaration
// order. The type parameter gives every kind its own slot.
type counter[X Identifiable] struct {
	names []string
}

func (c *counter[X]) position(name string) (int, bool) {
	index := slices.Index(c.names, name)
	return index, index >= 0
}

// currentDeclaration is the declaration made by the object that owns the
// layer it is stored in.
type currentDeclaration struct {
	index  int
	parent Key
	name   string
}

func scopeOf[X Identifiable]() Key {
	var zero X
	return zero.IdentifierScope()
}

// Declare registers name as a new identifier of kind X and returns its
// handle. The counter lives in the layer of X's scope and the declaration
// record in the layer of X, so both must be on the stack. When track is set
// the name is also persisted under the index path of its enclosing
// declarations so references can reach it after the scope closes.
func Declare[X Identifiable](c *Context, name string, track bool) (ID[X], error) {
	start := time.Now()
	kind := KeyOf[X]()
	id, path, err := declare[X](c, kind, name, track)
	c.observe(Event{
		Op:       OpDeclare,
		Kind:     kind,
		Name:     name,
		Index:    id.Index(),
		Path:     path,
		Tracked:  track,
		Depth:    c.Depth(),
		Duration: time.Since(start),
		Err:      err,
	})
	return id, err
}

func declare[X Identifiable](c *Context, kind Key, name string, track bool) (ID[X], []int, error) {
	scope := scopeOf[X]()
	names := GetMut[counter[X]](c, scope, nil)
	if _, exists := names.position(name); exists {
		return ID[X]{}, nil, &IdentifierError{Kind: kind, Name: name, Err: ErrDuplicateIdentifier}
	}
	index := len(names.names)
	id := NewID[X](index)
	names.names = append(names.names, name)

	created := false
	record := GetMut(c, kind, func() currentDeclaration {
		created = true
		return currentDeclaration{index: index, parent: scope, name: name}
	})
	if !created {
		return ID[X]{}, nil, &IdentifierError{
			Kind:     kind,
			Name:     name,
			Index:    index,
			Existing: record.index,
			Err:      ErrMultipleDeclarations,
		}
	}

	if !track {
		return id, nil, nil
	}
	path := c.ancestorPath(scope)
	recordTracked[X](c, path, name)
	return id, path, nil
}

// ancestorPath collects the indices of the current declarations starting at
// key and following each record's parent, returned root first.
func (c *Context) ancestorPath(key Key) []int {
	path := []int{}
	visited := map[*layer]struct{}{}
	next := key
	for {
		owner := c.find(next)
		if owner == nil {
			break
		}
		if _, seen := visited[owner]; seen {
			break
		}
		visited[owner] = struct{}{}
		record, ok := slotOf[currentDeclaration](owner.slots)
		if !ok {
			break
		}
		path = append(path, record.index)
		next = record.parent
	}
	slices.Reverse(path)
	return path
}

// CurrentName returns the original string of the declaration made by the
// innermost X being converted.
func CurrentName[X Identifiable](c *Context) (string, error) {
	kind := KeyOf[X]()
	record, ok := Get[currentDeclaration](c, kind)
	if !ok {
		return "", &IdentifierError{Kind: kind, Err: ErrNoCurrentDeclaration}
	}
	return record.name, nil
}

package xref

import (
	"slices"
	"time"
)

// importTable maps a kind to the index path of the persisted registry entry
// that references to that kind should use while the owning layer is active.
type importTable struct {
	paths map[Key][]int
}

func (t *importTable) lookup(kind Key) ([]int, bool) {
	if t == nil || t.paths == nil {
		return nil, false
	}
	path, ok := t.paths[kind]
	return path, ok
}

// Resolve returns the handle of an existing identifier of kind X.
//
// While X's scope is active the name is looked up in that scope's counter.
// Once the scope has closed, the innermost import table entry for X selects
// the persisted list to search instead.
//
// Every kind in imports is made visible to the siblings of the field being
// converted: an entry pointing at the persisted names declared under the
// resolved identifier is written into the layer beneath the top, the
// enclosing object when called by the converter. Imports cover a single
// level of nesting; kinds scoped two or more levels below X are not
// reachable this way.
func Resolve[X Identifiable](c *Context, name string, imports ...Key) (ID[X], error) {
	start := time.Now()
	kind := KeyOf[X]()
	id, path, err := resolve[X](c, kind, name)
	c.observe(Event{
		Op:       OpResolve,
		Kind:     kind,
		Name:     name,
		Index:    id.Index(),
		Path:     path,
		Depth:    c.Depth(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return id, err
	}
	if len(imports) > 0 {
		c.importInto(id.Index(), imports)
	}
	return id, nil
}

func resolve[X Identifiable](c *Context, kind Key, name string) (ID[X], []int, error) {
	if names, ok := Get[counter[X]](c, scopeOf[X]()); ok {
		index, found := names.position(name)
		if !found {
			return ID[X]{}, nil, &IdentifierError{Kind: kind, Name: name, Err: ErrUnknownIdentifier}
		}
		return NewID[X](index), nil, nil
	}

	for table := range Each[importTable](c) {
		path, ok := table.lookup(kind)
		if !ok {
			continue
		}
		names, tracked := lookupTracked[X](c, path)
		if !tracked {
			return ID[X]{}, path, &IdentifierError{Kind: kind, Name: name, Err: ErrUntrackedScope}
		}
		index := slices.Index(names, name)
		if index < 0 {
			return ID[X]{}, path, &IdentifierError{Kind: kind, Name: name, Err: ErrUnknownIdentifier}
		}
		return NewID[X](index), path, nil
	}

	return ID[X]{}, nil, &IdentifierError{Kind: kind, Name: name, Err: ErrNoActiveOrImportedScope}
}

func (c *Context) importInto(index int, kinds []Key) {
	if len(c.layers) < 2 {
		panic("xref: import requires an enclosing scope")
	}
	owner := c.layers[len(c.layers)-2]
	table := slotIn(owner, func() importTable {
		return importTable{paths: map[Key][]int{}}
	})
	for _, kind := range kinds {
		if kind == nil {
			continue
		}
		table.paths[kind] = []int{index}
		c.observe(Event{
			Op:    OpImport,
			Kind:  kind,
			Index: index,
			Path:  []int{index},
			Depth: len(c.layers) - 1,
		})
	}
}

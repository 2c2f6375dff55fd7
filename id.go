package xref

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
)

// Identifiable is implemented by the value types that own identifiers.
// IdentifierScope returns the key of the namespace the identifiers of the
// type must be unique in; RootKey makes them global to the run.
//
// The method must use a value receiver so the zero value answers it.
type Identifiable interface {
	IdentifierScope() Key
}

// ID is the resolved handle of an identifier of kind X. The index equals the
// position of the name in its declaration counter, or in the persisted list it
// was resolved against. An ID holds no reference to the Context that made it.
type ID[X Identifiable] struct {
	index uint32
}

// NewID wraps index. Indices beyond the uint32 range panic.
func NewID[X Identifiable](index int) ID[X] {
	return ID[X]{index: checkedIndex(index)}
}

func checkedIndex(index int) uint32 {
	if index < 0 || uint64(index) > math.MaxUint32 {
		panic(fmt.Sprintf("xref: identifier index %d out of range", index))
	}
	return uint32(index)
}

// Index returns the integer value of the handle.
func (id ID[X]) Index() int {
	return int(id.index)
}

// Kind returns the key of X.
func (id ID[X]) Kind() Key {
	return KeyOf[X]()
}

// Compare orders handles by index.
func (id ID[X]) Compare(other ID[X]) int {
	return cmp.Compare(id.index, other.index)
}

// Less reports whether id sorts before other.
func (id ID[X]) Less(other ID[X]) bool {
	return id.index < other.index
}

func (id ID[X]) String() string {
	return fmt.Sprintf("ID(%d)", id.index)
}

// MarshalJSON encodes the handle as its index.
func (id ID[X]) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.index)
}

// UnmarshalJSON decodes an index previously produced by MarshalJSON.
func (id *ID[X]) UnmarshalJSON(data []byte) error {
	var index uint32
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("xref: decode %s handle: %w", KindName(KeyOf[X]()), err)
	}
	id.index = index
	return nil
}

func (ID[X]) identifierKind() Key {
	return KeyOf[X]()
}

func (id *ID[X]) declareFrom(c *Context, name string, track bool) error {
	declared, err := Declare[X](c, name, track)
	if err != nil {
		return err
	}
	*id = declared
	return nil
}

func (id *ID[X]) resolveFrom(c *Context, name string, imports []Key) error {
	resolved, err := Resolve[X](c, name, imports...)
	if err != nil {
		return err
	}
	*id = resolved
	return nil
}

// identifierField is satisfied by *ID[X]; the converter uses it to reach the
// generic registry operations through reflection.
type identifierField interface {
	identifierKind() Key
	declareFrom(c *Context, name string, track bool) error
	resolveFrom(c *Context, name string, imports []Key) error
}

// Name carries the original string of the current declaration of X. The
// converter fills it from CurrentName; it has no raw counterpart.
type Name[X Identifiable] struct {
	value string
}

// Value returns the original identifier string.
func (n Name[X]) Value() string {
	return n.value
}

func (n Name[X]) String() string {
	return n.value
}

// MarshalJSON encodes the name as a JSON string.
func (n Name[X]) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.value)
}

func (n *Name[X]) fillFrom(c *Context) error {
	value, err := CurrentName[X](c)
	if err != nil {
		return err
	}
	n.value = value
	return nil
}

func (Name[X]) nameKind() Key {
	return KeyOf[X]()
}

type nameField interface {
	nameKind() Key
	fillFrom(c *Context) error
}

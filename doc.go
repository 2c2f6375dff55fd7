// Package xref converts decoded configuration trees into typed values whose
// string identifiers are replaced by integer handles.
//
// Objects declare identifiers with `xref:"id,new"` fields and other objects
// refer to them with plain ID[X] fields. Every declaration and reference is
// checked in a single pass while the tree is converted: names are unique in
// their scope, references only reach names declared earlier in an active
// scope, and names of closed scopes are reachable through tracked imports.
//
//	type Stage struct {
//		ID    xref.ID[Stage] `xref:"id,new"`
//		Steps []Step         `xref:"steps"`
//	}
//
//	func (Stage) IdentifierScope() xref.Key { return xref.RootKey }
//
//	pipeline, err := xref.Convert[Pipeline](xref.NewContext(), raw)
package xref

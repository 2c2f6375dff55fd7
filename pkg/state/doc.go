// Package state persists raw documents per layer and turns the layers of one
// domain into a converted value.
//
// A Store only loads and saves the single document behind a Ref. Resolver
// loads every requested layer, merges them with layering.MergeRaw (the first
// layer wins) and converts the merged tree with xref.Convert, so identifiers
// are declared and resolved against the final document. Mutate runs the same
// conversion before saving, which keeps documents that no longer resolve out
// of the store.
//
// Keys:
//
//	Ref.Identifier() is "<domain>/<layer>", e.g. "pipelines/env/prod" for
//	layer "env/prod" of domain "pipelines". Domains never contain '/'.
package state

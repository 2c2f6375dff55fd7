package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-xref"
	"github.com/goliatone/go-xref/layering"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

// ErrNoLayers is returned when none of the requested layers exist.
var ErrNoLayers = errors.New("state: no layers found")

// Ref identifies one persisted document of one domain.
type Ref struct {
	Domain string
	Layer  string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one raw document for a single reference.
type Store interface {
	Load(ctx context.Context, ref Ref) (document map[string]any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, document map[string]any, meta Meta) (Meta, error)
}

// Mutator edits a raw document in place.
type Mutator func(document map[string]any) error

// Resolver merges the stored layers of a domain and converts them into T.
// Options configure the xref.Context of every conversion.
type Resolver[T any] struct {
	Store   Store
	Options []xref.Option
}

// Identifier returns the canonical storage key of the reference. Domains
// cannot contain '/', so the key splits back into one Ref at its first slash.
func (r Ref) Identifier() (string, error) {
	domain := strings.Trim(strings.TrimSpace(r.Domain), "/")
	layer := strings.Trim(strings.TrimSpace(r.Layer), "/")
	switch {
	case domain == "":
		return "", fmt.Errorf("state: domain is required")
	case strings.Contains(domain, "/"):
		return "", fmt.Errorf("state: domain %q must not contain '/'", domain)
	case layer == "":
		return "", fmt.Errorf("state: layer is required for domain %q", domain)
	}
	return domain + "/" + layer, nil
}

// Resolve loads layers ordered from strongest to weakest, skipping missing
// ones, and converts the merged document.
func (r Resolver[T]) Resolve(ctx context.Context, domain string, layers ...string) (T, error) {
	var zero T
	if r.Store == nil {
		return zero, fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return zero, fmt.Errorf("state: domain is required")
	}
	if len(layers) == 0 {
		return zero, fmt.Errorf("state: at least one layer is required")
	}

	documents := make([]map[string]any, 0, len(layers))
	for _, layer := range layers {
		document, _, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Layer: layer})
		if err != nil {
			return zero, fmt.Errorf("state: load %q for layer %q: %w", domain, layer, err)
		}
		if !ok {
			continue
		}
		documents = append(documents, document)
	}
	if len(documents) == 0 {
		return zero, fmt.Errorf("%w for domain %q", ErrNoLayers, domain)
	}
	return r.convert(layering.MergeRaw(documents...))
}

// Mutate loads one document, applies fn, checks that the result converts and
// saves it. A non-empty meta.ETag must match the stored one.
func (r Resolver[T]) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (T, Meta, error) {
	var zero T
	if r.Store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	document, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q for layer %q: %w", ref.Domain, ref.Layer, err)
	}
	if !ok {
		document = map[string]any{}
		loadedMeta = Meta{}
	}
	document = layering.Clone(document)

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(document); err != nil {
		return zero, loadedMeta, err
	}
	value, err := r.convert(document)
	if err != nil {
		return zero, loadedMeta, err
	}

	savedMeta, err := r.Store.Save(ctx, ref, document, mergeMeta(loadedMeta, meta))
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %q for layer %q: %w", ref.Domain, ref.Layer, err)
	}
	return value, savedMeta, nil
}

func (r Resolver[T]) convert(document map[string]any) (T, error) {
	return xref.Convert[T](xref.NewContext(r.Options...), document)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

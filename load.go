package xref

import (
	"github.com/goliatone/go-xref/internal/hydrate"
	"github.com/goliatone/go-xref/layering"
)

// LoadFiles decodes every file by extension and merges them into one raw
// tree. Later files override earlier ones.
func LoadFiles(paths ...string) (map[string]any, error) {
	decoder := hydrate.NewDecoder()
	layers := make([]map[string]any, len(paths))
	for i, path := range paths {
		tree, err := decoder.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		layers[len(paths)-1-i] = tree
	}
	return layering.MergeRaw(layers...), nil
}

// ConvertFiles loads paths with LoadFiles and converts the merged tree.
func ConvertFiles[T any](c *Context, paths ...string) (T, error) {
	raw, err := LoadFiles(paths...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Convert[T](c, raw)
}

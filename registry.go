package xref

import (
	"strconv"
	"strings"
)

// trackedStore is the persistent registry of kind X. It lives in the root
// layer, so it outlives every scope that wrote to it.
type trackedStore[X Identifiable] struct {
	entries map[string]*trackedEntry
}

type trackedEntry struct {
	path  []int
	names []string
}

func pathKey(path []int) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, index := range path {
		parts[i] = strconv.Itoa(index)
	}
	return strings.Join(parts, "/")
}

func recordTracked[X Identifiable](c *Context, path []int, name string) {
	store := slotIn(c.root(), func() trackedStore[X] {
		return trackedStore[X]{entries: map[string]*trackedEntry{}}
	})
	key := pathKey(path)
	entry, ok := store.entries[key]
	if !ok {
		entry = &trackedEntry{path: append([]int(nil), path...)}
		store.entries[key] = entry
	}
	entry.names = append(entry.names, name)
}

func lookupTracked[X Identifiable](c *Context, path []int) ([]string, bool) {
	store, ok := slotOf[trackedStore[X]](c.root().slots)
	if !ok {
		return nil, false
	}
	entry, ok := store.entries[pathKey(path)]
	if !ok {
		return nil, false
	}
	return entry.names, true
}

// Tracked returns the names of kind X persisted under path, in declaration
// order. The returned slice is a copy.
func Tracked[X Identifiable](c *Context, path ...int) ([]string, bool) {
	names, ok := lookupTracked[X](c, path)
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

package xref

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapProgramCache is a ProgramCache safe for concurrent use.
type MapProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapProgramCache returns an empty cache.
func NewMapProgramCache() *MapProgramCache {
	return &MapProgramCache{programs: map[string]any{}}
}

// Get implements ProgramCache.
func (c *MapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

// Set implements ProgramCache.
func (c *MapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = map[string]any{}
	}
	c.programs[key] = value
}

// Len reports the number of cached programs.
func (c *MapProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

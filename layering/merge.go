// Package layering merges raw documents decoded from several sources.
package layering

// MergeRaw composes raw trees ordered from strongest to weakest. Objects are
// merged key by key; any other value, lists included, is taken whole from the
// strongest layer that sets it. Explicit nulls do not hide weaker values.
// The inputs are never modified.
func MergeRaw(layers ...map[string]any) map[string]any {
	merged := map[string]any{}
	for i := len(layers) - 1; i >= 0; i-- {
		merged = mergeMap(layers[i], merged)
	}
	return merged
}

func mergeMap(strong, weak map[string]any) map[string]any {
	result := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = cloneRaw(value)
	}
	for key, value := range strong {
		result[key] = mergeValue(value, result[key])
	}
	return result
}

func mergeValue(strong, weak any) any {
	if strong == nil {
		return weak
	}
	strongMap, ok := strong.(map[string]any)
	if !ok {
		return cloneRaw(strong)
	}
	weakMap, ok := weak.(map[string]any)
	if !ok {
		return cloneRaw(strongMap)
	}
	return mergeMap(strongMap, weakMap)
}

func cloneRaw(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for key, item := range typed {
			clone[key] = cloneRaw(item)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, item := range typed {
			clone[i] = cloneRaw(item)
		}
		return clone
	default:
		return value
	}
}

// Clone returns a deep copy of a raw tree.
func Clone(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	return cloneRaw(raw).(map[string]any)
}

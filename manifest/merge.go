package manifest

// Merge deep-merges override into base and returns the result, leaving
// both inputs untouched. The merge operates over the closed union of
// decoded JSON variants: nil, bool, float64, string, []interface{} and
// map[string]interface{}.
//
// Rules, per variant pair:
//   - nil override is a no-op, the base value survives;
//   - two arrays concatenate, base entries first;
//   - two objects merge recursively, key by key;
//   - anything else, including mismatched variants, is replaced by the
//     override value.
func Merge(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, over := range override {
		if over == nil {
			continue
		}
		result[k] = mergeValue(result[k], over)
	}
	return result
}

func mergeValue(base, override interface{}) interface{} {
	switch over := override.(type) {
	case []interface{}:
		if under, ok := base.([]interface{}); ok {
			merged := make([]interface{}, 0, len(under)+len(over))
			merged = append(merged, under...)
			merged = append(merged, over...)
			return merged
		}
	case map[string]interface{}:
		if under, ok := base.(map[string]interface{}); ok {
			return Merge(under, over)
		}
	}
	return override
}

package llmagent

import (
	"encoding/json"
	"fmt"
)

// mergeExtractions implements spec §4.8's merge rule for chunked extraction
// results: objects merge key-wise preferring non-empty values; arrays
// concatenate then dedup by stringified identity; scalars prefer the first
// non-empty value.
func mergeExtractions(a, b interface{}) interface{} {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok {
			return preferNonEmpty(a, b)
		}
		return mergeObjects(av, bv)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok {
			return preferNonEmpty(a, b)
		}
		return dedupConcat(av, bv)
	default:
		return preferNonEmpty(a, b)
	}
}

func mergeObjects(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, bv := range b {
		av, exists := out[k]
		if !exists {
			out[k] = bv
			continue
		}
		out[k] = mergeExtractions(av, bv)
	}
	return out
}

func dedupConcat(a, b []interface{}) []interface{} {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]interface{}, 0, len(a)+len(b))
	for _, v := range append(append([]interface{}{}, a...), b...) {
		key := identityKey(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func identityKey(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func preferNonEmpty(a, b interface{}) interface{} {
	if isEmpty(a) {
		return b
	}
	return a
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	default:
		return false
	}
}

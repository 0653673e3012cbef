// Package merge implements the two value-merge strategies described in
// the configuration pipeline — Override and Deep — and the
// PropertySourceList composition and flat-lookup operations built on top
// of them.
package merge

import (
	"github.com/cburgosro9303/vortex-config/internal/source"
	"github.com/cburgosro9303/vortex-config/internal/value"
)

// Override replaces low with high wholesale for every key high defines;
// arrays and nested objects alike are replaced, not merged. A key present
// in high with an explicit null value is itself a replacement — per
// Deep's "primitives are replaced" rule, Override never treats null as
// "no value provided" and falls back to low; only a key's absence from
// high (handled by the caller, which never invokes Override for a key
// high doesn't have) does that.
func Override(low, high value.Value) value.Value {
	return high
}

// Deep recursively merges two objects key-by-key. Arrays are replaced
// wholesale (never concatenated) and primitives are replaced. Deep is
// the default merge strategy for property sources.
func Deep(low, high value.Value) value.Value {
	lowObj, lowIsObj := low.AsObject()
	highObj, highIsObj := high.AsObject()

	if !lowIsObj || !highIsObj {
		return Override(low, high)
	}

	result := lowObj.Clone()

	highObj.Range(func(k string, hv value.Value) bool {
		if lv, ok := result.Get(k); ok {
			result.Set(k, Deep(lv, hv))
		} else {
			result.Set(k, hv.Clone())
		}

		return true
	})

	return value.Object(result)
}

// Sources composes a PropertySourceList into a single merged Value. Per
// §4.3, composition proceeds lowest-to-highest priority: starting from an
// empty object, Deep-merge each source's properties in reverse list
// order (the list itself is priority order, highest first).
func Sources(list source.PropertySourceList) value.Value {
	result := value.Object(value.NewOrderedMap())

	for i := len(list) - 1; i >= 0; i-- {
		result = Deep(result, value.Object(list[i].Properties))
	}

	return result
}

// FlatLookup scans sources in priority order and returns the first hit
// for the flattened key k, matching Spring's Environment.getProperty
// semantics: the highest-priority source that contains k wins, without
// regard to what lower-priority sources contain.
func FlatLookup(list source.PropertySourceList, key string) (value.Value, bool) {
	for _, ps := range list {
		flat := value.Flatten(value.Object(ps.Properties))
		if v, ok := flat.Get(key); ok {
			return v, true
		}
	}

	return value.Value{}, false
}

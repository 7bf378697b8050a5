package draft

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/fieldsafe/go-sssp/pkg/types"
)

// Changes computes the field-level deltas between two snapshots of a draft.
// Scalars compare by strict inequality; arrays are atomic (one change record
// for the whole array when the serialized forms differ, regardless of how
// many elements moved); nested maps present on both sides recurse with a
// dotted path prefix. A field whose kind differs between snapshots counts as
// a single scalar change. Keys are walked in sorted order at each level so
// the output is deterministic. The comparison never panics: values that
// cannot be compared directly fall back to serialized-string equality.
func Changes(previous, current map[string]any, prefix string) []types.FieldChange {
	if len(current) == 0 {
		return nil
	}
	keys := make([]string, 0, len(current))
	for key := range current {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []types.FieldChange
	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		currValue := current[key]
		prevValue := previous[key]

		currMap, currIsMap := currValue.(map[string]any)
		prevMap, prevIsMap := prevValue.(map[string]any)

		switch {
		case currIsMap && prevIsMap:
			out = append(out, Changes(prevMap, currMap, path)...)
		case isSlice(currValue) || isSlice(prevValue):
			// Arrays diff as a unit. Downstream audit consumers rely on the
			// one-entry-per-array-field granularity.
			if serialize(prevValue) != serialize(currValue) {
				out = append(out, fieldChange(path, prevValue, currValue))
			}
		default:
			if !scalarEqual(prevValue, currValue) {
				out = append(out, fieldChange(path, prevValue, currValue))
			}
		}
	}
	return out
}

func fieldChange(path string, oldValue, newValue any) types.FieldChange {
	return types.FieldChange{
		Field:       path,
		DisplayName: LabelFor(path),
		OldValue:    oldValue,
		NewValue:    newValue,
	}
}

func isSlice(value any) bool {
	if value == nil {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func scalarEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if reflect.TypeOf(a).Comparable() && reflect.TypeOf(b).Comparable() {
		return a == b
	}
	return serialize(a) == serialize(b)
}

func serialize(value any) string {
	if value == nil {
		return "null"
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}

package draft

// Standardize maps every key of the supplied draft through the field synonym
// table so both the display and the storage spelling of a dual-named field
// carry the same value. Unknown keys pass through unchanged. The function
// recurses into nested maps and into map elements of slices; scalar slice
// elements and nil values are left untouched. The input is never mutated.
//
// When both spellings of a field are present with different values the
// display spelling wins: it represents the most recent UI edit.
func Standardize(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))

	// Storage spellings first so a display-spelling edit overrides them.
	for key, value := range fields {
		if _, isDisplay := fieldSynonyms[key]; isDisplay && fieldSynonyms[key] != key {
			continue
		}
		v := standardizeValue(value)
		out[key] = v
		if display, ok := displayByCol[key]; ok {
			out[display] = v
		}
	}
	for key, value := range fields {
		canonical, isDisplay := fieldSynonyms[key]
		if !isDisplay || canonical == key {
			continue
		}
		// Both spellings stay readable: canonical is always populated and
		// the original key keeps carrying the same value.
		v := standardizeValue(value)
		out[canonical] = v
		out[key] = v
	}
	return out
}

// CanonicalFields returns the draft reduced to storage spellings only: every
// display-convention key with a distinct storage twin is dropped. The function
// recurses into nested maps and into map elements of slices, matching the
// depth Standardize mirrors at. This is the shape sent to the store and used
// as the diffing baseline, so a single edit never produces one change record
// per spelling.
func CanonicalFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if canonical, ok := fieldSynonyms[key]; ok && canonical != key {
			continue
		}
		out[key] = canonicalValue(value)
	}
	return out
}

func canonicalValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return CanonicalFields(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			if nested, ok := elem.(map[string]any); ok {
				out[i] = CanonicalFields(nested)
			} else {
				out[i] = elem
			}
		}
		return out
	default:
		return value
	}
}

func standardizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Standardize(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			if nested, ok := elem.(map[string]any); ok {
				out[i] = Standardize(nested)
			} else {
				out[i] = elem
			}
		}
		return out
	default:
		return value
	}
}

package draft

import (
	"fmt"
	"sort"

	"github.com/fieldsafe/go-sssp/pkg/types"
)

// majorChangeThreshold is the number of changed fields beyond which a single
// save is classified as major in the activity log.
const majorChangeThreshold = 5

// SeverityFor classifies a save by the number of fields it changed.
func SeverityFor(changed int) types.ChangeSeverity {
	if changed > majorChangeThreshold {
		return types.ChangeSeverityMajor
	}
	return types.ChangeSeverityMinor
}

// GroupBySection buckets change records by document section, returning the
// section names in sorted order alongside the grouped changes.
func GroupBySection(changes []types.FieldChange) ([]string, map[string][]types.FieldChange) {
	grouped := make(map[string][]types.FieldChange)
	for _, change := range changes {
		section := SectionFor(change.Field)
		grouped[section] = append(grouped[section], change)
	}
	sections := make([]string, 0, len(grouped))
	for section := range grouped {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	return sections, grouped
}

// Summary renders the human-readable description of a section's change batch.
func Summary(section string, changes []types.FieldChange) string {
	switch len(changes) {
	case 0:
		return fmt.Sprintf("No changes in %s", section)
	case 1:
		return fmt.Sprintf("Updated %s in %s", changes[0].DisplayName, section)
	default:
		return fmt.Sprintf("Updated %d fields in %s", len(changes), section)
	}
}

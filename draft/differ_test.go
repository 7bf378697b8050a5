package draft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChanges_ScalarChangeCarriesDisplayName(t *testing.T) {
	changes := Changes(
		map[string]any{"title": "Old", "client_name": "Acme"},
		map[string]any{"title": "New", "client_name": "Acme"},
		"",
	)

	require.Len(t, changes, 1)
	require.Equal(t, "title", changes[0].Field)
	require.Equal(t, "Project Name", changes[0].DisplayName)
	require.Equal(t, "Old", changes[0].OldValue)
	require.Equal(t, "New", changes[0].NewValue)
}

func TestChanges_NestedMapsProduceDottedPaths(t *testing.T) {
	changes := Changes(
		map[string]any{"emergency_contacts": map[string]any{"phone": "111"}},
		map[string]any{"emergency_contacts": map[string]any{"phone": "999"}},
		"",
	)

	require.Len(t, changes, 1)
	require.Equal(t, "emergency_contacts.phone", changes[0].Field)
	require.Equal(t, "Emergency Contacts", changes[0].DisplayName)
}

func TestChanges_ArraysAreAtomic(t *testing.T) {
	changes := Changes(
		map[string]any{"hazards": []any{"dust", "noise"}},
		map[string]any{"hazards": []any{"noise", "dust"}},
		"",
	)

	require.Len(t, changes, 1)
	require.Equal(t, "hazards", changes[0].Field)
	require.Equal(t, []any{"dust", "noise"}, changes[0].OldValue)
	require.Equal(t, []any{"noise", "dust"}, changes[0].NewValue)

	same := Changes(
		map[string]any{"hazards": []any{"dust"}},
		map[string]any{"hazards": []any{"dust"}},
		"",
	)
	require.Empty(t, same)
}

func TestChanges_AddedKeysReported(t *testing.T) {
	changes := Changes(
		map[string]any{"site_rules": "No smoking"},
		map[string]any{"site_rules": "No smoking", "review_schedule": "Monthly"},
		"",
	)

	require.Len(t, changes, 1)
	require.Equal(t, "review_schedule", changes[0].Field)
	require.Nil(t, changes[0].OldValue)
	require.Equal(t, "Monthly", changes[0].NewValue)
}

func TestChanges_DeterministicOrder(t *testing.T) {
	previous := map[string]any{"zeta": 1, "alpha": 1, "mid": 1}
	current := map[string]any{"zeta": 2, "alpha": 2, "mid": 2}

	first := Changes(previous, current, "")
	require.Len(t, first, 3)
	require.Equal(t, "alpha", first[0].Field)
	require.Equal(t, "mid", first[1].Field)
	require.Equal(t, "zeta", first[2].Field)

	for i := 0; i < 20; i++ {
		again := Changes(previous, current, "")
		require.Equal(t, first, again)
	}
}

func TestChanges_NilMapsNeverPanic(t *testing.T) {
	require.Empty(t, Changes(nil, nil, ""))

	added := Changes(nil, map[string]any{"title": "A"}, "")
	require.Len(t, added, 1)
	require.Nil(t, added[0].OldValue)

	require.Empty(t, Changes(map[string]any{"title": "A"}, nil, ""))
}

func TestChanges_UncomparableValuesFallBackToSerialization(t *testing.T) {
	previous := map[string]any{"matrix": map[string]any{"rows": []any{1, 2}}}
	current := map[string]any{"matrix": map[string]any{"rows": []any{1, 2}}}

	require.Empty(t, Changes(previous, current, ""))
}

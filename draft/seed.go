package draft

import (
	opts "github.com/goliatone/go-options"
)

// ResolveSeed layers caller-supplied seed values over company defaults and
// returns the standardized result. Either map may be nil; the output is
// always a fresh map safe to mutate.
func ResolveSeed(defaults, seed map[string]any) (map[string]any, error) {
	if len(defaults) == 0 && len(seed) == 0 {
		return map[string]any{}, nil
	}

	layers := make([]opts.Layer[map[string]any], 0, 2)

	base := opts.NewScope("defaults", opts.ScopePrioritySystem,
		opts.WithScopeLabel("Company Defaults"))
	layers = append(layers, opts.NewLayer(base, cloneFieldMap(defaults),
		opts.WithSnapshotID[map[string]any](base.Name)))

	over := opts.NewScope("seed", opts.ScopePriorityUser,
		opts.WithScopeLabel("Session Seed"))
	layers = append(layers, opts.NewLayer(over, cloneFieldMap(seed),
		opts.WithSnapshotID[map[string]any](over.Name)))

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return Standardize(merged.Value), nil
}

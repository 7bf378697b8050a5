package types

import (
	"fmt"
)

// ErrTransitionNotAllowed reports that the target status is not reachable from
// the current status according to configured policies.
var ErrTransitionNotAllowed = fmt.Errorf("sssp: plan status transition not allowed")

// TransitionPolicy validates plan status transitions.
type TransitionPolicy interface {
	Validate(current, target PlanStatus) error
	AllowedTargets(current PlanStatus) []PlanStatus
}

// StaticTransitionPolicy enforces a fixed transition graph.
type StaticTransitionPolicy struct {
	graph map[PlanStatus]map[PlanStatus]struct{}
}

// NewStaticTransitionPolicy creates a policy from a transition graph.
func NewStaticTransitionPolicy(graph map[PlanStatus][]PlanStatus) *StaticTransitionPolicy {
	internal := make(map[PlanStatus]map[PlanStatus]struct{}, len(graph))
	for from, targets := range graph {
		targetSet := make(map[PlanStatus]struct{}, len(targets))
		for _, to := range targets {
			if to == "" {
				continue
			}
			targetSet[to] = struct{}{}
		}
		internal[from] = targetSet
	}
	return &StaticTransitionPolicy{graph: internal}
}

// DefaultTransitionPolicy returns the document lifecycle used by the SSSP
// manager: drafts publish or archive, published plans archive, archived plans
// can be restored back to draft for rework.
func DefaultTransitionPolicy() *StaticTransitionPolicy {
	return NewStaticTransitionPolicy(map[PlanStatus][]PlanStatus{
		PlanStatusDraft:     {PlanStatusPublished, PlanStatusArchived},
		PlanStatusPublished: {PlanStatusArchived},
		PlanStatusArchived:  {PlanStatusDraft},
	})
}

// Validate ensures the target is allowed from the current status.
func (p *StaticTransitionPolicy) Validate(current, target PlanStatus) error {
	if current == "" || target == "" {
		return ErrTransitionNotAllowed
	}
	targets, ok := p.graph[current]
	if !ok {
		return ErrTransitionNotAllowed
	}
	if _, ok := targets[target]; !ok {
		return ErrTransitionNotAllowed
	}
	return nil
}

// AllowedTargets returns the slice of valid targets from the provided status.
func (p *StaticTransitionPolicy) AllowedTargets(current PlanStatus) []PlanStatus {
	targets := p.graph[current]
	if len(targets) == 0 {
		return nil
	}
	out := make([]PlanStatus, 0, len(targets))
	for target := range targets {
		out = append(out, target)
	}
	return out
}

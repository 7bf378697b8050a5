package query

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanDetailInput scopes single-plan lookups.
type PlanDetailInput struct {
	PlanID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (PlanDetailInput) Type() string {
	return "query.plan.detail"
}

// Validate implements gocommand.Message.
func (input PlanDetailInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return types.ErrPlanIDRequired
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	default:
		return nil
	}
}

// PlanDetailQuery fetches a single plan record.
type PlanDetailQuery struct {
	repo  types.PlanRepository
	guard scope.Guard
}

// NewPlanDetailQuery constructs the detail query helper.
func NewPlanDetailQuery(repo types.PlanRepository, guard scope.Guard) *PlanDetailQuery {
	return &PlanDetailQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[PlanDetailInput, *types.PlanRecord] = (*PlanDetailQuery)(nil)

// Query returns the plan for the supplied identifiers. A plan that does not
// exist, or sits outside the enforced scope, yields a nil record with no
// error; callers decide whether absence is exceptional.
func (q *PlanDetailQuery) Query(ctx context.Context, input PlanDetailInput) (*types.PlanRecord, error) {
	if q.repo == nil {
		return nil, types.ErrMissingPlanRepository
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	scopeFilter, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansRead, input.PlanID)
	if err != nil {
		return nil, err
	}
	plan, err := q.repo.GetPlan(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	if !planInScope(plan, scopeFilter) {
		return nil, nil
	}
	return plan, nil
}

// planInScope checks enforced company/site boundaries against the row. A zero
// value in the enforced scope leaves that dimension unconstrained.
func planInScope(plan *types.PlanRecord, scope types.ScopeFilter) bool {
	if scope.CompanyID != uuid.Nil && plan.CompanyID != scope.CompanyID {
		return false
	}
	if scope.SiteID != uuid.Nil && plan.SiteID != scope.SiteID {
		return false
	}
	return true
}

package query

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

const (
	defaultInventoryLimit = 50
	maxInventoryLimit     = 200
)

// PlanInventoryQuery wraps ListPlans repositories and normalizes filters for
// dashboard panels.
type PlanInventoryQuery struct {
	repo   types.PlanRepository
	logger types.Logger
	guard  scope.Guard
}

// NewPlanInventoryQuery constructs the query helper.
func NewPlanInventoryQuery(repo types.PlanRepository, logger types.Logger, guard scope.Guard) *PlanInventoryQuery {
	return &PlanInventoryQuery{
		repo:   repo,
		logger: logger,
		guard:  safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[types.PlanInventoryFilter, types.PlanInventoryPage] = (*PlanInventoryQuery)(nil)

// Query delegates to the configured repository after normalizing filters.
func (q *PlanInventoryQuery) Query(ctx context.Context, filter types.PlanInventoryFilter) (types.PlanInventoryPage, error) {
	if q.repo == nil {
		return types.PlanInventoryPage{}, types.ErrMissingPlanRepository
	}
	if err := filter.Validate(); err != nil {
		return types.PlanInventoryPage{}, err
	}
	scope, err := q.guard.Enforce(ctx, filter.Actor, filter.Scope, types.PolicyActionPlansRead, uuid.Nil)
	if err != nil {
		return types.PlanInventoryPage{}, err
	}
	filter.Scope = scope
	normalized := normalizeInventoryFilter(filter)
	return q.repo.ListPlans(ctx, normalized)
}

func normalizeInventoryFilter(filter types.PlanInventoryFilter) types.PlanInventoryFilter {
	out := filter
	if out.Pagination.Limit <= 0 {
		out.Pagination.Limit = defaultInventoryLimit
	}
	if out.Pagination.Limit > maxInventoryLimit {
		out.Pagination.Limit = maxInventoryLimit
	}
	if out.Pagination.Offset < 0 {
		out.Pagination.Offset = 0
	}
	return out
}

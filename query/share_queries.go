package query

import (
	"context"
	"errors"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanSharesInput lists everyone a plan is shared with.
type PlanSharesInput struct {
	PlanID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (PlanSharesInput) Type() string {
	return "query.share.plan"
}

// Validate implements gocommand.Message.
func (input PlanSharesInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return types.ErrPlanIDRequired
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	default:
		return nil
	}
}

// PlanSharesQuery lists grants attached to one plan.
type PlanSharesQuery struct {
	registry types.ShareRegistry
	guard    scope.Guard
}

// NewPlanSharesQuery constructs the share listing helper.
func NewPlanSharesQuery(registry types.ShareRegistry, guard scope.Guard) *PlanSharesQuery {
	return &PlanSharesQuery{
		registry: registry,
		guard:    safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[PlanSharesInput, []types.ShareGrant] = (*PlanSharesQuery)(nil)

// Query forwards to the registry.
func (q *PlanSharesQuery) Query(ctx context.Context, input PlanSharesInput) ([]types.ShareGrant, error) {
	if q.registry == nil {
		return nil, types.ErrMissingShareRegistry
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	scopeFilter, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansRead, input.PlanID)
	if err != nil {
		return nil, err
	}
	return q.registry.ListPlanShares(ctx, input.PlanID, scopeFilter)
}

// UserSharesInput lists every plan shared with a user.
type UserSharesInput struct {
	UserID uuid.UUID
	Scope  types.ScopeFilter
	Actor  types.ActorRef
}

// Type implements gocommand.Message.
func (UserSharesInput) Type() string {
	return "query.share.user"
}

// Validate implements gocommand.Message.
func (input UserSharesInput) Validate() error {
	switch {
	case input.UserID == uuid.Nil:
		return errShareUserIDRequired
	case input.Actor.ID == uuid.Nil:
		return types.ErrActorRequired
	default:
		return nil
	}
}

var errShareUserIDRequired = errors.New("sssp: share lookup requires user id")

// UserSharesQuery lists plans visible to a user through shares.
type UserSharesQuery struct {
	registry types.ShareRegistry
	guard    scope.Guard
}

// NewUserSharesQuery constructs the user share listing helper.
func NewUserSharesQuery(registry types.ShareRegistry, guard scope.Guard) *UserSharesQuery {
	return &UserSharesQuery{
		registry: registry,
		guard:    safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[UserSharesInput, []types.ShareGrant] = (*UserSharesQuery)(nil)

// Query forwards to the registry.
func (q *UserSharesQuery) Query(ctx context.Context, input UserSharesInput) ([]types.ShareGrant, error) {
	if q.registry == nil {
		return nil, types.ErrMissingShareRegistry
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	scopeFilter, err := q.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansRead, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return q.registry.ListUserShares(ctx, input.UserID, scopeFilter)
}

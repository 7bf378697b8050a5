package query

import (
	"context"

	"github.com/fieldsafe/go-sssp/activity"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ActivityQueryOption customizes activity query helpers.
type ActivityQueryOption func(*ActivityFeedQuery)

// WithActivityAccessPolicy installs a role-aware access policy on the feed
// query. Without a policy the guard-enforced scope is applied verbatim.
func WithActivityAccessPolicy(policy activity.ActivityAccessPolicy) ActivityQueryOption {
	return func(q *ActivityFeedQuery) {
		q.policy = policy
	}
}

// ActivityFeedQuery renders paginated activity feeds for dashboards.
type ActivityFeedQuery struct {
	repo   types.ActivityRepository
	guard  scope.Guard
	policy activity.ActivityAccessPolicy
}

// NewActivityFeedQuery constructs the feed query helper.
func NewActivityFeedQuery(repo types.ActivityRepository, guard scope.Guard, opts ...ActivityQueryOption) *ActivityFeedQuery {
	q := &ActivityFeedQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

var _ gocommand.Querier[types.ActivityFilter, types.ActivityPage] = (*ActivityFeedQuery)(nil)

// Query fetches a page of activity logs via the injected repository. When an
// access policy is configured it narrows the filter by actor role and masks
// sensitive metadata on the way out.
func (q *ActivityFeedQuery) Query(ctx context.Context, filter types.ActivityFilter) (types.ActivityPage, error) {
	if q.repo == nil {
		return types.ActivityPage{}, types.ErrMissingActivityRepository
	}
	if err := filter.Validate(); err != nil {
		return types.ActivityPage{}, err
	}
	scopeFilter, err := q.guard.Enforce(ctx, filter.Actor, filter.Scope, types.PolicyActionActivityRead, uuid.Nil)
	if err != nil {
		return types.ActivityPage{}, err
	}
	if q.policy != nil {
		filter, err = q.policy.Apply(filter.Actor, scopeFilter, filter.Actor.Type, filter)
		if err != nil {
			return types.ActivityPage{}, err
		}
	} else {
		filter.Scope = scopeFilter
	}

	page, err := q.repo.ListActivity(ctx, filter)
	if err != nil {
		return types.ActivityPage{}, err
	}
	if q.policy != nil {
		page.Records = q.policy.Sanitize(filter.Actor, filter.Actor.Type, page.Records)
	}
	return page, nil
}

// ActivityStatsQuery aggregates activity counts per verb.
type ActivityStatsQuery struct {
	repo   types.ActivityRepository
	guard  scope.Guard
	policy activity.ActivityStatsPolicy
}

// ActivityStatsQueryOption customizes the stats helper.
type ActivityStatsQueryOption func(*ActivityStatsQuery)

// WithActivityStatsPolicy installs a role-aware policy on the stats query.
func WithActivityStatsPolicy(policy activity.ActivityStatsPolicy) ActivityStatsQueryOption {
	return func(q *ActivityStatsQuery) {
		q.policy = policy
	}
}

// NewActivityStatsQuery constructs the stats helper.
func NewActivityStatsQuery(repo types.ActivityRepository, guard scope.Guard, opts ...ActivityStatsQueryOption) *ActivityStatsQuery {
	q := &ActivityStatsQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

var _ gocommand.Querier[types.ActivityStatsFilter, types.ActivityStats] = (*ActivityStatsQuery)(nil)

// Query returns aggregate counts for UI widgets.
func (q *ActivityStatsQuery) Query(ctx context.Context, filter types.ActivityStatsFilter) (types.ActivityStats, error) {
	if q.repo == nil {
		return types.ActivityStats{}, types.ErrMissingActivityRepository
	}
	if err := filter.Validate(); err != nil {
		return types.ActivityStats{}, err
	}
	scopeFilter, err := q.guard.Enforce(ctx, filter.Actor, filter.Scope, types.PolicyActionActivityRead, uuid.Nil)
	if err != nil {
		return types.ActivityStats{}, err
	}
	if q.policy != nil {
		filter, err = q.policy.ApplyStats(filter.Actor, scopeFilter, filter.Actor.Type, filter)
		if err != nil {
			return types.ActivityStats{}, err
		}
	} else {
		filter.Scope = scopeFilter
	}
	return q.repo.ActivityStats(ctx, filter)
}

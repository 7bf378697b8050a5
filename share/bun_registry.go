// Package share persists row-level plan access grants.
package share

import (
	"context"
	"errors"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegistryConfig configures the Bun-backed share registry.
type RegistryConfig struct {
	DB          *bun.DB
	Grants      repository.Repository[*Grant]
	Clock       types.Clock
	Hooks       types.Hooks
	Logger      types.Logger
	IDGenerator types.IDGenerator
}

// Registry persists plan shares using a Bun repository.
type Registry struct {
	grants repository.Repository[*Grant]
	clock  types.Clock
	hooks  types.Hooks
	logger types.Logger
	idGen  types.IDGenerator
}

// NewRegistry constructs the default share registry. Either DB or the grants
// repository must be provided; when DB is supplied the repository is created
// automatically.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	idGen := cfg.IDGenerator
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	grants := cfg.Grants
	if grants == nil {
		if cfg.DB == nil {
			return nil, errors.New("share registry: db or repository must be provided")
		}
		grants = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Grant]{
			NewRecord: func() *Grant { return &Grant{} },
			GetID: func(grant *Grant) uuid.UUID {
				if grant == nil {
					return uuid.Nil
				}
				return grant.ID
			},
			SetID: func(grant *Grant, id uuid.UUID) {
				if grant != nil {
					grant.ID = id
				}
			},
		})
	}

	return &Registry{
		grants: grants,
		clock:  clock,
		hooks:  cfg.Hooks,
		logger: logger,
		idGen:  idGen,
	}, nil
}

var _ types.ShareRegistry = (*Registry)(nil)

// GrantShare creates or updates a plan/user access grant.
func (r *Registry) GrantShare(ctx context.Context, input types.ShareMutation) (*types.ShareGrant, error) {
	if input.PlanID == uuid.Nil {
		return nil, types.ErrPlanIDRequired
	}
	if input.UserID == uuid.Nil {
		return nil, errors.New("share registry: user id required")
	}
	role := input.Role
	if role == "" {
		role = types.ShareRoleViewer
	}
	now := r.clock.Now()

	existing, err := r.findGrant(ctx, input.PlanID, input.UserID)
	switch {
	case err == nil && existing != nil:
		existing.Role = string(role)
		existing.GrantedAt = now
		existing.GrantedBy = input.ActorID
		updated, err := r.grants.Update(ctx, existing)
		if err != nil {
			return nil, err
		}
		grant := toDomain(updated)
		r.emitShareEvent(ctx, shareEvent(grant, "share.granted", input.ActorID, now))
		return &grant, nil
	case repository.IsRecordNotFound(err):
		record := &Grant{
			ID:        r.idGen.UUID(),
			PlanID:    input.PlanID,
			UserID:    input.UserID,
			CompanyID: input.Scope.CompanyID,
			SiteID:    input.Scope.SiteID,
			Role:      string(role),
			GrantedAt: now,
			GrantedBy: input.ActorID,
		}
		created, err := r.grants.Create(ctx, record)
		if err != nil {
			// A concurrent grant for the same pair wins the insert; fold the
			// role update onto the surviving row.
			if repository.IsDuplicatedKey(err) {
				return r.GrantShare(ctx, input)
			}
			return nil, err
		}
		grant := toDomain(created)
		r.emitShareEvent(ctx, shareEvent(grant, "share.granted", input.ActorID, now))
		return &grant, nil
	default:
		return nil, err
	}
}

// RevokeShare removes a plan/user grant. Revoking an absent grant is a no-op.
func (r *Registry) RevokeShare(ctx context.Context, planID, userID uuid.UUID, scope types.ScopeFilter, actor uuid.UUID) error {
	if planID == uuid.Nil {
		return types.ErrPlanIDRequired
	}
	err := r.grants.DeleteWhere(ctx,
		func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("plan_id = ? AND user_id = ?", planID, userID)
		},
	)
	if err != nil {
		return err
	}
	r.emitShareEvent(ctx, types.ShareEvent{
		PlanID:     planID,
		UserID:     userID,
		Action:     "share.revoked",
		ActorID:    actor,
		OccurredAt: r.clock.Now(),
		Scope:      scope,
	})
	return nil
}

// ListPlanShares returns every grant on a plan.
func (r *Registry) ListPlanShares(ctx context.Context, planID uuid.UUID, scope types.ScopeFilter) ([]types.ShareGrant, error) {
	if planID == uuid.Nil {
		return nil, types.ErrPlanIDRequired
	}
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("ps.plan_id = ?", planID)
		return scopedShares(q, scope).OrderExpr("ps.granted_at ASC")
	})
}

// ListUserShares returns every plan granted to a user.
func (r *Registry) ListUserShares(ctx context.Context, userID uuid.UUID, scope types.ScopeFilter) ([]types.ShareGrant, error) {
	if userID == uuid.Nil {
		return nil, errors.New("share registry: user id required")
	}
	return r.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		q = q.Where("ps.user_id = ?", userID)
		return scopedShares(q, scope).OrderExpr("ps.granted_at ASC")
	})
}

func (r *Registry) list(ctx context.Context, criteria repository.SelectCriteria) ([]types.ShareGrant, error) {
	records, _, err := r.grants.List(ctx, criteria)
	if err != nil {
		return nil, err
	}
	grants := make([]types.ShareGrant, 0, len(records))
	for _, record := range records {
		grants = append(grants, toDomain(record))
	}
	return grants, nil
}

func (r *Registry) findGrant(ctx context.Context, planID, userID uuid.UUID) (*Grant, error) {
	records, _, err := r.grants.List(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("ps.plan_id = ? AND ps.user_id = ?", planID, userID).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return records[0], nil
}

func (r *Registry) emitShareEvent(ctx context.Context, event types.ShareEvent) {
	if r.hooks.AfterShareChange == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("share hook panic", errors.New("panic in AfterShareChange"), "panic", rec)
		}
	}()
	r.hooks.AfterShareChange(ctx, event)
}

func scopedShares(q *bun.SelectQuery, scope types.ScopeFilter) *bun.SelectQuery {
	if scope.CompanyID != uuid.Nil {
		q = q.Where("ps.company_id = ?", scope.CompanyID)
	}
	if scope.SiteID != uuid.Nil {
		q = q.Where("ps.site_id = ?", scope.SiteID)
	}
	return q
}

func shareEvent(grant types.ShareGrant, action string, actor uuid.UUID, at time.Time) types.ShareEvent {
	return types.ShareEvent{
		PlanID:     grant.PlanID,
		UserID:     grant.UserID,
		Role:       grant.Role,
		Action:     action,
		ActorID:    actor,
		OccurredAt: at,
		Scope:      grant.Scope,
	}
}

func toDomain(record *Grant) types.ShareGrant {
	if record == nil {
		return types.ShareGrant{}
	}
	return types.ShareGrant{
		PlanID: record.PlanID,
		UserID: record.UserID,
		Role:   types.ShareRole(record.Role),
		Scope: types.ScopeFilter{
			CompanyID: record.CompanyID,
			SiteID:    record.SiteID,
		},
		GrantedAt: record.GrantedAt,
		GrantedBy: record.GrantedBy,
	}
}

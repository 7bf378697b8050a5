package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ShareRevokeInput removes a user's access to a plan.
type ShareRevokeInput struct {
	PlanID uuid.UUID
	UserID uuid.UUID
	Actor  types.ActorRef
	Scope  types.ScopeFilter
}

// Type implements gocommand.Message.
func (ShareRevokeInput) Type() string {
	return "command.share.revoke"
}

// Validate implements gocommand.Message.
func (input ShareRevokeInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return ErrPlanIDRequired
	case input.UserID == uuid.Nil:
		return ErrShareUserRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ShareRevokeCommand revokes share grants through the registry.
type ShareRevokeCommand struct {
	registry types.ShareRegistry
	clock    types.Clock
	sink     types.ActivitySink
	hooks    types.Hooks
	logger   types.Logger
	guard    scope.Guard
}

// NewShareRevokeCommand constructs the revoke handler.
func NewShareRevokeCommand(cfg ShareCommandConfig) *ShareRevokeCommand {
	return &ShareRevokeCommand{
		registry: cfg.Registry,
		clock:    safeClock(cfg.Clock),
		sink:     safeActivitySink(cfg.Activity),
		hooks:    safeHooks(cfg.Hooks),
		logger:   safeLogger(cfg.Logger),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ShareRevokeInput] = (*ShareRevokeCommand)(nil)

// Execute removes the grant; revoking an absent grant is a quiet no-op at the
// registry level but still logged for the audit trail.
func (c *ShareRevokeCommand) Execute(ctx context.Context, input ShareRevokeInput) error {
	if c == nil || c.registry == nil {
		return types.ErrMissingShareRegistry
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansShare, input.PlanID)
	if err != nil {
		return err
	}

	if err := c.registry.RevokeShare(ctx, input.PlanID, input.UserID, scopeFilter, input.Actor.ID); err != nil {
		return err
	}

	record := types.ActivityRecord{
		PlanID:     input.PlanID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.unshared",
		ObjectType: "plan",
		ObjectID:   input.PlanID.String(),
		Channel:    "shares",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"user_id": input.UserID.String(),
		},
		OccurredAt: now(c.clock),
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitShareHook(ctx, c.hooks, types.ShareEvent{
		PlanID:     input.PlanID,
		UserID:     input.UserID,
		Action:     "revoked",
		ActorID:    input.Actor.ID,
		OccurredAt: record.OccurredAt,
		Scope:      scopeFilter,
	})
	return nil
}

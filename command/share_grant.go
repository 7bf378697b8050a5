package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ShareGrantInput grants a user row-level access to a plan.
type ShareGrantInput struct {
	PlanID uuid.UUID
	UserID uuid.UUID
	Role   types.ShareRole
	Actor  types.ActorRef
	Scope  types.ScopeFilter
	Result *types.ShareGrant
}

// Type implements gocommand.Message.
func (ShareGrantInput) Type() string {
	return "command.share.grant"
}

// Validate implements gocommand.Message.
func (input ShareGrantInput) Validate() error {
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

// ShareGrantCommand upserts share grants through the registry.
type ShareGrantCommand struct {
	registry types.ShareRegistry
	clock    types.Clock
	sink     types.ActivitySink
	hooks    types.Hooks
	logger   types.Logger
	guard    scope.Guard
}

// ShareCommandConfig wires dependencies shared by the grant/revoke handlers.
type ShareCommandConfig struct {
	Registry   types.ShareRegistry
	Clock      types.Clock
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Logger     types.Logger
	ScopeGuard scope.Guard
}

// NewShareGrantCommand constructs the grant handler.
func NewShareGrantCommand(cfg ShareCommandConfig) *ShareGrantCommand {
	return &ShareGrantCommand{
		registry: cfg.Registry,
		clock:    safeClock(cfg.Clock),
		sink:     safeActivitySink(cfg.Activity),
		hooks:    safeHooks(cfg.Hooks),
		logger:   safeLogger(cfg.Logger),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ShareGrantInput] = (*ShareGrantCommand)(nil)

// Execute grants (or escalates) access and records the audit trail.
func (c *ShareGrantCommand) Execute(ctx context.Context, input ShareGrantInput) error {
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

	grant, err := c.registry.GrantShare(ctx, types.ShareMutation{
		PlanID:  input.PlanID,
		UserID:  input.UserID,
		Role:    input.Role,
		Scope:   scopeFilter,
		ActorID: input.Actor.ID,
	})
	if err != nil {
		return err
	}

	record := types.ActivityRecord{
		PlanID:     input.PlanID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.shared",
		ObjectType: "plan",
		ObjectID:   input.PlanID.String(),
		Channel:    "shares",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"user_id": input.UserID.String(),
			"role":    string(grant.Role),
		},
		OccurredAt: now(c.clock),
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitShareHook(ctx, c.hooks, types.ShareEvent{
		PlanID:     input.PlanID,
		UserID:     input.UserID,
		Role:       grant.Role,
		Action:     "granted",
		ActorID:    input.Actor.ID,
		OccurredAt: record.OccurredAt,
		Scope:      scopeFilter,
	})

	if input.Result != nil && grant != nil {
		*input.Result = *grant
	}
	return nil
}

package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/draft"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanCreateInput captures the payload for creating a new safety plan.
type PlanCreateInput struct {
	// Fields seeds the plan content; spellings are standardized before insert.
	Fields map[string]any
	// Defaults are layered under Fields (company templates, session defaults).
	Defaults map[string]any
	Status   types.PlanStatus
	Actor    types.ActorRef
	Scope    types.ScopeFilter
	Result   *types.PlanRecord
}

// Type implements gocommand.Message.
func (PlanCreateInput) Type() string {
	return "command.plan.create"
}

// Validate implements gocommand.Message.
func (input PlanCreateInput) Validate() error {
	if input.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// PlanCreateCommand inserts new plans with standardized seed content.
type PlanCreateCommand struct {
	repo   types.PlanRepository
	clock  types.Clock
	sink   types.ActivitySink
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

// PlanCreateCommandConfig wires dependencies for the create command.
type PlanCreateCommandConfig struct {
	Repository types.PlanRepository
	Clock      types.Clock
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Logger     types.Logger
	ScopeGuard scope.Guard
}

// NewPlanCreateCommand constructs the create handler.
func NewPlanCreateCommand(cfg PlanCreateCommandConfig) *PlanCreateCommand {
	return &PlanCreateCommand{
		repo:   cfg.Repository,
		clock:  safeClock(cfg.Clock),
		sink:   safeActivitySink(cfg.Activity),
		hooks:  safeHooks(cfg.Hooks),
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[PlanCreateInput] = (*PlanCreateCommand)(nil)

// Execute layers the seed over the defaults, standardizes the result, and
// inserts the plan record.
func (c *PlanCreateCommand) Execute(ctx context.Context, input PlanCreateInput) error {
	if c == nil || c.repo == nil {
		return types.ErrMissingPlanRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}

	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansWrite, uuid.Nil)
	if err != nil {
		return err
	}

	fields, err := draft.ResolveSeed(input.Defaults, input.Fields)
	if err != nil {
		return err
	}

	created, err := c.repo.CreatePlan(ctx, &types.PlanRecord{
		CompanyID: scopeFilter.CompanyID,
		SiteID:    scopeFilter.SiteID,
		Status:    input.Status,
		Fields:    fields,
		CreatedBy: input.Actor.ID,
		UpdatedBy: input.Actor.ID,
	})
	if err != nil {
		return err
	}

	eventTime := now(c.clock)
	record := types.ActivityRecord{
		PlanID:     created.ID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.created",
		ObjectType: "plan",
		ObjectID:   created.ID.String(),
		Channel:    "plans",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"status":  string(created.Status),
			"version": created.Version,
		},
		OccurredAt: eventTime,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)

	emitPlanHook(ctx, c.hooks, types.PlanEvent{
		PlanID:     created.ID,
		ActorID:    input.Actor.ID,
		Action:     "plan.created",
		OccurredAt: eventTime,
		Scope:      scopeFilter,
	})

	if input.Result != nil && created != nil {
		*input.Result = *created
	}
	return nil
}

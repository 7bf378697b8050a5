package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanLifecycleTransitionInput describes the lifecycle mutation request.
type PlanLifecycleTransitionInput struct {
	PlanID uuid.UUID
	Target types.PlanStatus
	Actor  types.ActorRef
	Reason string
	Scope  types.ScopeFilter
	Result *types.PlanRecord
}

// Type implements gocommand.Message.
func (PlanLifecycleTransitionInput) Type() string {
	return "command.plan.lifecycle.transition"
}

// Validate implements gocommand.Message.
func (input PlanLifecycleTransitionInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return ErrPlanIDRequired
	case input.Target == "":
		return ErrLifecycleTargetRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// PlanLifecycleTransitionCommand enforces the configured transition policy and
// logs hooks/audits.
type PlanLifecycleTransitionCommand struct {
	repo   types.PlanRepository
	policy types.TransitionPolicy
	clock  types.Clock
	logger types.Logger
	hooks  types.Hooks
	sink   types.ActivitySink
	guard  scope.Guard
}

// LifecycleCommandConfig configures the lifecycle command handler.
type LifecycleCommandConfig struct {
	Repository types.PlanRepository
	Policy     types.TransitionPolicy
	Clock      types.Clock
	Logger     types.Logger
	Hooks      types.Hooks
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
}

// NewPlanLifecycleTransitionCommand wires the lifecycle handler.
func NewPlanLifecycleTransitionCommand(cfg LifecycleCommandConfig) *PlanLifecycleTransitionCommand {
	policy := cfg.Policy
	if policy == nil {
		policy = types.DefaultTransitionPolicy()
	}
	return &PlanLifecycleTransitionCommand{
		repo:   cfg.Repository,
		policy: policy,
		clock:  safeClock(cfg.Clock),
		logger: safeLogger(cfg.Logger),
		hooks:  safeHooks(cfg.Hooks),
		sink:   safeActivitySink(cfg.Activity),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[PlanLifecycleTransitionInput] = (*PlanLifecycleTransitionCommand)(nil)

// Execute performs the lifecycle transition against the plan repository.
func (c *PlanLifecycleTransitionCommand) Execute(ctx context.Context, input PlanLifecycleTransitionInput) error {
	if c == nil || c.repo == nil {
		return types.ErrMissingPlanRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansWrite, input.PlanID)
	if err != nil {
		return err
	}
	current, err := c.repo.GetPlan(ctx, input.PlanID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrPlanNotFound
	}
	if c.policy != nil && current.Status != input.Target {
		if err := c.policy.Validate(current.Status, input.Target); err != nil {
			c.logger.Debug("lifecycle policy rejected transition", "plan_id", current.ID, "from", current.Status, "to", input.Target)
			return err
		}
	}
	updated, err := c.repo.UpdatePlanStatus(ctx, input.PlanID, input.Target, input.Actor.ID)
	if err != nil {
		return err
	}

	eventTime := now(c.clock)
	record := types.ActivityRecord{
		PlanID:     updated.ID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.lifecycle.transition",
		ObjectType: "plan",
		ObjectID:   updated.ID.String(),
		Channel:    "lifecycle",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"from_status": string(current.Status),
			"to_status":   string(input.Target),
			"reason":      input.Reason,
		},
		OccurredAt: eventTime,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)

	emitLifecycleHook(ctx, c.hooks, types.LifecycleEvent{
		PlanID:     updated.ID,
		ActorID:    input.Actor.ID,
		FromStatus: current.Status,
		ToStatus:   input.Target,
		Reason:     input.Reason,
		OccurredAt: eventTime,
		Scope:      scopeFilter,
	})

	if input.Result != nil && updated != nil {
		*input.Result = *updated
	}
	return nil
}

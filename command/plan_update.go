package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/draft"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanUpdateInput captures a partial content update for an existing plan.
type PlanUpdateInput struct {
	PlanID uuid.UUID
	// Fields may use either spelling; they are standardized before diffing.
	Fields map[string]any
	Actor  types.ActorRef
	Scope  types.ScopeFilter
	Result *types.PlanRecord
}

// Type implements gocommand.Message.
func (PlanUpdateInput) Type() string {
	return "command.plan.update"
}

// Validate implements gocommand.Message.
func (input PlanUpdateInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return ErrPlanIDRequired
	case len(input.Fields) == 0:
		return ErrFieldsRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// PlanUpdateCommand applies partial content updates: standardize, diff against
// the stored row, persist only the touched columns, and log one activity entry
// per affected document section.
type PlanUpdateCommand struct {
	repo   types.PlanRepository
	clock  types.Clock
	sink   types.ActivitySink
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

// PlanUpdateCommandConfig wires dependencies for the update command.
type PlanUpdateCommandConfig struct {
	Repository types.PlanRepository
	Clock      types.Clock
	Activity   types.ActivitySink
	Hooks      types.Hooks
	Logger     types.Logger
	ScopeGuard scope.Guard
}

// NewPlanUpdateCommand constructs the update handler.
func NewPlanUpdateCommand(cfg PlanUpdateCommandConfig) *PlanUpdateCommand {
	return &PlanUpdateCommand{
		repo:   cfg.Repository,
		clock:  safeClock(cfg.Clock),
		sink:   safeActivitySink(cfg.Activity),
		hooks:  safeHooks(cfg.Hooks),
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[PlanUpdateInput] = (*PlanUpdateCommand)(nil)

// Execute persists the changed columns and records the audit trail. A save
// that changes nothing writes nothing and logs nothing.
func (c *PlanUpdateCommand) Execute(ctx context.Context, input PlanUpdateInput) error {
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

	patch := draft.CanonicalFields(draft.Standardize(input.Fields))
	baseline := draft.CanonicalFields(current.Fields)
	changes := draft.Changes(baseline, patch, "")
	if len(changes) == 0 {
		if input.Result != nil {
			*input.Result = *current
		}
		return nil
	}

	updated, err := c.repo.UpdatePlanFields(ctx, input.PlanID, patch, input.Actor.ID)
	if err != nil {
		return err
	}

	eventTime := now(c.clock)
	severity := draft.SeverityFor(len(changes))
	sections, grouped := draft.GroupBySection(changes)
	for _, section := range sections {
		record := types.ActivityRecord{
			PlanID:     updated.ID,
			ActorID:    input.Actor.ID,
			Verb:       "plan.updated",
			ObjectType: "plan",
			ObjectID:   updated.ID.String(),
			Channel:    "plans",
			CompanyID:  scopeFilter.CompanyID,
			SiteID:     scopeFilter.SiteID,
			Section:    section,
			Severity:   severity,
			Data: map[string]any{
				"changes": grouped[section],
				"summary": draft.Summary(section, grouped[section]),
			},
			OccurredAt: eventTime,
		}
		logActivity(ctx, c.sink, record)
		emitActivityHook(ctx, c.hooks, record)
	}

	emitPlanHook(ctx, c.hooks, types.PlanEvent{
		PlanID:     updated.ID,
		ActorID:    input.Actor.ID,
		Action:     "plan.updated",
		Changes:    changes,
		OccurredAt: eventTime,
		Scope:      scopeFilter,
	})

	if input.Result != nil && updated != nil {
		*input.Result = *updated
	}
	return nil
}

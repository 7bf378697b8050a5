package command

import (
	"context"
	"strings"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// ActivityLogInput records a free-form activity entry on behalf of a
// transport that cannot reach the sink directly.
type ActivityLogInput struct {
	PlanID     uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	Channel    string
	Section    string
	Severity   types.ChangeSeverity
	Data       map[string]any
	Actor      types.ActorRef
	Scope      types.ScopeFilter
}

// Type implements gocommand.Message.
func (ActivityLogInput) Type() string {
	return "command.activity.log"
}

// Validate implements gocommand.Message.
func (input ActivityLogInput) Validate() error {
	switch {
	case strings.TrimSpace(input.Verb) == "":
		return ErrActivityVerbRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// ActivityLogCommand forwards arbitrary records to the configured sink.
type ActivityLogCommand struct {
	sink   types.ActivitySink
	clock  types.Clock
	hooks  types.Hooks
	logger types.Logger
	guard  scope.Guard
}

// ActivityLogCommandConfig holds dependencies for the log handler.
type ActivityLogCommandConfig struct {
	Activity   types.ActivitySink
	Clock      types.Clock
	Hooks      types.Hooks
	Logger     types.Logger
	ScopeGuard scope.Guard
}

// NewActivityLogCommand constructs the handler.
func NewActivityLogCommand(cfg ActivityLogCommandConfig) *ActivityLogCommand {
	return &ActivityLogCommand{
		sink:   cfg.Activity,
		clock:  safeClock(cfg.Clock),
		hooks:  safeHooks(cfg.Hooks),
		logger: safeLogger(cfg.Logger),
		guard:  safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ActivityLogInput] = (*ActivityLogCommand)(nil)

// Execute writes the record to the sink. The sink is required here, unlike
// in the mutation commands where logging is best-effort.
func (c *ActivityLogCommand) Execute(ctx context.Context, input ActivityLogInput) error {
	if c.sink == nil {
		return types.ErrMissingActivitySink
	}
	if err := input.Validate(); err != nil {
		return err
	}
	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionActivityWrite, input.PlanID)
	if err != nil {
		return err
	}

	severity := input.Severity
	if severity == "" {
		severity = types.ChangeSeverityMinor
	}
	record := types.ActivityRecord{
		PlanID:     input.PlanID,
		ActorID:    input.Actor.ID,
		Verb:       input.Verb,
		ObjectType: input.ObjectType,
		ObjectID:   input.ObjectID,
		Channel:    input.Channel,
		Section:    input.Section,
		Severity:   severity,
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data:       cloneMap(input.Data),
		OccurredAt: now(c.clock),
	}
	if err := c.sink.Log(ctx, record); err != nil {
		return err
	}
	emitActivityHook(ctx, c.hooks, record)
	return nil
}

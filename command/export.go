package command

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

// PlanExportInput requests a rendered document for a plan.
type PlanExportInput struct {
	PlanID uuid.UUID
	Actor  types.ActorRef
	Scope  types.ScopeFilter
	Result *types.ExportResult
}

// Type implements gocommand.Message.
func (PlanExportInput) Type() string {
	return "command.plan.export"
}

// Validate implements gocommand.Message.
func (input PlanExportInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return ErrPlanIDRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// PlanExportCommand renders a plan through the injected renderer.
type PlanExportCommand struct {
	repo        types.PlanRepository
	renderer    types.PDFRenderer
	clock       types.Clock
	sink        types.ActivitySink
	hooks       types.Hooks
	logger      types.Logger
	guard       scope.Guard
	featureGate featuregate.FeatureGate
}

// ExportCommandConfig holds dependencies for plan export.
type ExportCommandConfig struct {
	Repository  types.PlanRepository
	Renderer    types.PDFRenderer
	Clock       types.Clock
	Activity    types.ActivitySink
	Hooks       types.Hooks
	Logger      types.Logger
	ScopeGuard  scope.Guard
	FeatureGate featuregate.FeatureGate
}

// NewPlanExportCommand constructs the export handler.
func NewPlanExportCommand(cfg ExportCommandConfig) *PlanExportCommand {
	return &PlanExportCommand{
		repo:        cfg.Repository,
		renderer:    cfg.Renderer,
		clock:       safeClock(cfg.Clock),
		sink:        safeActivitySink(cfg.Activity),
		hooks:       safeHooks(cfg.Hooks),
		logger:      safeLogger(cfg.Logger),
		guard:       safeScopeGuard(cfg.ScopeGuard),
		featureGate: cfg.FeatureGate,
	}
}

var _ gocommand.Commander[PlanExportInput] = (*PlanExportCommand)(nil)

// Execute renders the plan and records the export.
func (c *PlanExportCommand) Execute(ctx context.Context, input PlanExportInput) error {
	if c.repo == nil {
		return types.ErrMissingPlanRepository
	}
	if c.renderer == nil {
		return types.ErrMissingPDFRenderer
	}
	if err := input.Validate(); err != nil {
		return err
	}
	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansExport, input.PlanID)
	if err != nil {
		return err
	}
	if enabled, err := featureEnabled(ctx, c.featureGate, featurePlansExport, scopeFilter, uuid.Nil); err != nil {
		return err
	} else if !enabled {
		return ErrExportDisabled
	}

	plan, err := c.repo.GetPlan(ctx, input.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	result, err := c.renderer.RenderPlan(ctx, *plan)
	if err != nil {
		return err
	}

	record := types.ActivityRecord{
		PlanID:     plan.ID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.exported",
		ObjectType: "plan",
		ObjectID:   plan.ID.String(),
		Channel:    "exports",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"content_type": result.ContentType,
			"bytes":        result.Size,
			"version":      plan.Version,
		},
		OccurredAt: now(c.clock),
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)

	if input.Result != nil {
		*input.Result = result
	}
	return nil
}

package crudsvc

import (
	"strings"

	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/crudguard"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/plan"
	"github.com/fieldsafe/go-sssp/query"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// PlanServiceConfig wires dependencies for the plan controller.
type PlanServiceConfig struct {
	Guard     GuardAdapter
	Create    gocommand.Commander[command.PlanCreateInput]
	Update    gocommand.Commander[command.PlanUpdateInput]
	Lifecycle gocommand.Commander[command.PlanLifecycleTransitionInput]
	Detail    gocommand.Querier[query.PlanDetailInput, *types.PlanRecord]
	Inventory gocommand.Querier[types.PlanInventoryFilter, types.PlanInventoryPage]
}

// PlanService adapts the command/query layer to a go-crud controller so
// transports get standard REST semantics without bypassing guards.
type PlanService struct {
	guard     GuardAdapter
	create    gocommand.Commander[command.PlanCreateInput]
	update    gocommand.Commander[command.PlanUpdateInput]
	lifecycle gocommand.Commander[command.PlanLifecycleTransitionInput]
	detail    gocommand.Querier[query.PlanDetailInput, *types.PlanRecord]
	inventory gocommand.Querier[types.PlanInventoryFilter, types.PlanInventoryPage]
	emitter   ActivityEmitter
	logger    types.Logger
}

// NewPlanService constructs the adapter.
func NewPlanService(cfg PlanServiceConfig, opts ...ServiceOption) *PlanService {
	options := applyOptions(opts)
	return &PlanService{
		guard:     cfg.Guard,
		create:    cfg.Create,
		update:    cfg.Update,
		lifecycle: cfg.Lifecycle,
		detail:    cfg.Detail,
		inventory: cfg.Inventory,
		emitter:   options.emitter,
		logger:    options.logger,
	}
}

func (s *PlanService) Create(ctx crud.Context, record *plan.Plan) (*plan.Plan, error) {
	if s.create == nil {
		return nil, goerrors.New("plan create command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpCreate,
	})
	if err != nil {
		return nil, err
	}

	domain := plan.ToPlanRecord(record)
	result := &types.PlanRecord{}
	input := command.PlanCreateInput{
		Fields: domain.Fields,
		Status: domain.Status,
		Actor:  res.Actor,
		Scope:  res.Scope,
		Result: result,
	}
	if err := s.create.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	return planRow(*result)
}

func (s *PlanService) CreateBatch(ctx crud.Context, records []*plan.Plan) ([]*plan.Plan, error) {
	created := make([]*plan.Plan, 0, len(records))
	for _, record := range records {
		row, err := s.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		created = append(created, row)
	}
	return created, nil
}

func (s *PlanService) Update(ctx crud.Context, record *plan.Plan) (*plan.Plan, error) {
	if s.update == nil {
		return nil, goerrors.New("plan update command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil || record.ID == uuid.Nil {
		return nil, goerrors.New("invalid plan id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpUpdate,
		TargetID:  record.ID,
	})
	if err != nil {
		return nil, err
	}

	domain := plan.ToPlanRecord(record)
	result := &types.PlanRecord{}
	input := command.PlanUpdateInput{
		PlanID: record.ID,
		Fields: domain.Fields,
		Actor:  res.Actor,
		Scope:  res.Scope,
		Result: result,
	}
	if err := s.update.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	return planRow(*result)
}

func (s *PlanService) UpdateBatch(ctx crud.Context, records []*plan.Plan) ([]*plan.Plan, error) {
	updated := make([]*plan.Plan, 0, len(records))
	for _, record := range records {
		row, err := s.Update(ctx, record)
		if err != nil {
			return nil, err
		}
		updated = append(updated, row)
	}
	return updated, nil
}

// Delete archives the plan rather than removing the row: the activity log and
// share grants keep pointing at a real record.
func (s *PlanService) Delete(ctx crud.Context, record *plan.Plan) error {
	if s.lifecycle == nil {
		return goerrors.New("plan lifecycle command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	if record == nil || record.ID == uuid.Nil {
		return goerrors.New("invalid plan id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpDelete,
		TargetID:  record.ID,
	})
	if err != nil {
		return err
	}
	return s.lifecycle.Execute(ctx.UserContext(), command.PlanLifecycleTransitionInput{
		PlanID: record.ID,
		Target: types.PlanStatusArchived,
		Actor:  res.Actor,
		Scope:  res.Scope,
		Reason: "deleted via api",
	})
}

func (s *PlanService) DeleteBatch(ctx crud.Context, records []*plan.Plan) error {
	for _, record := range records {
		if err := s.Delete(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *PlanService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*plan.Plan, int, error) {
	if s.inventory == nil {
		return nil, 0, goerrors.New("plan inventory query missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}
	filter := types.PlanInventoryFilter{
		Actor:      res.Actor,
		Scope:      res.Scope,
		Statuses:   parsePlanStatuses(ctx, "status"),
		CreatedBy:  queryUUID(ctx, "created_by"),
		SharedWith: queryUUID(ctx, "shared_with"),
		PlanIDs:    queryUUIDSlice(ctx, "plan_ids"),
		Keyword:    strings.TrimSpace(ctx.Query("q")),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", 50),
			Offset: queryInt(ctx, "offset", 0),
		},
	}
	page, err := s.inventory.Query(ctx.UserContext(), filter)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]*plan.Plan, 0, len(page.Plans))
	for _, record := range page.Plans {
		row, err := planRow(record)
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, row)
	}
	return rows, page.Total, nil
}

func (s *PlanService) Show(ctx crud.Context, id string, _ []repository.SelectCriteria) (*plan.Plan, error) {
	if s.detail == nil {
		return nil, goerrors.New("plan detail query missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	planID, err := uuid.Parse(id)
	if err != nil {
		return nil, goerrors.New("invalid plan id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		TargetID:  planID,
	})
	if err != nil {
		return nil, err
	}
	record, err := s.detail.Query(ctx.UserContext(), query.PlanDetailInput{
		PlanID: planID,
		Actor:  res.Actor,
		Scope:  res.Scope,
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, goerrors.New("plan not found", goerrors.CategoryNotFound).WithCode(goerrors.CodeNotFound)
	}
	return planRow(*record)
}

func planRow(record types.PlanRecord) (*plan.Plan, error) {
	row, err := plan.FromPlanRecord(record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "sssp: plan row conversion failed").
			WithCode(goerrors.CodeInternal)
	}
	return row, nil
}

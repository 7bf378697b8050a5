package crudsvc

import (
	"context"
	"testing"

	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/crudguard"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/plan"
	"github.com/fieldsafe/go-sssp/query"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPlanServiceCreateRunsCommand(t *testing.T) {
	actorID := uuid.New()
	companyID := uuid.New()
	createCmd := &stubPlanCreateCmd{
		record: types.PlanRecord{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    types.PlanStatusDraft,
			Version:   1,
			Fields:    map[string]any{"title": "Tower refit"},
		},
	}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: actorID, Type: types.ActorRoleCompanyAdmin},
			Scope: types.ScopeFilter{CompanyID: companyID},
		},
	}
	svc := NewPlanService(PlanServiceConfig{Guard: guard, Create: createCmd})

	ctx := newTestCrudContext(context.Background())
	created, err := svc.Create(ctx, &plan.Plan{
		PlanContent: plan.PlanContent{Title: "Tower refit"},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, "Tower refit", created.Title)
	require.Equal(t, string(types.PlanStatusDraft), created.Status)
	require.Equal(t, actorID, createCmd.lastInput.Actor.ID)
	require.Equal(t, companyID, createCmd.lastInput.Scope.CompanyID)
	require.Equal(t, "Tower refit", createCmd.lastInput.Fields["title"])
	require.Equal(t, crud.OpCreate, guard.lastInput.Operation)
}

func TestPlanServiceGuardFailureBlocksCreate(t *testing.T) {
	createCmd := &stubPlanCreateCmd{}
	guard := &stubGuardAdapter{
		err: goerrors.New("denied", goerrors.CategoryAuthz).WithCode(goerrors.CodeForbidden),
	}
	svc := NewPlanService(PlanServiceConfig{Guard: guard, Create: createCmd})

	_, err := svc.Create(newTestCrudContext(context.Background()), &plan.Plan{})
	require.Error(t, err)
	require.Equal(t, 0, createCmd.calls)
}

func TestPlanServiceUpdateRequiresID(t *testing.T) {
	svc := NewPlanService(PlanServiceConfig{
		Guard:  &stubGuardAdapter{},
		Update: &stubPlanUpdateCmd{},
	})
	_, err := svc.Update(newTestCrudContext(context.Background()), &plan.Plan{})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

func TestPlanServiceDeleteArchives(t *testing.T) {
	planID := uuid.New()
	lifecycle := &stubPlanLifecycleCmd{}
	guard := &stubGuardAdapter{
		result: crudguard.GuardResult{
			Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleCompanyAdmin},
			Scope: types.ScopeFilter{CompanyID: uuid.New()},
		},
	}
	svc := NewPlanService(PlanServiceConfig{Guard: guard, Lifecycle: lifecycle})

	err := svc.Delete(newTestCrudContext(context.Background()), &plan.Plan{ID: planID})
	require.NoError(t, err)
	require.Equal(t, 1, lifecycle.calls)
	require.Equal(t, planID, lifecycle.lastInput.PlanID)
	require.Equal(t, types.PlanStatusArchived, lifecycle.lastInput.Target)
	require.Equal(t, planID, guard.lastInput.TargetID)
}

func TestPlanServiceIndexBuildsFilter(t *testing.T) {
	companyID := uuid.New()
	createdBy := uuid.New()
	inventory := &stubPlanInventoryQuery{
		result: types.PlanInventoryPage{
			Plans: []types.PlanRecord{{
				ID:      uuid.New(),
				Status:  types.PlanStatusPublished,
				Version: 3,
				Fields:  map[string]any{"title": "North wing"},
			}},
			Total: 12,
		},
	}
	svc := NewPlanService(PlanServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleCompanyAdmin},
				Scope: types.ScopeFilter{CompanyID: companyID},
			},
		},
		Inventory: inventory,
	})

	ctx := newTestCrudContext(context.Background())
	ctx.queries["status"] = "Draft,published"
	ctx.queries["q"] = "wing"
	ctx.queries["created_by"] = createdBy.String()
	ctx.queries["limit"] = "5"
	ctx.queries["offset"] = "10"

	rows, total, err := svc.Index(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 12, total)
	require.Len(t, rows, 1)
	require.Equal(t, "North wing", rows[0].Title)

	filter := inventory.lastFilter
	require.Equal(t, []types.PlanStatus{types.PlanStatusDraft, types.PlanStatusPublished}, filter.Statuses)
	require.Equal(t, "wing", filter.Keyword)
	require.Equal(t, createdBy, filter.CreatedBy)
	require.Equal(t, companyID, filter.Scope.CompanyID)
	require.Equal(t, 5, filter.Pagination.Limit)
	require.Equal(t, 10, filter.Pagination.Offset)
}

func TestPlanServiceShowMapsNotFound(t *testing.T) {
	svc := NewPlanService(PlanServiceConfig{
		Guard: &stubGuardAdapter{
			result: crudguard.GuardResult{
				Actor: types.ActorRef{ID: uuid.New(), Type: types.ActorRoleCompanyAdmin},
			},
		},
		Detail: &stubPlanDetailQuery{},
	})

	_, err := svc.Show(newTestCrudContext(context.Background()), uuid.New().String(), nil)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.Equal(t, goerrors.CategoryNotFound, richErr.Category)
}

func TestPlanServiceShowRejectsBadID(t *testing.T) {
	svc := NewPlanService(PlanServiceConfig{
		Guard:  &stubGuardAdapter{},
		Detail: &stubPlanDetailQuery{},
	})
	_, err := svc.Show(newTestCrudContext(context.Background()), "not-a-uuid", nil)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

// ----- test stubs -----

type stubGuardAdapter struct {
	result    crudguard.GuardResult
	err       error
	lastInput crudguard.GuardInput
}

func (s *stubGuardAdapter) Enforce(in crudguard.GuardInput) (crudguard.GuardResult, error) {
	s.lastInput = in
	if s.err != nil {
		return crudguard.GuardResult{}, s.err
	}
	return s.result, nil
}

type stubPlanCreateCmd struct {
	record    types.PlanRecord
	err       error
	calls     int
	lastInput command.PlanCreateInput
}

func (s *stubPlanCreateCmd) Execute(_ context.Context, input command.PlanCreateInput) error {
	s.calls++
	s.lastInput = input
	if s.err != nil {
		return s.err
	}
	if input.Result != nil {
		*input.Result = s.record
	}
	return nil
}

type stubPlanUpdateCmd struct {
	record    types.PlanRecord
	err       error
	calls     int
	lastInput command.PlanUpdateInput
}

func (s *stubPlanUpdateCmd) Execute(_ context.Context, input command.PlanUpdateInput) error {
	s.calls++
	s.lastInput = input
	if s.err != nil {
		return s.err
	}
	if input.Result != nil {
		*input.Result = s.record
	}
	return nil
}

type stubPlanLifecycleCmd struct {
	err       error
	calls     int
	lastInput command.PlanLifecycleTransitionInput
}

func (s *stubPlanLifecycleCmd) Execute(_ context.Context, input command.PlanLifecycleTransitionInput) error {
	s.calls++
	s.lastInput = input
	return s.err
}

type stubPlanInventoryQuery struct {
	result     types.PlanInventoryPage
	err        error
	lastFilter types.PlanInventoryFilter
}

func (s *stubPlanInventoryQuery) Query(_ context.Context, filter types.PlanInventoryFilter) (types.PlanInventoryPage, error) {
	s.lastFilter = filter
	if s.err != nil {
		return types.PlanInventoryPage{}, s.err
	}
	return s.result, nil
}

type stubPlanDetailQuery struct {
	record    *types.PlanRecord
	err       error
	lastInput query.PlanDetailInput
}

func (s *stubPlanDetailQuery) Query(_ context.Context, input query.PlanDetailInput) (*types.PlanRecord, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

type testCrudContext struct {
	ctx     context.Context
	queries map[string]string
}

func newTestCrudContext(ctx context.Context) *testCrudContext {
	return &testCrudContext{
		ctx:     ctx,
		queries: map[string]string{},
	}
}

func (t *testCrudContext) UserContext() context.Context {
	return t.ctx
}

func (t *testCrudContext) Params(string, ...string) string {
	return ""
}

func (t *testCrudContext) BodyParser(out any) error {
	return nil
}

func (t *testCrudContext) Query(key string, defaultValue ...string) string {
	if v, ok := t.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (t *testCrudContext) QueryInt(string, ...int) int {
	return 0
}

func (t *testCrudContext) QueryValues(key string) []string {
	if v, ok := t.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (t *testCrudContext) Queries() map[string]string {
	return t.queries
}

func (t *testCrudContext) Body() []byte {
	return nil
}

func (t *testCrudContext) Status(int) crud.Response {
	return t
}

func (t *testCrudContext) JSON(any, ...string) error {
	return nil
}

func (t *testCrudContext) SendStatus(int) error {
	return nil
}

package query

import (
	"context"
	"testing"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPlanInventoryQuery_NormalizesFilters(t *testing.T) {
	repo := &recordingPlanRepo{
		page: types.PlanInventoryPage{
			Plans: []types.PlanRecord{
				{ID: uuid.New()},
			},
			Total: 1,
		},
	}
	query := NewPlanInventoryQuery(repo, types.NopLogger{}, nil)

	scopeFilter := types.ScopeFilter{
		CompanyID: uuid.New(),
	}
	filter := types.PlanInventoryFilter{
		Actor: types.ActorRef{
			ID: uuid.New(),
		},
		Scope: scopeFilter,
		// Negative offset and zero limit should be corrected.
		Pagination: types.Pagination{
			Limit:  0,
			Offset: -10,
		},
	}

	page, err := query.Query(context.Background(), filter)

	require.NoError(t, err)
	require.Equal(t, defaultInventoryLimit, repo.lastFilter.Pagination.Limit)
	require.Equal(t, 0, repo.lastFilter.Pagination.Offset)
	require.Equal(t, scopeFilter, repo.lastFilter.Scope)
	require.Equal(t, repo.page, page)
}

func TestPlanInventoryQuery_ClampsOversizedLimit(t *testing.T) {
	repo := &recordingPlanRepo{}
	query := NewPlanInventoryQuery(repo, types.NopLogger{}, nil)

	_, err := query.Query(context.Background(), types.PlanInventoryFilter{
		Actor: types.ActorRef{
			ID: uuid.New(),
		},
		Pagination: types.Pagination{
			Limit: 5000,
		},
	})

	require.NoError(t, err)
	require.Equal(t, maxInventoryLimit, repo.lastFilter.Pagination.Limit)
}

func TestPlanDetailQuery_ScopeMismatchHidesPlan(t *testing.T) {
	planID := uuid.New()
	repo := &recordingPlanRepo{
		plan: &types.PlanRecord{
			ID:        planID,
			CompanyID: uuid.New(),
		},
	}
	query := NewPlanDetailQuery(repo, nil)

	record, err := query.Query(context.Background(), PlanDetailInput{
		PlanID: planID,
		Actor: types.ActorRef{
			ID: uuid.New(),
		},
		Scope: types.ScopeFilter{
			CompanyID: uuid.New(),
		},
	})

	require.NoError(t, err)
	require.Nil(t, record)
}

func TestPlanDetailQuery_MissingPlanYieldsNilRecord(t *testing.T) {
	query := NewPlanDetailQuery(&recordingPlanRepo{}, nil)

	record, err := query.Query(context.Background(), PlanDetailInput{
		PlanID: uuid.New(),
		Actor: types.ActorRef{
			ID: uuid.New(),
		},
	})

	require.NoError(t, err)
	require.Nil(t, record)
}

func TestPlanDetailQuery_ReturnsStoredPlan(t *testing.T) {
	planID := uuid.New()
	companyID := uuid.New()
	repo := &recordingPlanRepo{
		plan: &types.PlanRecord{
			ID:        planID,
			CompanyID: companyID,
			Fields: map[string]any{
				"title": "Harbour Upgrade",
			},
		},
	}
	query := NewPlanDetailQuery(repo, nil)

	plan, err := query.Query(context.Background(), PlanDetailInput{
		PlanID: planID,
		Actor: types.ActorRef{
			ID: uuid.New(),
		},
		Scope: types.ScopeFilter{
			CompanyID: companyID,
		},
	})

	require.NoError(t, err)
	require.Equal(t, "Harbour Upgrade", plan.Fields["title"])
}

type recordingPlanRepo struct {
	page       types.PlanInventoryPage
	plan       *types.PlanRecord
	lastFilter types.PlanInventoryFilter
}

func (r *recordingPlanRepo) GetPlan(context.Context, uuid.UUID) (*types.PlanRecord, error) {
	return r.plan, nil
}

func (r *recordingPlanRepo) CreatePlan(_ context.Context, record *types.PlanRecord) (*types.PlanRecord, error) {
	return record, nil
}

func (r *recordingPlanRepo) UpdatePlanFields(_ context.Context, _ uuid.UUID, _ map[string]any, _ uuid.UUID) (*types.PlanRecord, error) {
	return r.plan, nil
}

func (r *recordingPlanRepo) UpdatePlanStatus(_ context.Context, _ uuid.UUID, _ types.PlanStatus, _ uuid.UUID) (*types.PlanRecord, error) {
	return r.plan, nil
}

func (r *recordingPlanRepo) ListPlans(_ context.Context, filter types.PlanInventoryFilter) (types.PlanInventoryPage, error) {
	r.lastFilter = filter
	return r.page, nil
}

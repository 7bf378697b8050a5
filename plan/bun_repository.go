package plan

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/fieldsafe/go-sssp/draft"
	"github.com/fieldsafe/go-sssp/pkg/types"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires dependencies for the Bun-backed plan store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Plan]
	Clock      types.Clock
	IDGen      types.IDGenerator
}

type planStore interface {
	repository.Repository[*Plan]
}

// Repository implements types.PlanRepository on top of go-repository-bun.
type Repository struct {
	planStore
	clock types.Clock
	idGen types.IDGenerator
}

// NewRepository constructs the default plan repository. Options can enable the
// read-through cache decorator used by dashboard-heavy deployments.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("plan: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Plan]{
			NewRecord: func() *Plan { return &Plan{} },
			GetID: func(rec *Plan) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Plan, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	repo, err := maybeWrapCache(repo, applyRepositoryOptions(options))
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}

	return &Repository{
		planStore: repo,
		clock:     clock,
		idGen:     idGen,
	}, nil
}

var (
	_ repository.Repository[*Plan] = (*Repository)(nil)
	_ types.PlanRepository         = (*Repository)(nil)
)

// GetPlan fetches one plan. A missing record yields (nil, nil) so callers can
// distinguish absence from transport failures.
func (r *Repository) GetPlan(ctx context.Context, id uuid.UUID) (*types.PlanRecord, error) {
	if id == uuid.Nil {
		return nil, types.ErrPlanIDRequired
	}
	row, err := r.findByID(ctx, id)
	if repository.IsRecordNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainPtr(row), nil
}

// CreatePlan persists a new plan record and stamps identity, version and audit
// columns.
func (r *Repository) CreatePlan(ctx context.Context, record *types.PlanRecord) (*types.PlanRecord, error) {
	if record == nil {
		return nil, errors.New("plan: record required")
	}
	now := r.clock.Now()
	payload := &Plan{
		ID:        record.ID,
		CompanyID: record.CompanyID,
		SiteID:    record.SiteID,
		Status:    string(coalesceStatus(record.Status)),
		Version:   maxInt(record.Version, 1),
		CreatedAt: now,
		CreatedBy: record.CreatedBy,
		UpdatedAt: now,
		UpdatedBy: record.UpdatedBy,
	}
	if payload.ID == uuid.Nil {
		payload.ID = r.idGen.UUID()
	}
	if payload.UpdatedBy == uuid.Nil {
		payload.UpdatedBy = payload.CreatedBy
	}
	known, custom := splitFields(draft.CanonicalFields(record.Fields))
	if err := applyFields(&payload.PlanContent, known); err != nil {
		return nil, err
	}
	if len(custom) > 0 {
		payload.CustomFields = custom
	}
	created, err := r.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(created), nil
}

// UpdatePlanFields merges a partial field patch into the stored row, bumps the
// version counter and stamps the updating actor. Keys outside the known
// content columns accumulate in custom_fields instead of being dropped. The
// UPDATE statement only touches the patched columns plus the envelope, so
// concurrent saves to disjoint sections do not clobber each other.
func (r *Repository) UpdatePlanFields(ctx context.Context, id uuid.UUID, fields map[string]any, actorID uuid.UUID) (*types.PlanRecord, error) {
	if id == uuid.Nil {
		return nil, types.ErrPlanIDRequired
	}
	existing, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	canonical := draft.CanonicalFields(fields)
	known, custom := splitFields(canonical)
	if err := applyFields(&existing.PlanContent, known); err != nil {
		return nil, err
	}
	columns := KnownColumnsIn(canonical)
	if len(custom) > 0 {
		if existing.CustomFields == nil {
			existing.CustomFields = make(map[string]any, len(custom))
		}
		for key, value := range custom {
			existing.CustomFields[key] = value
		}
		columns = append(columns, "custom_fields")
	}
	existing.Version++
	existing.UpdatedAt = r.clock.Now()
	existing.UpdatedBy = actorID
	columns = append(columns, "version", "updated_at", "updated_by")

	updated, err := r.Update(ctx, existing, repository.UpdateColumns(columns...))
	if err != nil {
		return nil, err
	}
	return toDomainPtr(updated), nil
}

// UpdatePlanStatus moves a plan to a new lifecycle status. Transition
// validation happens upstream; the repository only persists the outcome.
func (r *Repository) UpdatePlanStatus(ctx context.Context, id uuid.UUID, status types.PlanStatus, actorID uuid.UUID) (*types.PlanRecord, error) {
	if id == uuid.Nil {
		return nil, types.ErrPlanIDRequired
	}
	existing, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Status = string(status)
	existing.Version++
	existing.UpdatedAt = r.clock.Now()
	existing.UpdatedBy = actorID

	updated, err := r.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	return toDomainPtr(updated), nil
}

// ListPlans returns the scoped, filtered, paginated plan inventory.
func (r *Repository) ListPlans(ctx context.Context, filter types.PlanInventoryFilter) (types.PlanInventoryPage, error) {
	limit := filter.Pagination.Limit
	if limit <= 0 {
		limit = 25
	}
	offset := filter.Pagination.Offset
	if offset < 0 {
		offset = 0
	}

	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			if filter.Scope.CompanyID != uuid.Nil {
				q = q.Where("p.company_id = ?", filter.Scope.CompanyID)
			}
			if filter.Scope.SiteID != uuid.Nil {
				q = q.Where("p.site_id = ?", filter.Scope.SiteID)
			}
			if len(filter.Statuses) > 0 {
				statuses := make([]string, len(filter.Statuses))
				for i, status := range filter.Statuses {
					statuses[i] = string(status)
				}
				q = q.Where("p.status IN (?)", bun.In(statuses))
			}
			if filter.CreatedBy != uuid.Nil {
				q = q.Where("p.created_by = ?", filter.CreatedBy)
			}
			if filter.SharedWith != uuid.Nil {
				q = q.Join("JOIN plan_shares AS ps ON ps.plan_id = p.id").
					Where("ps.user_id = ?", filter.SharedWith)
			}
			if len(filter.PlanIDs) > 0 {
				q = q.Where("p.id IN (?)", bun.In(filter.PlanIDs))
			}
			if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
				pattern := "%" + strings.ToLower(keyword) + "%"
				q = q.Where(
					"(lower(p.title) LIKE ? OR lower(p.client_name) LIKE ? OR lower(p.site_address) LIKE ?)",
					pattern, pattern, pattern,
				)
			}
			return q.OrderExpr("p.updated_at DESC").Limit(limit).Offset(offset)
		},
	}

	rows, total, err := r.List(ctx, criteria...)
	if err != nil {
		return types.PlanInventoryPage{}, err
	}
	plans := make([]types.PlanRecord, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, toDomain(row))
	}
	next := offset + len(plans)
	return types.PlanInventoryPage{
		Plans:      plans,
		Total:      total,
		NextOffset: next,
		HasMore:    next < total,
	}, nil
}

func (r *Repository) findByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("p.id = ?", id).Limit(1)
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return rows[0], nil
}

// splitFields partitions a field patch into known content columns and custom
// leftovers.
func splitFields(fields map[string]any) (known, custom map[string]any) {
	known = make(map[string]any, len(fields))
	custom = make(map[string]any)
	for key, value := range fields {
		if draft.IsContentColumn(key) {
			known[key] = value
		} else {
			custom[key] = value
		}
	}
	return known, custom
}

// applyFields merges known content values into the typed content struct via a
// JSON round trip so column types stay authoritative.
func applyFields(content *PlanContent, known map[string]any) error {
	if len(known) == 0 {
		return nil
	}
	raw, err := json.Marshal(known)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, content); err != nil {
		return errors.Join(errors.New("plan: field patch does not match column types"), err)
	}
	return nil
}

// contentToFields renders the stored content as the canonical field map,
// custom fields included.
func contentToFields(content PlanContent) (map[string]any, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for key, value := range content.CustomFields {
		fields[key] = value
	}
	return fields, nil
}

// KnownColumnsIn lists the catalog columns present in the patch, sorted.
func KnownColumnsIn(fields map[string]any) []string {
	cols := make([]string, 0, len(fields))
	for key := range fields {
		if draft.IsContentColumn(key) {
			cols = append(cols, key)
		}
	}
	sort.Strings(cols)
	return cols
}

func toDomain(row *Plan) types.PlanRecord {
	if row == nil {
		return types.PlanRecord{}
	}
	fields, err := contentToFields(row.PlanContent)
	if err != nil {
		fields = map[string]any{}
	}
	createdAt := row.CreatedAt
	updatedAt := row.UpdatedAt
	return types.PlanRecord{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		SiteID:    row.SiteID,
		Status:    types.PlanStatus(row.Status),
		Version:   row.Version,
		Fields:    fields,
		CreatedBy: row.CreatedBy,
		UpdatedBy: row.UpdatedBy,
		CreatedAt: &createdAt,
		UpdatedAt: &updatedAt,
	}
}

func toDomainPtr(row *Plan) *types.PlanRecord {
	rec := toDomain(row)
	return &rec
}

// FromPlanRecord converts a domain plan record into the Bun model.
func FromPlanRecord(record types.PlanRecord) (*Plan, error) {
	payload := &Plan{
		ID:        record.ID,
		CompanyID: record.CompanyID,
		SiteID:    record.SiteID,
		Status:    string(coalesceStatus(record.Status)),
		Version:   record.Version,
		CreatedBy: record.CreatedBy,
		UpdatedBy: record.UpdatedBy,
	}
	if record.CreatedAt != nil {
		payload.CreatedAt = *record.CreatedAt
	}
	if record.UpdatedAt != nil {
		payload.UpdatedAt = *record.UpdatedAt
	}
	known, custom := splitFields(draft.CanonicalFields(record.Fields))
	if err := applyFields(&payload.PlanContent, known); err != nil {
		return nil, err
	}
	if len(custom) > 0 {
		payload.CustomFields = custom
	}
	return payload, nil
}

// ToPlanRecord converts the Bun model into the domain plan record.
func ToPlanRecord(row *Plan) types.PlanRecord {
	return toDomain(row)
}

func coalesceStatus(status types.PlanStatus) types.PlanStatus {
	if status == "" {
		return types.PlanStatusDraft
	}
	return status
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package types

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanStatus represents the lifecycle states of a safety plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusPublished PlanStatus = "published"
	PlanStatusArchived  PlanStatus = "archived"
)

// ScopeFilter carries company/site scoping fields used by commands/queries.
type ScopeFilter struct {
	CompanyID uuid.UUID
	SiteID    uuid.UUID
	Labels    map[string]uuid.UUID
}

// Clone returns a copy of the scope filter with labels detached from the
// original map reference so callers can mutate safely.
func (s ScopeFilter) Clone() ScopeFilter {
	clone := ScopeFilter{
		CompanyID: s.CompanyID,
		SiteID:    s.SiteID,
	}
	if len(s.Labels) > 0 {
		clone.Labels = make(map[string]uuid.UUID, len(s.Labels))
		for k, v := range s.Labels {
			clone.Labels[k] = v
		}
	}
	return clone
}

// WithLabel returns a cloned scope filter with the provided label set. Keys are
// normalized to lower-case so lookups stay consistent across transports.
func (s ScopeFilter) WithLabel(key string, id uuid.UUID) ScopeFilter {
	if strings.TrimSpace(key) == "" || id == uuid.Nil {
		return s
	}
	clone := s.Clone()
	if clone.Labels == nil {
		clone.Labels = make(map[string]uuid.UUID)
	}
	clone.Labels[strings.ToLower(key)] = id
	return clone
}

// Label returns the identifier previously stored under the key (case
// insensitive). When the label has not been set, uuid.Nil is returned.
func (s ScopeFilter) Label(key string) uuid.UUID {
	if len(s.Labels) == 0 {
		return uuid.Nil
	}
	return s.Labels[strings.ToLower(strings.TrimSpace(key))]
}

// ActorRef identifies who or what is initiating a plan mutation.
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// Pagination supports query pagination across dashboard panels.
type Pagination struct {
	Limit  int
	Offset int
}

// PlanRecord is the storage-agnostic representation of a persisted safety
// plan. Content fields travel as a map keyed by their storage (canonical)
// spelling; the plan repository is the typed boundary.
type PlanRecord struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	SiteID    uuid.UUID
	Status    PlanStatus
	Version   int
	Fields    map[string]any
	CreatedBy uuid.UUID
	UpdatedBy uuid.UUID
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// FieldChange describes a single field delta surfaced in audit trails.
type FieldChange struct {
	Field       string `json:"field"`
	DisplayName string `json:"displayName"`
	OldValue    any    `json:"oldValue"`
	NewValue    any    `json:"newValue"`
}

// ChangeSeverity classifies how large a single save was.
type ChangeSeverity string

const (
	ChangeSeverityMinor ChangeSeverity = "minor"
	ChangeSeverityMajor ChangeSeverity = "major"
)

// PlanEvent is emitted after plan create/update mutations.
type PlanEvent struct {
	PlanID     uuid.UUID
	ActorID    uuid.UUID
	Action     string
	Changes    []FieldChange
	OccurredAt time.Time
	Scope      ScopeFilter
}

// LifecycleEvent is emitted after plan status transitions.
type LifecycleEvent struct {
	PlanID     uuid.UUID
	ActorID    uuid.UUID
	FromStatus PlanStatus
	ToStatus   PlanStatus
	Reason     string
	OccurredAt time.Time
	Scope      ScopeFilter
}

// ShareEvent signals that plan access was granted or revoked.
type ShareEvent struct {
	PlanID     uuid.UUID
	UserID     uuid.UUID
	Role       ShareRole
	Action     string
	ActorID    uuid.UUID
	OccurredAt time.Time
	Scope      ScopeFilter
}

// Hooks groups optional callbacks invoked after key workflows complete.
type Hooks struct {
	AfterPlanChange  func(context.Context, PlanEvent)
	AfterLifecycle   func(context.Context, LifecycleEvent)
	AfterShareChange func(context.Context, ShareEvent)
	AfterActivity    func(context.Context, ActivityRecord)
}

// ActivityRecord describes sink inputs and is shared across sink and query layers.
type ActivityRecord struct {
	ID         uuid.UUID
	PlanID     uuid.UUID
	ActorID    uuid.UUID
	CompanyID  uuid.UUID
	SiteID     uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	Channel    string
	Section    string
	Severity   ChangeSeverity
	Data       map[string]any
	OccurredAt time.Time
}

// ActivitySink is the minimal DI contract for emitting activity. Keep it stable
// and limited to Log so downstream modules can swap sinks without breaking
// changes.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// ActivityRepository exposes read-side access to the plan activity log.
type ActivityRepository interface {
	ListActivity(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
	ActivityStats(ctx context.Context, filter ActivityStatsFilter) (ActivityStats, error)
}

// PlanRepository abstracts the backing store for plan records. GetPlan returns
// (nil, nil) when the record does not exist; that outcome is distinct from a
// transport or query failure. UpdatePlanFields applies a partial update over
// the known content columns atomically and bumps the version counter.
type PlanRepository interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*PlanRecord, error)
	CreatePlan(ctx context.Context, record *PlanRecord) (*PlanRecord, error)
	UpdatePlanFields(ctx context.Context, id uuid.UUID, fields map[string]any, actorID uuid.UUID) (*PlanRecord, error)
	UpdatePlanStatus(ctx context.Context, id uuid.UUID, status PlanStatus, actorID uuid.UUID) (*PlanRecord, error)
	ListPlans(ctx context.Context, filter PlanInventoryFilter) (PlanInventoryPage, error)
}

// ShareRole enumerates the access levels a plan share can grant.
type ShareRole string

const (
	ShareRoleViewer ShareRole = "viewer"
	ShareRoleEditor ShareRole = "editor"
)

// ShareGrant describes a user's access to a plan.
type ShareGrant struct {
	PlanID    uuid.UUID
	UserID    uuid.UUID
	Role      ShareRole
	Scope     ScopeFilter
	GrantedAt time.Time
	GrantedBy uuid.UUID
}

// ShareMutation describes grant payloads for the share registry.
type ShareMutation struct {
	PlanID  uuid.UUID
	UserID  uuid.UUID
	Role    ShareRole
	Scope   ScopeFilter
	ActorID uuid.UUID
}

// ShareRegistry persists row-level plan sharing. Granting an existing
// plan/user pair upserts the role.
type ShareRegistry interface {
	GrantShare(ctx context.Context, input ShareMutation) (*ShareGrant, error)
	RevokeShare(ctx context.Context, planID, userID uuid.UUID, scope ScopeFilter, actor uuid.UUID) error
	ListPlanShares(ctx context.Context, planID uuid.UUID, scope ScopeFilter) ([]ShareGrant, error)
	ListUserShares(ctx context.Context, userID uuid.UUID, scope ScopeFilter) ([]ShareGrant, error)
}

// InviteMessage carries the payload handed to the email dispatch function.
type InviteMessage struct {
	PlanID    uuid.UUID
	Email     string
	Link      string
	Role      ShareRole
	InvitedBy uuid.UUID
	ExpiresAt time.Time
}

// InviteMailer abstracts the hosted email dispatch function.
type InviteMailer interface {
	SendInvite(ctx context.Context, msg InviteMessage) error
}

// ExportResult describes the artifact produced by the PDF render function.
type ExportResult struct {
	URL         string
	ContentType string
	Size        int64
}

// PDFRenderer abstracts the hosted PDF generation function.
type PDFRenderer interface {
	RenderPlan(ctx context.Context, record PlanRecord) (ExportResult, error)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// PlanInventoryFilter collects filters accepted by dashboard panels.
type PlanInventoryFilter struct {
	Actor      ActorRef
	Scope      ScopeFilter
	Statuses   []PlanStatus
	CreatedBy  uuid.UUID
	SharedWith uuid.UUID
	Keyword    string
	Pagination Pagination
	PlanIDs    []uuid.UUID
}

// Type implements gocommand.Message for query inputs.
func (PlanInventoryFilter) Type() string {
	return "query.plan.inventory"
}

// Validate implements gocommand.Message.
func (filter PlanInventoryFilter) Validate() error {
	if filter.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// PlanInventoryPage represents a paginated list of plans.
type PlanInventoryPage struct {
	Plans      []PlanRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// ActivityFilter narrows activity feed queries.
type ActivityFilter struct {
	Actor      ActorRef
	Scope      ScopeFilter
	PlanID     uuid.UUID
	ActorID    uuid.UUID
	Verbs      []string
	ObjectType string
	ObjectID   string
	Channel    string
	// Channels takes precedence over Channel when both are set.
	Channels        []string
	ChannelDenylist []string
	Section         string
	Severity        ChangeSeverity
	Since           *time.Time
	Until           *time.Time
	Pagination      Pagination
	Keyword         string
}

// Type implements gocommand.Message for query inputs.
func (ActivityFilter) Type() string {
	return "query.activity.feed"
}

// Validate implements gocommand.Message.
func (filter ActivityFilter) Validate() error {
	if filter.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// ActivityPage represents a paginated feed response.
type ActivityPage struct {
	Records    []ActivityRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// ActivityStatsFilter scopes aggregate activity queries.
type ActivityStatsFilter struct {
	Actor  ActorRef
	Scope  ScopeFilter
	PlanID uuid.UUID
	Since  *time.Time
	Until  *time.Time
	Verbs  []string
}

// Type implements gocommand.Message for query inputs.
func (ActivityStatsFilter) Type() string {
	return "query.activity.stats"
}

// Validate implements gocommand.Message.
func (filter ActivityStatsFilter) Validate() error {
	if filter.Actor.ID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// ActivityStats powers dashboard widgets summarizing verbs.
type ActivityStats struct {
	Total  int
	ByVerb map[string]int
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("sssp: actor reference required")
	// ErrPlanIDRequired indicates a plan identifier was omitted.
	ErrPlanIDRequired = errors.New("sssp: plan id required")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("sssp: service not ready")
	// ErrMissingPlanRepository occurs when no plan repository was supplied.
	ErrMissingPlanRepository = errors.New("sssp: missing plan repository")
	// ErrMissingActivitySink occurs when no activity sink was supplied.
	ErrMissingActivitySink = errors.New("sssp: missing activity sink")
	// ErrMissingActivityRepository occurs when no activity repository was supplied.
	ErrMissingActivityRepository = errors.New("sssp: missing activity repository")
	// ErrMissingShareRegistry occurs when sharing commands lack a registry.
	ErrMissingShareRegistry = errors.New("sssp: missing share registry")
	// ErrMissingInviteMailer occurs when invites lack an email dispatcher.
	ErrMissingInviteMailer = errors.New("sssp: missing invite mailer")
	// ErrMissingPDFRenderer occurs when exports lack a renderer.
	ErrMissingPDFRenderer = errors.New("sssp: missing pdf renderer")
)

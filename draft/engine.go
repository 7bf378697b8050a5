package draft

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/google/uuid"
)

// planIDPattern is the canonical persisted-record identifier shape: 32 hex
// digits grouped 8-4-4-4-12. Drafts whose identity does not match never
// autosave to the store; they may spill to the local fallback only.
var planIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsPersistedID reports whether the identity key has the shape of a persisted
// plan identifier.
func IsPersistedID(id string) bool {
	return planIDPattern.MatchString(id)
}

// ErrPlanNotFound is returned by Load when the store reports the record does
// not exist. It is distinct from transport failures, which pass through.
var ErrPlanNotFound = errors.New("sssp: plan not found")

// Store is the narrow slice of the plan repository the engine needs.
type Store interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*types.PlanRecord, error)
	UpdatePlanFields(ctx context.Context, id uuid.UUID, fields map[string]any, actorID uuid.UUID) (*types.PlanRecord, error)
}

// Default hydration and freshness tuning.
const (
	DefaultFreshFor      = 30 * time.Second
	DefaultFetchAttempts = 2
	DefaultFetchBackoff  = 500 * time.Millisecond
	maxFetchBackoff      = 2 * time.Second
)

// Config wires an editing session's dependencies.
type Config struct {
	// PlanID is the draft's identity key. Existing records carry the
	// canonical identifier; new drafts may use any placeholder or be empty.
	PlanID   string
	Actor    types.ActorRef
	Scope    types.ScopeFilter
	Store    Store
	Activity types.ActivitySink
	Fallback LocalStore
	Clock    types.Clock
	Logger   types.Logger

	// Seed and Defaults pre-populate new drafts; Seed layers over Defaults.
	Seed     map[string]any
	Defaults map[string]any

	Debounce        time.Duration
	MinSaveInterval time.Duration
	FreshFor        time.Duration
	FetchAttempts   int
	FetchBackoff    time.Duration

	// OnSaveError observes save failures surfaced from the debounce timer.
	// The draft is never rolled back and autosave keeps re-attempting on the
	// next edit.
	OnSaveError func(error)

	// SaveContext bounds timer-driven saves. Defaults to context.Background.
	SaveContext context.Context
}

// Engine owns the mutable draft of a single plan editing session. It
// standardizes field spellings on every write, debounces and rate-limits
// store updates, computes per-section change sets for the activity log, and
// mirrors successful writes into its baseline so reads stay consistent
// without a refetch.
type Engine struct {
	store    Store
	sink     types.ActivitySink
	fallback LocalStore
	clock    types.Clock
	logger   types.Logger
	actor    types.ActorRef
	scope    types.ScopeFilter

	rawID     string
	planID    uuid.UUID
	persisted bool

	freshFor      time.Duration
	fetchAttempts int
	fetchBackoff  time.Duration
	onSaveError   func(error)
	saveCtx       context.Context

	sched *Scheduler

	mu        sync.Mutex
	draft     map[string]any
	baseline  map[string]any
	status    types.PlanStatus
	version   int
	fetchedAt time.Time
	loading   bool
	lastErr   error
}

// New constructs an engine for one editing session. The seed (layered over
// defaults) becomes the initial draft; for existing records call Load to
// hydrate from the store.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, types.ErrMissingPlanRepository
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	seed, err := ResolveSeed(cfg.Defaults, cfg.Seed)
	if err != nil {
		return nil, err
	}
	freshFor := cfg.FreshFor
	if freshFor <= 0 {
		freshFor = DefaultFreshFor
	}
	attempts := cfg.FetchAttempts
	if attempts <= 0 {
		attempts = DefaultFetchAttempts
	}
	backoff := cfg.FetchBackoff
	if backoff <= 0 {
		backoff = DefaultFetchBackoff
	}
	saveCtx := cfg.SaveContext
	if saveCtx == nil {
		saveCtx = context.Background()
	}

	e := &Engine{
		store:         cfg.Store,
		sink:          cfg.Activity,
		fallback:      cfg.Fallback,
		clock:         clock,
		logger:        logger,
		actor:         cfg.Actor,
		scope:         cfg.Scope,
		rawID:         cfg.PlanID,
		freshFor:      freshFor,
		fetchAttempts: attempts,
		fetchBackoff:  backoff,
		onSaveError:   cfg.OnSaveError,
		saveCtx:       saveCtx,
		draft:         seed,
		baseline:      map[string]any{},
	}
	if IsPersistedID(cfg.PlanID) {
		id, parseErr := uuid.Parse(cfg.PlanID)
		if parseErr == nil {
			e.planID = id
			e.persisted = true
		}
	}
	e.sched = NewScheduler(SchedulerConfig{
		Debounce:    cfg.Debounce,
		MinInterval: cfg.MinSaveInterval,
		Clock:       clock,
		Save:        e.autoSave,
	})
	return e, nil
}

// IsPersisted reports whether the draft maps to an existing store record.
func (e *Engine) IsPersisted() bool { return e.persisted }

// PlanID returns the parsed plan identifier, or uuid.Nil for new drafts.
func (e *Engine) PlanID() uuid.UUID { return e.planID }

// Status returns the lifecycle status captured at hydration time.
func (e *Engine) Status() types.PlanStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Version returns the record version captured at hydration time.
func (e *Engine) Version() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Loading reports whether a hydration fetch is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// LastError returns the most recent load or save failure, cleared by the next
// successful save.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Load hydrates the draft from the store. Fetches are skipped while the last
// hydration is still fresh; a missing record yields ErrPlanNotFound and the
// draft is left untouched so the session keeps whatever was typed. Up to the
// configured number of attempts run with exponential backoff, capped.
func (e *Engine) Load(ctx context.Context) error {
	if !e.persisted {
		e.restoreFallback()
		return nil
	}
	e.mu.Lock()
	if !e.fetchedAt.IsZero() && e.clock.Now().Sub(e.fetchedAt) < e.freshFor {
		e.mu.Unlock()
		return nil
	}
	e.loading = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	var record *types.PlanRecord
	var err error
	backoff := e.fetchBackoff
	for attempt := 0; attempt < e.fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxFetchBackoff {
				backoff = maxFetchBackoff
			}
		}
		record, err = e.store.GetPlan(ctx, e.planID)
		if err == nil {
			break
		}
	}
	if err != nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		return err
	}
	if record == nil {
		return ErrPlanNotFound
	}

	standardized := Standardize(record.Fields)
	e.mu.Lock()
	e.draft = standardized
	e.baseline = CanonicalFields(standardized)
	e.status = record.Status
	e.version = record.Version
	e.fetchedAt = e.clock.Now()
	e.lastErr = nil
	e.mu.Unlock()
	return nil
}

// SetField applies a single field edit and schedules a save.
func (e *Engine) SetField(key string, value any) {
	e.SetFields(map[string]any{key: value})
}

// SetFields merges a standardized patch into the draft and schedules a save.
func (e *Engine) SetFields(patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	standardized := Standardize(patch)
	e.mu.Lock()
	if e.draft == nil {
		e.draft = make(map[string]any, len(standardized))
	}
	for key, value := range standardized {
		e.draft[key] = value
	}
	e.mu.Unlock()
	e.sched.Edit()
}

// Field reads a draft value by either of its spellings.
func (e *Engine) Field(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.draft[key]
	return value, ok
}

// Draft returns a detached copy of the current draft.
func (e *Engine) Draft() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneFieldMap(e.draft)
}

// Flush cancels any pending debounce timer and saves immediately. Used by the
// Save & Exit and navigation-away paths.
func (e *Engine) Flush(ctx context.Context) error {
	if !e.sched.Flush() {
		// A save is already in flight; the scheduler parked the edit and
		// re-arms once it completes.
		return nil
	}
	err := e.doSave(ctx)
	e.sched.Done()
	if err != nil {
		e.noteSaveError(err)
	}
	return err
}

// Close stops the scheduler without firing pending saves.
func (e *Engine) Close() {
	e.sched.Stop()
}

// Scheduler exposes the underlying save scheduler, mainly for tests and
// host-side instrumentation.
func (e *Engine) Scheduler() *Scheduler {
	return e.sched
}

func (e *Engine) autoSave() {
	err := e.doSave(e.saveCtx)
	e.sched.Done()
	if err != nil {
		e.noteSaveError(err)
	}
}

func (e *Engine) doSave(ctx context.Context) error {
	e.mu.Lock()
	snapshot := cloneFieldMap(e.draft)
	baseline := e.baseline
	e.mu.Unlock()

	if !e.persisted {
		e.writeFallback(snapshot)
		return nil
	}

	sendable := CanonicalFields(snapshot)
	changes := Changes(baseline, sendable, "")
	if len(changes) == 0 {
		return nil
	}
	if _, err := e.store.UpdatePlanFields(ctx, e.planID, sendable, e.actor.ID); err != nil {
		return err
	}

	// Server truth now matches exactly what was sent; adopt it as the new
	// baseline instead of refetching.
	e.mu.Lock()
	e.baseline = sendable
	e.lastErr = nil
	e.mu.Unlock()

	e.logChanges(ctx, changes)
	return nil
}

func (e *Engine) logChanges(ctx context.Context, changes []types.FieldChange) {
	if e.sink == nil {
		return
	}
	severity := SeverityFor(len(changes))
	sections, grouped := GroupBySection(changes)
	for _, section := range sections {
		sectionChanges := grouped[section]
		record := types.ActivityRecord{
			PlanID:     e.planID,
			ActorID:    e.actor.ID,
			CompanyID:  e.scope.CompanyID,
			SiteID:     e.scope.SiteID,
			Verb:       "plan.updated",
			ObjectType: "plan",
			ObjectID:   e.planID.String(),
			Channel:    "plans",
			Section:    section,
			Severity:   severity,
			Data: map[string]any{
				"changes": sectionChanges,
				"summary": Summary(section, sectionChanges),
			},
			OccurredAt: e.clock.Now(),
		}
		if err := e.sink.Log(ctx, record); err != nil {
			e.logger.Error("draft: activity log append failed", err, "plan_id", e.planID)
		}
	}
}

func (e *Engine) noteSaveError(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.logger.Error("draft: save failed", err, "plan_id", e.rawID)
	if e.onSaveError != nil {
		e.onSaveError(err)
	}
}

func (e *Engine) fallbackKey() string {
	if e.rawID == "" {
		return "sssp.draft.new"
	}
	return "sssp.draft." + e.rawID
}

func (e *Engine) writeFallback(snapshot map[string]any) {
	if e.fallback == nil {
		return
	}
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		e.logger.Error("draft: fallback encode failed", err)
		return
	}
	if err := e.fallback.Set(e.fallbackKey(), string(encoded)); err != nil {
		e.logger.Error("draft: fallback write failed", err, "key", e.fallbackKey())
	}
}

func (e *Engine) restoreFallback() {
	if e.fallback == nil {
		return
	}
	raw, ok, err := e.fallback.Get(e.fallbackKey())
	if err != nil {
		e.logger.Error("draft: fallback read failed", err, "key", e.fallbackKey())
		return
	}
	if !ok {
		return
	}
	var saved map[string]any
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		e.logger.Error("draft: fallback decode failed", err, "key", e.fallbackKey())
		return
	}
	restored := Standardize(saved)
	e.mu.Lock()
	// Seeded values win over the stale fallback copy.
	for key, value := range e.draft {
		restored[key] = value
	}
	e.draft = restored
	e.mu.Unlock()
}

func cloneFieldMap(src map[string]any) map[string]any {
	if src == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = cloneFieldValue(value)
	}
	return out
}

func cloneFieldValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneFieldMap(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneFieldValue(elem)
		}
		return out
	default:
		return value
	}
}

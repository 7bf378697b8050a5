package crudsvc

import (
	"context"
	"strings"

	"github.com/fieldsafe/go-sssp/activity"
	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/crudguard"
	"github.com/fieldsafe/go-sssp/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// ActivityServiceConfig wires dependencies for the CRUD-backed activity feed.
type ActivityServiceConfig struct {
	Guard      GuardAdapter
	LogCommand gocommand.Commander[command.ActivityLogInput]
	FeedQuery  gocommand.Querier[types.ActivityFilter, types.ActivityPage]
}

// ActivityService adapts the activity command/query layer to a go-crud
// controller. The feed query carries its own access policy, so the service
// only guards the operation and translates query params into a filter.
type ActivityService struct {
	guard   GuardAdapter
	logCmd  gocommand.Commander[command.ActivityLogInput]
	feed    gocommand.Querier[types.ActivityFilter, types.ActivityPage]
	emitter ActivityEmitter
	logger  types.Logger
}

// NewActivityService constructs the adapter.
func NewActivityService(cfg ActivityServiceConfig, opts ...ServiceOption) *ActivityService {
	options := applyOptions(opts)
	return &ActivityService{
		guard:   cfg.Guard,
		logCmd:  cfg.LogCommand,
		feed:    cfg.FeedQuery,
		emitter: options.emitter,
		logger:  options.logger,
	}
}

func (s *ActivityService) Create(ctx crud.Context, record *activity.LogEntry) (*activity.LogEntry, error) {
	if s.logCmd == nil {
		return nil, goerrors.New("activity logging disabled", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	payload := activity.ToActivityRecord(record)
	requestedScope := types.ScopeFilter{
		CompanyID: payload.CompanyID,
		SiteID:    payload.SiteID,
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpCreate,
		Scope:     requestedScope,
		TargetID:  payload.PlanID,
	})
	if err != nil {
		return nil, err
	}

	payload.ActorID = res.Actor.ID
	payload.CompanyID = res.Scope.CompanyID
	payload.SiteID = res.Scope.SiteID

	input := command.ActivityLogInput{
		PlanID:     payload.PlanID,
		Verb:       payload.Verb,
		ObjectType: payload.ObjectType,
		ObjectID:   payload.ObjectID,
		Channel:    payload.Channel,
		Section:    payload.Section,
		Severity:   payload.Severity,
		Data:       payload.Data,
		Actor:      res.Actor,
		Scope:      res.Scope,
	}
	if err := s.logCmd.Execute(ctx.UserContext(), input); err != nil {
		return nil, err
	}
	s.emit(ctx.UserContext(), payload)
	return activity.FromActivityRecord(payload), nil
}

func (s *ActivityService) CreateBatch(ctx crud.Context, records []*activity.LogEntry) ([]*activity.LogEntry, error) {
	created := make([]*activity.LogEntry, 0, len(records))
	for _, record := range records {
		rec, err := s.Create(ctx, record)
		if err != nil {
			return nil, err
		}
		created = append(created, rec)
	}
	return created, nil
}

func (s *ActivityService) Update(crud.Context, *activity.LogEntry) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdate)
}

func (s *ActivityService) UpdateBatch(crud.Context, []*activity.LogEntry) ([]*activity.LogEntry, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *ActivityService) Delete(crud.Context, *activity.LogEntry) error {
	return notSupported(crud.OpDelete)
}

func (s *ActivityService) DeleteBatch(crud.Context, []*activity.LogEntry) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *ActivityService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*activity.LogEntry, int, error) {
	if s.feed == nil {
		return nil, 0, goerrors.New("activity feed query unavailable", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}
	filter := types.ActivityFilter{
		Actor:      res.Actor,
		Scope:      res.Scope,
		PlanID:     queryUUID(ctx, "plan_id"),
		ActorID:    queryUUID(ctx, "actor_id"),
		Verbs:      queryStringSlice(ctx, "verb"),
		ObjectType: strings.TrimSpace(ctx.Query("object_type")),
		ObjectID:   strings.TrimSpace(ctx.Query("object_id")),
		Channel:    strings.TrimSpace(ctx.Query("channel")),
		Channels:   queryStringSlice(ctx, "channels"),
		ChannelDenylist: func() []string {
			if values := queryStringSlice(ctx, "channel_denylist"); len(values) > 0 {
				return values
			}
			return queryStringSlice(ctx, "channelDenylist")
		}(),
		Section:  strings.TrimSpace(ctx.Query("section")),
		Severity: types.ChangeSeverity(strings.TrimSpace(ctx.Query("severity"))),
		Since:    queryTime(ctx, "since"),
		Until:    queryTime(ctx, "until"),
		Keyword:  ctx.Query("q"),
		Pagination: types.Pagination{
			Limit:  queryInt(ctx, "limit", 50),
			Offset: queryInt(ctx, "offset", 0),
		},
	}
	page, err := s.feed.Query(ctx.UserContext(), filter)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]*activity.LogEntry, 0, len(page.Records))
	for _, record := range page.Records {
		entries = append(entries, activity.FromActivityRecord(record))
	}
	return entries, page.Total, nil
}

func (s *ActivityService) Show(crud.Context, string, []repository.SelectCriteria) (*activity.LogEntry, error) {
	return nil, notSupported(crud.OpRead)
}

func (s *ActivityService) emit(ctx context.Context, record types.ActivityRecord) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, record); err != nil && s.logger != nil {
		s.logger.Error("activity emitter failed", err)
	}
}

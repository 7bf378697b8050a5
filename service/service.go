package service

import (
	"context"
	"time"

	"github.com/fieldsafe/go-sssp/activity"
	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/query"
	"github.com/fieldsafe/go-sssp/scope"
	featuregate "github.com/goliatone/go-featuregate/gate"
)

// Service is the entry point for go-sssp. It wires repositories, registries,
// hooks, and command/query facades supplied by the host application.
type Service struct {
	cfg          Config
	commands     Commands
	queries      Queries
	activityRepo types.ActivityRepository
	scopeGuard   scope.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	PlanCreate       *command.PlanCreateCommand
	PlanUpdate       *command.PlanUpdateCommand
	PlanLifecycle    *command.PlanLifecycleTransitionCommand
	ShareGrant       *command.ShareGrantCommand
	ShareRevoke      *command.ShareRevokeCommand
	PlanInvite       *command.PlanInviteCommand
	PlanInviteAccept *command.PlanInviteAcceptCommand
	PlanExport       *command.PlanExportCommand
	LogActivity      *command.ActivityLogCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	PlanInventory *query.PlanInventoryQuery
	PlanDetail    *query.PlanDetailQuery
	ActivityFeed  *query.ActivityFeedQuery
	ActivityStats *query.ActivityStatsQuery
	PlanShares    *query.PlanSharesQuery
	UserShares    *query.UserSharesQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB, cached repositories, hooks, etc.).
type Config struct {
	PlanRepository      types.PlanRepository
	ActivityRepository  types.ActivityRepository
	ActivitySink        types.ActivitySink
	ShareRegistry       types.ShareRegistry
	TokenRepository     types.PlanTokenRepository
	SecureLinks         types.SecureLinkManager
	InviteMailer        types.InviteMailer
	PDFRenderer         types.PDFRenderer
	FeatureGate         featuregate.FeatureGate
	Hooks               types.Hooks
	Clock               types.Clock
	IDGenerator         types.IDGenerator
	Logger              types.Logger
	TransitionPolicy    types.TransitionPolicy
	InviteTokenTTL      time.Duration
	InviteRoute         string
	ActivityPolicy      activity.ActivityAccessPolicy
	ScopeResolver       types.ScopeResolver
	AuthorizationPolicy types.AuthorizationPolicy
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	actRepo := norm.ActivityRepository
	if actRepo == nil {
		if sinkRepo, ok := norm.ActivitySink.(types.ActivityRepository); ok {
			actRepo = sinkRepo
		}
	}
	if norm.ActivitySink == nil {
		if repoSink, ok := actRepo.(types.ActivitySink); ok {
			norm.ActivitySink = repoSink
		}
	}
	// Sensitive fields never reach storage unmasked; the configured sink only
	// sees records after go-masker has scrubbed them.
	if norm.ActivitySink != nil {
		norm.ActivitySink = &activity.SanitizedSink{Sink: norm.ActivitySink}
	}

	scopeGuard := scope.Ensure(scope.NewGuard(norm.ScopeResolver, norm.AuthorizationPolicy))

	s := &Service{
		cfg:          norm,
		activityRepo: actRepo,
		scopeGuard:   scopeGuard,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.TransitionPolicy == nil {
		cfg.TransitionPolicy = types.DefaultTransitionPolicy()
	}
	if cfg.ActivityPolicy == nil {
		cfg.ActivityPolicy = activity.NewDefaultAccessPolicy()
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Ready reports whether the service has the required dependencies wired in.
// Invite and export dependencies are optional: the matching commands fail
// with their own sentinels when used unconfigured.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.PlanRepository != nil &&
		s.cfg.ShareRegistry != nil &&
		s.cfg.ActivitySink != nil &&
		s.activityRepo != nil
}

// HealthCheck surfaces missing configuration so upstream transports
// (REST/gRPC/jobs) can fail fast instead of erroring per request.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.cfg.PlanRepository == nil {
		return types.ErrMissingPlanRepository
	}
	if s.cfg.ShareRegistry == nil {
		return types.ErrMissingShareRegistry
	}
	if s.cfg.ActivitySink == nil {
		return types.ErrMissingActivitySink
	}
	if s.activityRepo == nil {
		return types.ErrMissingActivityRepository
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can reuse
// the same resolver/policy combination for HTTP adapters.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.NopGuard()
	}
	return scope.Ensure(s.scopeGuard)
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows (e.g. CRUD controllers).
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

func (s *Service) buildCommands() Commands {
	return Commands{
		PlanCreate: command.NewPlanCreateCommand(command.PlanCreateCommandConfig{
			Repository: s.cfg.PlanRepository,
			Clock:      s.cfg.Clock,
			Activity:   s.cfg.ActivitySink,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
		PlanUpdate: command.NewPlanUpdateCommand(command.PlanUpdateCommandConfig{
			Repository: s.cfg.PlanRepository,
			Clock:      s.cfg.Clock,
			Activity:   s.cfg.ActivitySink,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
		PlanLifecycle: command.NewPlanLifecycleTransitionCommand(command.LifecycleCommandConfig{
			Repository: s.cfg.PlanRepository,
			Policy:     s.cfg.TransitionPolicy,
			Clock:      s.cfg.Clock,
			Logger:     s.cfg.Logger,
			Hooks:      s.cfg.Hooks,
			Activity:   s.cfg.ActivitySink,
			ScopeGuard: s.scopeGuard,
		}),
		ShareGrant: command.NewShareGrantCommand(command.ShareCommandConfig{
			Registry:   s.cfg.ShareRegistry,
			Clock:      s.cfg.Clock,
			Activity:   s.cfg.ActivitySink,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
		ShareRevoke: command.NewShareRevokeCommand(command.ShareCommandConfig{
			Registry:   s.cfg.ShareRegistry,
			Clock:      s.cfg.Clock,
			Activity:   s.cfg.ActivitySink,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
		PlanInvite: command.NewPlanInviteCommand(command.InviteCommandConfig{
			TokenRepository: s.cfg.TokenRepository,
			SecureLinks:     s.cfg.SecureLinks,
			Mailer:          s.cfg.InviteMailer,
			Clock:           s.cfg.Clock,
			IDGen:           s.cfg.IDGenerator,
			Activity:        s.cfg.ActivitySink,
			Hooks:           s.cfg.Hooks,
			Logger:          s.cfg.Logger,
			TokenTTL:        s.cfg.InviteTokenTTL,
			ScopeGuard:      s.scopeGuard,
			FeatureGate:     s.cfg.FeatureGate,
			Route:           s.cfg.InviteRoute,
		}),
		PlanInviteAccept: command.NewPlanInviteAcceptCommand(command.InviteAcceptCommandConfig{
			TokenRepository: s.cfg.TokenRepository,
			SecureLinks:     s.cfg.SecureLinks,
			Registry:        s.cfg.ShareRegistry,
			Clock:           s.cfg.Clock,
			Activity:        s.cfg.ActivitySink,
			Hooks:           s.cfg.Hooks,
			Logger:          s.cfg.Logger,
		}),
		PlanExport: command.NewPlanExportCommand(command.ExportCommandConfig{
			Repository:  s.cfg.PlanRepository,
			Renderer:    s.cfg.PDFRenderer,
			Clock:       s.cfg.Clock,
			Activity:    s.cfg.ActivitySink,
			Hooks:       s.cfg.Hooks,
			Logger:      s.cfg.Logger,
			ScopeGuard:  s.scopeGuard,
			FeatureGate: s.cfg.FeatureGate,
		}),
		LogActivity: command.NewActivityLogCommand(command.ActivityLogCommandConfig{
			Activity:   s.cfg.ActivitySink,
			Clock:      s.cfg.Clock,
			Hooks:      s.cfg.Hooks,
			Logger:     s.cfg.Logger,
			ScopeGuard: s.scopeGuard,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		PlanInventory: query.NewPlanInventoryQuery(s.cfg.PlanRepository, s.cfg.Logger, s.scopeGuard),
		PlanDetail:    query.NewPlanDetailQuery(s.cfg.PlanRepository, s.scopeGuard),
		ActivityFeed: query.NewActivityFeedQuery(s.activityRepo, s.scopeGuard,
			query.WithActivityAccessPolicy(s.cfg.ActivityPolicy)),
		ActivityStats: query.NewActivityStatsQuery(s.activityRepo, s.scopeGuard),
		PlanShares:    query.NewPlanSharesQuery(s.cfg.ShareRegistry, s.scopeGuard),
		UserShares:    query.NewUserSharesQuery(s.cfg.ShareRegistry, s.scopeGuard),
	}
}

package command

import (
	"context"
	"strings"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const defaultInviteTTL = 72 * time.Hour

// PlanInviteInput shares a plan with someone identified only by email.
type PlanInviteInput struct {
	PlanID uuid.UUID
	Email  string
	Role   types.ShareRole
	Actor  types.ActorRef
	Scope  types.ScopeFilter
	Result *PlanInviteResult
}

// Type implements gocommand.Message.
func (PlanInviteInput) Type() string {
	return "command.plan.invite"
}

// Validate implements gocommand.Message.
func (input PlanInviteInput) Validate() error {
	switch {
	case input.PlanID == uuid.Nil:
		return ErrPlanIDRequired
	case strings.TrimSpace(input.Email) == "":
		return ErrInviteEmailRequired
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// PlanInviteResult exposes the minted link and token details.
type PlanInviteResult struct {
	Link      string
	JTI       string
	ExpiresAt time.Time
}

// PlanInviteCommand mints a securelink invite token, persists the token record
// and dispatches the email.
type PlanInviteCommand struct {
	tokens      types.PlanTokenRepository
	manager     types.SecureLinkManager
	mailer      types.InviteMailer
	clock       types.Clock
	idGen       types.IDGenerator
	sink        types.ActivitySink
	hooks       types.Hooks
	logger      types.Logger
	tokenTTL    time.Duration
	guard       scope.Guard
	featureGate featuregate.FeatureGate
	route       string
}

// InviteCommandConfig holds dependencies for the invite flow.
type InviteCommandConfig struct {
	TokenRepository types.PlanTokenRepository
	SecureLinks     types.SecureLinkManager
	Mailer          types.InviteMailer
	Clock           types.Clock
	IDGen           types.IDGenerator
	Activity        types.ActivitySink
	Hooks           types.Hooks
	Logger          types.Logger
	TokenTTL        time.Duration
	ScopeGuard      scope.Guard
	FeatureGate     featuregate.FeatureGate
	Route           string
}

// NewPlanInviteCommand constructs the invite handler.
func NewPlanInviteCommand(cfg InviteCommandConfig) *PlanInviteCommand {
	ttl := cfg.TokenTTL
	if ttl == 0 && cfg.SecureLinks != nil {
		ttl = cfg.SecureLinks.GetExpiration()
	}
	if ttl == 0 {
		ttl = defaultInviteTTL
	}
	idGen := cfg.IDGen
	if idGen == nil {
		idGen = types.UUIDGenerator{}
	}
	route := strings.TrimSpace(cfg.Route)
	if route == "" {
		route = SecureLinkRouteInviteAccept
	}
	return &PlanInviteCommand{
		tokens:      cfg.TokenRepository,
		manager:     cfg.SecureLinks,
		mailer:      cfg.Mailer,
		clock:       safeClock(cfg.Clock),
		idGen:       idGen,
		sink:        safeActivitySink(cfg.Activity),
		hooks:       safeHooks(cfg.Hooks),
		logger:      safeLogger(cfg.Logger),
		tokenTTL:    ttl,
		guard:       safeScopeGuard(cfg.ScopeGuard),
		featureGate: cfg.FeatureGate,
		route:       route,
	}
}

var _ gocommand.Commander[PlanInviteInput] = (*PlanInviteCommand)(nil)

// Execute mints the invite token and registers metadata. Email dispatch is
// fire-and-forget: a mailer failure is logged but the invite still stands
// because the token is already persisted and the link can be resent.
func (c *PlanInviteCommand) Execute(ctx context.Context, input PlanInviteInput) error {
	if c.manager == nil {
		return types.ErrMissingSecureLinkManager
	}
	if c.tokens == nil {
		return types.ErrMissingPlanTokenRepository
	}
	if err := input.Validate(); err != nil {
		return err
	}
	scopeFilter, err := c.guard.Enforce(ctx, input.Actor, input.Scope, types.PolicyActionPlansShare, input.PlanID)
	if err != nil {
		return err
	}
	if enabled, err := featureEnabled(ctx, c.featureGate, featurePlansInvite, scopeFilter, uuid.Nil); err != nil {
		return err
	} else if !enabled {
		return ErrInviteDisabled
	}

	role := input.Role
	if role == "" {
		role = types.ShareRoleViewer
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	issuedAt := now(c.clock)
	expiresAt := issuedAt.Add(c.tokenTTL)
	jti := c.idGen.UUID().String()

	payload := buildSecureLinkPayload(
		SecureLinkActionInvite,
		input.PlanID,
		email,
		role,
		scopeFilter,
		jti,
		issuedAt,
		expiresAt,
		secureLinkSourceDefault,
	)
	link, err := c.manager.Generate(c.route, payload)
	if err != nil {
		return err
	}

	if _, err := c.tokens.CreateToken(ctx, types.PlanToken{
		PlanID:    input.PlanID,
		Email:     email,
		Role:      role,
		Type:      types.PlanTokenInvite,
		JTI:       jti,
		Status:    types.PlanTokenStatusIssued,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	if c.mailer != nil {
		msg := types.InviteMessage{
			PlanID:    input.PlanID,
			Email:     email,
			Link:      link,
			Role:      role,
			InvitedBy: input.Actor.ID,
			ExpiresAt: expiresAt,
		}
		if err := c.mailer.SendInvite(ctx, msg); err != nil {
			c.logger.Error("invite mail dispatch failed", err, "plan_id", input.PlanID, "jti", jti)
		}
	}

	record := types.ActivityRecord{
		PlanID:     input.PlanID,
		ActorID:    input.Actor.ID,
		Verb:       "plan.invited",
		ObjectType: "plan",
		ObjectID:   input.PlanID.String(),
		Channel:    "invites",
		CompanyID:  scopeFilter.CompanyID,
		SiteID:     scopeFilter.SiteID,
		Data: map[string]any{
			"email":      email,
			"role":       string(role),
			"jti":        jti,
			"expires_at": expiresAt,
		},
		OccurredAt: issuedAt,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)

	if input.Result != nil {
		*input.Result = PlanInviteResult{
			Link:      link,
			JTI:       jti,
			ExpiresAt: expiresAt,
		}
	}
	return nil
}

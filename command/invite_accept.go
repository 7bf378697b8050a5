package command

import (
	"context"
	"strings"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// PlanInviteAcceptInput redeems a previously minted invite token. Either the
// raw securelink token or the bare JTI may be supplied.
type PlanInviteAcceptInput struct {
	Token  string
	JTI    string
	UserID uuid.UUID
	Result *types.ShareGrant
}

// Type implements gocommand.Message.
func (PlanInviteAcceptInput) Type() string {
	return "command.plan.invite.accept"
}

// Validate implements gocommand.Message.
func (input PlanInviteAcceptInput) Validate() error {
	switch {
	case strings.TrimSpace(input.Token) == "" && strings.TrimSpace(input.JTI) == "":
		return ErrTokenRequired
	case input.UserID == uuid.Nil:
		return ErrShareUserRequired
	default:
		return nil
	}
}

// PlanInviteAcceptCommand validates the token, marks it used and grants the
// share with the role frozen at invite time.
type PlanInviteAcceptCommand struct {
	tokens   types.PlanTokenRepository
	manager  types.SecureLinkManager
	registry types.ShareRegistry
	clock    types.Clock
	sink     types.ActivitySink
	hooks    types.Hooks
	logger   types.Logger
}

// InviteAcceptCommandConfig holds dependencies for token redemption.
type InviteAcceptCommandConfig struct {
	TokenRepository types.PlanTokenRepository
	SecureLinks     types.SecureLinkManager
	Registry        types.ShareRegistry
	Clock           types.Clock
	Activity        types.ActivitySink
	Hooks           types.Hooks
	Logger          types.Logger
}

// NewPlanInviteAcceptCommand constructs the redemption handler.
func NewPlanInviteAcceptCommand(cfg InviteAcceptCommandConfig) *PlanInviteAcceptCommand {
	return &PlanInviteAcceptCommand{
		tokens:   cfg.TokenRepository,
		manager:  cfg.SecureLinks,
		registry: cfg.Registry,
		clock:    safeClock(cfg.Clock),
		sink:     safeActivitySink(cfg.Activity),
		hooks:    safeHooks(cfg.Hooks),
		logger:   safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[PlanInviteAcceptInput] = (*PlanInviteAcceptCommand)(nil)

// Execute redeems the invite. The repository record is authoritative for
// status and expiry even when the securelink payload still validates.
func (c *PlanInviteAcceptCommand) Execute(ctx context.Context, input PlanInviteAcceptInput) error {
	if c.tokens == nil {
		return types.ErrMissingPlanTokenRepository
	}
	if c.registry == nil {
		return types.ErrMissingShareRegistry
	}
	if err := input.Validate(); err != nil {
		return err
	}

	jti := strings.TrimSpace(input.JTI)
	if jti == "" {
		if c.manager == nil {
			return types.ErrMissingSecureLinkManager
		}
		payload, err := c.manager.GetAndValidate(func(string) string {
			return input.Token
		})
		if err != nil {
			return err
		}
		jti = payloadString(payload, "jti")
		if jti == "" {
			return ErrTokenNotFound
		}
	}

	token, err := c.tokens.GetTokenByJTI(ctx, types.PlanTokenInvite, jti)
	if err != nil {
		return err
	}
	if token == nil {
		return ErrTokenNotFound
	}

	redeemedAt := now(c.clock)
	switch {
	case token.Status == types.PlanTokenStatusUsed:
		return ErrTokenAlreadyUsed
	case token.Status == types.PlanTokenStatusExpired:
		return ErrTokenExpired
	case !token.ExpiresAt.IsZero() && redeemedAt.After(token.ExpiresAt):
		if err := c.tokens.UpdateTokenStatus(ctx, types.PlanTokenInvite, jti, types.PlanTokenStatusExpired, time.Time{}); err != nil {
			c.logger.Error("expired token status update failed", err, "jti", jti)
		}
		return ErrTokenExpired
	}

	grant, err := c.registry.GrantShare(ctx, types.ShareMutation{
		PlanID:  token.PlanID,
		UserID:  input.UserID,
		Role:    token.Role,
		ActorID: input.UserID,
	})
	if err != nil {
		return err
	}
	if err := c.tokens.UpdateTokenStatus(ctx, types.PlanTokenInvite, jti, types.PlanTokenStatusUsed, redeemedAt); err != nil {
		return err
	}

	record := types.ActivityRecord{
		PlanID:     token.PlanID,
		ActorID:    input.UserID,
		Verb:       "plan.invite.accepted",
		ObjectType: "plan",
		ObjectID:   token.PlanID.String(),
		Channel:    "invites",
		Data: map[string]any{
			"email": token.Email,
			"role":  string(token.Role),
			"jti":   jti,
		},
		OccurredAt: redeemedAt,
	}
	logActivity(ctx, c.sink, record)
	emitActivityHook(ctx, c.hooks, record)
	emitShareHook(ctx, c.hooks, types.ShareEvent{
		PlanID:     token.PlanID,
		UserID:     input.UserID,
		Role:       token.Role,
		Action:     "granted",
		ActorID:    input.UserID,
		OccurredAt: redeemedAt,
	})

	if input.Result != nil && grant != nil {
		*input.Result = *grant
	}
	return nil
}

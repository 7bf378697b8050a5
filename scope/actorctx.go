package scope

import (
	"context"

	"github.com/fieldsafe/go-sssp/pkg/types"
)

type actorContextKey struct{}

// ActorContext carries the authenticated actor and their home scope through a
// request context. Transports populate it in middleware; the crud guard reads
// it back out.
type ActorContext struct {
	Actor types.ActorRef
	Scope types.ScopeFilter
}

// WithActorContext attaches the actor context to ctx.
func WithActorContext(ctx context.Context, actor *ActorContext) context.Context {
	if actor == nil {
		return ctx
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorContextFrom extracts a previously attached actor context.
func ActorContextFrom(ctx context.Context) (*ActorContext, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(*ActorContext)
	return actor, ok && actor != nil
}

// ResolveActor returns the actor reference stored in ctx or ErrActorRequired.
func ResolveActor(ctx context.Context) (types.ActorRef, *ActorContext, error) {
	actorCtx, ok := ActorContextFrom(ctx)
	if !ok {
		return types.ActorRef{}, nil, types.ErrActorRequired
	}
	return actorCtx.Actor, actorCtx, nil
}

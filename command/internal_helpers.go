package command

import (
	"context"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/scope"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeHooks(hooks types.Hooks) types.Hooks {
	return hooks
}

func safeActivitySink(sink types.ActivitySink) types.ActivitySink {
	return sink
}

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func logActivity(ctx context.Context, sink types.ActivitySink, record types.ActivityRecord) {
	if sink == nil {
		return
	}
	_ = sink.Log(ctx, record)
}

func emitActivityHook(ctx context.Context, hooks types.Hooks, record types.ActivityRecord) {
	if hooks.AfterActivity == nil {
		return
	}
	hooks.AfterActivity(ctx, record)
}

func emitPlanHook(ctx context.Context, hooks types.Hooks, event types.PlanEvent) {
	if hooks.AfterPlanChange == nil {
		return
	}
	hooks.AfterPlanChange(ctx, event)
}

func emitLifecycleHook(ctx context.Context, hooks types.Hooks, event types.LifecycleEvent) {
	if hooks.AfterLifecycle == nil {
		return
	}
	hooks.AfterLifecycle(ctx, event)
}

func emitShareHook(ctx context.Context, hooks types.Hooks, event types.ShareEvent) {
	if hooks.AfterShareChange == nil {
		return
	}
	hooks.AfterShareChange(ctx, event)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

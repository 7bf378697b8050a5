package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in plan_activity.
type LogEntry struct {
	bun.BaseModel `bun:"table:plan_activity"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	PlanID     uuid.UUID      `bun:"plan_id,type:uuid"`
	ActorID    uuid.UUID      `bun:"actor_id,type:uuid"`
	CompanyID  uuid.UUID      `bun:"company_id,type:uuid"`
	SiteID     uuid.UUID      `bun:"site_id,type:uuid"`
	Verb       string         `bun:"verb"`
	ObjectType string         `bun:"object_type"`
	ObjectID   string         `bun:"object_id"`
	Channel    string         `bun:"channel"`
	Section    string         `bun:"section"`
	Severity   string         `bun:"severity"`
	Data       map[string]any `bun:"data,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at"`
}

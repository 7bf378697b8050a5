package tokens

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the persisted plan_tokens row.
type Record struct {
	bun.BaseModel `bun:"table:plan_tokens"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid"`
	PlanID    uuid.UUID  `bun:"plan_id,notnull,type:uuid"`
	Email     string     `bun:"email,notnull"`
	Role      string     `bun:"role,notnull"`
	TokenType string     `bun:"token_type,notnull"`
	JTI       string     `bun:"jti,notnull"`
	Status    string     `bun:"status,notnull"`
	IssuedAt  *time.Time `bun:"issued_at,nullzero"`
	ExpiresAt *time.Time `bun:"expires_at,nullzero"`
	UsedAt    *time.Time `bun:"used_at,nullzero"`
	CreatedAt time.Time  `bun:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at"`
}

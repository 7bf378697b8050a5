package share

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Grant models the plan_shares row. One row per plan/user pair; granting the
// same pair again updates the role in place.
type Grant struct {
	bun.BaseModel `bun:"table:plan_shares,alias:ps"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	PlanID    uuid.UUID `bun:"plan_id,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid"`
	CompanyID uuid.UUID `bun:"company_id,type:uuid"`
	SiteID    uuid.UUID `bun:"site_id,type:uuid"`
	Role      string    `bun:"role"`
	GrantedAt time.Time `bun:"granted_at"`
	GrantedBy uuid.UUID `bun:"granted_by,type:uuid"`
}

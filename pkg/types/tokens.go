package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlanTokenType identifies invite token types stored in plan_tokens.
type PlanTokenType string

const (
	PlanTokenInvite PlanTokenType = "invite"
)

// PlanTokenStatus tracks lifecycle state for plan_tokens records.
type PlanTokenStatus string

const (
	PlanTokenStatusIssued  PlanTokenStatus = "issued"
	PlanTokenStatusUsed    PlanTokenStatus = "used"
	PlanTokenStatusExpired PlanTokenStatus = "expired"
)

// PlanToken captures persisted invite token metadata.
type PlanToken struct {
	ID        uuid.UUID
	PlanID    uuid.UUID
	Email     string
	Role      ShareRole
	Type      PlanTokenType
	JTI       string
	Status    PlanTokenStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanTokenRepository persists plan invite tokens.
type PlanTokenRepository interface {
	CreateToken(ctx context.Context, token PlanToken) (*PlanToken, error)
	GetTokenByJTI(ctx context.Context, tokenType PlanTokenType, jti string) (*PlanToken, error)
	UpdateTokenStatus(ctx context.Context, tokenType PlanTokenType, jti string, status PlanTokenStatus, usedAt time.Time) error
}

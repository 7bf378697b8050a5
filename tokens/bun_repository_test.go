package tokens

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func TestTokenRepository_CreateAndFetch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	planID := uuid.New()
	created, err := repo.CreateToken(ctx, types.PlanToken{
		PlanID:    planID,
		Email:     "Crew@Example.COM",
		Role:      types.ShareRoleEditor,
		Type:      types.PlanTokenInvite,
		JTI:       "jti-abc",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, types.PlanTokenStatusIssued, created.Status)
	require.Equal(t, "crew@example.com", created.Email)
	require.False(t, created.IssuedAt.IsZero())

	fetched, err := repo.GetTokenByJTI(ctx, types.PlanTokenInvite, "jti-abc")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, planID, fetched.PlanID)
	require.Equal(t, types.ShareRoleEditor, fetched.Role)

	missing, err := repo.GetTokenByJTI(ctx, types.PlanTokenInvite, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestTokenRepository_MarkUsedIsSingleShot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.CreateToken(ctx, types.PlanToken{
		PlanID:    uuid.New(),
		Email:     "crew@example.com",
		Type:      types.PlanTokenInvite,
		JTI:       "jti-once",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateTokenStatus(ctx, types.PlanTokenInvite, "jti-once", types.PlanTokenStatusUsed, time.Now()))

	// Second redemption fails: the token is no longer issued.
	err = repo.UpdateTokenStatus(ctx, types.PlanTokenInvite, "jti-once", types.PlanTokenStatusUsed, time.Now())
	require.Error(t, err)
}

func TestTokenRepository_ExpiredTokenCannotBeUsed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.CreateToken(ctx, types.PlanToken{
		PlanID:    uuid.New(),
		Email:     "crew@example.com",
		Type:      types.PlanTokenInvite,
		JTI:       "jti-stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	err = repo.UpdateTokenStatus(ctx, types.PlanTokenInvite, "jti-stale", types.PlanTokenStatusUsed, time.Now())
	require.Error(t, err)

	// Expiring it administratively still works.
	require.NoError(t, repo.UpdateTokenStatus(ctx, types.PlanTokenInvite, "jti-stale", types.PlanTokenStatusExpired, time.Time{}))
}

func newTestRepository(t *testing.T) *Repository {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	content, err := os.ReadFile("../data/sql/migrations/000003_plan_tokens.sql")
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)
	return repo
}

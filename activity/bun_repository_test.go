package activity

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

func TestRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	planID := uuid.New()
	actorID := uuid.New()

	require.NoError(t, repo.Log(ctx, types.ActivityRecord{
		PlanID:     planID,
		ActorID:    actorID,
		Verb:       "plan.updated",
		ObjectType: "plan",
		ObjectID:   planID.String(),
		Channel:    "plans",
		Section:    "Project Details",
		Severity:   types.ChangeSeverityMinor,
		Data:       map[string]any{"summary": "Updated Title in Project Details"},
	}))

	page, err := repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	record := page.Records[0]
	require.NotEqual(t, uuid.Nil, record.ID)
	require.False(t, record.OccurredAt.IsZero())
	require.Equal(t, "plan.updated", record.Verb)
	require.Equal(t, "Project Details", record.Section)
	require.Equal(t, types.ChangeSeverityMinor, record.Severity)
	require.Equal(t, "Updated Title in Project Details", record.Data["summary"])
}

func TestRepository_ListActivityFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	planID := uuid.New()
	otherPlan := uuid.New()
	companyID := uuid.New()

	seed := []types.ActivityRecord{
		{PlanID: planID, CompanyID: companyID, Verb: "plan.updated", Channel: "plans", Section: "Project Details", Severity: types.ChangeSeverityMinor},
		{PlanID: planID, CompanyID: companyID, Verb: "plan.updated", Channel: "plans", Section: "Site Rules", Severity: types.ChangeSeverityMajor},
		{PlanID: planID, CompanyID: companyID, Verb: "plan.published", Channel: "lifecycle", Section: ""},
		{PlanID: otherPlan, Verb: "plan.updated", Channel: "plans", Section: "Project Details"},
	}
	for _, record := range seed {
		require.NoError(t, repo.Log(ctx, record))
	}

	page, err := repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID, Section: "Site Rules"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.Equal(t, types.ChangeSeverityMajor, page.Records[0].Severity)

	page, err = repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID, Severity: types.ChangeSeverityMajor})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	page, err = repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID, Verbs: []string{"plan.published"}})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	page, err = repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID, ChannelDenylist: []string{"lifecycle"}})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	page, err = repo.ListActivity(ctx, types.ActivityFilter{Scope: types.ScopeFilter{CompanyID: companyID}})
	require.NoError(t, err)
	require.Len(t, page.Records, 3)

	page, err = repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID, Keyword: "published"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
}

func TestRepository_ListActivityPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	planID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, types.ActivityRecord{
			PlanID:     planID,
			Verb:       "plan.updated",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := repo.ListActivity(ctx, types.ActivityFilter{
		PlanID:     planID,
		Pagination: types.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	require.Equal(t, 5, page.Total)
	require.True(t, page.HasMore)
	require.Equal(t, 2, page.NextOffset)
	// Feed is newest-first.
	require.True(t, page.Records[0].OccurredAt.After(page.Records[1].OccurredAt))
}

func TestRepository_ListActivityAfterCursor(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	planID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Log(ctx, types.ActivityRecord{
			PlanID:     planID,
			Verb:       "plan.updated",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	first, err := repo.ListActivityAfter(ctx, types.ActivityFilter{PlanID: planID}, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	cursor := &ActivityCursor{OccurredAt: first[1].OccurredAt, ID: first[1].ID}
	rest, err := repo.ListActivityAfter(ctx, types.ActivityFilter{PlanID: planID}, cursor, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, record := range rest {
		require.True(t, record.OccurredAt.Before(first[1].OccurredAt))
	}
}

func TestRepository_ActivityStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	planID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Log(ctx, types.ActivityRecord{PlanID: planID, Verb: "plan.updated"}))
	}
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{PlanID: planID, Verb: "plan.published"}))
	require.NoError(t, repo.Log(ctx, types.ActivityRecord{PlanID: uuid.New(), Verb: "plan.updated"}))

	stats, err := repo.ActivityStats(ctx, types.ActivityStatsFilter{PlanID: planID})
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 3, stats.ByVerb["plan.updated"])
	require.Equal(t, 1, stats.ByVerb["plan.published"])
}

func TestSanitizedSinkMasksBeforeForwarding(t *testing.T) {
	ctx := context.Background()
	repo := newTestActivityRepository(t)

	sink := &SanitizedSink{Sink: repo}
	planID := uuid.New()
	require.NoError(t, sink.Log(ctx, types.ActivityRecord{
		PlanID: planID,
		Verb:   "plan.updated",
		Data:   map[string]any{"token": "abcd1234"},
	}))

	page, err := repo.ListActivity(ctx, types.ActivityFilter{PlanID: planID})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	require.NotEqual(t, "abcd1234", page.Records[0].Data["token"])
}

func newTestActivityRepository(t *testing.T) *Repository {
	db := newTestDB(t)
	applyDDL(t, db)
	repo, err := NewRepository(RepositoryConfig{DB: db})
	require.NoError(t, err)
	return repo
}

func newTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open("sqlite3", ":memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})
	return db
}

func applyDDL(t *testing.T, db *bun.DB) {
	content, err := os.ReadFile("../data/sql/migrations/000004_plan_activity.sql")
	require.NoError(t, err)
	for _, stmt := range splitStatements(string(content)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func splitStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var builder strings.Builder
	var statements []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
		} else {
			builder.WriteString(" ")
		}
	}
	if builder.Len() > 0 {
		statements = append(statements, builder.String())
	}
	return statements
}

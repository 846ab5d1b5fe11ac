package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revwatch/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(id string, createdAt time.Time) *AnalysisRun {
	return &AnalysisRun{
		ID:        id,
		Source:    "rules",
		Reason:    "no provider configured",
		Files:     []string{"deals.csv"},
		DealCount: 3,
		Summary:   model.Summary{TotalLeakage: 2000, HighRiskDeals: 2, IssuesFound: 2},
		Report: &model.Report{
			Summary: model.Summary{TotalLeakage: 2000, HighRiskDeals: 2, IssuesFound: 2},
			FlaggedDeals: []model.FlaggedIssue{
				{DealID: "D1", RiskType: model.RiskUnauthorizedDiscount, Impact: 1000},
				{DealID: "D1", RiskType: model.RiskPhantomPipeline, Impact: 1000},
			},
			Recommendations: []string{"Implement discount approval workflow"},
		},
		CreatedAt: createdAt,
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := sampleRun("", time.Time{})
	require.NoError(t, s.SaveRun(ctx, run))
	assert.NotEmpty(t, run.ID, "SaveRun assigns an id")
	assert.False(t, run.CreatedAt.IsZero(), "SaveRun assigns a timestamp")

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "rules", got.Source)
	assert.Equal(t, "no provider configured", got.Reason)
	assert.Equal(t, []string{"deals.csv"}, got.Files)
	assert.Equal(t, 3, got.DealCount)
	assert.Equal(t, 2000.0, got.Summary.TotalLeakage)
	require.NotNil(t, got.Report)
	assert.Len(t, got.Report.FlaggedDeals, 2)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRuns_NewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRun(ctx, sampleRun("old", base)))
	require.NoError(t, s.SaveRun(ctx, sampleRun("mid", base.Add(time.Hour))))
	require.NoError(t, s.SaveRun(ctx, sampleRun("new", base.Add(2*time.Hour))))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)
}

func TestSQLiteStore_ListRuns_Limit(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(ctx, sampleRun("", base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

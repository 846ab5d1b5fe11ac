package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newTestPostgres(t)

	run := sampleRun("run-1", time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
	files, err := json.Marshal(run.Files)
	require.NoError(t, err)
	report, err := json.Marshal(run.Report)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs(run.ID, run.Source, run.Provider, run.Reason, files,
			run.DealCount, run.Summary.TotalLeakage, run.Summary.IssuesFound,
			report, run.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_AssignsID(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectExec("INSERT INTO analysis_runs").
		WithArgs(pgxmock.AnyArg(), "rules", "", "no provider configured", pgxmock.AnyArg(),
			3, 2000.0, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := sampleRun("", time.Time{})
	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newTestPostgres(t)

	want := sampleRun("run-2", time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
	files, err := json.Marshal(want.Files)
	require.NoError(t, err)
	report, err := json.Marshal(want.Report)
	require.NoError(t, err)

	columns := []string{"id", "source", "provider", "reason", "files", "deal_count", "total_leakage", "issues_found", "report", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE id").
		WithArgs("run-2").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			want.ID, want.Source, want.Provider, want.Reason, files,
			want.DealCount, want.Summary.TotalLeakage, want.Summary.IssuesFound,
			report, want.CreatedAt,
		))

	got, err := s.GetRun(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, []string{"deals.csv"}, got.Files)
	assert.Equal(t, 2000.0, got.Summary.TotalLeakage)
	require.NotNil(t, got.Report)
	assert.Len(t, got.Report.FlaggedDeals, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newTestPostgres(t)

	columns := []string{"id", "source", "provider", "reason", "files", "deal_count", "total_leakage", "issues_found", "report", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM analysis_runs WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(columns))

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newTestPostgres(t)

	newer := sampleRun("run-new", time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	older := sampleRun("run-old", time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))

	columns := []string{"id", "source", "provider", "reason", "files", "deal_count", "total_leakage", "issues_found", "report", "created_at"}
	rows := pgxmock.NewRows(columns)
	for _, run := range []*AnalysisRun{newer, older} {
		files, err := json.Marshal(run.Files)
		require.NoError(t, err)
		report, err := json.Marshal(run.Report)
		require.NoError(t, err)
		rows.AddRow(run.ID, run.Source, run.Provider, run.Reason, files,
			run.DealCount, run.Summary.TotalLeakage, run.Summary.IssuesFound,
			report, run.CreatedAt)
	}
	mock.ExpectQuery("SELECT (.+) FROM analysis_runs ORDER BY created_at DESC").
		WithArgs(20).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

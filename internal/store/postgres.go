package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
)

// Pool is the slice of pgxpool.Pool the store uses; pgxmock implements it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, for tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	reason        TEXT NOT NULL DEFAULT '',
	files         JSONB NOT NULL DEFAULT '[]',
	deal_count    INTEGER NOT NULL DEFAULT 0,
	total_leakage DOUBLE PRECISION NOT NULL DEFAULT 0,
	issues_found  INTEGER NOT NULL DEFAULT 0,
	report        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	files, err := json.Marshal(run.Files)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal files")
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO analysis_runs
			(id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.Source, run.Provider, run.Reason, files,
		run.DealCount, run.Summary.TotalLeakage, run.Summary.IssuesFound,
		report, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*AnalysisRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at
		FROM analysis_runs WHERE id = $1`, id)

	run, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at
		FROM analysis_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func scanPgRun(sc interface{ Scan(dest ...any) error }) (*AnalysisRun, error) {
	var run AnalysisRun
	var files, report []byte
	var totalLeakage float64
	var issuesFound int

	if err := sc.Scan(
		&run.ID, &run.Source, &run.Provider, &run.Reason, &files,
		&run.DealCount, &totalLeakage, &issuesFound, &report, &run.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(files) > 0 {
		if err := json.Unmarshal(files, &run.Files); err != nil {
			return nil, eris.Wrap(err, "unmarshal files")
		}
	}
	if len(report) > 0 && string(report) != "null" {
		run.Report = &model.Report{}
		if err := json.Unmarshal(report, run.Report); err != nil {
			return nil, eris.Wrap(err, "unmarshal report")
		}
		run.Summary = run.Report.Summary
	} else {
		run.Summary = model.Summary{
			TotalLeakage:  totalLeakage,
			HighRiskDeals: issuesFound,
			IssuesFound:   issuesFound,
		}
	}

	return &run, nil
}

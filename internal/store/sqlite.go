package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/revwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	reason        TEXT NOT NULL DEFAULT '',
	files         TEXT NOT NULL DEFAULT '[]',
	deal_count    INTEGER NOT NULL DEFAULT 0,
	total_leakage REAL NOT NULL DEFAULT 0,
	issues_found  INTEGER NOT NULL DEFAULT 0,
	report        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	files, err := json.Marshal(run.Files)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal files")
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs
			(id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Provider, run.Reason, string(files),
		run.DealCount, run.Summary.TotalLeakage, run.Summary.IssuesFound,
		string(report), run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at
		FROM analysis_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, provider, reason, files, deal_count, total_leakage, issues_found, report, created_at
		FROM analysis_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*AnalysisRun, error) {
	var run AnalysisRun
	var files, report sql.NullString
	var totalLeakage float64
	var issuesFound int

	if err := sc.Scan(
		&run.ID, &run.Source, &run.Provider, &run.Reason, &files,
		&run.DealCount, &totalLeakage, &issuesFound, &report, &run.CreatedAt,
	); err != nil {
		return nil, err
	}

	if files.Valid && files.String != "" {
		if err := json.Unmarshal([]byte(files.String), &run.Files); err != nil {
			return nil, eris.Wrap(err, "unmarshal files")
		}
	}
	if report.Valid && report.String != "" && report.String != "null" {
		run.Report = &model.Report{}
		if err := json.Unmarshal([]byte(report.String), run.Report); err != nil {
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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/digibook/digimonitor/internal/model"
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
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	platform    TEXT NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	status      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	idx         INTEGER NOT NULL,
	url         TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT,
	attempts    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	payload     TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_platform ON runs(platform);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.Report) (*model.Run, error) {
	run := &model.Run{
		ID:         uuid.New().String(),
		Platform:   report.Platform,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Total:      report.Total,
		Status:     model.StatusOf(report),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, platform, succeeded, failed, total, status, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Platform), run.Succeeded, run.Failed, run.Total,
		string(run.Status), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	for _, o := range report.Outcomes {
		var payloadJSON sql.NullString
		if o.Payload != nil {
			b, err := json.Marshal(o.Payload)
			if err != nil {
				return nil, eris.Wrap(err, "sqlite: marshal payload")
			}
			payloadJSON = sql.NullString{String: string(b), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO outcomes (id, run_id, idx, url, status, reason, attempts, duration_ms, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), run.ID, o.Target.Index, o.Target.URL,
			outcomeStatus(o), o.Reason, o.Attempts, o.Duration.Milliseconds(), payloadJSON,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert outcome")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, platform, succeeded, failed, total, status, started_at, finished_at FROM runs`
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Platform != "" {
		conds = append(conds, "platform = ?")
		args = append(args, string(filter.Platform))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var platform, status string
		if err := rows.Scan(&r.ID, &platform, &r.Succeeded, &r.Failed, &r.Total,
			&status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Platform = model.Platform(platform)
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// outcomeStatus maps an outcome to its stored status column value.
func outcomeStatus(o model.Outcome) string {
	if o.OK() {
		return "ok"
	}
	return string(o.Failure)
}

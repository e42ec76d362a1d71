package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/digibook/digimonitor/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. Tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
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
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	platform    TEXT NOT NULL,
	succeeded   INT NOT NULL,
	failed      INT NOT NULL,
	total       INT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	idx         INT NOT NULL,
	url         TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT,
	attempts    INT NOT NULL,
	duration_ms BIGINT NOT NULL,
	payload     JSONB
);

CREATE INDEX IF NOT EXISTS idx_runs_platform ON runs(platform);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.Report) (*model.Run, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, platform, succeeded, failed, total, status, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, string(run.Platform), run.Succeeded, run.Failed, run.Total,
		string(run.Status), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	for _, o := range report.Outcomes {
		var payloadJSON []byte
		if o.Payload != nil {
			payloadJSON, err = json.Marshal(o.Payload)
			if err != nil {
				return nil, eris.Wrap(err, "postgres: marshal payload")
			}
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO outcomes (id, run_id, idx, url, status, reason, attempts, duration_ms, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New().String(), run.ID, o.Target.Index, o.Target.URL,
			outcomeStatus(o), o.Reason, o.Attempts, o.Duration.Milliseconds(), payloadJSON,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert outcome")
		}
	}

	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, platform, succeeded, failed, total, status, started_at, finished_at FROM runs`
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		conds = append(conds, "platform = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var platform, status string
		if err := rows.Scan(&r.ID, &platform, &r.Succeeded, &r.Failed, &r.Total,
			&status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Platform = model.Platform(platform)
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

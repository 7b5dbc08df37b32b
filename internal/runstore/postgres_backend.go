package runstore

import (
	"context"
	"database/sql"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS task_runs (
  id TEXT PRIMARY KEY,
  task TEXT NOT NULL,
  started_at TIMESTAMP WITH TIME ZONE NOT NULL,
  finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
  outcome TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_task_runs_task_started ON task_runs (task, started_at DESC);
`)
	})
	return s.schemaErr
}

func (s *Store) putDB(ctx context.Context, r Run) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO task_runs (id, task, started_at, finished_at, outcome, error, note)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id)
DO UPDATE SET finished_at=EXCLUDED.finished_at,
  outcome=EXCLUDED.outcome,
  error=EXCLUDED.error,
  note=EXCLUDED.note
`, r.ID, r.Task, r.Started, r.Finished, string(r.Outcome), r.Error, r.Note)
	return err
}

func (s *Store) recentDB(ctx context.Context, task string, n int) ([]Run, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var (
		rows *sql.Rows
		err  error
	)
	if task == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, task, started_at, finished_at, outcome, error, note
FROM task_runs ORDER BY started_at DESC LIMIT $1`, n)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, task, started_at, finished_at, outcome, error, note
FROM task_runs WHERE task = $1 ORDER BY started_at DESC LIMIT $2`, task, n)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			outcome string
		)
		if err := rows.Scan(&r.ID, &r.Task, &r.Started, &r.Finished, &outcome, &r.Error, &r.Note); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		out = append(out, normalizeRun(r))
	}
	return out, rows.Err()
}

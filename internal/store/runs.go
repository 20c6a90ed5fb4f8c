package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Run struct {
	ID         int64           `json:"id"`
	StartedAt  string          `json:"startedAt"`
	FinishedAt string          `json:"finishedAt"`
	DryRun     bool            `json:"dryRun"`
	Targets    int             `json:"targets"`
	Stats      json.RawMessage `json:"stats"`
	Error      string          `json:"error,omitempty"`
}

// InsertRun appends one run to the log. stats is stored as JSON.
func InsertRun(ctx context.Context, db *sql.DB, started, finished time.Time, dry bool, targets int, stats any, runErr error) (int64, error) {
	b, err := json.Marshal(stats)
	if err != nil {
		return 0, err
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := db.ExecContext(ctx, `
INSERT INTO scan_runs(started_at, finished_at, dry_run, targets, stats, error)
VALUES(?,?,?,?,?,?);`,
		started.UTC().Format(time.RFC3339), finished.UTC().Format(time.RFC3339),
		dry, targets, string(b), msg)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

func ListRuns(ctx context.Context, db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
SELECT id, started_at, finished_at, dry_run, targets, stats, error
FROM scan_runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r     Run
			stats string
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.DryRun, &r.Targets, &stats, &r.Error); err != nil {
			return nil, err
		}
		r.Stats = json.RawMessage(stats)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Package store keeps the draft review queue and the run log in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// applied on every new connection
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

type DB struct {
	Pool *sql.DB
	Path string
}

func dsn(path string) string {
	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + p
	}
	return "file:" + path + "?" + strings.Join(q, "&")
}

func Open(path string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return OpenContext(ctx, path)
}

// OpenContext creates the database file if needed and migrates it.
func OpenContext(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	pool, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1) // one writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := Migrate(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &DB{Pool: pool, Path: path}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

type CheckpointResult struct {
	Busy         bool `json:"busy"`
	LogFrames    int  `json:"log_frames"`
	Checkpointed int  `json:"checkpointed"`
}

// Checkpoint folds the WAL back into the main file and truncates it, so the
// .db file alone is a complete copy.
func Checkpoint(ctx context.Context, db *sql.DB) (CheckpointResult, error) {
	var busy int
	var res CheckpointResult
	err := db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE);`).Scan(&busy, &res.LogFrames, &res.Checkpointed)
	if err != nil {
		return res, fmt.Errorf("wal checkpoint: %w", err)
	}
	res.Busy = busy != 0
	return res, nil
}

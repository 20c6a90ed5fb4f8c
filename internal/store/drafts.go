package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPendingReview = "PENDING_REVIEW"
	StatusApproved      = "APPROVED"
	StatusRejected      = "REJECTED"
)

type Draft struct {
	ID         int64  `json:"id"`
	TargetID   string `json:"targetId"`
	Company    string `json:"company"`
	Domain     string `json:"domain"`
	SignalType string `json:"signalType"`
	Signal     string `json:"signal"`
	SourceURL  string `json:"sourceUrl"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	SourceID   string `json:"-"`
}

// SourceID identifies the signal a draft was written for, so the same
// signal found on a later run does not queue a second draft.
func SourceID(targetID, signalType, signal string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.Join([]string{
		strings.TrimSpace(targetID),
		signalType,
		strings.Join(strings.Fields(signal), " "),
	}, "\x1f"))))
	return hex.EncodeToString(h[:16])
}

// InsertDraftIgnore queues d for review. It reports false when a draft for
// the same source id already exists.
func InsertDraftIgnore(ctx context.Context, db *sql.DB, d Draft) (added bool, err error) {
	if d.Status == "" {
		d.Status = StatusPendingReview
	}
	if d.CreatedAt == "" {
		d.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if d.SourceID == "" {
		d.SourceID = SourceID(d.TargetID, d.SignalType, d.Signal)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// relies on unique index on source_id WHERE source_id != ''
	_, err = conn.ExecContext(ctx, `
INSERT OR IGNORE INTO drafts (target_id, company, domain, signal_type, signal, source_url, subject, body, status, created_at, source_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		d.TargetID, d.Company, d.Domain, d.SignalType, d.Signal, d.SourceURL,
		d.Subject, d.Body, d.Status, d.CreatedAt, d.SourceID,
	)
	if err != nil {
		return false, fmt.Errorf("insert draft: %w", err)
	}

	// changes() is per connection, so ask on the same one
	var changes int
	if err := conn.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, err
	}
	return changes > 0, nil
}

type ListDraftsOpts struct {
	Status   string // empty = any
	TargetID string
	Window   string // 24h | 7d | all
	Limit    int
}

func ListDrafts(ctx context.Context, db *sql.DB, opts ListDraftsOpts) ([]Draft, error) {
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	var (
		where []string
		args  []any
	)
	switch opts.Window {
	case "24h":
		where = append(where, "created_at >= ?")
		args = append(args, time.Now().UTC().Add(-24*time.Hour).Format(time.RFC3339))
	case "7d":
		where = append(where, "created_at >= ?")
		args = append(args, time.Now().UTC().Add(-7*24*time.Hour).Format(time.RFC3339))
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.TargetID != "" {
		where = append(where, "target_id = ?")
		args = append(args, opts.TargetID)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
SELECT id, target_id, company, domain, signal_type, signal, source_url, subject, body, status, created_at
FROM drafts
%s
ORDER BY created_at DESC, id DESC
LIMIT ?;
`, clause)
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(
			&d.ID, &d.TargetID, &d.Company, &d.Domain, &d.SignalType, &d.Signal,
			&d.SourceURL, &d.Subject, &d.Body, &d.Status, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var ErrNotFound = errors.New("not found")

// SetDraftStatus records a reviewer decision.
func SetDraftStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	switch status {
	case StatusPendingReview, StatusApproved, StatusRejected:
	default:
		return fmt.Errorf("invalid draft status %q", status)
	}
	res, err := db.ExecContext(ctx, `UPDATE drafts SET status = ? WHERE id = ?;`, status, id)
	if err != nil {
		return fmt.Errorf("update draft status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func CleanupOldDrafts(ctx context.Context, db *sql.DB, olderThan time.Duration) (deleted int64, err error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := db.ExecContext(ctx, `
DELETE FROM drafts
WHERE created_at < ? AND status != ?;
`, cutoff, StatusPendingReview)
	if err != nil {
		return 0, fmt.Errorf("cleanup old drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

package store

import (
	"context"
	"database/sql"

	"signalsdr-engine/internal/domain"
)

// Sink queues generated drafts for review.
type Sink struct {
	DB *sql.DB
}

func (s Sink) SaveDraft(ctx context.Context, t domain.Target, sig domain.ConfirmedSignal, subject, body string) (bool, error) {
	return InsertDraftIgnore(ctx, s.DB, Draft{
		TargetID:   t.Key(),
		Company:    t.Name,
		Domain:     t.Domain,
		SignalType: sig.SignalType(),
		Signal:     sig.Summary(),
		SourceURL:  sourceURL(t, sig),
		Subject:    subject,
		Body:       body,
	})
}

func sourceURL(t domain.Target, sig domain.ConfirmedSignal) string {
	if sig.SourceURL != "" {
		return sig.SourceURL
	}
	if sig.Class == domain.ClassHiring {
		return t.CareersURL
	}
	return t.NewsURL
}

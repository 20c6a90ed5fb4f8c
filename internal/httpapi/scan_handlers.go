package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/store"
)

type ScanHandler struct {
	DB      *sql.DB
	Scans   *ScanTracker
	Log     *zap.Logger
	RunScan func(ctx context.Context, opts orchestrator.Options) (orchestrator.Summary, error)
	BaseCtx context.Context
}

func (h ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Scans.Status())
}

// Run starts a scan. Query: dry=1, class=hiring|prospect (repeatable),
// category=key (repeatable), wait=1 to block and return the summary.
func (h ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	opts := orchestrator.Options{
		DryRun:     queryBool(r, "dry"),
		Categories: queryList(r, "category"),
		RequestID:  RequestIDFrom(r.Context()),
	}
	for _, raw := range queryList(r, "class") {
		c, err := domain.ParseSignalClass(raw)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		opts.Classes = append(opts.Classes, c)
	}

	if !h.Scans.Begin(time.Now(), opts.DryRun) {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	if queryBool(r, "wait") {
		sum, err := h.run(r.Context(), opts)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, sum)
		return
	}

	base := h.BaseCtx
	if base == nil {
		base = context.Background()
	}
	go func() { _, _ = h.run(base, opts) }()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "request_id": opts.RequestID})
}

func (h ScanHandler) run(ctx context.Context, opts orchestrator.Options) (orchestrator.Summary, error) {
	sum, err := h.RunScan(ctx, opts)
	h.Scans.Finish(time.Now(), sum, err)
	if err != nil && h.Log != nil {
		h.Log.Error("scan failed", zap.String("request_id", opts.RequestID), zap.Error(err))
	}
	return sum, err
}

func (h ScanHandler) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns(r.Context(), h.DB, queryInt(r, "limit"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

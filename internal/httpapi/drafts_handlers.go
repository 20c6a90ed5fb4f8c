package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"signalsdr-engine/internal/events"
	"signalsdr-engine/internal/store"
)

type DraftsHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

func (h DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	drafts, err := store.ListDrafts(r.Context(), h.DB, store.ListDraftsOpts{
		Status:   strings.ToUpper(q.Get("status")),
		TargetID: q.Get("target"),
		Window:   q.Get("window"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if drafts == nil {
		drafts = []store.Draft{}
	}
	writeJSON(w, drafts)
}

type setStatusReq struct {
	Status string `json:"status"`
}

// SetStatusByPath expects /drafts/{id}/status.
func (h DraftsHandler) SetStatusByPath(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/drafts/")
	if len(parts) != 2 || parts[1] != "status" {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	var req setStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case store.StatusPendingReview, store.StatusApproved, store.StatusRejected:
	default:
		WriteError(w, r, http.StatusBadRequest, "bad_request", "status must be PENDING_REVIEW, APPROVED or REJECTED")
		return
	}

	if err := store.SetDraftStatus(r.Context(), h.DB, id, status); err != nil {
		writeErr(w, r, err)
		return
	}

	h.Hub.Emit(RequestIDFrom(r.Context()), events.DraftStatus, map[string]any{"id": id, "status": status})
	w.WriteHeader(http.StatusNoContent)
}

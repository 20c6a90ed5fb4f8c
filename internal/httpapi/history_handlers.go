package httpapi

import (
	"net/http"

	"signalsdr-engine/internal/state"
)

type HistoryHandler struct {
	State state.Store
}

// GetByPath expects /targets/{id} or /targets/{id}/history.
func (h HistoryHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/targets/")
	if len(parts) == 0 || len(parts) > 2 || (len(parts) == 2 && parts[1] != "history") {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}

	rec, ok, err := h.State.Record(r.Context(), parts[0])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "no scan record for "+parts[0])
		return
	}
	if len(parts) == 2 {
		writeJSON(w, rec.Signals)
		return
	}
	writeJSON(w, rec)
}

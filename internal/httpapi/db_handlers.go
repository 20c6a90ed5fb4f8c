package httpapi

import (
	"database/sql"
	"net"
	"net/http"

	"signalsdr-engine/internal/store"
)

type DBHandler struct {
	DB *sql.DB
}

// isLocal reports whether the request came from the loopback interface.
func isLocal(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Checkpoint lets a local backup job copy the drafts database safely.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !isLocal(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "local requests only")
		return
	}
	res, err := store.Checkpoint(r.Context(), h.DB)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Busy {
		status = http.StatusAccepted
	}
	WriteJSON(w, status, res)
}

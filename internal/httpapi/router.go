package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// NewMux returns the raw mux so main() can still attach extra routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{Hub: d.Hub}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Scans
	sch := ScanHandler{
		DB:      d.DB,
		Scans:   d.Scans,
		Log:     d.Log,
		RunScan: d.RunScan,
		BaseCtx: d.BaseCtx,
	}
	mux.HandleFunc("/scan/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))
	mux.HandleFunc("/scan/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))
	mux.HandleFunc("/scan/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Runs,
	}))

	// Scan state
	hsh := HistoryHandler{State: d.State}
	mux.HandleFunc("/targets/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hsh.GetByPath, // /targets/{id}[/history]
	}))

	// Drafts
	dh := DraftsHandler{DB: d.DB, Hub: d.Hub}
	mux.HandleFunc("/drafts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.List,
	}))
	mux.HandleFunc("/drafts/", methodMux(map[string]http.HandlerFunc{
		http.MethodPut:  dh.SetStatusByPath, // /drafts/{id}/status
		http.MethodPost: dh.SetStatusByPath,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ch.Validate,
		http.MethodPost: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))
	mux.HandleFunc("/api/secrets/", sh.ByPath)

	// DB maintenance
	dbh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dbh.Checkpoint,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// NewHandler wraps NewMux in the standard middleware stack.
func NewHandler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log), Cors)
}

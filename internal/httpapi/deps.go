package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"go.uber.org/zap"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/events"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/state"
)

type Deps struct {
	DB  *sql.DB
	Hub *events.Hub
	Log *zap.Logger

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	State state.Store
	Scans *ScanTracker

	// Scan entrypoint (inject for testability). BaseCtx outlives requests
	// so a triggered scan is not cancelled when the client disconnects.
	RunScan func(ctx context.Context, opts orchestrator.Options) (orchestrator.Summary, error)
	BaseCtx context.Context
}

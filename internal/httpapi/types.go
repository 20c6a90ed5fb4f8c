package httpapi

import (
	"sync"
	"time"

	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/orchestrator"
)

type ScanStatus struct {
	LastRunAt  string                                    `json:"last_run_at"`
	LastOkAt   string                                    `json:"last_ok_at"`
	LastError  string                                    `json:"last_error"`
	LastDryRun bool                                      `json:"last_dry_run"`
	LastStats  map[domain.SignalClass]orchestrator.Stats `json:"last_stats,omitempty"`
	Running    bool                                      `json:"running"`
}

// ScanTracker allows one scan at a time across the scheduler and the API.
type ScanTracker struct {
	mu sync.Mutex
	st ScanStatus
}

// Begin marks a scan as running. It returns false if one already is.
func (t *ScanTracker) Begin(now time.Time, dry bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st.Running {
		return false
	}
	t.st.Running = true
	t.st.LastRunAt = now.UTC().Format(time.RFC3339)
	t.st.LastDryRun = dry
	t.st.LastError = ""
	return true
}

func (t *ScanTracker) Finish(now time.Time, sum orchestrator.Summary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st.Running = false
	t.st.LastStats = sum.Stats
	if err != nil {
		t.st.LastError = err.Error()
		return
	}
	t.st.LastOkAt = now.UTC().Format(time.RFC3339)
}

func (t *ScanTracker) Status() ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

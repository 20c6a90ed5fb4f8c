package state

import (
	"context"
	"sync"
	"time"

	"signalsdr-engine/internal/domain"
)

// MemoryStore keeps state in process. Used by tests and for seeding dry runs.
type MemoryStore struct {
	mu  sync.RWMutex
	ds  Dataset
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// WithClock replaces the clock IsDue compares against.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) IsDue(ctx context.Context, t domain.Target, class domain.SignalClass, cooldown time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isDue(&m.ds, t, class, cooldown, m.now()), nil
}

func (m *MemoryStore) RecordScan(ctx context.Context, t domain.Target, class domain.SignalClass, at time.Time, signals []domain.ConfirmedSignal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	applyScan(&m.ds, t, class, at, signals)
	return nil
}

func (m *MemoryStore) History(ctx context.Context, targetID string) ([]SignalEntry, error) {
	rec, ok, err := m.Record(ctx, targetID)
	if err != nil || !ok {
		return nil, err
	}
	return rec.Signals, nil
}

func (m *MemoryStore) Record(ctx context.Context, targetID string) (ScanRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return ScanRecord{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.ds.find(targetID)
	if i < 0 {
		return ScanRecord{}, false, nil
	}
	return cloneRecord(m.ds.Companies[i]), true, nil
}

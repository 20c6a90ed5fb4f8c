// Package state persists per-target scan timestamps and signal history.
package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signalsdr-engine/internal/domain"
)

// Store is the scan-state collaborator the orchestrator depends on.
// Implementations must be safe for concurrent use.
type Store interface {
	// IsDue reports whether class has never been scanned for the target or
	// its last scan is older than cooldown. The record is resolved the same
	// way RecordScan resolves it.
	IsDue(ctx context.Context, t domain.Target, class domain.SignalClass, cooldown time.Duration) (bool, error)
	// RecordScan sets the class's timestamp to at and appends history entries.
	// The other class's timestamp is never touched.
	RecordScan(ctx context.Context, t domain.Target, class domain.SignalClass, at time.Time, signals []domain.ConfirmedSignal) error
	History(ctx context.Context, targetID string) ([]SignalEntry, error)
	Record(ctx context.Context, targetID string) (ScanRecord, bool, error)
}

func (r *ScanRecord) lastFor(class domain.SignalClass) *time.Time {
	if class == domain.ClassProspect {
		return r.LastProspectScan
	}
	return r.LastScan
}

func (r *ScanRecord) setLast(class domain.SignalClass, at time.Time) {
	at = at.UTC()
	if class == domain.ClassProspect {
		r.LastProspectScan = &at
		return
	}
	r.LastScan = &at
}

// find locates a record by id, falling back to its domain.
func (d *Dataset) find(key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1
	}
	for i := range d.Companies {
		if d.Companies[i].ID == key {
			return i
		}
	}
	nk := domain.NormalizeDomain(key)
	for i := range d.Companies {
		if domain.NormalizeDomain(d.Companies[i].Domain) == nk {
			return i
		}
	}
	return -1
}

func (d *Dataset) findTarget(t domain.Target) int {
	if i := d.find(t.ID); i >= 0 {
		return i
	}
	if t.Domain == "" {
		return -1
	}
	return d.find(t.Domain)
}

func (d *Dataset) nextID() string {
	used := make(map[string]bool, len(d.Companies))
	for _, c := range d.Companies {
		used[c.ID] = true
	}
	for n := len(d.Companies) + 1; ; n++ {
		id := fmt.Sprintf("c_%03d", n)
		if !used[id] {
			return id
		}
	}
}

func isDue(d *Dataset, t domain.Target, class domain.SignalClass, cooldown time.Duration, now time.Time) bool {
	i := d.findTarget(t)
	if i < 0 {
		return true
	}
	last := d.Companies[i].lastFor(class)
	if last == nil {
		return true
	}
	return now.Sub(*last) > cooldown
}

// applyScan mutates d for one completed scan.
func applyScan(d *Dataset, t domain.Target, class domain.SignalClass, at time.Time, signals []domain.ConfirmedSignal) {
	i := d.findTarget(t)
	if i < 0 {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			id = d.nextID()
		}
		d.Companies = append(d.Companies, ScanRecord{
			ID:      id,
			Name:    t.Name,
			Domain:  t.Domain,
			Signals: []SignalEntry{},
		})
		i = len(d.Companies) - 1
	}
	rec := &d.Companies[i]
	if rec.Name == "" {
		rec.Name = t.Name
	}
	if rec.Domain == "" {
		rec.Domain = t.Domain
	}

	rec.setLast(class, at)
	if len(signals) > 0 {
		rec.Status = StatusSignalFound
	} else {
		rec.Status = StatusNoSignal
	}

	date := at.UTC().Format(dateLayout)
	for _, s := range signals {
		rec.Signals = append(rec.Signals, EntryFor(s, date))
	}
}

// EntryFor renders the history line for a confirmed signal.
func EntryFor(s domain.ConfirmedSignal, date string) SignalEntry {
	if s.Class == domain.ClassProspect {
		details := s.Headline
		if details == "" {
			details = s.Snippet
		}
		if details == "" {
			details = "unknown"
		}
		return SignalEntry{Date: date, Type: s.SignalType(), Details: details}
	}
	what := s.MatchedText
	if what == "" {
		what = s.Keyword
	}
	if what == "" {
		what = "unknown"
	}
	return SignalEntry{Date: date, Type: s.SignalType(), Details: "Found role: " + what}
}

func cloneRecord(r ScanRecord) ScanRecord {
	out := r
	out.Signals = append([]SignalEntry(nil), r.Signals...)
	if r.LastScan != nil {
		t := *r.LastScan
		out.LastScan = &t
	}
	if r.LastProspectScan != nil {
		t := *r.LastProspectScan
		out.LastProspectScan = &t
	}
	return out
}

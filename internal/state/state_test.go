package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalsdr-engine/internal/domain"
)

var (
	t0    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	acme  = domain.Target{Name: "Acme", Domain: "acme.com"}
	ctxBg = context.Background()
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func hiringSignal(text string) domain.ConfirmedSignal {
	return domain.ConfirmedSignal{
		CandidateSignal: domain.CandidateSignal{Class: domain.ClassHiring, Keyword: "VP", MatchedText: text},
		Rank:            1,
	}
}

func prospectSignal(cat, headline string) domain.ConfirmedSignal {
	return domain.ConfirmedSignal{
		CandidateSignal: domain.CandidateSignal{Class: domain.ClassProspect, Category: domain.Category(cat), Headline: headline},
		Rank:            1,
	}
}

// stores returns one of each implementation sharing a controllable clock.
func stores(t *testing.T, c *clock) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return map[string]Store{
		"file":   fs.WithClock(c.now),
		"memory": NewMemoryStore().WithClock(c.now),
	}
}

func TestCooldownBoundaries(t *testing.T) {
	c := &clock{t: t0}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			c.set(t0)
			due, err := s.IsDue(ctxBg, acme, domain.ClassHiring, 24*time.Hour)
			require.NoError(t, err)
			assert.True(t, due, "never scanned")

			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassHiring, t0, nil))

			due, _ = s.IsDue(ctxBg, acme, domain.ClassHiring, 24*time.Hour)
			assert.False(t, due, "immediately after record")

			c.set(t0.Add(23 * time.Hour))
			due, _ = s.IsDue(ctxBg, acme, domain.ClassHiring, 24*time.Hour)
			assert.False(t, due, "23h later")

			c.set(t0.Add(25 * time.Hour))
			due, _ = s.IsDue(ctxBg, acme, domain.ClassHiring, 24*time.Hour)
			assert.True(t, due, "25h later")
		})
	}
}

func TestClassTimestampsAreIndependent(t *testing.T) {
	c := &clock{t: t0}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassHiring, t0, nil))

			due, err := s.IsDue(ctxBg, acme, domain.ClassProspect, 24*time.Hour)
			require.NoError(t, err)
			assert.True(t, due, "hiring scan must not advance prospect")

			rec, ok, err := s.Record(ctxBg, "acme.com")
			require.NoError(t, err)
			require.True(t, ok)
			require.NotNil(t, rec.LastScan)
			assert.Nil(t, rec.LastProspectScan)

			later := t0.Add(time.Hour)
			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassProspect, later, nil))
			rec, _, _ = s.Record(ctxBg, "acme.com")
			assert.True(t, rec.LastScan.Equal(t0), "prospect scan must not advance hiring")
			assert.True(t, rec.LastProspectScan.Equal(later))
		})
	}
}

func TestDueCheckFollowsDomainWhenIDsDiffer(t *testing.T) {
	c := &clock{t: t0}
	legacy := domain.Target{ID: "c_001", Name: "Acme", Domain: "acme.com"}
	renamed := domain.Target{ID: "acme", Name: "Acme", Domain: "https://www.acme.com/"}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.RecordScan(ctxBg, legacy, domain.ClassHiring, t0.Add(-48*time.Hour), nil))

			due, err := s.IsDue(ctxBg, renamed, domain.ClassHiring, 24*time.Hour)
			require.NoError(t, err)
			assert.True(t, due, "stale record found by domain")

			require.NoError(t, s.RecordScan(ctxBg, renamed, domain.ClassHiring, t0, nil))
			due, err = s.IsDue(ctxBg, renamed, domain.ClassHiring, 24*time.Hour)
			require.NoError(t, err)
			assert.False(t, due, "immediately after record")

			rec, ok, err := s.Record(ctxBg, "c_001")
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, rec.LastScan.Equal(t0))
		})
	}
}

func TestRecordScanHistoryAndStatus(t *testing.T) {
	c := &clock{t: t0}
	for name, s := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassHiring, t0,
				[]domain.ConfirmedSignal{hiringSignal("VP of Engineering")}))
			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassProspect, t0,
				[]domain.ConfirmedSignal{prospectSignal("regulatory", "New emissions rule")}))

			rec, ok, err := s.Record(ctxBg, "acme.com")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "c_001", rec.ID)
			assert.Equal(t, StatusSignalFound, rec.Status)

			hist, err := s.History(ctxBg, "c_001")
			require.NoError(t, err)
			assert.Equal(t, []SignalEntry{
				{Date: "2026-03-01", Type: "hiring", Details: "Found role: VP of Engineering"},
				{Date: "2026-03-01", Type: "prospect_regulatory", Details: "New emissions rule"},
			}, hist)

			require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassHiring, t0.Add(time.Hour), nil))
			rec, _, _ = s.Record(ctxBg, "acme.com")
			assert.Equal(t, StatusNoSignal, rec.Status)
			assert.Len(t, rec.Signals, 2, "history is append-only")
		})
	}
}

func TestNewRecordIDs(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.RecordScan(ctxBg, acme, domain.ClassHiring, t0, nil))
	require.NoError(t, s.RecordScan(ctxBg, domain.Target{Name: "Beta", Domain: "beta.io"}, domain.ClassHiring, t0, nil))
	require.NoError(t, s.RecordScan(ctxBg, domain.Target{ID: "gamma", Name: "Gamma", Domain: "gamma.io"}, domain.ClassHiring, t0, nil))

	_, ok, _ := s.Record(ctxBg, "c_002")
	assert.True(t, ok)
	rec, ok, _ := s.Record(ctxBg, "gamma")
	require.True(t, ok)
	assert.Equal(t, "gamma.io", rec.Domain)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "db.json"))
	require.NoError(t, err)
	due, err := fs.IsDue(ctxBg, acme, domain.ClassHiring, time.Hour)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestFileStoreCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"companies": [`), 0o644))
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = fs.IsDue(ctxBg, acme, domain.ClassHiring, time.Hour)
	assert.ErrorIs(t, err, domain.ErrStateCorruption)

	err = fs.RecordScan(ctxBg, acme, domain.ClassHiring, t0, nil)
	assert.ErrorIs(t, err, domain.ErrStateCorruption)

	b, _ := os.ReadFile(path)
	assert.Equal(t, `{"companies": [`, string(b), "corrupt file is left alone")
}

func TestFileStorePreservesUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	seed := `{
  "version": 3,
  "companies": [
    {
      "id": "c_001",
      "name": "Acme",
      "domain": "acme.com",
      "last_scan": "2026-02-01T10:00:00.123456+00:00",
      "status": "no_signal",
      "owner": "sales-east",
      "signals": [
        {"date": "2026-02-01", "type": "hiring", "details": "Found role: CTO", "reviewed": true}
      ]
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, fs.RecordScan(ctxBg, acme, domain.ClassProspect, t0,
		[]domain.ConfirmedSignal{prospectSignal("new_model", "Acme <unveils> R&D truck")}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Acme <unveils> R&D truck")

	var raw struct {
		Version   int `json:"version"`
		Companies []struct {
			LastScan         string `json:"last_scan"`
			LastProspectScan string `json:"last_prospect_scan"`
			Owner            string `json:"owner"`
			Signals          []map[string]any
		} `json:"companies"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, 3, raw.Version)
	require.Len(t, raw.Companies, 1)
	co := raw.Companies[0]
	assert.Equal(t, "sales-east", co.Owner)
	assert.Equal(t, "2026-02-01T10:00:00.123456+00:00", co.LastScan)
	assert.Equal(t, "2026-03-01T09:00:00+00:00", co.LastProspectScan)
	require.Len(t, co.Signals, 2)
	assert.Equal(t, true, co.Signals[0]["reviewed"])
	assert.Equal(t, "prospect_new_model", co.Signals[1]["type"])
}

func TestFileStoreNaiveTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	seed := `{"companies":[{"id":"c_001","name":"Acme","domain":"acme.com","last_scan":"2026-03-01T09:00:00","signals":[]}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	fs, err := NewFileStore(path)
	require.NoError(t, err)
	fs.WithClock(func() time.Time { return t0.Add(time.Hour) })

	due, err := fs.IsDue(ctxBg, domain.Target{ID: "c_001"}, domain.ClassHiring, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			class := domain.ClassHiring
			if i%2 == 1 {
				class = domain.ClassProspect
			}
			assert.NoError(t, fs.RecordScan(ctxBg, acme, class, t0, []domain.ConfirmedSignal{hiringSignal("x")}))
		}(i)
	}
	wg.Wait()

	hist, err := fs.History(ctxBg, "acme.com")
	require.NoError(t, err)
	assert.Len(t, hist, 10)

	ds, err := fs.Load(ctxBg)
	require.NoError(t, err)
	assert.Len(t, ds.Companies, 1)
}

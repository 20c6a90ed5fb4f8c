package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"signalsdr-engine/internal/domain"
)

const lockRetry = 25 * time.Millisecond

// FileStore keeps the dataset in one JSON file. Every write rewrites the
// file through a temp file and rename while holding <path>.lock, so a
// crash leaves either the old or the new file.
type FileStore struct {
	path string
	lock *flock.Flock
	now  func() time.Time

	mu sync.Mutex // serializes read-modify-write in this process
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}, nil
}

func (s *FileStore) Path() string { return s.path }

// WithClock replaces the clock IsDue compares against.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

// Load reads the whole dataset. A missing file is an empty dataset. Reads
// take no lock: writers replace the file by rename, so a reader sees either
// the old or the new version.
func (s *FileStore) Load(ctx context.Context) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}
	return s.read()
}

func (s *FileStore) read() (Dataset, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Dataset{}, nil
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: read %s: %v", domain.ErrStateCorruption, s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Dataset{}, nil
	}
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return Dataset{}, fmt.Errorf("%w: %s: %v", domain.ErrStateCorruption, s.path, err)
	}
	return ds, nil
}

func (s *FileStore) IsDue(ctx context.Context, t domain.Target, class domain.SignalClass, cooldown time.Duration) (bool, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return false, err
	}
	return isDue(&ds, t, class, cooldown, s.now()), nil
}

func (s *FileStore) RecordScan(ctx context.Context, t domain.Target, class domain.SignalClass, at time.Time, signals []domain.ConfirmedSignal) error {
	return s.update(ctx, func(ds *Dataset) {
		applyScan(ds, t, class, at, signals)
	})
}

func (s *FileStore) History(ctx context.Context, targetID string) ([]SignalEntry, error) {
	rec, ok, err := s.Record(ctx, targetID)
	if err != nil || !ok {
		return nil, err
	}
	return rec.Signals, nil
}

func (s *FileStore) Record(ctx context.Context, targetID string) (ScanRecord, bool, error) {
	ds, err := s.Load(ctx)
	if err != nil {
		return ScanRecord{}, false, err
	}
	i := ds.find(targetID)
	if i < 0 {
		return ScanRecord{}, false, nil
	}
	return ds.Companies[i], true, nil
}

func (s *FileStore) update(ctx context.Context, fn func(*Dataset)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("state: could not lock %s", s.path)
	}
	defer s.lock.Unlock()

	ds, err := s.read()
	if err != nil {
		return err
	}
	fn(&ds)
	return s.write(ds)
}

func (s *FileStore) write(ds Dataset) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Package roster loads the list of monitored organizations.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"signalsdr-engine/internal/domain"
)

// RowError describes one rejected roster row. It matches domain.ErrMalformedInput.
type RowError struct {
	Row    int // 1-based data row (header excluded)
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("roster row %d: %s", e.Row, e.Reason)
}

func (e *RowError) Unwrap() error { return domain.ErrMalformedInput }

type Roster struct {
	Targets  []domain.Target
	Rejected []*RowError
}

type entry struct {
	ID         string `yaml:"id"`
	Company    string `yaml:"company"`
	Domain     string `yaml:"domain"`
	CareersURL string `yaml:"careers_url"`
	NewsURL    string `yaml:"news_url"`
}

// Load reads a CSV or YAML roster chosen by file extension. An unreadable
// file is an error; bad rows are collected in Rejected.
func Load(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return Roster{}, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return ReadYAML(f)
	default:
		return ReadCSV(f)
	}
}

// ReadCSV expects a header with at least company and domain. careers_url,
// news_url and id are optional columns.
func ReadCSV(r io.Reader) (Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Roster{}, nil
	}
	if err != nil {
		return Roster{}, fmt.Errorf("read roster header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		col[h] = i
	}
	if _, ok := col["company"]; !ok {
		return Roster{}, fmt.Errorf("roster header has no company column: %w", domain.ErrMalformedInput)
	}
	if _, ok := col["domain"]; !ok {
		return Roster{}, fmt.Errorf("roster header has no domain column: %w", domain.ErrMalformedInput)
	}

	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Roster{}, fmt.Errorf("read roster: %w", err)
		}
		entries = append(entries, entry{
			ID:         get(rec, "id"),
			Company:    get(rec, "company"),
			Domain:     get(rec, "domain"),
			CareersURL: get(rec, "careers_url"),
			NewsURL:    get(rec, "news_url"),
		})
	}
	return build(entries), nil
}

func ReadYAML(r io.Reader) (Roster, error) {
	var doc struct {
		Targets []entry `yaml:"targets"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Roster{}, nil
		}
		return Roster{}, fmt.Errorf("read roster: %w", err)
	}
	for i := range doc.Targets {
		e := &doc.Targets[i]
		e.ID = strings.TrimSpace(e.ID)
		e.Company = strings.TrimSpace(e.Company)
		e.Domain = strings.TrimSpace(e.Domain)
		e.CareersURL = strings.TrimSpace(e.CareersURL)
		e.NewsURL = strings.TrimSpace(e.NewsURL)
	}
	return build(doc.Targets), nil
}

func build(entries []entry) Roster {
	var out Roster
	seen := make(map[string]int)
	for i, e := range entries {
		row := i + 1
		switch {
		case e.Company == "" && e.Domain == "":
			out.Rejected = append(out.Rejected, &RowError{Row: row, Reason: "missing company and domain"})
			continue
		case e.Company == "":
			out.Rejected = append(out.Rejected, &RowError{Row: row, Reason: "missing company"})
			continue
		case e.Domain == "":
			out.Rejected = append(out.Rejected, &RowError{Row: row, Reason: "missing domain"})
			continue
		}
		t := domain.Target{
			ID:         e.ID,
			Name:       e.Company,
			Domain:     domain.NormalizeDomain(e.Domain),
			CareersURL: e.CareersURL,
			NewsURL:    e.NewsURL,
		}
		if prev, dup := seen[t.Key()]; dup {
			out.Rejected = append(out.Rejected, &RowError{Row: row, Reason: fmt.Sprintf("duplicate of row %d", prev)})
			continue
		}
		seen[t.Key()] = row
		out.Targets = append(out.Targets, t)
	}
	return out
}

// Find returns the target whose key, id or domain equals key.
func (r Roster) Find(key string) (domain.Target, bool) {
	nk := domain.NormalizeDomain(key)
	for _, t := range r.Targets {
		if t.Key() == key || t.ID == key || t.Domain == nk {
			return t, true
		}
	}
	return domain.Target{}, false
}

package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	StatusSignalFound = "signal_found"
	StatusNoSignal    = "no_signal"

	// matches the timestamps already present in existing state files
	timeLayout = "2006-01-02T15:04:05.999999-07:00"
	dateLayout = "2006-01-02"
)

// extras holds JSON members this version does not know about, so a rewrite
// keeps them.
type extras map[string]json.RawMessage

type SignalEntry struct {
	Date    string `json:"date"`
	Type    string `json:"type"`
	Details string `json:"details"`

	extra extras
}

type ScanRecord struct {
	ID               string
	Name             string
	Domain           string
	LastScan         *time.Time // hiring
	LastProspectScan *time.Time
	Status           string
	Signals          []SignalEntry

	extra extras
}

// Dataset is the whole state file.
type Dataset struct {
	Companies []ScanRecord

	extra extras
}

func splitKnown(b []byte, known ...string) (map[string]json.RawMessage, extras, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, nil, err
	}
	if all == nil {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}
	got := make(map[string]json.RawMessage, len(known))
	for _, k := range known {
		if v, ok := all[k]; ok {
			got[k] = v
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return got, nil, nil
	}
	return got, extras(all), nil
}

func decodeField(m map[string]json.RawMessage, key string, dst any) error {
	v, ok := m[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func merged(x extras, known map[string]any) map[string]any {
	out := make(map[string]any, len(x)+len(known))
	for k, v := range x {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return out
}

func (e *SignalEntry) UnmarshalJSON(b []byte) error {
	m, x, err := splitKnown(b, "date", "type", "details")
	if err != nil {
		return err
	}
	*e = SignalEntry{extra: x}
	if err := decodeField(m, "date", &e.Date); err != nil {
		return err
	}
	if err := decodeField(m, "type", &e.Type); err != nil {
		return err
	}
	return decodeField(m, "details", &e.Details)
}

func (e SignalEntry) MarshalJSON() ([]byte, error) {
	return marshalNoEscape(merged(e.extra, map[string]any{
		"date":    e.Date,
		"type":    e.Type,
		"details": e.Details,
	}))
}

func (r *ScanRecord) UnmarshalJSON(b []byte) error {
	m, x, err := splitKnown(b, "id", "name", "domain", "last_scan", "last_prospect_scan", "status", "signals")
	if err != nil {
		return err
	}
	*r = ScanRecord{extra: x}
	for key, dst := range map[string]any{
		"id": &r.ID, "name": &r.Name, "domain": &r.Domain,
		"status": &r.Status, "signals": &r.Signals,
	} {
		if err := decodeField(m, key, dst); err != nil {
			return err
		}
	}
	if r.LastScan, err = decodeTime(m, "last_scan"); err != nil {
		return err
	}
	r.LastProspectScan, err = decodeTime(m, "last_prospect_scan")
	return err
}

func (r ScanRecord) MarshalJSON() ([]byte, error) {
	known := map[string]any{
		"id":      r.ID,
		"name":    r.Name,
		"domain":  r.Domain,
		"status":  r.Status,
		"signals": r.Signals,
	}
	if r.Signals == nil {
		known["signals"] = []SignalEntry{}
	}
	if r.LastScan != nil {
		known["last_scan"] = r.LastScan.Format(timeLayout)
	}
	if r.LastProspectScan != nil {
		known["last_prospect_scan"] = r.LastProspectScan.Format(timeLayout)
	}
	return marshalNoEscape(merged(r.extra, known))
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	m, x, err := splitKnown(b, "companies")
	if err != nil {
		return err
	}
	*d = Dataset{extra: x}
	return decodeField(m, "companies", &d.Companies)
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	companies := d.Companies
	if companies == nil {
		companies = []ScanRecord{}
	}
	return marshalNoEscape(merged(d.extra, map[string]any{"companies": companies}))
}

func decodeTime(m map[string]json.RawMessage, key string) (*time.Time, error) {
	var s string
	if err := decodeField(m, key, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}

// parseTime accepts RFC 3339 and zone-less ISO timestamps (read as UTC).
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", dateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

package domain

import "strings"

// Target is one monitored organization from the roster.
type Target struct {
	ID         string
	Name       string
	Domain     string
	CareersURL string // optional
	NewsURL    string // optional
}

// Key returns the stable identifier used by the scan-state store.
func (t Target) Key() string {
	if id := strings.TrimSpace(t.ID); id != "" {
		return id
	}
	return NormalizeDomain(t.Domain)
}

func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, "/")
}

// CompanyContext is the organizational context handed to the drafter.
type CompanyContext struct {
	Name       string
	Domain     string
	SourceURL  string
	SignalType string // hiring | prospect_<category>
}

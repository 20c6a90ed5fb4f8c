package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus errors and warnings.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Hiring.Keywords = trimList(out.Hiring.Keywords)
	out.Hiring.Exclude = trimList(out.Hiring.Exclude)
	out.Prospect.ChromePhrases = trimList(out.Prospect.ChromePhrases)

	cats := make([]Category, 0, len(out.Prospect.Categories))
	for _, c := range out.Prospect.Categories {
		c.Key = strings.TrimSpace(c.Key)
		c.Query = strings.TrimSpace(c.Query)
		c.Keywords = trimList(c.Keywords)
		cats = append(cats, c)
	}
	out.Prospect.Categories = cats

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
			if line == "" || strings.HasPrefix(line, "config validation failed") {
				continue
			}
			res.addErr("%s", line)
		}
	}

	// ---- warnings ----

	if out.Scan.SearchDelaySeconds < 1 && out.Search.Enabled {
		res.addWarn("scan.search_delay_seconds is %.2f; the search API allows about one request per second.", out.Scan.SearchDelaySeconds)
	}
	if out.Scan.ScrapeDelaySeconds < 1 {
		res.addWarn("scan.scrape_delay_seconds is %.2f and may get the engine blocked by target sites.", out.Scan.ScrapeDelaySeconds)
	}
	if out.Scan.CooldownHours < 1 {
		res.addWarn("scan.cooldown_hours is below 1; targets will be re-scanned on nearly every run.")
	}
	if len(out.Prospect.Categories) == 0 {
		res.addWarn("prospect.categories is empty; prospect scans will find nothing.")
	}
	if out.Scan.MaxProspectSignals < len(out.Prospect.Categories) {
		res.addWarn("scan.max_prospect_signals (%d) is below the number of categories (%d); some categories will never be drafted in one scan.",
			out.Scan.MaxProspectSignals, len(out.Prospect.Categories))
	}

	// a keyword that is both a trigger and an exclusion can never match
	excl := map[string]bool{}
	for _, e := range out.Hiring.Exclude {
		excl[strings.ToLower(e)] = true
	}
	for _, k := range out.Hiring.Keywords {
		if excl[strings.ToLower(k)] {
			res.addWarn("hiring keyword appears in both keywords and exclude: %q", k)
		}
	}

	return out, res
}

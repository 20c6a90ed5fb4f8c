package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if strings.TrimSpace(cfg.App.Targets) == "" {
		errs = append(errs, "app.targets is required")
	}
	if cfg.Scan.CooldownHours < 0 {
		errs = append(errs, "scan.cooldown_hours must be >= 0")
	}
	if cfg.Scan.MaxProspectSignals <= 0 {
		errs = append(errs, "scan.max_prospect_signals must be > 0")
	}
	if cfg.Scan.Concurrency <= 0 {
		errs = append(errs, "scan.concurrency must be > 0")
	}
	if cfg.Scan.ScrapeDelaySeconds < 0 || cfg.Scan.SearchDelaySeconds < 0 {
		errs = append(errs, "scan delays must be >= 0")
	}
	if cfg.Scan.RequestTimeoutSeconds <= 0 {
		errs = append(errs, "scan.request_timeout_seconds must be > 0")
	}

	checkTerms := func(name string, terms []string) {
		for i, term := range terms {
			if strings.TrimSpace(term) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] cannot be empty", name, i))
			}
		}
	}

	if len(cfg.Hiring.Keywords) == 0 {
		errs = append(errs, "hiring.keywords must have at least 1 term")
	}
	checkTerms("hiring.keywords", cfg.Hiring.Keywords)
	checkTerms("hiring.exclude", cfg.Hiring.Exclude)

	seen := map[string]bool{}
	for i, c := range cfg.Prospect.Categories {
		if c.Key == "" {
			errs = append(errs, fmt.Sprintf("prospect.categories[%d].key is required", i))
		} else if seen[c.Key] {
			errs = append(errs, fmt.Sprintf("prospect.categories[%d].key %q is duplicated", i, c.Key))
		}
		seen[c.Key] = true
		if c.Query == "" && len(c.Keywords) == 0 {
			errs = append(errs, fmt.Sprintf("prospect.categories[%d] needs a query or keywords", i))
		}
		if c.Query != "" && !strings.Contains(c.Query, "{company}") {
			errs = append(errs, fmt.Sprintf("prospect.categories[%d].query must contain {company}", i))
		}
		checkTerms(fmt.Sprintf("prospect.categories[%d].keywords", i), c.Keywords)
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	// keep the previous version next to the new one
	bak := path + ".bak"
	if prev, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, prev, 0o644)
	}
	return writeFileAtomic(path, b)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n- ")
}

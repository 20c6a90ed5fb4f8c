package config

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the built-in configuration. A config file only needs to
// list what it changes.
func Default() Config {
	var cfg Config

	cfg.App.Port = 38471
	cfg.App.DataDir = "data"
	cfg.App.Targets = "targets.csv"
	cfg.App.LogLevel = "info"

	cfg.Polling.RunIntervalMinutes = 60

	cfg.Scan.CooldownHours = 24
	cfg.Scan.MaxProspectSignals = 5
	cfg.Scan.Concurrency = 4
	cfg.Scan.ScrapeDelaySeconds = 2
	cfg.Scan.SearchDelaySeconds = 1.1
	cfg.Scan.RateLimitBackoffSeconds = 5
	cfg.Scan.RequestTimeoutSeconds = 15
	cfg.Scan.UserAgent = defaultUserAgent

	cfg.Hiring.Keywords = []string{
		"VP", "Vice President", "Director", "Head of", "Chief",
		"CISO", "CTO", "CIO", "Security", "AI", "Machine Learning",
		"Series B", "Series C",
	}
	cfg.Hiring.Exclude = []string{
		"Intern", "Associate", "Junior", "Entry Level",
		"Part-time", "Part time", "Social Security",
	}
	cfg.Hiring.SnippetRadius = 100

	cfg.Prospect.Categories = []Category{
		{
			Key:   "new_model",
			Query: `"{company}" new model OR new vehicle OR new product launch OR new equipment announced`,
			Keywords: []string{
				"new model", "new vehicle", "new product", "product launch", "all-new",
				"next-generation", "unveils", "introduces", "autonomous",
			},
		},
		{
			Key:   "service_challenge",
			Query: `"{company}" service operations OR technician shortage OR parts supply OR recall OR warranty`,
			Keywords: []string{
				"recall", "warranty", "technician", "service network", "parts supply", "service center",
			},
		},
		{
			Key:   "ev_transition",
			Query: `"{company}" electric vehicle OR EV OR electrification OR battery OR hybrid transition`,
			Keywords: []string{
				"electric vehicle", "electrification", "battery", "EV platform",
				"zero emission", "hybrid", "charging",
			},
		},
		{
			Key:   "regulatory",
			Query: `"{company}" regulation OR compliance OR safety standard OR emissions OR right to repair`,
			Keywords: []string{
				"regulation", "compliance", "safety standard", "emissions", "right to repair", "NHTSA",
			},
		},
	}
	cfg.Prospect.MinSegmentLength = 25
	cfg.Prospect.ChromePhrases = []string{
		"browse below", "download the right", "cookie", "privacy policy",
		"terms of use", "all rights reserved", "subscribe to",
	}

	cfg.Search.Enabled = true
	cfg.Search.Endpoint = "https://api.search.brave.com/res/v1/web/search"
	cfg.Search.Freshness = "pw"
	cfg.Search.MaxResults = 5
	cfg.Search.KeyringAccount = "signalsdr:brave"

	cfg.Drafting.Enabled = true
	cfg.Drafting.Model = "claude-sonnet-4-5"
	cfg.Drafting.MaxTokens = 512
	cfg.Drafting.Temperature = 0.7
	cfg.Drafting.MaxFailures = 3
	cfg.Drafting.CooldownMinutes = 10
	cfg.Drafting.KeyringAccount = "signalsdr:anthropic"

	return cfg
}

package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"signalsdr-engine/internal/aggregate"
	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/draft"
	"signalsdr-engine/internal/extract"
	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/roster"
	"signalsdr-engine/internal/scrape"
	"signalsdr-engine/internal/scrape/util"
	"signalsdr-engine/internal/search"
	"signalsdr-engine/internal/secrets"
	"signalsdr-engine/internal/state"
	"signalsdr-engine/internal/store"
)

// engine owns the long-lived pieces a run needs. The orchestrator itself
// is rebuilt per run so config edits apply on the next run.
type engine struct {
	state  state.Store
	db     *store.DB // nil for dry runs
	events orchestrator.Publisher
	log    *zap.Logger
}

func newOrchestrator(cfg config.Config, e *engine, dry bool) *orchestrator.Orchestrator {
	log := e.log
	client := fetch.New(cfg.RequestTimeout(), cfg.Scan.UserAgent, log)
	gate := util.NewHostGate(cfg.ScrapeDelay())
	pages := fetch.NewGated(
		scrape.NewBoards(client, fetch.GatedJSON{Inner: client, Gate: gate}, log),
		gate,
		cfg.RateLimitBackoff(),
		log,
	)

	var searcher search.Searcher
	if cfg.Search.Enabled {
		key, err := secrets.GetAPIKey(secrets.BraveEnv, cfg.Search.KeyringAccount)
		if err == nil {
			searcher = search.NewBrave(cfg.Search.Endpoint, key, cfg.Search.MaxResults, cfg.RequestTimeout())
		} else {
			log.Info("category search disabled", zap.Error(err))
		}
	}

	news := extract.NewNewsExtractor(cfg.Prospect.Categories, searcher, pages, util.NewHostGate(cfg.SearchDelay()), log)
	news.Freshness = cfg.Search.Freshness
	news.Backoff = cfg.RateLimitBackoff()
	news.Filter = extract.NewSegmentFilter(cfg.Prospect.MinSegmentLength, cfg.Prospect.ChromePhrases)

	o := &orchestrator.Orchestrator{
		Store:       e.state,
		Fetcher:     pages,
		Keywords:    extract.NewKeywordExtractor(cfg.Hiring.Keywords, cfg.Hiring.Exclude, cfg.Hiring.SnippetRadius),
		News:        news,
		Capper:      aggregate.NewCapper(cfg.Scan.MaxProspectSignals, cfg.CategoryOrder()),
		Events:      e.events,
		Cooldown:    cfg.Cooldown(),
		Concurrency: cfg.Scan.Concurrency,
		Log:         log,
	}
	if dry {
		return o
	}

	o.Drafter = newDrafter(cfg, log)
	if e.db != nil {
		o.Sink = store.Sink{DB: e.db.Pool}
	}
	return o
}

func newDrafter(cfg config.Config, log *zap.Logger) draft.Drafter {
	if !cfg.Drafting.Enabled {
		return nil
	}
	key, err := secrets.GetAPIKey(secrets.AnthropicEnv, cfg.Drafting.KeyringAccount)
	if err != nil {
		log.Warn("drafting disabled: no api key", zap.Error(err))
		return nil
	}
	d, err := draft.NewLLMDrafter(draft.LLMConfig{
		APIKey:      key,
		Model:       cfg.Drafting.Model,
		MaxTokens:   cfg.Drafting.MaxTokens,
		Temperature: cfg.Drafting.Temperature,
		MaxFailures: cfg.Drafting.MaxFailures,
		Cooldown:    time.Duration(cfg.Drafting.CooldownMinutes) * time.Minute,
	}, log)
	if err != nil {
		log.Warn("drafting disabled", zap.Error(err))
		return nil
	}
	return d
}

// loadTargets reads the roster and logs rejected rows. Only an unreadable
// roster is an error.
func loadTargets(path string, log *zap.Logger) ([]domain.Target, error) {
	r, err := roster.Load(path)
	if err != nil {
		return nil, err
	}
	for _, rej := range r.Rejected {
		log.Warn("roster row skipped", zap.String("path", path), zap.Error(rej))
	}
	log.Info("roster loaded", zap.String("path", path), zap.Int("targets", len(r.Targets)), zap.Int("rejected", len(r.Rejected)))
	return r.Targets, nil
}

// scan runs once over the roster at targetsPath and records the run log.
func (e *engine) scan(ctx context.Context, cfg config.Config, targetsPath string, opts orchestrator.Options) (orchestrator.Summary, error) {
	targets, err := loadTargets(targetsPath, e.log)
	if err != nil {
		return orchestrator.Summary{}, err
	}

	sum, runErr := newOrchestrator(cfg, e, opts.DryRun).Run(ctx, targets, opts)

	if !opts.DryRun && e.db != nil {
		// the run log must survive a cancelled run
		logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := store.InsertRun(logCtx, e.db.Pool, sum.StartedAt, sum.FinishedAt, false, len(targets), sum.Stats, runErr); err != nil {
			e.log.Error("record run failed", zap.Error(err))
		}
	}
	return sum, runErr
}

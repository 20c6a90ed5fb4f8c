// Package orchestrator runs scans over a roster: cooldown check, fetch,
// extract, cap, draft, record.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"signalsdr-engine/internal/aggregate"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/draft"
	"signalsdr-engine/internal/events"
	"signalsdr-engine/internal/extract"
	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/state"
)

const DefaultConcurrency = 4

// DraftSink receives drafts for human review. It reports false when the
// draft was already queued.
type DraftSink interface {
	SaveDraft(ctx context.Context, t domain.Target, sig domain.ConfirmedSignal, subject, body string) (bool, error)
}

// Publisher receives run events. *events.Hub implements it.
type Publisher interface {
	Emit(reqID, typ string, data any)
}

type Options struct {
	Classes    []domain.SignalClass // empty = all classes
	Categories []string             // prospect categories; empty = all
	DryRun     bool
	RequestID  string
}

func (o Options) classes() []domain.SignalClass {
	if len(o.Classes) == 0 {
		return domain.AllClasses()
	}
	// keep canonical order regardless of how they were requested
	want := make(map[domain.SignalClass]bool, len(o.Classes))
	for _, c := range o.Classes {
		want[c] = true
	}
	var out []domain.SignalClass
	for _, c := range domain.AllClasses() {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

type Orchestrator struct {
	Store    state.Store
	Fetcher  fetch.Fetcher // careers pages; paced and retried by the caller's wrapper
	Keywords *extract.KeywordExtractor
	News     *extract.NewsExtractor
	Capper   *aggregate.Capper
	Drafter  draft.Drafter // nil disables drafting
	Sink     DraftSink     // nil drops generated drafts after counting them
	Events   Publisher

	Cooldown    time.Duration
	Concurrency int
	Log         *zap.Logger

	now func() time.Time
}

// WithClock replaces the clock used for scan timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

func (o *Orchestrator) emit(reqID, typ string, data any) {
	if o.Events != nil {
		o.Events.Emit(reqID, typ, data)
	}
}

// Run scans every target for the requested classes. Per-target failures are
// reported in the Summary; the returned error is reserved for run-level
// faults (state corruption) and cancellation.
func (o *Orchestrator) Run(ctx context.Context, targets []domain.Target, opts Options) (Summary, error) {
	sum := Summary{
		StartedAt: o.clock(),
		DryRun:    opts.DryRun,
		Targets:   make([]TargetResult, len(targets)),
	}
	classes := opts.classes()
	for i, t := range targets {
		sum.Targets[i].Target = t
	}

	o.emit(opts.RequestID, events.RunStarted, map[string]any{
		"targets": len(targets),
		"classes": classes,
		"dryRun":  opts.DryRun,
	})

	limit := o.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results, err := o.scanTarget(gctx, t, classes, opts)
			sum.Targets[i].Classes = results
			return err
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	sum.FinishedAt = o.clock()
	sum.tally()

	if err != nil {
		o.logger().Error("run aborted", zap.Error(err))
		o.emit(opts.RequestID, events.RunFailed, map[string]any{"error": err.Error()})
		return sum, err
	}
	o.emit(opts.RequestID, events.RunFinished, sum.Stats)
	return sum, nil
}

// scanTarget runs the target's classes concurrently. Origins shared
// between them are serialized by the fetcher's gate.
func (o *Orchestrator) scanTarget(ctx context.Context, t domain.Target, classes []domain.SignalClass, opts Options) ([]ClassResult, error) {
	out := make([]ClassResult, len(classes))
	g, gctx := errgroup.WithContext(ctx)
	for i, class := range classes {
		g.Go(func() error {
			res, err := o.scanClass(gctx, t, class, opts)
			out[i] = res
			if err == nil {
				o.emit(opts.RequestID, events.ClassDone, map[string]any{
					"target":  t.Key(),
					"class":   class,
					"outcome": res.Outcome,
					"signals": len(res.Signals),
					"reason":  res.Reason,
				})
			}
			return err
		})
	}
	err := g.Wait()
	return out, err
}

// scanClass walks one (target, class) pair through
// due check -> scan -> extract -> draft -> record.
func (o *Orchestrator) scanClass(ctx context.Context, t domain.Target, class domain.SignalClass, opts Options) (ClassResult, error) {
	res := ClassResult{Class: class}
	log := o.logger().With(zap.String("target", t.Key()), zap.String("class", string(class)))

	if !o.hasSource(t, class) {
		res.Outcome, res.Reason = OutcomeSkipped, ReasonNoSource
		log.Debug("skipped", zap.String("reason", res.Reason))
		return res, nil
	}

	due, err := o.Store.IsDue(ctx, t, class, o.Cooldown)
	if err != nil {
		return res, fatal(ctx, err)
	}
	if !due {
		res.Outcome, res.Reason = OutcomeSkipped, ReasonCooldown
		log.Debug("skipped", zap.String("reason", res.Reason))
		return res, nil
	}

	var confirmed []domain.ConfirmedSignal
	switch class {
	case domain.ClassHiring:
		confirmed, err = o.scanHiring(ctx, t, log)
	case domain.ClassProspect:
		var skipped bool
		confirmed, skipped, err = o.scanProspect(ctx, t, opts, &res, log)
		if skipped && err == nil {
			res.Outcome, res.Reason = OutcomeSkipped, ReasonNoSource
			return res, nil
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Outcome, res.Reason = OutcomeFailed, err.Error()
		log.Warn("scan failed", zap.Error(err))
		return res, nil
	}

	res.Signals = confirmed
	res.Outcome = OutcomeEmpty
	if len(confirmed) > 0 {
		res.Outcome = OutcomeSignals
	}
	log.Info("scanned", zap.Int("signals", len(confirmed)))

	if opts.DryRun {
		return res, nil
	}

	if err := o.draftAll(ctx, t, confirmed, &res, opts.RequestID, log); err != nil {
		return res, err
	}

	// nothing is written once the run has been cancelled
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := o.Store.RecordScan(ctx, t, class, o.clock(), confirmed); err != nil {
		if errors.Is(err, domain.ErrStateCorruption) || ctx.Err() != nil {
			return res, fatal(ctx, err)
		}
		res.Outcome, res.Reason = OutcomeFailed, "record scan: "+err.Error()
		log.Error("record scan failed", zap.Error(err))
		return res, nil
	}
	res.Recorded = true
	return res, nil
}

func (o *Orchestrator) hasSource(t domain.Target, class domain.SignalClass) bool {
	switch class {
	case domain.ClassHiring:
		return o.Fetcher != nil && o.Keywords != nil && strings.TrimSpace(t.CareersURL) != ""
	case domain.ClassProspect:
		return o.News != nil && o.News.HasSource(t)
	}
	return false
}

func (o *Orchestrator) scanHiring(ctx context.Context, t domain.Target, log *zap.Logger) ([]domain.ConfirmedSignal, error) {
	page, err := o.Fetcher.FetchText(ctx, t.CareersURL)
	if err != nil {
		return nil, err
	}
	log.Debug("fetched careers page",
		zap.String("url", t.CareersURL),
		zap.String("title", page.Title),
		zap.Int("chars", len(page.Text)),
	)
	cands := o.Keywords.Extract(page.Text)
	return aggregate.ConfirmHiring(cands), nil
}

// scanProspect reports skipped when no prospect source turned out to be usable.
func (o *Orchestrator) scanProspect(ctx context.Context, t domain.Target, opts Options, res *ClassResult, log *zap.Logger) ([]domain.ConfirmedSignal, bool, error) {
	nr, err := o.News.Extract(ctx, t, opts.Categories)
	for _, e := range nr.Errors {
		res.SourceErrors = append(res.SourceErrors, e.Error())
	}
	if err != nil {
		return nil, false, err
	}
	if nr.Attempted == 0 {
		return nil, true, nil
	}
	for _, e := range nr.Errors {
		log.Warn("prospect source failed", zap.Error(e))
	}

	capper := o.Capper
	if capper == nil {
		capper = aggregate.NewCapper(aggregate.DefaultCap, nil)
	}
	return capper.Confirm(nr.Candidates), false, nil
}

// draftAll drafts each confirmed signal in rank order. Drafting failures
// are counted on res and never fail the class.
func (o *Orchestrator) draftAll(ctx context.Context, t domain.Target, sigs []domain.ConfirmedSignal, res *ClassResult, reqID string, log *zap.Logger) error {
	if o.Drafter == nil {
		return nil
	}
	for _, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return err
		}
		co := domain.CompanyContext{
			Name:       t.Name,
			Domain:     t.Domain,
			SourceURL:  sig.SourceURL,
			SignalType: sig.SignalType(),
		}
		if co.SourceURL == "" && sig.Class == domain.ClassHiring {
			co.SourceURL = t.CareersURL
		}

		out, err := o.Drafter.Draft(ctx, sig, co)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.DraftErrors++
			log.Warn("draft failed", zap.Int("rank", sig.Rank), zap.Error(err))
			continue
		}

		switch out.Kind {
		case draft.KindNotGenuine:
			res.Filtered++
			log.Info("signal filtered by drafter", zap.String("signal", sig.Summary()), zap.String("reason", out.Reason))
		case draft.KindDrafted:
			res.Drafts++
			if o.Sink == nil {
				continue
			}
			added, err := o.Sink.SaveDraft(ctx, t, sig, out.Subject, out.Body)
			if err != nil {
				res.DraftErrors++
				log.Error("save draft failed", zap.Error(err))
				continue
			}
			if added {
				o.emit(reqID, events.DraftQueued, map[string]any{
					"target":  t.Key(),
					"type":    sig.SignalType(),
					"subject": out.Subject,
				})
			}
		}
	}
	return nil
}

// fatal keeps cancellation as-is and marks anything else as state corruption.
func fatal(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	if errors.Is(err, domain.ErrStateCorruption) {
		return err
	}
	return errors.Join(domain.ErrStateCorruption, err)
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/scrape/util"
	"signalsdr-engine/internal/search"
)

const (
	maxHeadlineRunes = 150
	maxNewsSnippet   = 300

	// SearchGateKey is the HostGate key shared by every search call.
	SearchGateKey = "search"
)

type category struct {
	key      domain.Category
	query    string
	keywords []Matcher
}

// NewsExtractor produces prospect candidates from category searches and
// from the target's news page. Either source may be absent.
type NewsExtractor struct {
	Searcher  search.Searcher // nil disables category search
	Fetcher   fetch.Fetcher   // nil disables the news-page scan
	Gate      *util.HostGate
	Freshness string
	Backoff   time.Duration // wait before the single retry of a rate-limited search
	Filter    SegmentFilter
	Log       *zap.Logger

	cats []category
}

func NewNewsExtractor(cats []config.Category, s search.Searcher, f fetch.Fetcher, gate *util.HostGate, log *zap.Logger) *NewsExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	x := &NewsExtractor{
		Searcher:  s,
		Fetcher:   f,
		Gate:      gate,
		Freshness: "pw",
		Filter:    NewSegmentFilter(0, nil),
		Log:       log,
	}
	for _, c := range cats {
		x.cats = append(x.cats, category{
			key:      domain.Category(c.Key),
			query:    c.Query,
			keywords: compileAll(c.Keywords),
		})
	}
	return x
}

// NewsResult reports candidates plus the per-source outcome.
type NewsResult struct {
	Candidates []domain.CandidateSignal
	Attempted  int     // sources that were configured and tried
	Errors     []error // one per failed source
}

// HasSource reports whether t has at least one usable prospect source.
func (x *NewsExtractor) HasSource(t domain.Target) bool {
	return x.searchEnabled() || (x.Fetcher != nil && strings.TrimSpace(t.NewsURL) != "")
}

func (x *NewsExtractor) searchEnabled() bool {
	return x.Searcher != nil && len(x.cats) > 0
}

// Extract runs category search then the news-page scan. It returns an error
// only when every attempted source failed; a context error is always returned.
func (x *NewsExtractor) Extract(ctx context.Context, t domain.Target, only []string) (NewsResult, error) {
	var res NewsResult

	if x.searchEnabled() {
		cands, err := x.searchCategories(ctx, t, only)
		switch {
		case errors.Is(err, domain.ErrSourceUnavailable):
			x.Log.Debug("search unavailable", zap.String("target", t.Key()))
		case err != nil:
			res.Attempted++
			res.Errors = append(res.Errors, err)
		default:
			res.Attempted++
		}
		res.Candidates = append(res.Candidates, cands...)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if x.Fetcher != nil && strings.TrimSpace(t.NewsURL) != "" && len(x.selected(only)) > 0 {
		res.Attempted++
		cands, err := x.ScanNewsPage(ctx, t.NewsURL, only)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Errors = append(res.Errors, err)
		}
		res.Candidates = append(res.Candidates, cands...)
	}

	if res.Attempted > 0 && len(res.Errors) == res.Attempted {
		return res, fmt.Errorf("all prospect sources failed: %w", errors.Join(res.Errors...))
	}
	return res, nil
}

func (x *NewsExtractor) selected(only []string) []category {
	if len(only) == 0 {
		return x.cats
	}
	want := make(map[string]bool, len(only))
	for _, k := range only {
		want[k] = true
	}
	var out []category
	for _, c := range x.cats {
		if want[string(c.key)] {
			out = append(out, c)
		}
	}
	return out
}

// searchCategories issues one query per category. A failing query is logged
// and skipped; the error is returned only when no query succeeded.
func (x *NewsExtractor) searchCategories(ctx context.Context, t domain.Target, only []string) ([]domain.CandidateSignal, error) {
	var (
		out      []domain.CandidateSignal
		ok       int
		firstErr error
	)
	for _, c := range x.selected(only) {
		if strings.TrimSpace(c.query) == "" {
			continue
		}
		query := strings.ReplaceAll(c.query, "{company}", t.Name)

		results, err := x.search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if errors.Is(err, domain.ErrSourceUnavailable) {
				return nil, err
			}
			x.Log.Warn("search failed",
				zap.String("target", t.Key()),
				zap.String("category", string(c.key)),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ok++

		for _, r := range results {
			if util.OnDomain(r.URL, t.Domain) {
				continue
			}
			headline := util.Truncate(r.Headline, maxHeadlineRunes)
			if headline == "" && r.Snippet == "" {
				continue
			}
			out = append(out, domain.CandidateSignal{
				Class:     domain.ClassProspect,
				Category:  c.key,
				Headline:  headline,
				Snippet:   util.Truncate(r.Snippet, maxNewsSnippet),
				SourceURL: util.CanonicalizeURL(r.URL),
			})
		}
	}
	if ok == 0 && firstErr != nil {
		return out, firstErr
	}
	return out, nil
}

func (x *NewsExtractor) search(ctx context.Context, query string) ([]search.Result, error) {
	results, err := x.searchOnce(ctx, query)
	if err == nil || !errors.Is(err, domain.ErrRateLimited) {
		return results, err
	}

	x.Log.Info("search rate limited, retrying once", zap.Duration("backoff", x.Backoff))
	timer := time.NewTimer(x.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return x.searchOnce(ctx, query)
}

func (x *NewsExtractor) searchOnce(ctx context.Context, query string) ([]search.Result, error) {
	if x.Gate == nil {
		return x.Searcher.Search(ctx, query, x.Freshness)
	}
	var results []search.Result
	err := x.Gate.Do(ctx, SearchGateKey, func(ctx context.Context) error {
		var serr error
		results, serr = x.Searcher.Search(ctx, query, x.Freshness)
		return serr
	})
	return results, err
}

// ScanNewsPage fetches url and matches each surviving line against the
// keyword tables of the selected categories (all when only is empty). The
// first matching category wins for a line.
func (x *NewsExtractor) ScanNewsPage(ctx context.Context, url string, only []string) ([]domain.CandidateSignal, error) {
	page, err := x.Fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, err
	}
	return x.MatchLines(page.Lines(), url, only), nil
}

// MatchLines is the page-scan matcher without the fetch.
func (x *NewsExtractor) MatchLines(lines []string, sourceURL string, only []string) []domain.CandidateSignal {
	cats := x.selected(only)
	var out []domain.CandidateSignal
	seen := make(map[string]bool)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if _, rejected := x.Filter.Reject(line); rejected {
			continue
		}
		for _, c := range cats {
			if !anyMatch(c.keywords, line) {
				continue
			}
			headline := util.Truncate(line, maxHeadlineRunes)
			if !seen[headline] {
				seen[headline] = true
				out = append(out, domain.CandidateSignal{
					Class:     domain.ClassProspect,
					Category:  c.key,
					Headline:  headline,
					Snippet:   util.Truncate(line, maxNewsSnippet),
					SourceURL: sourceURL,
				})
			}
			break
		}
	}
	return out
}

package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/search"
)

type fakeSearcher struct {
	queries []string
	results map[string][]search.Result
	err     error
	errOnce error
}

func (f *fakeSearcher) Search(_ context.Context, query, _ string) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	if f.errOnce != nil {
		err := f.errOnce
		f.errOnce = nil
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type fakeFetcher struct {
	page fetch.Page
	err  error
}

func (f fakeFetcher) FetchText(_ context.Context, url string) (fetch.Page, error) {
	p := f.page
	p.URL = url
	return p, f.err
}

var testCats = []config.Category{
	{Key: "new_model", Query: `"{company}" launch`, Keywords: []string{"unveils", "new model"}},
	{Key: "service_challenge", Query: `"{company}" recall`, Keywords: []string{"recall"}},
}

var acme = domain.Target{ID: "c_001", Name: "Acme", Domain: "acme.com", NewsURL: "https://acme.com/news"}

func TestSegmentFilter(t *testing.T) {
	f := NewSegmentFilter(0, nil)
	cases := map[string]string{
		"Too short line":                                     "short",
		"Electrification,Sustainability,Podcast,Innovation":   "tag_list",
		"WLTP combined energy consumption: 16.9 kWh/100 km":   "disclaimer",
		"Combined CO2 emissions of 0 g/km for the new model":  "disclaimer",
		"We use cookie settings to improve your experience":   "chrome",
		"All Rights Reserved by the Acme Motor Company 2026.": "chrome",
	}
	for line, why := range cases {
		got, rejected := f.Reject(line)
		assert.True(t, rejected, line)
		assert.Equal(t, why, got, line)
	}

	_, rejected := f.Reject("Acme unveils the all-new electric pickup, shipping in spring")
	assert.False(t, rejected)
	assert.False(t, RejectSegment("Acme unveils the all-new electric pickup, shipping in spring"))
}

func TestMatchLinesFirstCategoryWinsAndDedups(t *testing.T) {
	x := NewNewsExtractor(testCats, nil, nil, nil, nil)
	lines := []string{
		"Acme unveils a new model after last year's recall",
		"Short",
		"Acme announces a recall of 2024 pickup trucks",
		"Acme announces a recall of 2024 pickup trucks",
		"Quarterly earnings call scheduled for next week",
	}
	got := x.MatchLines(lines, "https://acme.com/news", nil)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Category("new_model"), got[0].Category)
	assert.Equal(t, domain.Category("service_challenge"), got[1].Category)
	assert.Equal(t, "https://acme.com/news", got[1].SourceURL)
	assert.Equal(t, domain.ClassProspect, got[1].Class)
}

func TestNewsPageHonorsCategoryRestriction(t *testing.T) {
	page := fetch.Page{Text: "Acme unveils the all-new electric pickup, shipping in spring\nAcme announces a recall of 2024 pickup trucks"}
	x := NewNewsExtractor(testCats, nil, fakeFetcher{page: page}, nil, nil)

	res, err := x.Extract(context.Background(), acme, []string{"service_challenge"})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, domain.Category("service_challenge"), res.Candidates[0].Category)

	res, err = x.Extract(context.Background(), acme, []string{"regulatory"})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 0, res.Attempted, "no selected category, page not fetched")
}

func TestExtractSearchSkipsOwnDomain(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		`"Acme" launch`: {
			{Headline: "Acme press release", Snippet: "ours", URL: "https://www.acme.com/press/1"},
			{Headline: "Acme reveals truck", Snippet: "third party", URL: "https://autonews.example/acme"},
		},
		`"Acme" recall`: {
			{Headline: "Acme recall", Snippet: "nhtsa", URL: "https://nhtsa.example/r"},
		},
	}}
	x := NewNewsExtractor(testCats, s, nil, nil, nil)

	res, err := x.Extract(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`"Acme" launch`, `"Acme" recall`}, s.queries)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "Acme reveals truck", res.Candidates[0].Headline)
	assert.Equal(t, domain.Category("service_challenge"), res.Candidates[1].Category)
	assert.Equal(t, 1, res.Attempted)
}

func TestExtractRestrictedCategories(t *testing.T) {
	s := &fakeSearcher{}
	x := NewNewsExtractor(testCats, s, nil, nil, nil)
	_, err := x.Extract(context.Background(), acme, []string{"service_challenge"})
	require.NoError(t, err)
	assert.Equal(t, []string{`"Acme" recall`}, s.queries)
}

func TestExtractNoSourcesIsNotAnError(t *testing.T) {
	x := NewNewsExtractor(testCats, nil, nil, nil, nil)
	res, err := x.Extract(context.Background(), domain.Target{Name: "Acme"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Zero(t, res.Attempted)
	assert.False(t, x.HasSource(domain.Target{Name: "Acme"}))
}

func TestExtractUnavailableSearchFallsBackToPage(t *testing.T) {
	s := &fakeSearcher{err: search.ErrUnavailable}
	f := fakeFetcher{page: fetch.Page{Text: "Acme announces a recall of 2024 pickup trucks"}}
	x := NewNewsExtractor(testCats, s, f, nil, nil)

	res, err := x.Extract(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempted)
	require.Len(t, res.Candidates, 1)
	assert.Len(t, s.queries, 1, "unavailable search stops after the first query")
}

func TestExtractPartialFailureKeepsOtherSource(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		`"Acme" recall`: {{Headline: "Acme recall", URL: "https://n.example/1"}},
	}}
	f := fakeFetcher{err: errors.New("boom")}
	x := NewNewsExtractor(testCats, s, f, nil, nil)

	res, err := x.Extract(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Len(t, res.Errors, 1)
	assert.Len(t, res.Candidates, 1)
}

func TestExtractAllSourcesFailed(t *testing.T) {
	s := &fakeSearcher{err: domain.ErrFetchFailure}
	f := fakeFetcher{err: domain.ErrFetchFailure}
	x := NewNewsExtractor(testCats, s, f, nil, nil)

	_, err := x.Extract(context.Background(), acme, nil)
	assert.ErrorIs(t, err, domain.ErrFetchFailure)
}

func TestSearchRetriesOnceWhenRateLimited(t *testing.T) {
	s := &fakeSearcher{
		errOnce: domain.ErrRateLimited,
		results: map[string][]search.Result{`"Acme" launch`: {{Headline: "Acme launches", URL: "https://n.example/2"}}},
	}
	x := NewNewsExtractor(testCats[:1], s, nil, nil, nil)
	x.Backoff = time.Millisecond

	res, err := x.Extract(context.Background(), acme, nil)
	require.NoError(t, err)
	assert.Len(t, s.queries, 2)
	assert.Len(t, res.Candidates, 1)
}

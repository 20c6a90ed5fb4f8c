package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/scrape/util"
)

const DefaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

type BraveClient struct {
	Endpoint   string
	APIKey     string
	MaxResults int

	hc *http.Client
}

func NewBrave(endpoint, apiKey string, maxResults int, timeout time.Duration) *BraveClient {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultBraveEndpoint
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &BraveClient{
		Endpoint:   endpoint,
		APIKey:     strings.TrimSpace(apiKey),
		MaxResults: maxResults,
		hc:         &http.Client{Timeout: timeout},
	}
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func (c *BraveClient) Search(ctx context.Context, query, freshness string) ([]Result, error) {
	if c == nil || c.APIKey == "" {
		return nil, ErrUnavailable
	}

	q := url.Values{}
	q.Set("q", query)
	if freshness != "" {
		q.Set("freshness", freshness)
	}
	q.Set("count", strconv.Itoa(c.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.APIKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave get: %w: %w", domain.ErrFetchFailure, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("brave status %d: %w", res.StatusCode, domain.ErrRateLimited)
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("brave status %d: %w", res.StatusCode, ErrUnavailable)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("brave status %d: %w", res.StatusCode, domain.ErrFetchFailure)
	}

	var body braveResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 2<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("brave decode: %w: %w", domain.ErrFetchFailure, err)
	}

	out := make([]Result, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, Result{
			Headline: stripMarkup(r.Title),
			Snippet:  stripMarkup(r.Description),
			URL:      strings.TrimSpace(r.URL),
		})
	}
	return out, nil
}

// stripMarkup removes the <strong> highlighting Brave puts in titles and descriptions.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return util.CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return util.CleanText(s)
	}
	return util.CleanText(doc.Text())
}

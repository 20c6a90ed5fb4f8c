// Package greenhouse lists open jobs from a Greenhouse-hosted job board.
package greenhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/scrape/util"
)

const DefaultAPI = "https://boards-api.greenhouse.io/v1/boards"

type Job struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type jobsResponse struct {
	Jobs []Job `json:"jobs"`
}

type Client struct {
	API  string
	HTTP fetch.JSONGetter
}

func New(getter fetch.JSONGetter) *Client {
	return &Client{API: DefaultAPI, HTTP: getter}
}

func (c *Client) Jobs(ctx context.Context, slug string) ([]Job, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("greenhouse: empty slug")
	}
	apiURL := fmt.Sprintf("%s/%s/jobs", strings.TrimRight(c.API, "/"), url.PathEscape(slug))

	var res jobsResponse
	if err := c.HTTP.GetJSON(ctx, apiURL, &res); err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", slug, err)
	}

	out := res.Jobs[:0]
	for _, j := range res.Jobs {
		j.Title = util.CleanText(j.Title)
		if j.Title == "" {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

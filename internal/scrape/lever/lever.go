// Package lever lists open postings from a Lever-hosted job board.
package lever

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"signalsdr-engine/internal/fetch"
)

const DefaultAPI = "https://api.lever.co/v0/postings"

type Posting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
}

type Client struct {
	API  string
	HTTP fetch.JSONGetter
}

func New(getter fetch.JSONGetter) *Client {
	return &Client{API: DefaultAPI, HTTP: getter}
}

// Postings returns the board's published postings. Entries without a title
// are dropped.
func (c *Client) Postings(ctx context.Context, slug string) ([]Posting, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("lever: empty slug")
	}
	apiURL := fmt.Sprintf("%s/%s?mode=json", strings.TrimRight(c.API, "/"), url.PathEscape(slug))

	var postings []Posting
	if err := c.HTTP.GetJSON(ctx, apiURL, &postings); err != nil {
		return nil, fmt.Errorf("lever %s: %w", slug, err)
	}

	out := postings[:0]
	for _, p := range postings {
		p.Text = strings.TrimSpace(p.Text)
		if p.ID == "" || p.Text == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

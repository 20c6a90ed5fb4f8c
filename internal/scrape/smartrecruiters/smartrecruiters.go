// Package smartrecruiters lists open postings from the SmartRecruiters
// public postings API.
package smartrecruiters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"signalsdr-engine/internal/fetch"
)

const (
	DefaultAPI = "https://api.smartrecruiters.com/v1/companies"

	pageSize  = 100
	maxOffset = 5000
)

// Response schema (public API) is typically:
// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []Posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type Posting struct {
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
}

type Client struct {
	API  string
	HTTP fetch.JSONGetter
}

func New(getter fetch.JSONGetter) *Client {
	return &Client{API: DefaultAPI, HTTP: getter}
}

// Postings pages through the company's postings.
func (c *Client) Postings(ctx context.Context, slug string) ([]Posting, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("smartrecruiters: empty slug")
	}
	base := fmt.Sprintf("%s/%s/postings", strings.TrimRight(c.API, "/"), url.PathEscape(slug))

	var out []Posting
	for offset := 0; offset <= maxOffset; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var pr postingsResponse
		u := fmt.Sprintf("%s?limit=%d&offset=%d", base, pageSize, offset)
		if err := c.HTTP.GetJSON(ctx, u, &pr); err != nil {
			return nil, fmt.Errorf("smartrecruiters %s: %w", slug, err)
		}
		if len(pr.Content) == 0 {
			break
		}
		for _, p := range pr.Content {
			if p.Name = strings.TrimSpace(p.Name); p.Name != "" {
				out = append(out, p)
			}
		}
		if pr.TotalFound > 0 && offset+pageSize >= pr.TotalFound {
			break
		}
	}
	return out, nil
}

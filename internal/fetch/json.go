package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// JSONGetter is the part of Client the job-board APIs use.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, dst any) error
}

// GetJSON performs a single GET of rawURL and decodes the body into dst.
// Failures are *Error, classified like FetchText's.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dst any) error {
	rawURL = strings.TrimSpace(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Kind: KindUnreachable, URL: rawURL, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &Error{Kind: classifyTransport(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if fe := c.statusError(rawURL, resp); fe != nil {
		return fe
	}

	limit := c.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, limit)).Decode(dst); err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: classifyTransport(ctx.Err()), URL: rawURL, Err: ctx.Err()}
		}
		return &Error{Kind: KindDecode, URL: rawURL, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// Package fetch retrieves one web page and reduces it to visible text lines.
package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"signalsdr-engine/internal/scrape/util"
)

const DefaultMaxBody = 5 << 20

// chrome removed before text extraction
const stripSelector = "script, style, nav, footer, header, noscript, iframe"

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
	"title": true, "option": true, "button": true,
}

type Page struct {
	URL   string
	Title string
	Text  string // visible text, one non-empty line per block
}

// Lines splits Text into its lines.
func (p Page) Lines() []string {
	if p.Text == "" {
		return nil
	}
	return strings.Split(p.Text, "\n")
}

type Client struct {
	HTTP      *http.Client
	UserAgent string
	MaxBody   int64
	Log       *zap.Logger

	now func() time.Time
}

func New(timeout time.Duration, userAgent string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		MaxBody:   DefaultMaxBody,
		Log:       log,
		now:       time.Now,
	}
}

// FetchText performs a single GET of rawURL. It does not retry; every failure
// is an *Error.
func (c *Client) FetchText(ctx context.Context, rawURL string) (Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, &Error{Kind: KindUnreachable, URL: rawURL, Err: err}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Page{}, &Error{Kind: classifyTransport(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if fe := c.statusError(rawURL, resp); fe != nil {
		return Page{}, fe
	}

	limit := c.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Page{}, &Error{Kind: classifyTransport(err), URL: rawURL, Err: err}
	}

	page := Page{
		URL:   rawURL,
		Title: util.CleanText(doc.Find("title").First().Text()),
	}
	doc.Find(stripSelector).Remove()
	doc.Find("head").Remove()

	page.Text = strings.Join(visibleLines(doc.Selection), "\n")
	if page.Text == "" {
		return Page{}, &Error{Kind: KindEmptyBody, URL: rawURL, Status: resp.StatusCode}
	}

	c.Log.Debug("fetched page",
		zap.String("url", rawURL),
		zap.String("title", page.Title),
		zap.Int("chars", len(page.Text)),
	)
	return page, nil
}

func (c *Client) statusError(rawURL string, resp *http.Response) *Error {
	code := resp.StatusCode
	if code >= 200 && code <= 299 {
		return nil
	}
	fe := &Error{Kind: KindHTTPError, URL: rawURL, Status: code}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	wait, hasWait := parseRetryAfter(resp.Header.Get("Retry-After"), now())
	switch {
	case code == http.StatusTooManyRequests:
		fe.Kind = KindRateLimited
		fe.RetryAfter = wait
	case code == http.StatusServiceUnavailable && hasWait:
		fe.Kind = KindRateLimited
		fe.RetryAfter = wait
	}
	return fe
}

func classifyTransport(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindUnreachable
}

// visibleLines walks the DOM and emits one cleaned line per block element.
func visibleLines(root *goquery.Selection) []string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}

	var out []string
	for _, ln := range strings.Split(b.String(), "\n") {
		if ln = util.CleanText(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

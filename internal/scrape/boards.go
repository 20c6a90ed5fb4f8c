// Package scrape turns hosted job boards into careers-page text. Boards
// render their listings client-side, so their public JSON APIs are read
// instead of the HTML.
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"signalsdr-engine/internal/fetch"
	"signalsdr-engine/internal/scrape/greenhouse"
	"signalsdr-engine/internal/scrape/lever"
	"signalsdr-engine/internal/scrape/smartrecruiters"
	"signalsdr-engine/internal/scrape/util"
)

type Board string

const (
	BoardLever           Board = "lever"
	BoardGreenhouse      Board = "greenhouse"
	BoardSmartRecruiters Board = "smartrecruiters"
)

// DetectBoard recognizes a hosted board from a careers URL and returns the
// company slug.
func DetectBoard(raw string) (Board, string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	first := strings.Split(strings.Trim(u.Path, "/"), "/")[0]

	switch host {
	case "jobs.lever.co", "jobs.eu.lever.co":
		if first != "" {
			return BoardLever, first, true
		}
	case "boards.greenhouse.io", "job-boards.greenhouse.io", "job-boards.eu.greenhouse.io":
		// embedded boards: /embed/job_board?for=<slug>
		if first == "embed" {
			if slug := u.Query().Get("for"); slug != "" {
				return BoardGreenhouse, slug, true
			}
			return "", "", false
		}
		if first != "" {
			return BoardGreenhouse, first, true
		}
	case "jobs.smartrecruiters.com", "careers.smartrecruiters.com":
		if first != "" {
			return BoardSmartRecruiters, first, true
		}
	}
	return "", "", false
}

// Boards is a fetch.Fetcher that answers board URLs with one job title per
// line and passes everything else to Inner.
type Boards struct {
	Inner           fetch.Fetcher
	Lever           *lever.Client
	Greenhouse      *greenhouse.Client
	SmartRecruiters *smartrecruiters.Client
	Log             *zap.Logger
}

func NewBoards(inner fetch.Fetcher, getter fetch.JSONGetter, log *zap.Logger) *Boards {
	if log == nil {
		log = zap.NewNop()
	}
	return &Boards{
		Inner:           inner,
		Lever:           lever.New(getter),
		Greenhouse:      greenhouse.New(getter),
		SmartRecruiters: smartrecruiters.New(getter),
		Log:             log,
	}
}

func (b *Boards) FetchText(ctx context.Context, rawURL string) (fetch.Page, error) {
	board, slug, ok := DetectBoard(rawURL)
	if !ok {
		return b.Inner.FetchText(ctx, rawURL)
	}

	titles, err := b.titles(ctx, board, slug)
	if err != nil {
		return fetch.Page{}, err
	}
	b.Log.Debug("fetched job board",
		zap.String("url", rawURL),
		zap.String("board", string(board)),
		zap.Int("postings", len(titles)),
	)
	// an empty board is a valid page with no openings
	return fetch.Page{
		URL:   rawURL,
		Title: fmt.Sprintf("%s jobs (%s)", slug, board),
		Text:  strings.Join(titles, "\n"),
	}, nil
}

func (b *Boards) titles(ctx context.Context, board Board, slug string) ([]string, error) {
	var titles []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = util.CleanText(t)
		if t != "" && !seen[t] {
			seen[t] = true
			titles = append(titles, t)
		}
	}

	switch board {
	case BoardLever:
		ps, err := b.Lever.Postings(ctx, slug)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			add(p.Text)
		}
	case BoardGreenhouse:
		js, err := b.Greenhouse.Jobs(ctx, slug)
		if err != nil {
			return nil, err
		}
		for _, j := range js {
			add(j.Title)
		}
	case BoardSmartRecruiters:
		ps, err := b.SmartRecruiters.Postings(ctx, slug)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			add(p.Name)
		}
	}
	return titles, nil
}

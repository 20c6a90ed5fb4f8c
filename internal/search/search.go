// Package search is the web-search collaborator used for prospect signals.
package search

import (
	"context"
	"fmt"

	"signalsdr-engine/internal/domain"
)

// ErrUnavailable is returned when search has no credentials or is disabled.
var ErrUnavailable = fmt.Errorf("search: %w", domain.ErrSourceUnavailable)

type Result struct {
	Headline string
	Snippet  string
	URL      string
}

type Searcher interface {
	// Search runs one query. freshness is a provider window such as "pd", "pw" or "pm".
	Search(ctx context.Context, query, freshness string) ([]Result, error)
}

// Package aggregate deduplicates candidate signals and caps them with
// category-diverse priority.
package aggregate

import (
	"signalsdr-engine/internal/domain"
	"signalsdr-engine/internal/extract"
	"signalsdr-engine/internal/scrape/util"
)

const DefaultCap = 5

// Similarity reports whether two normalized texts in the same category
// describe the same event. Nil means exact normalized match only.
type Similarity func(a, b string) bool

type Capper struct {
	Cap   int
	Order []string // category-definition order
	Same  Similarity
}

func NewCapper(limit int, order []string) *Capper {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &Capper{Cap: limit, Order: order}
}

// Confirm is Dedup followed by Cap.
func (c *Capper) Confirm(cands []domain.CandidateSignal) []domain.ConfirmedSignal {
	return Cap(c.Dedup(cands), c.Order, c.Cap)
}

func dedupText(s domain.CandidateSignal) string {
	if s.Headline != "" {
		return util.NormalizeKey(s.Headline)
	}
	return util.NormalizeKey(s.Snippet)
}

// Dedup drops repeats of (category, normalized headline or snippet); the
// first occurrence wins.
func (c *Capper) Dedup(cands []domain.CandidateSignal) []domain.CandidateSignal {
	type key struct {
		cat  domain.Category
		text string
	}
	seen := make(map[key]bool, len(cands))
	kept := make(map[domain.Category][]string)
	out := make([]domain.CandidateSignal, 0, len(cands))

	for _, s := range cands {
		text := dedupText(s)
		k := key{s.Category, text}
		if seen[k] {
			continue
		}
		if c.Same != nil && c.similarTo(kept[s.Category], text) {
			continue
		}
		seen[k] = true
		kept[s.Category] = append(kept[s.Category], text)
		out = append(out, s)
	}
	return out
}

func (c *Capper) similarTo(prev []string, text string) bool {
	for _, p := range prev {
		if c.Same(p, text) {
			return true
		}
	}
	return false
}

// Cap selects at most limit candidates. Over the cap, the first candidate of
// every category is taken in category order, then leftovers fill the
// remaining slots in the same category order. Categories missing from order
// follow in first-appearance order.
func Cap(cands []domain.CandidateSignal, order []string, limit int) []domain.ConfirmedSignal {
	if limit <= 0 {
		limit = DefaultCap
	}
	if len(cands) <= limit {
		return rank(cands)
	}

	buckets := make(map[domain.Category][]domain.CandidateSignal)
	var cats []domain.Category
	known := make(map[domain.Category]bool)
	for _, k := range order {
		cat := domain.Category(k)
		if !known[cat] {
			known[cat] = true
			cats = append(cats, cat)
		}
	}
	for _, s := range cands {
		if !known[s.Category] {
			known[s.Category] = true
			cats = append(cats, s.Category)
		}
		buckets[s.Category] = append(buckets[s.Category], s)
	}

	picked := make([]domain.CandidateSignal, 0, limit)
	for _, cat := range cats {
		if len(picked) == limit {
			break
		}
		if b := buckets[cat]; len(b) > 0 {
			picked = append(picked, b[0])
			buckets[cat] = b[1:]
		}
	}
	for _, cat := range cats {
		for _, s := range buckets[cat] {
			if len(picked) == limit {
				return rank(picked)
			}
			picked = append(picked, s)
		}
	}
	return rank(picked)
}

// ConfirmHiring ranks hiring candidates after collapsing them to one per
// keyword. Hiring signals are never capped.
func ConfirmHiring(cands []domain.CandidateSignal) []domain.ConfirmedSignal {
	return rank(extract.CollapseByKeyword(cands))
}

func rank(cands []domain.CandidateSignal) []domain.ConfirmedSignal {
	out := make([]domain.ConfirmedSignal, len(cands))
	for i, s := range cands {
		out[i] = domain.ConfirmedSignal{CandidateSignal: s, Rank: i + 1}
	}
	return out
}

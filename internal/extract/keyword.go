// Package extract turns page text and search results into candidate signals.
package extract

import (
	"strings"
	"unicode/utf8"

	"signalsdr-engine/internal/domain"
)

const (
	DefaultSnippetRadius = 100
	MaxSnippetRunes      = 200
)

// KeywordExtractor finds hiring triggers in page text. Build it once and
// reuse it; it is safe for concurrent use.
type KeywordExtractor struct {
	triggers []Matcher
	exclude  []Matcher
	radius   int
}

func NewKeywordExtractor(triggers, exclude []string, snippetRadius int) *KeywordExtractor {
	if snippetRadius <= 0 {
		snippetRadius = DefaultSnippetRadius
	}
	return &KeywordExtractor{
		triggers: compileAll(triggers),
		exclude:  compileAll(exclude),
		radius:   snippetRadius,
	}
}

// Extract scans text line by line. A line containing an exclusion term is
// skipped on its own; other lines still match.
func (x *KeywordExtractor) Extract(text string) []domain.CandidateSignal {
	var out []domain.CandidateSignal
	seen := make(map[[2]string]bool)

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if anyMatch(x.exclude, line) {
			continue
		}
		for _, m := range x.triggers {
			for _, loc := range m.FindAll(line) {
				snip := snippet(line, loc[0], loc[1], x.radius)
				key := [2]string{m.Term, snip}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, domain.CandidateSignal{
					Class:       domain.ClassHiring,
					Keyword:     m.Term,
					MatchedText: snip,
					Snippet:     snip,
					Line:        i + 1,
				})
			}
		}
	}
	return out
}

// snippet cuts a window of radius runes either side of [start, end),
// capped at MaxSnippetRunes.
func snippet(line string, start, end, radius int) string {
	runes := []rune(line)
	rs := utf8.RuneCountInString(line[:start])
	re := rs + utf8.RuneCountInString(line[start:end])

	lo := rs - radius
	if lo < 0 {
		lo = 0
	}
	hi := re + radius
	if hi > len(runes) {
		hi = len(runes)
	}
	if hi-lo > MaxSnippetRunes {
		hi = lo + MaxSnippetRunes
		if hi < re {
			// keep the match itself in view
			hi = re
			lo = hi - MaxSnippetRunes
			if lo < 0 {
				lo = 0
			}
		}
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}

// CollapseByKeyword keeps the first candidate per keyword, preserving order.
func CollapseByKeyword(cands []domain.CandidateSignal) []domain.CandidateSignal {
	seen := make(map[string]bool, len(cands))
	out := make([]domain.CandidateSignal, 0, len(cands))
	for _, c := range cands {
		k := strings.ToLower(c.Keyword)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

package extract

import (
	"regexp"
	"strings"
)

// Matcher finds whole-word, case-insensitive occurrences of one term.
// A term never matches inside a longer letter/digit token.
type Matcher struct {
	Term string
	re   *regexp.Regexp
}

func NewMatcher(term string) Matcher {
	term = strings.TrimSpace(term)
	// whitespace inside a phrase matches any run of whitespace
	parts := strings.Fields(term)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := `(?i)(?:^|[^\pL\pN_])(` + strings.Join(parts, `\s+`) + `)(?:$|[^\pL\pN_])`
	return Matcher{Term: term, re: regexp.MustCompile(expr)}
}

func compileAll(terms []string) []Matcher {
	out := make([]Matcher, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		out = append(out, NewMatcher(t))
	}
	return out
}

// Find returns the byte offsets [start, end) of the first occurrence.
func (m Matcher) Find(s string) (int, int, bool) {
	loc := m.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return 0, 0, false
	}
	return loc[2], loc[3], true
}

// FindAll returns the byte offsets of every non-overlapping occurrence.
func (m Matcher) FindAll(s string) [][2]int {
	var out [][2]int
	for _, loc := range m.re.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, [2]int{loc[2], loc[3]})
	}
	return out
}

func (m Matcher) MatchString(s string) bool {
	return m.re.MatchString(s)
}

func anyMatch(ms []Matcher, s string) bool {
	for _, m := range ms {
		if m.MatchString(s) {
			return true
		}
	}
	return false
}

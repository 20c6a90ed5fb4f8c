package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const DefaultMinSegmentLength = 25

// consumption and emissions figures from vehicle-page legal footers
var disclaimerRe = regexp.MustCompile(`(?i)kWh/100\s?km|g/km|CO₂|\bCO2\b|\bWLTP\b|\bNEDC\b|\bmpg-?e\b`)

var DefaultChromePhrases = []string{
	"browse below", "download the right", "cookie", "privacy policy",
	"terms of use", "all rights reserved", "subscribe to",
}

// SegmentFilter rejects lines that are markup-stripping artifacts rather
// than editorial content.
type SegmentFilter struct {
	MinLength     int
	ChromePhrases []string
}

func NewSegmentFilter(minLength int, chrome []string) SegmentFilter {
	if minLength <= 0 {
		minLength = DefaultMinSegmentLength
	}
	if chrome == nil {
		chrome = DefaultChromePhrases
	}
	lower := make([]string, 0, len(chrome))
	for _, p := range chrome {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lower = append(lower, p)
		}
	}
	return SegmentFilter{MinLength: minLength, ChromePhrases: lower}
}

// Reject reports whether line should be ignored, and why.
func (f SegmentFilter) Reject(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) < f.MinLength {
		return "short", true
	}
	if isTagList(line) {
		return "tag_list", true
	}
	if disclaimerRe.MatchString(line) {
		return "disclaimer", true
	}
	lower := strings.ToLower(line)
	for _, p := range f.ChromePhrases {
		if strings.Contains(lower, p) {
			return "chrome", true
		}
	}
	return "", false
}

// RejectSegment applies the default filter.
func RejectSegment(line string) bool {
	_, rejected := NewSegmentFilter(0, nil).Reject(line)
	return rejected
}

// isTagList matches "Electrification,Sustainability,Podcast"-style label runs.
func isTagList(line string) bool {
	if !strings.Contains(line, ",") {
		return false
	}
	segs := strings.Split(line, ",")
	if len(segs) < 2 {
		return false
	}
	for _, s := range segs {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > 30 {
			return false
		}
	}
	return true
}
